package generator

import (
	"log/slog"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/imgutil"
	"google.golang.org/genai"
)

// Encoder は MediaAsset を API が受け付けるインラインパーツに変換します。
type Encoder struct {
	Compress bool
	Quality  int
}

// Encode は画像アセットを genai.Part (InlineData) に変換します。
// base64 へのエンコードは SDK がリクエスト送信時に行います。
func (e Encoder) Encode(asset domain.MediaAsset) (*genai.Part, error) {
	if asset.IsEmpty() {
		return nil, invalidInput("image asset is empty")
	}

	mimeType := imgutil.ResolveMIMEType(asset.MIMEType, asset.Data)
	if !imgutil.IsSupportedImageType(mimeType) {
		return nil, invalidInput("unsupported media type %q", mimeType)
	}

	data := asset.Data
	if e.Compress {
		quality := e.Quality
		if quality == 0 {
			quality = DefaultCompressQuality
		}
		compressed, ok, err := imgutil.CompressToJPEG(data, quality)
		switch {
		case err != nil:
			slog.Warn("画像の圧縮に失敗したため元データを使用します", "mime_type", mimeType, "error", err)
		case ok:
			data, mimeType = compressed, "image/jpeg"
		}
	}

	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     data,
		},
	}, nil
}

// encodeImage は動画生成APIの入力形式 (genai.Image) に変換します。
func (e Encoder) encodeImage(asset domain.MediaAsset) (*genai.Image, error) {
	part, err := e.Encode(asset)
	if err != nil {
		return nil, err
	}
	return &genai.Image{
		ImageBytes: part.InlineData.Data,
		MIMEType:   part.InlineData.MIMEType,
	}, nil
}
