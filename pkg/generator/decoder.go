package generator

import (
	"strings"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// ResponsePart はレスポンスのパーツを種類ごとに表す値です。TextPart か MediaPart のどちらかです。
type ResponsePart interface {
	responsePart()
}

// TextPart はテキストのみのパーツです。
type TextPart struct {
	Text string
}

// MediaPart はバイナリメディアのパーツです。
type MediaPart struct {
	Data     []byte
	MimeType string
}

func (TextPart) responsePart()  {}
func (MediaPart) responsePart() {}

// ResponseParts は最初の候補 (Candidate) のパーツを ResponsePart に変換します。
// テキストにもメディアにも該当しないパーツ（関数呼び出し等）は捨てます。
func ResponseParts(candidate *genai.Candidate) []ResponsePart {
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	out := make([]ResponsePart, 0, len(candidate.Content.Parts))
	for _, p := range candidate.Content.Parts {
		if p == nil {
			continue
		}
		switch {
		case p.InlineData != nil:
			out = append(out, MediaPart{Data: p.InlineData.Data, MimeType: p.InlineData.MIMEType})
		case p.Text != "":
			out = append(out, TextPart{Text: p.Text})
		}
	}
	return out
}

// DecodeContent は generateContent のレスポンスから最初の画像パーツを取り出します。
// 画像がない場合は ErrNoMediaProduced に該当する *NoMediaError を返します。
func DecodeContent(resp *gemini.Response) (*domain.MediaResult, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, &NoMediaError{}
	}

	// 最初の候補 (Candidate) のみを利用する
	candidate := resp.RawResponse.Candidates[0]

	var texts []string
	for _, part := range ResponseParts(candidate) {
		switch p := part.(type) {
		case MediaPart:
			if len(p.Data) > 0 {
				return &domain.MediaResult{Data: p.Data, MimeType: p.MimeType}, nil
			}
		case TextPart:
			texts = append(texts, p.Text)
		}
	}

	noMedia := &NoMediaError{Text: strings.Join(texts, "\n")}
	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		noMedia.FinishReason = string(candidate.FinishReason)
	}
	return nil, noMedia
}

// DecodeImages は Imagen のレスポンスから最初の生成画像を取り出します。
func DecodeImages(resp *genai.GenerateImagesResponse) (*domain.MediaResult, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, &NoMediaError{}
	}
	img := resp.GeneratedImages[0]
	if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
		return nil, &NoMediaError{}
	}
	mimeType := img.Image.MIMEType
	if mimeType == "" {
		mimeType = DefaultImageMIMEType
	}
	return &domain.MediaResult{Data: img.Image.ImageBytes, MimeType: mimeType}, nil
}
