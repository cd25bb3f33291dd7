package generator

import (
	"context"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// MediaGenerator はプレゼンテーション層が利用する統合窓口です。
type MediaGenerator interface {
	EditImage(ctx context.Context, asset domain.MediaAsset, instruction string) (*domain.MediaResult, error)
	CompositeImages(ctx context.Context, base, overlay domain.MediaAsset, instruction string) (*domain.MediaResult, error)
	GenerateImage(ctx context.Context, prompt string) (*domain.MediaResult, error)
	GenerateVideo(ctx context.Context, asset domain.MediaAsset, prompt string, reporter Reporter) (*domain.VideoResult, error)
}

// ContentGenerator はパーツ列を送って generateContent を実行します。
// go-gemini-client の gemini.GenerativeModel もこのインターフェースを満たします。
type ContentGenerator interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// ImageGenerator はテキストのみから画像を生成する Imagen エンドポイントです。
type ImageGenerator interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// VideoOperator は動画生成ジョブの投入と状態確認を行います。
type VideoOperator interface {
	SubmitVideo(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (JobHandle, error)
	PollVideo(ctx context.Context, job JobHandle) (JobHandle, error)
}

// HTTPClient は、URLからデータを取得するためのインターフェースです。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Reporter は進捗イベントの受け取り口です。実装はブロックしてはいけません。
type Reporter interface {
	Report(event ProgressEvent)
}
