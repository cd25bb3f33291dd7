package generator

import (
	"context"
	"fmt"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenAIBackend は genai SDK を使って ContentGenerator / ImageGenerator / VideoOperator を実装します。
type GenAIBackend struct {
	client *genai.Client
}

var (
	_ ContentGenerator = (*GenAIBackend)(nil)
	_ ImageGenerator   = (*GenAIBackend)(nil)
	_ VideoOperator    = (*GenAIBackend)(nil)
)

// NewGenAIBackend は API キーから Gemini API 用のクライアントを作成します。
// キーが空の場合はリクエストを送る前に ErrConfiguration を返します。
func NewGenAIBackend(ctx context.Context, apiKey string) (*GenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrConfiguration)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: genaiクライアントの作成に失敗しました: %w", ErrConfiguration, err)
	}
	return &GenAIBackend{client: client}, nil
}

// GenerateWithParts は画像とテキストの両方のモダリティを要求して generateContent を実行します。
func (b *GenAIBackend) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		// 画像出力を受け取るには IMAGE と TEXT の両方が必要
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if opts.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}

	resp, err := b.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// GenerateImages は Imagen の generateImages を実行します。
func (b *GenAIBackend) GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	return b.client.Models.GenerateImages(ctx, model, prompt, config)
}

// SubmitVideo は動画生成オペレーションを開始します。
func (b *GenAIBackend) SubmitVideo(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (JobHandle, error) {
	op, err := b.client.Models.GenerateVideos(ctx, model, prompt, image, config)
	if err != nil {
		return JobHandle{}, err
	}
	return jobFromOperation(op)
}

// PollVideo はオペレーションの最新状態を取得し、新しいハンドルとして返します。
func (b *GenAIBackend) PollVideo(ctx context.Context, job JobHandle) (JobHandle, error) {
	op, ok := job.Ref().(*genai.GenerateVideosOperation)
	if !ok || op == nil {
		op = &genai.GenerateVideosOperation{Name: job.Name}
	}
	next, err := b.client.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return JobHandle{}, err
	}
	return jobFromOperation(next)
}

// jobFromOperation は genai のオペレーションを JobHandle に変換します。
func jobFromOperation(op *genai.GenerateVideosOperation) (JobHandle, error) {
	if op == nil {
		return JobHandle{}, fmt.Errorf("empty operation returned")
	}
	if !op.Done {
		return PendingJob(op.Name, op), nil
	}
	if op.Error != nil {
		return FailedJob(op.Name, operationErrorMessage(op.Error), op), nil
	}
	if op.Response != nil {
		for _, v := range op.Response.GeneratedVideos {
			if v != nil && v.Video != nil && v.Video.URI != "" {
				return SucceededJob(op.Name, v.Video.URI, op), nil
			}
		}
	}
	return FailedJob(op.Name, "", op), nil
}

func operationErrorMessage(e any) string {
	if m, ok := e.(map[string]any); ok {
		if msg, ok := m["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("%v", e)
}
