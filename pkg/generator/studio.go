package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"
)

// Studio は画像編集・合成・テキストからの画像生成・動画生成をまとめた生成クライアントです。
// 構築後は状態を持たないため、複数の呼び出しから同時に利用できます。
type Studio struct {
	content ContentGenerator
	images  ImageGenerator
	videos  VideoOperator
	fetcher HTTPClient
	apiKey  string
	encoder Encoder
	opts    Options
	now     func() time.Time
}

var _ MediaGenerator = (*Studio)(nil)

// NewStudio は依存関係を注入して Studio を初期化します。
func NewStudio(content ContentGenerator, images ImageGenerator, videos VideoOperator, fetcher HTTPClient, encoder Encoder, opts Options) (*Studio, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: content generator is required", ErrConfiguration)
	}
	if images == nil {
		return nil, fmt.Errorf("%w: image generator is required", ErrConfiguration)
	}
	if videos == nil {
		return nil, fmt.Errorf("%w: video operator is required", ErrConfiguration)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher is required", ErrConfiguration)
	}

	return &Studio{
		content: content,
		images:  images,
		videos:  videos,
		fetcher: fetcher,
		encoder: encoder,
		opts:    opts.withDefaults(),
		now:     time.Now,
	}, nil
}

// NewGeminiStudio は genai バックエンドと httpkit による Fetcher を組み合わせた Studio を作成します。
// httpClient が nil の場合は NewDownloadClient の既定値を使います。
// 生成動画のロケーターは取得時に apiKey を key パラメータとして付与します。
func NewGeminiStudio(ctx context.Context, apiKey string, httpClient *httpkit.Client, encoder Encoder, opts Options) (*Studio, error) {
	backend, err := NewGenAIBackend(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	s, err := NewStudio(backend, backend, backend, NewFetcher(httpClient), encoder, opts)
	if err != nil {
		return nil, err
	}
	s.apiKey = apiKey
	return s, nil
}

// ready はゼロ値や nil の Studio に対して通信前に ErrConfiguration を返します。
func (s *Studio) ready() error {
	if s == nil || s.content == nil || s.images == nil || s.videos == nil || s.fetcher == nil {
		return fmt.Errorf("%w: studio is not initialized", ErrConfiguration)
	}
	return nil
}

// EditImage は1枚の画像を指示に従って編集します。
func (s *Studio) EditImage(ctx context.Context, asset domain.MediaAsset, instruction string) (*domain.MediaResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	parts, err := s.buildParts(instruction, asset)
	if err != nil {
		return nil, err
	}
	return s.generateContent(ctx, "edit", parts)
}

// CompositeImages は base, overlay の順でパーツを並べて2枚の画像を合成します。
func (s *Studio) CompositeImages(ctx context.Context, base, overlay domain.MediaAsset, instruction string) (*domain.MediaResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	parts, err := s.buildParts(instruction, base, overlay)
	if err != nil {
		return nil, err
	}
	return s.generateContent(ctx, "composite", parts)
}

// GenerateImage は既定のアスペクト比でテキストのみから画像を生成します。
func (s *Studio) GenerateImage(ctx context.Context, prompt string) (*domain.MediaResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.GenerateImageWithAspect(ctx, prompt, s.opts.AspectRatio)
}

// GenerateImageWithAspect は指定したアスペクト比でテキストのみから画像を生成します。
func (s *Studio) GenerateImageWithAspect(ctx context.Context, prompt, aspectRatio string) (*domain.MediaResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, invalidInput("prompt is required")
	}
	if aspectRatio == "" {
		aspectRatio = s.opts.AspectRatio
	}

	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: DefaultImageMIMEType,
		AspectRatio:    aspectRatio,
	}

	slog.InfoContext(ctx, "Imagenに画像生成をリクエストします", "model", s.opts.ImageModel, "aspect_ratio", aspectRatio)
	resp, err := s.images.GenerateImages(ctx, s.opts.ImageModel, prompt, config)
	if err != nil {
		return nil, classify(ctx, "generate image", err)
	}
	return DecodeImages(resp)
}

// buildParts は画像パーツを引数の順に並べ、最後に指示テキストを追加します。
func (s *Studio) buildParts(instruction string, assets ...domain.MediaAsset) ([]*genai.Part, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, invalidInput("instruction is required")
	}
	parts := make([]*genai.Part, 0, len(assets)+1)
	for i, asset := range assets {
		part, err := s.encoder.Encode(asset)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
		parts = append(parts, part)
	}
	return append(parts, genai.NewPartFromText(instruction)), nil
}

func (s *Studio) generateContent(ctx context.Context, op string, parts []*genai.Part) (*domain.MediaResult, error) {
	slog.InfoContext(ctx, "Geminiに画像生成をリクエストします", "op", op, "model", s.opts.EditModel, "total_parts", len(parts))

	resp, err := s.content.GenerateWithParts(ctx, s.opts.EditModel, parts, gemini.GenerateOptions{})
	if err != nil {
		return nil, classify(ctx, op, err)
	}

	out, err := DecodeContent(resp)
	if err != nil {
		slog.WarnContext(ctx, "レスポンスに画像が含まれていませんでした", "op", op, "error", err)
		return nil, err
	}
	return out, nil
}
