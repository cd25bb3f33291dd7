package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
)

// 1リクエストあたりのボディ上限（画像2枚を base64 で含められる程度）
const maxBodyBytes = 64 << 20

// Generator は HTTP 層が必要とする生成操作です。generator.Studio が満たします。
type Generator interface {
	generator.MediaGenerator
	GenerateImageWithAspect(ctx context.Context, prompt, aspectRatio string) (*domain.MediaResult, error)
}

// Server は生成操作を HTTP で公開します。
type Server struct {
	gen       Generator
	outputDir string
	buffer    int
}

// NewServer は Server を初期化します。outputDir は生成動画の書き出し先で、動画の配信に使います。
func NewServer(gen Generator, outputDir string) (*Server, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &Server{gen: gen, outputDir: outputDir, buffer: 32}, nil
}

// Router はルーティングとミドルウェアを設定した http.Handler を返します。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Get("/v1/healthz", s.health)
	r.Get("/v1/presets", s.presets)

	r.Route("/v1/images", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/edit", s.editImage)
		r.Post("/composite", s.compositeImages)
		r.Post("/generate", s.generateImage)
	})

	r.Route("/v1/videos", func(r chi.Router) {
		r.With(middleware.AllowContentType("application/json")).Post("/", s.generateVideo)
		r.Get("/{id}", s.downloadVideo)
	})

	return r
}
