package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor は分類済みエラーを HTTP ステータスと種別名に対応付けます。
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, generator.ErrInvalidInput),
		errors.Is(err, generator.ErrAssetRead),
		errors.Is(err, domain.ErrUnknownPreset),
		errors.Is(err, domain.ErrUnknownEditMode),
		errors.Is(err, domain.ErrUnsupportedAspectRatio),
		errors.Is(err, domain.ErrEmptyPrompt):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, generator.ErrNoMediaProduced):
		return http.StatusUnprocessableEntity, "no_media"
	case errors.Is(err, generator.ErrCancelled):
		return http.StatusRequestTimeout, "cancelled"
	case errors.Is(err, generator.ErrJobTimeout):
		return http.StatusGatewayTimeout, "job_timeout"
	case errors.Is(err, generator.ErrJobFailed):
		return http.StatusBadGateway, "job_failed"
	case errors.Is(err, generator.ErrDownload):
		return http.StatusBadGateway, "download"
	case errors.Is(err, generator.ErrTransport):
		return http.StatusBadGateway, "transport"
	case errors.Is(err, generator.ErrConfiguration):
		return http.StatusInternalServerError, "configuration"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	slog.WarnContext(r.Context(), "リクエストの処理に失敗しました",
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}
