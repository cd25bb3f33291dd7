package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
)

// assetPayload は JSON で受け取る画像です。Data は base64 文字列として送られます。
type assetPayload struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type,omitempty"`
}

func (p *assetPayload) asset() domain.MediaAsset {
	if p == nil {
		return domain.MediaAsset{}
	}
	return domain.MediaAsset{Data: p.Data, MIMEType: p.MIMEType}
}

type editRequest struct {
	Image       *assetPayload   `json:"image"`
	Mode        domain.EditMode `json:"mode,omitempty"`
	Preset      string          `json:"preset,omitempty"`
	Instruction string          `json:"instruction,omitempty"`
}

type compositeRequest struct {
	Base        *assetPayload `json:"base"`
	Overlay     *assetPayload `json:"overlay"`
	Preset      string        `json:"preset,omitempty"`
	Instruction string        `json:"instruction,omitempty"`
}

type generateRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

type videoRequest struct {
	Image  *assetPayload `json:"image"`
	Preset string        `json:"preset,omitempty"`
	Prompt string        `json:"prompt,omitempty"`
}

type presetsResponse struct {
	Instruct     []domain.Preset      `json:"instruct"`
	Mockup       []domain.Preset      `json:"mockup"`
	Composite    []domain.Preset      `json:"composite"`
	Video        []domain.Preset      `json:"video"`
	VideoCustom  []domain.Preset      `json:"video_custom"`
	AspectRatios []domain.AspectRatio `json:"aspect_ratios"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presetsResponse{
		Instruct:     domain.InstructTemplates,
		Mockup:       domain.MockupTemplates,
		Composite:    domain.CompositeTemplates,
		Video:        domain.VideoPresets,
		VideoCustom:  domain.VideoCustomTemplates,
		AspectRatios: domain.AspectRatios,
	})
}

func (s *Server) editImage(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	prompt, err := domain.BuildEditPrompt(req.Mode, req.Preset, req.Instruction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.gen.EditImage(r.Context(), req.Image.asset(), prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMedia(w, out)
}

func (s *Server) compositeImages(w http.ResponseWriter, r *http.Request) {
	var req compositeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	prompt, err := domain.BuildCompositePrompt(req.Preset, req.Instruction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.gen.CompositeImages(r.Context(), req.Base.asset(), req.Overlay.asset(), prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMedia(w, out)
}

func (s *Server) generateImage(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AspectRatio != "" && !domain.IsSupportedAspectRatio(req.AspectRatio) {
		writeError(w, r, domain.ErrUnsupportedAspectRatio)
		return
	}
	out, err := s.gen.GenerateImageWithAspect(r.Context(), req.Prompt, req.AspectRatio)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMedia(w, out)
}

// downloadVideo は書き出し済みの動画を ID で配信します。
func (s *Server) downloadVideo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid video id"})
		return
	}
	path := filepath.Join(s.videoDir(), id.String()+".mp4")
	if _, err := os.Stat(path); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "video not found"})
		return
	}
	w.Header().Set("Content-Type", generator.DefaultVideoMIMEType)
	http.ServeFile(w, r, path)
}

func (s *Server) videoDir() string {
	if s.outputDir == "" {
		return os.TempDir()
	}
	return s.outputDir
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeMedia(w http.ResponseWriter, out *domain.MediaResult) {
	mimeType := out.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("レスポンスの書き込みに失敗しました", "error", err)
	}
}
