package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
)

type videoResult struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Bytes    int    `json:"bytes"`
}

type videoOutcome struct {
	result *domain.VideoResult
	err    error
}

// generateVideo は動画生成を開始し、進捗を SSE (text/event-stream) で配信します。
// 各進捗は "progress" イベント、最後に "result" か "error" イベントを1つ送って終了します。
func (s *Server) generateVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	prompt, err := domain.BuildVideoPrompt(req.Preset, req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	stream := generator.NewProgressStream(s.buffer)
	done := make(chan videoOutcome, 1)
	go func() {
		res, err := s.gen.GenerateVideo(ctx, req.Image.asset(), prompt, stream)
		stream.Close()
		done <- videoOutcome{result: res, err: err}
	}()

	// ストリームはジョブ終了時に閉じられる
	for event := range stream.Events() {
		writeEvent(w, "progress", event)
		flusher.Flush()
	}

	outcome := <-done
	if dropped := stream.Dropped(); dropped > 0 {
		slog.WarnContext(ctx, "進捗イベントを破棄しました", "dropped", dropped)
	}
	if outcome.err != nil {
		status, kind := statusFor(outcome.err)
		slog.WarnContext(ctx, "動画生成に失敗しました", "status", status, "error", outcome.err)
		writeEvent(w, "error", errorBody{Error: outcome.err.Error(), Kind: kind})
		flusher.Flush()
		return
	}

	id := strings.TrimSuffix(filepath.Base(outcome.result.Path), filepath.Ext(outcome.result.Path))
	writeEvent(w, "result", videoResult{
		ID:       id,
		URL:      "/v1/videos/" + id,
		MimeType: outcome.result.MimeType,
		Bytes:    len(outcome.result.Data),
	})
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, name string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Warn("SSEイベントのエンコードに失敗しました", "event", name, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
}
