package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"
)

// GenerateVideo は画像とプロンプトから動画を生成します。
// 投入 → ポーリング → 完了 → ダウンロードの順に進み、各段階で reporter に進捗を通知します。
// ctx がキャンセルされるとポーリングを止めて ErrCancelled を返します。
func (s *Studio) GenerateVideo(ctx context.Context, asset domain.MediaAsset, prompt string, reporter Reporter) (*domain.VideoResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, invalidInput("prompt is required")
	}
	if reporter == nil {
		reporter = Discard
	}

	image, err := s.encoder.encodeImage(asset)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	emit := func(phase Phase, attempt int, message string) {
		reporter.Report(ProgressEvent{
			JobID:   jobID,
			Phase:   phase,
			Attempt: attempt,
			Message: message,
			Time:    s.now(),
		})
	}

	// 1. 投入
	handle, err := s.videos.SubmitVideo(ctx, s.opts.VideoModel, prompt, image, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
	})
	if err != nil {
		return nil, classify(ctx, "submit video", err)
	}
	if err := handle.Validate(); err != nil {
		return nil, &TransportError{Op: "submit video", Detail: err.Error(), Err: err}
	}
	slog.InfoContext(ctx, "動画生成ジョブを投入しました", "job_id", jobID, "operation", handle.Name, "model", s.opts.VideoModel)
	emit(PhaseSubmitted, 0, msgSubmitted)

	// 2. ポーリング
	handle, err = s.awaitJob(ctx, handle, emit)
	if err != nil {
		return nil, err
	}

	// 3. 失敗
	if !handle.Succeeded() {
		slog.WarnContext(ctx, "動画生成ジョブが失敗しました", "job_id", jobID, "operation", handle.Name, "reason", handle.Failure)
		return nil, &JobFailedError{Name: handle.Name, Reason: handle.Failure}
	}

	// 4. 完了: ダウンロードして書き出す
	emit(PhaseDownloading, 0, msgDownloading)
	target, err := withAPIKey(handle.VideoURI, s.apiKey)
	if err != nil {
		return nil, &DownloadError{URI: redactURL(handle.VideoURI), Err: err}
	}
	data, err := s.fetcher.FetchBytes(ctx, target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("download video: %w: %w", ErrCancelled, ctxErr)
		}
		de := &DownloadError{URI: redactURL(handle.VideoURI), Err: err}
		var nre *httpkit.NonRetryableHTTPError
		if errors.As(err, &nre) {
			de.StatusCode = nre.StatusCode
		}
		return nil, de
	}

	path, err := s.materialize(jobID, data)
	if err != nil {
		return nil, &DownloadError{URI: redactURL(handle.VideoURI), Err: err}
	}

	slog.InfoContext(ctx, "動画を書き出しました", "job_id", jobID, "path", path, "bytes", len(data))
	emit(PhaseComplete, 0, msgComplete)

	return &domain.VideoResult{
		Data:     data,
		MimeType: DefaultVideoMIMEType,
		Path:     path,
		URI:      handle.VideoURI,
	}, nil
}

// awaitJob は done=true になるまで一定間隔でハンドルを取り直します。
// ポーリングは逐次で、同じジョブに対して同時に2つの問い合わせを行うことはありません。
func (s *Studio) awaitJob(ctx context.Context, handle JobHandle, emit func(Phase, int, string)) (JobHandle, error) {
	for attempt := 0; !handle.Done; attempt++ {
		if attempt >= s.opts.MaxPollAttempts {
			return handle, fmt.Errorf("%w: %d attempts (operation %s)", ErrJobTimeout, attempt, handle.Name)
		}

		emit(PhasePolling, attempt+1, pollMessage(attempt))

		if err := sleepContext(ctx, s.opts.PollInterval); err != nil {
			return handle, fmt.Errorf("poll video: %w: %w", ErrCancelled, err)
		}

		next, err := s.videos.PollVideo(ctx, handle)
		if err != nil {
			return handle, classify(ctx, "poll video", err)
		}
		if err := next.Validate(); err != nil {
			return handle, &TransportError{Op: "poll video", Detail: err.Error(), Err: err}
		}
		slog.DebugContext(ctx, "動画生成ジョブの状態を取得しました", "operation", next.Name, "attempt", attempt+1, "done", next.Done)
		handle = next
	}
	return handle, nil
}

// materialize はダウンロードした動画を OutputDir に書き出し、そのパスを返します。
func (s *Studio) materialize(jobID string, data []byte) (string, error) {
	dir := s.opts.OutputDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, jobID+".mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
