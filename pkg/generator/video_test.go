package generator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var videoAsset = domain.MediaAsset{Data: validJPEG, MIMEType: "image/jpeg"}

func TestStudio_GenerateVideo(t *testing.T) {
	ctx := context.Background()

	t.Run("投入 → ポーリング → ダウンロードの一連の流れなのだ", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})
		m.videos.submitHandle = PendingJob("operations/A", nil)
		m.videos.polls = []JobHandle{
			PendingJob("operations/A", nil),
			SucceededJob("operations/B", "https://example.com/v/L.mp4", nil),
		}
		m.fetcher.data = []byte("mp4-bytes")
		rec := &recorder{}

		out, err := s.GenerateVideo(ctx, videoAsset, "smooth zoom in effect", rec)
		require.NoError(t, err)

		assert.Equal(t, "mp4-bytes", string(out.Data))
		assert.Equal(t, DefaultVideoMIMEType, out.MimeType)
		assert.Equal(t, "https://example.com/v/L.mp4", out.URI)
		assert.Equal(t, "https://example.com/v/L.mp4", m.fetcher.lastURL)
		assert.Equal(t, 1, m.fetcher.calls)

		assert.Equal(t, 1, m.videos.submitCalls)
		assert.Equal(t, "smooth zoom in effect", m.videos.lastPrompt)
		require.NotNil(t, m.videos.lastImage)
		assert.Equal(t, validJPEG, m.videos.lastImage.ImageBytes)

		// ポーリングのたびに最新のハンドルで問い合わせるのだ
		require.Len(t, m.videos.polled, 2)
		assert.Equal(t, "operations/A", m.videos.polled[0].Name)
		assert.Equal(t, "operations/A", m.videos.polled[1].Name)

		assert.Len(t, rec.phases(PhaseSubmitted), 1)
		assert.Len(t, rec.phases(PhasePolling), 2)
		assert.Len(t, rec.phases(PhaseDownloading), 1)
		assert.Len(t, rec.phases(PhaseComplete), 1)

		// 完了イベントが最後なのだ
		last := rec.events[len(rec.events)-1]
		assert.Equal(t, PhaseComplete, last.Phase)
		assert.Equal(t, msgComplete, last.Message)
	})

	t.Run("N回未完了のあと完了ならN+1回ポーリングするのだ", func(t *testing.T) {
		const n = 5
		s, m := newTestStudio(t, Options{})
		m.videos.submitHandle = PendingJob("operations/x", nil)
		for i := 0; i < n; i++ {
			m.videos.polls = append(m.videos.polls, PendingJob("operations/x", nil))
		}
		m.videos.polls = append(m.videos.polls, SucceededJob("operations/x", "https://example.com/v.mp4", nil))
		m.fetcher.data = []byte("v")
		rec := &recorder{}

		_, err := s.GenerateVideo(ctx, videoAsset, "pan left", rec)
		require.NoError(t, err)

		assert.Equal(t, n+1, m.videos.pollCalls)
		polling := rec.phases(PhasePolling)
		require.Len(t, polling, n+1)
		for i, e := range polling {
			assert.Equal(t, i+1, e.Attempt)
			assert.Equal(t, pollMessages[i%len(pollMessages)], e.Message)
		}
		assert.Len(t, rec.phases(PhaseComplete), 1)
	})

	t.Run("イベントは同じジョブIDと単調な時刻を持つのだ", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})
		m.videos.submitHandle = PendingJob("operations/x", nil)
		m.videos.polls = []JobHandle{SucceededJob("operations/x", "https://example.com/v.mp4", nil)}
		m.fetcher.data = []byte("v")
		rec := &recorder{}

		out, err := s.GenerateVideo(ctx, videoAsset, "pan left", rec)
		require.NoError(t, err)

		require.NotEmpty(t, rec.events)
		jobID := rec.events[0].JobID
		assert.NotEmpty(t, jobID)
		assert.Equal(t, jobID+".mp4", filepath.Base(out.Path))
		for i, e := range rec.events {
			assert.Equal(t, jobID, e.JobID)
			if i > 0 {
				assert.False(t, e.Time.Before(rec.events[i-1].Time))
			}
		}
	})

	t.Run("動画はOutputDirに書き出されるのだ", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "videos")
		s, m := newTestStudio(t, Options{OutputDir: dir})
		m.videos.submitHandle = SucceededJob("operations/x", "https://example.com/v.mp4", nil)
		m.fetcher.data = []byte("payload")

		out, err := s.GenerateVideo(ctx, videoAsset, "pan left", nil)
		require.NoError(t, err)

		assert.Equal(t, dir, filepath.Dir(out.Path))
		written, err := os.ReadFile(out.Path)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(written))
		assert.Zero(t, m.videos.pollCalls, "already done at submit")
	})

	t.Run("ペイロードなしの完了はErrJobFailedでダウンロードしないのだ", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})
		m.videos.submitHandle = PendingJob("operations/x", nil)
		m.videos.polls = []JobHandle{FailedJob("operations/x", "", nil)}
		rec := &recorder{}

		_, err := s.GenerateVideo(ctx, videoAsset, "pan left", rec)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrJobFailed), "got %v", err)

		var jf *JobFailedError
		require.True(t, errors.As(err, &jf))
		assert.Equal(t, "operations/x", jf.Name)
		assert.NotEmpty(t, jf.Reason)

		assert.Zero(t, m.fetcher.calls)
		assert.Empty(t, rec.phases(PhaseDownloading))
		assert.Empty(t, rec.phases(PhaseComplete))
	})

	t.Run("リモートのエラーは理由付きのErrJobFailed", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})
		m.videos.submitHandle = FailedJob("operations/x", "quota exceeded", nil)

		_, err := s.GenerateVideo(ctx, videoAsset, "pan left", nil)
		var jf *JobFailedError
		require.True(t, errors.As(err, &jf), "got %v", err)
		assert.Equal(t, "quota exceeded", jf.Reason)
	})

	t.Run("ダウンロード失敗はDownloadErrorでありJobFailedではないのだ", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})
		m.videos.submitHandle = SucceededJob("operations/x", "https://example.com/v.mp4?key=secret", nil)
		m.fetcher.err = &httpkit.NonRetryableHTTPError{StatusCode: 403}
		rec := &recorder{}

		_, err := s.GenerateVideo(ctx, videoAsset, "pan left", rec)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDownload), "got %v", err)
		assert.False(t, errors.Is(err, ErrJobFailed))

		var de *DownloadError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, 403, de.StatusCode)
		assert.NotContains(t, de.URI, "secret")

		assert.Len(t, rec.phases(PhaseDownloading), 1)
		assert.Empty(t, rec.phases(PhaseComplete))
	})

	t.Run("ダウンロード時はAPIキーをkeyパラメータに付けるのだ", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})
		s.apiKey = "k-123"
		m.videos.submitHandle = SucceededJob("operations/x", "https://example.com/v1/files/abc:download?alt=media", nil)
		m.fetcher.data = []byte("v")

		out, err := s.GenerateVideo(ctx, videoAsset, "pan left", nil)
		require.NoError(t, err)

		u, err := url.Parse(m.fetcher.lastURL)
		require.NoError(t, err)
		assert.Equal(t, "k-123", u.Query().Get("key"))
		assert.Equal(t, "media", u.Query().Get("alt"))
		assert.NotContains(t, out.URI, "k-123")
	})

	t.Run("httpkit経由の403はステータス付きのDownloadErrorでキーを漏らさないのだ", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			http.Error(w, "denied", http.StatusForbidden)
		}))
		defer srv.Close()

		content, images, videos := &mockContentGenerator{}, &mockImageGenerator{}, &mockVideoOperator{}
		s, err := NewStudio(content, images, videos, newTestFetcher(), Encoder{}, Options{PollInterval: time.Millisecond, OutputDir: t.TempDir()})
		require.NoError(t, err)
		s.apiKey = "top-secret"
		videos.submitHandle = SucceededJob("operations/x", srv.URL+"/v.mp4", nil)

		_, err = s.GenerateVideo(ctx, videoAsset, "pan left", nil)
		var de *DownloadError
		require.True(t, errors.As(err, &de), "got %v", err)
		assert.Equal(t, http.StatusForbidden, de.StatusCode)
		assert.NotContains(t, err.Error(), "top-secret")
		assert.NotContains(t, de.URI, "top-secret")
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("上限回数を超えたらErrJobTimeoutなのだ", func(t *testing.T) {
		s, m := newTestStudio(t, Options{MaxPollAttempts: 3})
		m.videos.submitHandle = PendingJob("operations/slow", nil)
		rec := &recorder{}

		_, err := s.GenerateVideo(ctx, videoAsset, "pan left", rec)
		assert.True(t, errors.Is(err, ErrJobTimeout), "got %v", err)
		assert.Equal(t, 3, m.videos.pollCalls)
		assert.Len(t, rec.phases(PhasePolling), 3)
		assert.Zero(t, m.fetcher.calls)
	})

	t.Run("ctxのキャンセルでポーリングを止めてErrCancelledなのだ", func(t *testing.T) {
		s, m := newTestStudio(t, Options{PollInterval: time.Hour})
		m.videos.submitHandle = PendingJob("operations/x", nil)

		cctx, cancel := context.WithCancel(ctx)
		rec := ReporterFunc(func(e ProgressEvent) {
			if e.Phase == PhasePolling {
				cancel()
			}
		})

		_, err := s.GenerateVideo(cctx, videoAsset, "pan left", rec)
		assert.True(t, errors.Is(err, ErrCancelled), "got %v", err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Zero(t, m.videos.pollCalls)
	})

	t.Run("投入時の通信エラーはTransportError", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})
		m.videos.submitErr = errors.New("dial tcp: i/o timeout")
		rec := &recorder{}

		_, err := s.GenerateVideo(ctx, videoAsset, "pan left", rec)
		assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
		assert.Empty(t, rec.events)
	})

	t.Run("ポーリング時の通信エラーはTransportError", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})
		m.videos.submitHandle = PendingJob("operations/x", nil)
		m.videos.pollErr = errors.New("503")

		_, err := s.GenerateVideo(ctx, videoAsset, "pan left", nil)
		var te *TransportError
		require.True(t, errors.As(err, &te), "got %v", err)
		assert.Equal(t, "poll video", te.Op)
	})

	t.Run("矛盾したハンドルはTransportError", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})
		m.videos.submitHandle = JobHandle{Name: "operations/x", VideoURI: "https://example.com/v.mp4"}

		_, err := s.GenerateVideo(ctx, videoAsset, "pan left", nil)
		assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
	})

	t.Run("入力不足は投入前にErrInvalidInput", func(t *testing.T) {
		s, m := newTestStudio(t, Options{})

		_, err := s.GenerateVideo(ctx, videoAsset, "", nil)
		assert.True(t, errors.Is(err, ErrInvalidInput))

		_, err = s.GenerateVideo(ctx, domain.MediaAsset{}, "pan left", nil)
		assert.True(t, errors.Is(err, ErrInvalidInput))

		assert.Zero(t, m.videos.submitCalls)
	})
}

func TestProgressStream_WithVideo(t *testing.T) {
	s, m := newTestStudio(t, Options{})
	m.videos.submitHandle = PendingJob("operations/x", nil)
	m.videos.polls = []JobHandle{SucceededJob("operations/x", "https://example.com/v.mp4", nil)}
	m.fetcher.data = []byte("v")

	stream := NewProgressStream(16)
	_, err := s.GenerateVideo(context.Background(), videoAsset, "pan left", stream)
	require.NoError(t, err)
	stream.Close()

	var phases []Phase
	for e := range stream.Events() {
		phases = append(phases, e.Phase)
	}
	assert.Equal(t, []Phase{PhaseSubmitted, PhasePolling, PhaseDownloading, PhaseComplete}, phases)
	assert.Zero(t, stream.Dropped())
}
