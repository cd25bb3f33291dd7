package generator

import (
	"fmt"
	"time"
)

const (
	DefaultEditModel       = "gemini-2.5-flash-image-preview"
	DefaultImageModel      = "imagen-4.0-generate-001"
	DefaultVideoModel      = "veo-2.0-generate-001"
	DefaultAspectRatio     = "1:1"
	DefaultImageMIMEType   = "image/jpeg"
	DefaultVideoMIMEType   = "video/mp4"
	DefaultPollInterval    = 10 * time.Second
	DefaultMaxPollAttempts = 60
	DefaultCompressQuality = 75
)

// Options は Studio の生成ポリシーです。ゼロ値の項目は既定値で補完されます。
type Options struct {
	EditModel       string
	ImageModel      string
	VideoModel      string
	AspectRatio     string
	PollInterval    time.Duration
	MaxPollAttempts int
	// OutputDir はダウンロードした動画の書き出し先です。空なら os.TempDir() を使います。
	OutputDir string
}

func (o Options) withDefaults() Options {
	if o.EditModel == "" {
		o.EditModel = DefaultEditModel
	}
	if o.ImageModel == "" {
		o.ImageModel = DefaultImageModel
	}
	if o.VideoModel == "" {
		o.VideoModel = DefaultVideoModel
	}
	if o.AspectRatio == "" {
		o.AspectRatio = DefaultAspectRatio
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxPollAttempts <= 0 {
		o.MaxPollAttempts = DefaultMaxPollAttempts
	}
	return o
}

// JobHandle はリモートの長時間オペレーションへの参照です。
// ポーリングのたびに新しい値が返され、呼び出し側の参照を置き換えます。
type JobHandle struct {
	Name     string
	Done     bool
	VideoURI string
	Failure  string
	ref      any
}

// PendingJob は未完了のハンドルを作成します。
func PendingJob(name string, ref any) JobHandle {
	return JobHandle{Name: name, ref: ref}
}

// SucceededJob は動画のロケーターを持つ完了済みハンドルを作成します。
func SucceededJob(name, videoURI string, ref any) JobHandle {
	return JobHandle{Name: name, Done: true, VideoURI: videoURI, ref: ref}
}

// FailedJob は失敗した完了済みハンドルを作成します。reason が空でも失敗として扱われます。
func FailedJob(name, reason string, ref any) JobHandle {
	if reason == "" {
		reason = "no video was returned"
	}
	return JobHandle{Name: name, Done: true, Failure: reason, ref: ref}
}

// Ref はバックエンド固有のオペレーション値を返します。
func (h JobHandle) Ref() any { return h.ref }

// Succeeded は完了済みかつロケーターを持つかどうかを返します。
func (h JobHandle) Succeeded() bool { return h.Done && h.VideoURI != "" }

// Validate は done=false なら結果を持たず、done=true なら成功と失敗を同時に持たないことを検証します。
// 成功ペイロードのない完了ハンドルは失敗として扱われます。
func (h JobHandle) Validate() error {
	switch {
	case !h.Done && (h.VideoURI != "" || h.Failure != ""):
		return fmt.Errorf("job %q is not done but carries a result", h.Name)
	case h.Done && h.VideoURI != "" && h.Failure != "":
		return fmt.Errorf("job %q carries both a video and a failure", h.Name)
	}
	return nil
}

// Phase は進捗イベントの段階です。バックエンドの内部状態とは対応しません。
type Phase string

const (
	PhaseSubmitted   Phase = "submitted"
	PhasePolling     Phase = "polling"
	PhaseDownloading Phase = "downloading"
	PhaseComplete    Phase = "complete"
)

// ProgressEvent は長時間処理中に人へ見せるための通知です。
type ProgressEvent struct {
	JobID   string    `json:"job_id"`
	Phase   Phase     `json:"phase"`
	Attempt int       `json:"attempt,omitempty"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

const (
	msgSubmitted   = "Video generation started. This may take a few minutes..."
	msgDownloading = "Downloading video..."
	msgComplete    = "Video generation complete!"
)

// pollMessages はポーリング回数に応じて順番に表示する文言です。
var pollMessages = []string{
	"Analyzing image and prompt...",
	"Choreographing pixel performance...",
	"Rendering frames... almost there.",
	"Finalizing video... adding a touch of magic.",
}

func pollMessage(attempt int) string {
	return pollMessages[attempt%len(pollMessages)]
}
