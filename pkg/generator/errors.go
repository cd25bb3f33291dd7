package generator

import (
	"errors"
	"fmt"
	"strings"
)

// 呼び出し元が errors.Is で判別するための分類エラーです。
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrConfiguration   = errors.New("configuration error")
	ErrTransport       = errors.New("transport error")
	ErrNoMediaProduced = errors.New("no media was generated; the model may have refused the request")
	ErrJobFailed       = errors.New("video generation failed or returned no link")
	ErrJobTimeout      = errors.New("video generation did not finish within the polling limit")
	ErrDownload        = errors.New("failed to download generated media")
	ErrCancelled       = errors.New("generation cancelled")
	ErrAssetRead       = errors.New("failed to read asset")
)

// TransportError は送信・ポーリング・通信レベルの失敗です。
// StatusCode は HTTP ステータスが取れた場合のみ 0 以外になります。
type TransportError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Op, ErrTransport.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// NoMediaError は通信は成功したがメディアが含まれていなかったことを表します。
type NoMediaError struct {
	FinishReason string
	Text         string
}

func (e *NoMediaError) Error() string {
	if e.FinishReason != "" {
		return fmt.Sprintf("%s (finish reason: %s)", ErrNoMediaProduced.Error(), e.FinishReason)
	}
	return ErrNoMediaProduced.Error()
}

func (e *NoMediaError) Is(target error) bool { return target == ErrNoMediaProduced }

// JobFailedError は動画ジョブが失敗状態で終了したことを表します。
type JobFailedError struct {
	Name   string
	Reason string
}

func (e *JobFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", ErrJobFailed.Error(), e.Reason)
	}
	return ErrJobFailed.Error()
}

func (e *JobFailedError) Is(target error) bool { return target == ErrJobFailed }

// DownloadError は生成には成功したが結果の取得に失敗したことを表します。
type DownloadError struct {
	URI        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", ErrDownload.Error(), e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrDownload.Error(), e.Err)
	}
	return ErrDownload.Error()
}

func (e *DownloadError) Unwrap() error { return e.Err }

func (e *DownloadError) Is(target error) bool { return target == ErrDownload }

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
