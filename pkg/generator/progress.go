package generator

import (
	"sync"
	"sync/atomic"
)

// ReporterFunc は関数を Reporter として扱うためのアダプターです。
type ReporterFunc func(event ProgressEvent)

func (f ReporterFunc) Report(event ProgressEvent) { f(event) }

// Discard は進捗をすべて捨てる Reporter です。
var Discard Reporter = ReporterFunc(func(ProgressEvent) {})

// ProgressStream は進捗イベントを上限付きのチャネルで配信する Reporter です。
// バッファが満杯のときは送信せずに破棄し、状態遷移を止めません。配信されたイベントの順序は保たれます。
type ProgressStream struct {
	mu      sync.Mutex
	ch      chan ProgressEvent
	closed  bool
	dropped atomic.Int64
}

// NewProgressStream は buffer 件まで保持できるストリームを作成します。
func NewProgressStream(buffer int) *ProgressStream {
	if buffer < 1 {
		buffer = 1
	}
	return &ProgressStream{ch: make(chan ProgressEvent, buffer)}
}

// Events は受信用チャネルを返します。Close 後に閉じられます。
func (s *ProgressStream) Events() <-chan ProgressEvent { return s.ch }

// Report はイベントをバッファに積みます。Close 後やバッファ満杯時は破棄します。
func (s *ProgressStream) Report(event ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.ch <- event:
	default:
		s.dropped.Add(1)
	}
}

// Close はチャネルを閉じます。複数回呼んでも安全です。
func (s *ProgressStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Dropped は破棄したイベント数を返します。
func (s *ProgressStream) Dropped() int64 { return s.dropped.Load() }
