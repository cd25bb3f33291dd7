package generator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockContentGenerator struct {
	calls        int
	lastModel    string
	lastParts    []*genai.Part
	generateFunc func(ctx context.Context, model string, parts []*genai.Part) (*gemini.Response, error)
}

func (m *mockContentGenerator) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.calls++
	m.lastModel = model
	m.lastParts = parts
	if m.generateFunc != nil {
		return m.generateFunc(ctx, model, parts)
	}
	return imageResponse("image/png", []byte("fake")), nil
}

type mockImageGenerator struct {
	calls      int
	lastPrompt string
	lastConfig *genai.GenerateImagesConfig
	resp       *genai.GenerateImagesResponse
	err        error
}

func (m *mockImageGenerator) GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	m.calls++
	m.lastPrompt = prompt
	m.lastConfig = config
	return m.resp, m.err
}

// mockVideoOperator は投入時のハンドルとポーリング結果を順番に返すのだ
type mockVideoOperator struct {
	submitHandle JobHandle
	submitErr    error
	polls        []JobHandle
	pollErr      error
	pollFunc     func(ctx context.Context, job JobHandle) (JobHandle, error)

	submitCalls int
	pollCalls   int
	polled      []JobHandle
	lastPrompt  string
	lastImage   *genai.Image
}

func (m *mockVideoOperator) SubmitVideo(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (JobHandle, error) {
	m.submitCalls++
	m.lastPrompt = prompt
	m.lastImage = image
	return m.submitHandle, m.submitErr
}

func (m *mockVideoOperator) PollVideo(ctx context.Context, job JobHandle) (JobHandle, error) {
	m.pollCalls++
	m.polled = append(m.polled, job)
	if m.pollFunc != nil {
		return m.pollFunc(ctx, job)
	}
	if m.pollErr != nil {
		return JobHandle{}, m.pollErr
	}
	if len(m.polls) == 0 {
		return job, nil
	}
	next := m.polls[0]
	m.polls = m.polls[1:]
	return next, nil
}

type mockHTTPClient struct {
	calls   int
	lastURL string
	data    []byte
	err     error
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	m.lastURL = url
	return m.data, m.err
}

// recorder は受け取った進捗イベントを記録する Reporter なのだ
type recorder struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *recorder) Report(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) phases(p Phase) []ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ProgressEvent
	for _, e := range r.events {
		if e.Phase == p {
			out = append(out, e)
		}
	}
	return out
}

// --- Helpers ---

// PNGの最小構成バイナリ（シグネチャ含む）
var validPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

// JPEGのSOIマーカーから始まるダミーバイナリ
var validJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
				},
			}},
		},
	}
}

func textResponse(text string, reason genai.FinishReason) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
				FinishReason: reason,
			}},
		},
	}
}

type studioMocks struct {
	content *mockContentGenerator
	images  *mockImageGenerator
	videos  *mockVideoOperator
	fetcher *mockHTTPClient
}

func newTestStudio(t *testing.T, opts Options) (*Studio, *studioMocks) {
	t.Helper()
	m := &studioMocks{
		content: &mockContentGenerator{},
		images:  &mockImageGenerator{},
		videos:  &mockVideoOperator{},
		fetcher: &mockHTTPClient{},
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	s, err := NewStudio(m.content, m.images, m.videos, m.fetcher, Encoder{}, opts)
	require.NoError(t, err)
	return s, m
}
