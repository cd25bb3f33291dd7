package assetio

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
	"github.com/shouni/gemini-media-kit/pkg/imgutil"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// 入力画像として読み込む上限サイズ
const maxAssetBytes = 64 << 20

// Loader は URI から MediaAsset を読み込みます。
// http(s) の URI は HTTPClient で、それ以外 (ローカルパス, file://, gs://, s3://) は InputReader で取得します。
type Loader struct {
	reader     remoteio.InputReader
	httpClient generator.HTTPClient
}

// NewLoader は Loader を初期化します。httpClient は nil を許容します（http(s) の URI は読めません）。
func NewLoader(reader remoteio.InputReader, httpClient generator.HTTPClient) (*Loader, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	return &Loader{reader: reader, httpClient: httpClient}, nil
}

// Load は uri の内容を読み込み、MIMEタイプを判定して MediaAsset を返します。
// 読み込みの失敗は generator.ErrAssetRead で包んで返し、再試行はしません。
func (l *Loader) Load(ctx context.Context, uri string) (domain.MediaAsset, error) {
	data, err := l.fetch(ctx, uri)
	if err != nil {
		return domain.MediaAsset{}, fmt.Errorf("%w: %s: %w", generator.ErrAssetRead, uri, err)
	}
	if len(data) == 0 {
		return domain.MediaAsset{}, fmt.Errorf("%w: %s is empty", generator.ErrAssetRead, uri)
	}
	return domain.MediaAsset{Data: data, MIMEType: imgutil.ResolveMIMEType("", data)}, nil
}

func (l *Loader) fetch(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		if l.httpClient == nil {
			return nil, fmt.Errorf("http client is not configured")
		}
		return l.httpClient.FetchBytes(ctx, uri)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := uri
	if p, ok := strings.CutPrefix(uri, "file://"); ok {
		path = filepath.FromSlash(p)
	}
	rc, err := l.reader.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxAssetBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetBytes {
		return nil, fmt.Errorf("asset exceeds %d bytes", maxAssetBytes)
	}
	return data, nil
}

// Load は reader から1件のアセットを読み込む簡易関数です。
// reader には remoteio.NewUniversalInputReader などを渡します。
func Load(ctx context.Context, reader remoteio.InputReader, uri string) (domain.MediaAsset, error) {
	l, err := NewLoader(reader, nil)
	if err != nil {
		return domain.MediaAsset{}, err
	}
	return l.Load(ctx, uri)
}
