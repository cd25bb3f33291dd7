package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const defaultDownloadTimeout = 5 * time.Minute

// securenet が制限しない CGNAT 帯 (RFC 6598)
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// NewDownloadClient は生成動画や入力画像の取得に使う httpkit.Client を作成します。
// 既定では securenet のクライアントが接続時に SSRF / DNS Rebinding を検証します。
func NewDownloadClient(options ...httpkit.ClientOption) *httpkit.Client {
	return httpkit.New(defaultDownloadTimeout, append([]httpkit.ClientOption{httpkit.WithMaxRetries(0)}, options...)...)
}

// Fetcher は httpkit.Client で URL の本文を1回だけ取得する HTTPClient 実装です。
// httpkit.Client.FetchBytes は 5xx を内部で再試行するため、Do と HandleResponse を直接使います。
// 成功以外のステータスはすべて *httpkit.NonRetryableHTTPError として返します。
type Fetcher struct {
	client *httpkit.Client
}

var _ HTTPClient = (*Fetcher)(nil)

// NewFetcher は Fetcher を初期化します。client が nil の場合は NewDownloadClient の既定値を使います。
func NewFetcher(client *httpkit.Client) *Fetcher {
	if client == nil {
		client = NewDownloadClient()
	}
	return &Fetcher{client: client}
}

func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if !f.client.SkipNetworkValidation {
		safe, err := f.client.IsSafeURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("安全ではないURLが指定されました (%s): %w", redactURL(rawURL), err)
		}
		if !safe {
			return nil, fmt.Errorf("安全ではないURLが指定されました: %s", redactURL(rawURL))
		}
		if err := checkHostAddrs(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("安全ではないURLが指定されました (%s): %w", redactURL(rawURL), err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエスト作成失敗 (%s): %w", redactURL(rawURL), redactErr(err))
	}
	req.Header.Set("User-Agent", httpkit.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, redactErr(err)
	}

	status := resp.StatusCode
	data, err := httpkit.HandleResponse(resp)
	if err == nil {
		return data, nil
	}
	if status < 200 || status > 299 {
		slog.WarnContext(ctx, "URLの取得に失敗しました", "url", redactURL(rawURL), "status", status)
		var nre *httpkit.NonRetryableHTTPError
		if errors.As(err, &nre) {
			return nil, nre
		}
		return nil, &httpkit.NonRetryableHTTPError{StatusCode: status}
	}
	return nil, err
}

// checkHostAddrs は securenet の検証に加えて、CGNAT 帯と未指定アドレスに解決されるホストを拒否します。
func checkHostAddrs(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", u.Hostname())
	if err != nil {
		return fmt.Errorf("ホスト '%s' の名前解決に失敗しました: %w", u.Hostname(), err)
	}
	for _, addr := range addrs {
		addr = addr.Unmap()
		if addr.IsUnspecified() || sharedAddressSpace.Contains(addr) {
			return fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", addr)
		}
	}
	return nil
}

// redactErr は *url.Error に含まれる URL の key パラメータを伏せます。
func redactErr(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = redactURL(ue.URL)
	}
	return err
}
