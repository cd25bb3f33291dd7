package generator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"google.golang.org/genai"
)

// withAPIKey は URI にクエリパラメータ key を付与します。
func withAPIKey(rawURL, apiKey string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("key", apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// redactURL はログ出力用に key パラメータを伏せた URL を返します。
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// classify は下位レイヤーのエラーを分類済みエラーに変換します。
// キャンセルは ErrCancelled、分類済みのものはそのまま、それ以外は TransportError になります。
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrCancelled, ctxErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrCancelled, err)
	}
	for _, known := range []error{ErrTransport, ErrInvalidInput, ErrNoMediaProduced, ErrConfiguration} {
		if errors.Is(err, known) {
			return err
		}
	}

	te := &TransportError{Op: op, Err: err}
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		te.StatusCode, te.Detail = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		te.StatusCode, te.Detail = apiErrPtr.Code, apiErrPtr.Message
	}
	return te
}

// sleepContext は d だけ待機します。待機中に ctx が終了した場合はそのエラーを返します。
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
