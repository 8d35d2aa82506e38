package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// OpenHTTP fetches url. A 404 response is reported as ok == false; any other
// non-2xx status is an error. The body is read eagerly so the request timeout
// does not outlive the call.
func OpenHTTP(ctx context.Context, client *http.Client, url string, timeout time.Duration) (io.ReadCloser, bool, error) {
	if client == nil {
		return nil, false, errors.New("source: http client is not configured")
	}
	if url == "" {
		return nil, false, errors.New("source: url is required")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, errors.New("source: unexpected status " + resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	return io.NopCloser(bytes.NewReader(data)), true, nil
}
