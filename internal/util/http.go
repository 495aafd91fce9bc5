package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
)

// DefaultTimeout bounds every outbound call when no client is supplied.
const DefaultTimeout = 12 * time.Second

// NewHTTPClient returns a client with the given timeout (DefaultTimeout if zero).
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// GetBytes fetches url and returns the body of a 2xx response.
func GetBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = NewHTTPClient(0)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Transport("build request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Transport("GET "+url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.FromStatus(resp.StatusCode, "")
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Transport("read "+url, err)
	}
	return b, nil
}

// Request describes one JSON call.
type Request struct {
	Method string
	URL    string
	// Authorization is sent verbatim when non-empty.
	Authorization string
	Body          any
}

// DoJSON sends req and decodes a 2xx JSON body into out (skipped when out is nil).
// Non-2xx responses are classified with apperrors.FromStatus using the
// server's "detail" field when present.
func DoJSON(ctx context.Context, client *http.Client, req Request, out any) error {
	if client == nil {
		client = NewHTTPClient(0)
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return apperrors.Transport("encode request", err)
		}
		body = bytes.NewReader(b)
	}

	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return apperrors.Transport("build request", err)
	}
	hr.Header.Set("Accept", "application/json")
	if body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	if req.Authorization != "" {
		hr.Header.Set("Authorization", req.Authorization)
	}

	resp, err := client.Do(hr)
	if err != nil {
		return apperrors.Transport(fmt.Sprintf("%s %s", req.Method, req.URL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		detail := e.Detail
		if detail == "" {
			detail = e.Error
		}
		return apperrors.FromStatus(resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Transport(fmt.Sprintf("decode %s %s", req.Method, req.URL), err)
	}
	return nil
}
