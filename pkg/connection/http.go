package connection

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

// Request describes one call against the backend. Path is relative to the
// base URL.
type Request struct {
	Method string
	Path   string
	Body   []byte
	// ContentType defaults to application/json when Body is set.
	ContentType string
	// Authenticated requests carry the stored session token.
	Authenticated bool
	// Token, when set, is sent instead of the stored token.
	Token string
}

// Response is the status and full body of a completed exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Do performs req. A non-nil error always means no usable response arrived
// (dial failure, timeout, cancelled context) and wraps ErrNetworkFailure.
// Any status code, including 4xx and 5xx, is returned as a Response.
func (h *Connection) Do(ctx context.Context, req Request) (*Response, error) {
	if h.baseURL == "" {
		return nil, constants.ErrNoBaseURL
	}

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", constants.ErrNetworkFailure, err)
		}
	}

	var body io.Reader = http.NoBody
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, h.baseURL+req.Path, body)
	if err != nil {
		return nil, err
	}

	if req.Body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	if req.Authenticated {
		token := req.Token
		if token == "" {
			token = h.Token()
		}
		if token != "" {
			httpReq.Header.Set(constants.SessionTokenHeader, token)
		}
	}

	return h.MakeRequest(httpReq)
}

// MakeRequest sends an already built request and reads the whole body.
func (h *Connection) MakeRequest(req *http.Request) (*Response, error) {
	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Debug().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("request failed")
		return nil, fmt.Errorf("%w: %v", constants.ErrNetworkFailure, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			h.logger.Debug().Err(err).Msg("closing response body")
		}
	}(resp.Body)

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", constants.ErrNetworkFailure, err)
	}

	h.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Msg("request completed")

	return &Response{StatusCode: resp.StatusCode, Body: respBytes}, nil
}
