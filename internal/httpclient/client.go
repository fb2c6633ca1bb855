// Package httpclient holds the request/response handling shared by the
// VK, Yandex.Disk and Google Drive clients.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vkbackup/pkg/config"
	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
)

const bodyPreviewLimit = 200

// Client sends HTTP requests with a fixed set of headers and maps failures
// onto the typed errors in pkg/errors
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// New creates a client using the timeout and user agent from cfg
func New(cfg config.HTTPConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		headers:    headers,
		logger:     log,
	}
}

// WithHTTPClient replaces the underlying transport client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SetHeader sets a header sent with every request built by NewRequest
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// NewRequest builds a request carrying the client's headers
func (c *Client) NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// Do sends req and logs the exchange. A transport failure is returned as
// a remote error with code 0; the caller owns the response body otherwise.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    redact(req),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      redact(req),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeRemote,
			Message: fmt.Sprintf("%s %s", req.Method, redact(req)),
			Err:     err,
		}
	}

	logger.LogRequest(c.logger, req.Method, redact(req), resp.StatusCode, duration)
	return resp, nil
}

// DoJSON sends req, requires one of the accepted status codes (any 2xx when
// none are given) and decodes the body into target when target is non-nil.
// The response status is returned even on failure.
func (c *Client) DoJSON(req *http.Request, target interface{}, accept ...int) (int, error) {
	resp, err := c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := c.CheckStatus(resp, accept...); err != nil {
		return resp.StatusCode, err
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	return resp.StatusCode, c.DecodeJSON(resp, target)
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	req, err := c.NewRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	_, err = c.DoJSON(req, target)
	return err
}

// CheckStatus returns nil when the status is accepted. 401 and 403 become
// auth errors; everything else becomes a remote error carrying a preview of
// the body.
func (c *Client) CheckStatus(resp *http.Response, accept ...int) error {
	if statusAccepted(resp.StatusCode, accept) {
		return nil
	}

	snippet := readPreview(resp.Body)
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    redact(resp.Request),
	}
	if snippet != "" {
		fields["body_preview"] = snippet
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return errs.Auth(resp.StatusCode, "credentials rejected: %s", snippet)
	default:
		c.logger.DebugWithFields("unexpected response status", fields)
		return errs.Remote(resp.StatusCode, "unexpected status %d: %s", resp.StatusCode, snippet)
	}
}

// DecodeJSON decodes the response body, logging a preview when it is not
// valid JSON
func (c *Client) DecodeJSON(resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeRemote,
			Message: "failed to read response body",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          redact(resp.Request),
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview(body),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeRemote,
			Message: "malformed JSON response",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}
	return nil
}

func statusAccepted(status int, accept []int) bool {
	if len(accept) == 0 {
		return status >= 200 && status < 300
	}
	for _, s := range accept {
		if s == status {
			return true
		}
	}
	return false
}

func readPreview(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, _ := io.ReadAll(io.LimitReader(body, bodyPreviewLimit+1))
	return preview(data)
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > bodyPreviewLimit {
		s = s[:bodyPreviewLimit] + "..."
	}
	return s
}

// redact drops query parameters that carry credentials
func redact(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	u := *req.URL
	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
