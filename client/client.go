package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	defaultRequestTimeout = 15 * time.Second
	maxResponseSize       = 4 << 20
)

// Client performs authenticated JSON calls against the dashboard API. The
// bearer token is attached when present; without one the request is attempted
// anyway and the server decides.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *log.Logger
}

// New creates a Client for the given API base URL. The "/api" prefix the
// server mounts its routes under is added per request.
func New(baseURL, token string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// APIError is the uniform error for non-2xx responses. Message carries the
// body's "message" field when the server provided one.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s request failed: %d - %s", e.Method, e.Path, e.Status, e.Body)
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		Method: method,
		Path:   path,
		Status: status,
		Body:   strings.TrimSpace(string(body)),
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := sonic.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	}
	return apiErr
}

// Request performs one API call and returns the raw response body for the
// caller to decode. Non-2xx responses come back as *APIError.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) (data []byte, err error) {
	metrics, spanCtx := newRequestMetrics(ctx, c.log, method, path)
	status := 0
	defer func() {
		metrics.Log(status, err)
	}()

	var reader io.Reader
	if body != nil {
		encodeStart := time.Now()
		payload, merr := sonic.Marshal(body)
		metrics.ObserveEncode(time.Since(encodeStart))
		if merr != nil {
			metrics.SetErrorStage("encode_body")
			err = merr
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, rerr := http.NewRequestWithContext(spanCtx, method, c.requestURL(path, query), reader)
	if rerr != nil {
		metrics.SetErrorStage("build_request")
		err = rerr
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	sendStart := time.Now()
	resp, derr := c.http.Do(req)
	metrics.ObserveSend(time.Since(sendStart))
	if derr != nil {
		metrics.SetErrorStage("send")
		err = derr
		return nil, err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, rerr = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if rerr != nil {
		metrics.SetErrorStage("read_body")
		err = rerr
		return nil, err
	}
	metrics.SetBytesIn(len(data))

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		metrics.SetErrorStage("status")
		err = newAPIError(method, path, status, data)
		return nil, err
	}
	return data, nil
}

func (c *Client) requestURL(path string, query url.Values) string {
	u := c.baseURL + "/api" + path
	if len(query) == 0 {
		return u
	}
	filtered := url.Values{}
	for key, values := range query {
		for _, value := range values {
			if value != "" {
				filtered.Add(key, value)
			}
		}
	}
	if encoded := filtered.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}
