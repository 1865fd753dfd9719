package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZaguanLabs/polyglot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// HTTPBackend talks to the job service's REST API.
type HTTPBackend struct {
	baseURL   string
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// HTTPConfig holds configuration for the HTTP backend.
type HTTPConfig struct {
	BaseURL    string        // Service root (e.g., "http://localhost:8080")
	Timeout    time.Duration // Per-request timeout (default: 30s)
	HTTPClient *http.Client  // Custom client (optional; Timeout is ignored when set)
	UserAgent  string        // Default: polyglot.UserAgent()
	Logger     *zap.Logger   // Default: no-op
}

// NewHTTPBackend creates a new HTTP backend.
func NewHTTPBackend(cfg HTTPConfig) (*HTTPBackend, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend URL must be http or https, got %q", base)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = polyglot.UserAgent()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPBackend{
		baseURL:   base,
		client:    client,
		userAgent: ua,
		logger:    logger,
	}, nil
}

// StartSession calls POST /api/session/start.
func (b *HTTPBackend) StartSession(ctx context.Context) (*polyglot.SessionResponse, error) {
	var resp polyglot.SessionResponse
	if err := b.do(ctx, http.MethodPost, "/api/session/start", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit posts a job to its kind's submission endpoint.
func (b *HTTPBackend) Submit(ctx context.Context, req JobRequest) (*polyglot.SubmitResponse, error) {
	path, err := submitPath(req.Kind())
	if err != nil {
		return nil, err
	}
	var resp polyglot.SubmitResponse
	if err := b.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Result fetches the current result of a job.
func (b *HTTPBackend) Result(ctx context.Context, kind polyglot.JobKind, requestID string) (*ResultResponse, error) {
	path, err := submitPath(kind)
	if err != nil {
		return nil, err
	}
	var resp ResultResponse
	if err := b.do(ctx, http.MethodGet, path+"/result/"+url.PathEscape(requestID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AnalysisModel calls GET /api/analysis/model.
func (b *HTTPBackend) AnalysisModel(ctx context.Context) (string, error) {
	var resp struct {
		Model string `json:"model"`
	}
	if err := b.do(ctx, http.MethodGet, "/api/analysis/model", nil, &resp); err != nil {
		return "", err
	}
	if resp.Model == "" {
		return "", fmt.Errorf("no model in response")
	}
	return resp.Model, nil
}

func submitPath(kind polyglot.JobKind) (string, error) {
	switch kind {
	case polyglot.KindTranslation:
		return "/api/translate", nil
	case polyglot.KindSpeech:
		return "/api/tts", nil
	case polyglot.KindAnalysis:
		return "/api/analyze", nil
	default:
		return "", fmt.Errorf("unknown job kind %q", kind)
	}
}

// do performs one JSON round trip. The response body is decoded whatever the
// status code, since the service reports job errors in JSON bodies; a body
// that is not JSON is an error.
func (b *HTTPBackend) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", b.userAgent)
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	b.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("x_request_id", reqID),
		zap.Duration("elapsed", time.Since(start)))

	if err := json.Unmarshal(data, out); err != nil {
		return &StatusError{StatusCode: resp.StatusCode, Body: snippet(data), Cause: err}
	}
	return nil
}

// StatusError is returned when a response body cannot be decoded.
type StatusError struct {
	StatusCode int
	Body       string
	Cause      error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response (HTTP %d): %v", e.StatusCode, e.Cause)
}

func (e *StatusError) Unwrap() error {
	return e.Cause
}

func snippet(data []byte) string {
	const n = 200
	if len(data) > n {
		return string(data[:n]) + "..."
	}
	return string(data)
}

// Verify HTTPBackend implements Backend
var _ Backend = (*HTTPBackend)(nil)
