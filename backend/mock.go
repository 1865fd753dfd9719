package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZaguanLabs/polyglot"
)

// MockResult is one scripted reply of a result endpoint.
type MockResult struct {
	Response *ResultResponse
	Err      error
}

// MockBackend is a scripted in-memory Backend for testing. Result replies are
// consumed in order per kind; the last one repeats once the script runs out.
type MockBackend struct {
	mu sync.Mutex

	SessionID  string // Issued by StartSession ("" fails the call)
	SessionErr error

	SubmitResponses map[polyglot.JobKind]*polyglot.SubmitResponse
	SubmitErr       error
	Results         map[polyglot.JobKind][]MockResult
	Model           string

	Submitted    []JobRequest             // Every request passed to Submit
	ResultCalls  map[polyglot.JobKind]int // Result calls per kind
	SessionCalls int                      // StartSession calls
}

// NewMockBackend creates a mock that issues a session and accepts every job
// with request id "req-1" but never finishes it.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		SessionID: "0123456789abcdef",
		SubmitResponses: map[polyglot.JobKind]*polyglot.SubmitResponse{
			polyglot.KindTranslation: {RequestID: "req-1"},
			polyglot.KindSpeech:      {RequestID: "req-1"},
			polyglot.KindAnalysis:    {RequestID: "req-1"},
		},
		Results:     make(map[polyglot.JobKind][]MockResult),
		ResultCalls: make(map[polyglot.JobKind]int),
	}
}

// Script sets the result replies for a kind.
func (m *MockBackend) Script(kind polyglot.JobKind, replies ...MockResult) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results[kind] = replies
	return m
}

// StartSession returns the configured session.
func (m *MockBackend) StartSession(ctx context.Context) (*polyglot.SessionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionCalls++
	if m.SessionErr != nil {
		return nil, m.SessionErr
	}
	return &polyglot.SessionResponse{Success: m.SessionID != "", SessionID: m.SessionID}, nil
}

// Submit records req and returns the configured response for its kind.
func (m *MockBackend) Submit(ctx context.Context, req JobRequest) (*polyglot.SubmitResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submitted = append(m.Submitted, req)
	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}
	resp, ok := m.SubmitResponses[req.Kind()]
	if !ok {
		return &polyglot.SubmitResponse{}, nil
	}
	copied := *resp
	return &copied, nil
}

// Result returns the next scripted reply for kind.
func (m *MockBackend) Result(ctx context.Context, kind polyglot.JobKind, requestID string) (*ResultResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.ResultCalls[kind]
	m.ResultCalls[kind] = n + 1

	script := m.Results[kind]
	if len(script) == 0 {
		return NotFound(), nil
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n].Response, script[n].Err
}

// AnalysisModel returns the configured model name.
func (m *MockBackend) AnalysisModel(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Model == "" {
		return "", fmt.Errorf("model unavailable")
	}
	return m.Model, nil
}

// Calls returns the number of Result calls made for kind.
func (m *MockBackend) Calls(kind polyglot.JobKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ResultCalls[kind]
}

// Requests returns a copy of the submitted requests.
func (m *MockBackend) Requests() []JobRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]JobRequest(nil), m.Submitted...)
}

// NotFound is the reply of a job that is still running.
func NotFound() *ResultResponse {
	return &ResultResponse{Status: polyglot.StatusNotFound}
}

// Succeeded builds a successful reply; fill in the kind's payload field.
func Succeeded(r ResultResponse) *ResultResponse {
	ok := true
	r.Success = &ok
	return &r
}

// Failed builds a {success:false} reply.
func Failed(msg string) *ResultResponse {
	ok := false
	return &ResultResponse{Success: &ok, Error: msg}
}

// Reply wraps a response as a MockResult.
func Reply(r *ResultResponse) MockResult {
	return MockResult{Response: r}
}

// Fail wraps a transport error as a MockResult.
func Fail(err error) MockResult {
	return MockResult{Err: err}
}

// Verify MockBackend implements Backend
var _ Backend = (*MockBackend)(nil)
