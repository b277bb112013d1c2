// Package testutil provides test doubles for the pagegen backend.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines one response of the mock generation server.
type MockResponse struct {
	StatusCode   int
	Text         string
	RawBody      string
	InputTokens  int
	OutputTokens int
	Delay        time.Duration
}

// MockGenerator is an httptest server that speaks the messages API. Responses
// are served in order; the last one repeats once the queue is drained.
type MockGenerator struct {
	server    *httptest.Server
	mu        sync.RWMutex
	responses []MockResponse

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	LastRequestBody   []byte
}

// NewMockGenerator starts a mock server that answers with responses.
func NewMockGenerator(responses ...MockResponse) *MockGenerator {
	mock := &MockGenerator{responses: responses}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastRequestBody = body
		resp := mock.nextLocked()
		mock.mu.Unlock()

		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if resp.RawBody != "" {
			w.Write([]byte(resp.RawBody))
			return
		}
		if resp.StatusCode < 400 {
			json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]string{{"type": "text", "text": resp.Text}},
				"usage": map[string]int{
					"input_tokens":  resp.InputTokens,
					"output_tokens": resp.OutputTokens,
				},
			})
		}
	}))

	return mock
}

func (m *MockGenerator) nextLocked() MockResponse {
	if len(m.responses) == 0 {
		return NewTextResponse(`{"status": "ok"}`)
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp
}

// URL returns the mock server URL.
func (m *MockGenerator) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGenerator) Close() {
	m.server.Close()
}

// SetResponses replaces the response queue.
func (m *MockGenerator) SetResponses(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGenerator) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastRequest returns the headers and body of the latest request.
func (m *MockGenerator) GetLastRequest() (http.Header, []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader, m.LastRequestBody
}

// NewTextResponse creates a 200 OK response carrying text.
func NewTextResponse(text string) MockResponse {
	return MockResponse{
		StatusCode:   http.StatusOK,
		Text:         text,
		InputTokens:  120,
		OutputTokens: 80,
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		RawBody:    `{"type": "error", "error": {"type": "api_error", "message": "Internal server error"}}`,
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		RawBody:    `{"type": "error", "error": {"type": "rate_limit_error", "message": "Rate limit exceeded"}}`,
	}
}

// NewOverloadedResponse creates a 529 overloaded response.
func NewOverloadedResponse() MockResponse {
	return MockResponse{
		StatusCode: 529,
		RawBody:    `{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`,
	}
}
