package testutil

import (
	"context"
	"sync"
	"time"
)

// Reply is one scripted backend answer.
type Reply struct {
	Text  string
	Err   error
	Delay time.Duration
}

// ScriptedBackend is an in-process backend. Replies are returned in order and
// the last one repeats; Handler, when set, takes precedence and decides per
// payload. It records calls and the highest number of concurrent calls.
type ScriptedBackend struct {
	mu       sync.Mutex
	replies  []Reply
	Handler  func(payload string) Reply
	payloads []string
	inFlight int
	peak     int
}

// NewScriptedBackend creates a backend that answers with replies.
func NewScriptedBackend(replies ...Reply) *ScriptedBackend {
	return &ScriptedBackend{replies: replies}
}

// Invoke returns the next scripted reply, honouring its delay and ctx.
func (s *ScriptedBackend) Invoke(ctx context.Context, payload string) (string, error) {
	s.mu.Lock()
	s.payloads = append(s.payloads, payload)
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	reply := s.nextLocked(payload)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if reply.Delay > 0 {
		timer := time.NewTimer(reply.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply.Text, reply.Err
}

func (s *ScriptedBackend) nextLocked(payload string) Reply {
	if s.Handler != nil {
		return s.Handler(payload)
	}
	if len(s.replies) == 0 {
		return Reply{Text: `{"status": "ok"}`}
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply
}

// Calls returns the number of Invoke calls.
func (s *ScriptedBackend) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

// Payloads returns a copy of every payload received, in call order.
func (s *ScriptedBackend) Payloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.payloads...)
}

// PeakInFlight returns the highest number of concurrent Invoke calls seen.
func (s *ScriptedBackend) PeakInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}
