// Package modeltest provides a scriptable stand-in for model.Chatter so
// the Analyzer, Describer, and Organic Placer can be exercised without a
// live model endpoint.
package modeltest

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-collectivist/collectivist/pkg/model"
)

// Stub is a model.Chatter whose replies are driven by a caller-supplied
// function, or a fixed queue of replies/errors consumed in order.
type Stub struct {
	mu sync.Mutex

	// Reply, if set, is called for every Chat invocation and takes
	// priority over Queue.
	Reply func(messages []model.Message) (string, error)

	// Queue is consumed one entry per Chat call when Reply is nil.
	// Once exhausted, Chat returns ErrQueueExhausted.
	Queue []StubResult

	// ProbeErr, if non-nil, is returned by Probe.
	ProbeErr error

	calls int
}

// StubResult is one scripted Chat outcome.
type StubResult struct {
	Text string
	Err  error
}

// ErrQueueExhausted is returned once a Stub's scripted Queue runs out.
var ErrQueueExhausted = fmt.Errorf("modeltest: stub queue exhausted")

// Chat implements model.Chatter.
func (s *Stub) Chat(_ context.Context, messages []model.Message, _ float64, _ int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.Reply != nil {
		return s.Reply(messages)
	}
	if s.calls-1 >= len(s.Queue) {
		return "", ErrQueueExhausted
	}
	r := s.Queue[s.calls-1]
	return r.Text, r.Err
}

// Probe implements model.Chatter.
func (s *Stub) Probe(_ context.Context) error {
	return s.ProbeErr
}

// Calls reports how many times Chat has been invoked.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var _ model.Chatter = (*Stub)(nil)
