// SPDX-License-Identifier: Apache-2.0

// Package sefariatest provides an in-process fake of the retrieval service.
package sefariatest

import (
	"context"
	"fmt"
	"sync"

	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// Handler answers one capability call.
type Handler func(args map[string]any) (any, error)

// Call records one invocation.
type Call struct {
	Capability string
	Args       map[string]any
}

// Service is a fake sefaria.Invoker. Only capabilities with a handler are
// reported as available.
type Service struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
}

var _ sefaria.Invoker = (*Service)(nil)

// New returns an empty fake.
func New() *Service {
	return &Service{handlers: make(map[string]Handler)}
}

// Handle registers h for capability and returns s for chaining.
func (s *Service) Handle(capability string, h Handler) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[capability] = h
	return s
}

// Reply registers a handler that always returns payload.
func (s *Service) Reply(capability string, payload map[string]any) *Service {
	return s.Handle(capability, func(map[string]any) (any, error) {
		return map[string]any{"structuredContent": payload}, nil
	})
}

// Fail registers a handler that always returns err.
func (s *Service) Fail(capability string, err error) *Service {
	return s.Handle(capability, func(map[string]any) (any, error) {
		return nil, err
	})
}

// Has implements sefaria.Invoker.
func (s *Service) Has(capability string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handlers[capability]
	return ok
}

// Call implements sefaria.Invoker.
func (s *Service) Call(ctx context.Context, capability string, args map[string]any) (any, error) {
	s.mu.Lock()
	h, ok := s.handlers[capability]
	copied := make(map[string]any, len(args))
	for k, v := range args {
		copied[k] = v
	}
	s.calls = append(s.calls, Call{Capability: capability, Args: copied})
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", capability, sefaria.ErrCapabilityUnavailable)
	}
	return h(copied)
}

// Calls returns every recorded invocation in order.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded invocations of capability.
func (s *Service) CallsTo(capability string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Capability == capability {
			out = append(out, c)
		}
	}
	return out
}

// Documents serves fetch from a table keyed by citation (the fetch id
// without its suffix). Unknown citations fail.
func Documents(docs map[string]map[string]any) Handler {
	return func(args map[string]any) (any, error) {
		id, _ := args["id"].(string)
		doc, ok := docs[sefaria.StripSuffix(id)]
		if !ok {
			return nil, fmt.Errorf("no document for %q", id)
		}
		return map[string]any{"structuredContent": doc}, nil
	}
}
