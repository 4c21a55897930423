package scene

import (
	"errors"
	"sync"
)

// ErrStaleLoad reports that a load finished after a newer one started; its
// result was discarded and the displayed model untouched.
var ErrStaleLoad = errors.New("load superseded by a newer one")

// Session owns the currently displayed model. Loads are asynchronous: every
// load takes a ticket when it starts, and only the ticket matching the
// newest load may install its result. A late result is disposed, never
// shown.
type Session struct {
	mu    sync.Mutex
	gen   uint64
	model *Model
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// LoadTicket identifies one in-flight load.
type LoadTicket struct {
	s   *Session
	gen uint64
}

// StartLoad registers a new load and invalidates the tickets of any loads
// still in flight.
func (s *Session) StartLoad() LoadTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return LoadTicket{s: s, gen: s.gen}
}

// Current reports whether this ticket still belongs to the newest load.
// Completion handlers check it before doing further work; there is no true
// abort of in-flight decoding.
func (t LoadTicket) Current() bool {
	if t.s == nil {
		return false
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.gen == t.s.gen
}

// Install swaps in the freshly normalized model, disposing the previous one.
// A stale ticket disposes the incoming model instead and returns
// ErrStaleLoad.
func (s *Session) Install(t LoadTicket, m *Model) error {
	s.mu.Lock()
	if t.gen != s.gen {
		s.mu.Unlock()
		m.Dispose()
		return ErrStaleLoad
	}
	old := s.model
	s.model = m
	s.mu.Unlock()

	old.Dispose()
	return nil
}

// Model returns the currently displayed model, nil when nothing is loaded.
func (s *Session) Model() *Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Close disposes the current model and invalidates in-flight loads. Safe to
// call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.gen++
	old := s.model
	s.model = nil
	s.mu.Unlock()

	old.Dispose()
}
