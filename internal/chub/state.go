package chub

import "sync"

// ListState is the single-owner slot holding the most recent result list.
// It is created by whoever drives the pipeline (session, handler) and passed
// into Client.Search explicitly; there is no package-level instance.
//
// Every search draws a sequence number from the state before dispatching and
// presents it when committing, so a response that lands after a newer search
// has already committed is discarded instead of clobbering the list.
type ListState struct {
	mu      sync.Mutex
	entries []CharacterSummary
	issued  uint64
	applied uint64
}

// NewListState returns an empty list state.
func NewListState() *ListState { return &ListState{} }

// Entries returns the current list.
func (s *ListState) Entries() []CharacterSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}

// Len returns the current list length.
func (s *ListState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// next issues a sequence number for a search about to be dispatched.
func (s *ListState) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// replace commits a freshly built list. It reports false, leaving the state
// untouched, when a search issued later has already committed.
func (s *ListState) replace(seq uint64, entries []CharacterSummary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		return false
	}
	s.applied = seq
	s.entries = entries
	return true
}
