// Package search serves type-ahead suggestions. Each shopper gets a Suggester; a new
// keystroke aborts the request of the previous one so stale results never replace
// fresher ones.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const DefaultLimit = 5

var ErrSuperseded = errors.New("suggestion request superseded by a newer query")

type Suggestion struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Text  string `json:"text"`
}

type Service interface {
	Suggestions(ctx context.Context, query string, limit int) ([]Suggestion, error)
}

type Suggester struct {
	service Service
	limit   int

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSuggester(service Service, limit int) *Suggester {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Suggester{service: service, limit: limit}
}

// Suggest cancels any in-flight query and fetches suggestions for query. When another
// Suggest call starts before this one finishes, this one returns ErrSuperseded.
func (s *Suggester) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	ticket := s.seq
	if query == "" {
		s.mu.Unlock()
		return []Suggestion{}, nil
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	suggestions, err := s.service.Suggestions(reqCtx, query, s.limit)

	s.mu.Lock()
	current := ticket == s.seq
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !current {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, fmt.Errorf("fetching suggestions for %q: %w", query, err)
	}
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return suggestions, nil
}

// Cancel aborts the in-flight query, if any.
func (s *Suggester) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
}
