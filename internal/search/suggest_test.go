package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu      sync.Mutex
	queries []string
	limits  []int
	started chan string
	// queries listed here block until their context is cancelled
	hang map[string]bool
	err  error
}

func (f *fakeService) Suggestions(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- query
	}
	if f.hang[query] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return []Suggestion{{Type: "product", Value: query + "-1", Text: query}}, nil
}

func TestSuggestEmptyQuery(t *testing.T) {
	svc := &fakeService{}
	s := NewSuggester(svc, 0)

	got, err := s.Suggest(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, svc.queries)
}

func TestSuggestDefaultLimit(t *testing.T) {
	svc := &fakeService{}
	s := NewSuggester(svc, 0)

	got, err := s.Suggest(context.Background(), " áo ")
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{{Type: "product", Value: "áo-1", Text: "áo"}}, got)
	assert.Equal(t, []int{DefaultLimit}, svc.limits)
}

func TestNewerQuerySupersedesInFlight(t *testing.T) {
	svc := &fakeService{started: make(chan string, 2), hang: map[string]bool{"ao": true}}
	s := NewSuggester(svc, 8)

	done := make(chan error, 1)
	go func() {
		_, err := s.Suggest(context.Background(), "ao")
		done <- err
	}()
	require.Equal(t, "ao", <-svc.started)

	got, err := s.Suggest(context.Background(), "ao thun")
	require.NoError(t, err)
	assert.Equal(t, "ao thun", got[0].Text)

	assert.ErrorIs(t, <-done, ErrSuperseded)
}

func TestCancel(t *testing.T) {
	svc := &fakeService{started: make(chan string, 1), hang: map[string]bool{"giay": true}}
	s := NewSuggester(svc, 5)

	done := make(chan error, 1)
	go func() {
		_, err := s.Suggest(context.Background(), "giay")
		done <- err
	}()
	<-svc.started
	s.Cancel()

	assert.ErrorIs(t, <-done, ErrSuperseded)
}

func TestSuggestRemoteError(t *testing.T) {
	svc := &fakeService{err: errors.New("backend down")}
	s := NewSuggester(svc, 5)

	_, err := s.Suggest(context.Background(), "mu")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSuperseded)
}
