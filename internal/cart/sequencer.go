package cart

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// sequencer runs mutations for the same key one at a time. A call that is still queued
// when a newer live call for its key is waiting behind it is dropped, so a burst of
// quantity changes sends only the first and the last intent to the backend.
type sequencer struct {
	mu   sync.Mutex
	keys map[string]*keyState
}

type keyState struct {
	sem  *semaphore.Weighted
	next uint64
	// live holds the tickets of calls that have not returned yet
	live map[uint64]struct{}
}

func newSequencer() *sequencer {
	return &sequencer{keys: make(map[string]*keyState)}
}

// Do runs fn under key's lock. It reports false without calling fn when a newer call for
// the same key is still pending. A newer call that gives up (its context ends while it
// waits) no longer supersedes anyone.
func (s *sequencer) Do(ctx context.Context, key string, fn func(context.Context) error) (bool, error) {
	s.mu.Lock()
	st, ok := s.keys[key]
	if !ok {
		st = &keyState{sem: semaphore.NewWeighted(1), live: make(map[uint64]struct{})}
		s.keys[key] = st
	}
	st.next++
	ticket := st.next
	st.live[ticket] = struct{}{}
	s.mu.Unlock()

	defer s.done(key, st, ticket)

	if err := st.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer st.sem.Release(1)

	s.mu.Lock()
	superseded := st.newerThan(ticket)
	s.mu.Unlock()
	if superseded {
		return false, nil
	}
	return true, fn(ctx)
}

func (st *keyState) newerThan(ticket uint64) bool {
	for t := range st.live {
		if t > ticket {
			return true
		}
	}
	return false
}

func (s *sequencer) done(key string, st *keyState, ticket uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(st.live, ticket)
	if len(st.live) == 0 {
		delete(s.keys, key)
	}
}
