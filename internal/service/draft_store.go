package service

import (
	"sync"
	"time"

	"github.com/noah-isme/sma-timetable/internal/timetable"
)

// timetableDraft is an editable, in-memory timetable. mu serialises edits: a scheduler is not safe
// for concurrent use.
type timetableDraft struct {
	mu sync.Mutex

	id               string
	termID           string
	sourceID         *string
	scheduler        *timetable.Scheduler
	gridCfg          timetable.GridConfig
	referenceClassID string
	stats            *timetable.GenerationStats
	expiresAt        time.Time
}

// draftStore keeps drafts for a sliding TTL: every successful lookup extends the expiry.
type draftStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	items map[string]*timetableDraft
}

func newDraftStore(ttl time.Duration) *draftStore {
	return &draftStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*timetableDraft),
	}
}

func (s *draftStore) Save(draft *timetableDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft.expiresAt = s.now().Add(s.ttl)
	s.items[draft.id] = draft
}

func (s *draftStore) Get(id string) (*timetableDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.items[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.After(draft.expiresAt) {
		delete(s.items, id)
		return nil, false
	}
	draft.expiresAt = now.Add(s.ttl)
	return draft, true
}

func (s *draftStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

// Sweep drops expired drafts and returns how many were removed.
func (s *draftStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, draft := range s.items {
		if now.After(draft.expiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// ExpiresAt reads a draft's expiry under the store lock.
func (s *draftStore) ExpiresAt(draft *timetableDraft) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return draft.expiresAt
}

func (s *draftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
