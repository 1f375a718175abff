package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/livra/internal/livra"
	"github.com/five82/livra/internal/pagination"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Posts       []livra.PostSummary
	Page        int
	TotalPages  int
	LastUpdated time.Time
	LastError   error

	// ConsecutiveFailures counts list refreshes that failed in a row.
	ConsecutiveFailures int

	SelectedID string
	Post       livra.Post
	HasPost    bool
	Loading    bool
}

// IsOffline returns true when the backend has been unreachable for several
// refreshes.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Slots is the pagination strip for the current page.
func (s Snapshot) Slots() []pagination.Slot {
	return pagination.Visible(s.Page, s.TotalPages)
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	loadSeq  uint64
}

// Update replaces the list with page. When err is non-nil the previous list
// is kept but the error is recorded for visibility.
func (s *Store) Update(page *livra.PostPage, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if page != nil {
		s.snapshot.Posts = slices.Clone(page.Posts)
		s.snapshot.TotalPages = max(page.TotalPages, 0)
		s.snapshot.Page = pagination.Clamp(page.CurrentPage, s.snapshot.TotalPages)
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Clear empties the list and the pagination, as when the search box is
// cleared.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Posts = nil
	s.snapshot.Page = 0
	s.snapshot.TotalPages = 0
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
}

// Prepend puts a newly created post at the top of the list.
func (s *Store) Prepend(post livra.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Posts = slices.Insert(slices.Clone(s.snapshot.Posts), 0, post.Summary())
}

// BeginLoad marks id as the post being loaded and returns a sequence number
// for FinishLoad.
func (s *Store) BeginLoad(id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadSeq++
	s.snapshot.SelectedID = id
	s.snapshot.Loading = true
	return s.loadSeq
}

// FinishLoad records the outcome of load seq. Results from anything but the
// latest BeginLoad are dropped, as are failures, which keep the shown post.
// It reports whether the snapshot changed.
func (s *Store) FinishLoad(seq uint64, post livra.Post, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.loadSeq {
		return false
	}
	s.snapshot.Loading = false
	if err != nil {
		return true
	}
	s.snapshot.Post = post
	s.snapshot.HasPost = true
	return true
}

// Deselect drops the shown post; pending loads are abandoned.
func (s *Store) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadSeq++
	s.snapshot.SelectedID = ""
	s.snapshot.Post = livra.Post{}
	s.snapshot.HasPost = false
	s.snapshot.Loading = false
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Posts = slices.Clone(s.snapshot.Posts)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
