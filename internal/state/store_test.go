package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/livra/internal/livra"
)

func samplePage() *livra.PostPage {
	return &livra.PostPage{
		Posts:       []livra.PostSummary{{ID: "1", Title: "one"}, {ID: "2", Title: "two"}},
		TotalPages:  4,
		CurrentPage: 1,
	}
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(samplePage(), nil)

	snap := s.Snapshot()
	if len(snap.Posts) != 2 || snap.Posts[0].ID != "1" {
		t.Fatalf("snapshot posts = %#v, want 2 items", snap.Posts)
	}
	if snap.Page != 1 || snap.TotalPages != 4 {
		t.Fatalf("page = %d/%d, want 1/4", snap.Page, snap.TotalPages)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Posts[0].ID = "999"
	if snap2 := s.Snapshot(); snap2.Posts[0].ID != "1" {
		t.Fatalf("Snapshot should clone posts; got id %s want 1", snap2.Posts[0].ID)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update(samplePage(), nil)
	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if len(snap.Posts) != 2 || snap.TotalPages != 4 || snap.Page != 1 {
		t.Fatalf("list changed on error: %#v", snap)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("fresh store: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, errors.New("fail 1"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after one failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, errors.New("fail 2"))
	if snap := s.Snapshot(); !snap.IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	s.Update(samplePage(), nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_UpdateClampsPage(t *testing.T) {
	var s Store
	s.Update(&livra.PostPage{TotalPages: 3, CurrentPage: 7}, nil)
	if snap := s.Snapshot(); snap.Page != 2 {
		t.Fatalf("page = %d, want clamped to 2", snap.Page)
	}
	s.Update(&livra.PostPage{}, nil)
	if snap := s.Snapshot(); snap.Page != 0 || snap.TotalPages != 0 || len(snap.Slots()) != 0 {
		t.Fatalf("empty page: %#v", snap)
	}
}

func TestStore_ClearAndPrepend(t *testing.T) {
	var s Store
	s.Update(samplePage(), nil)

	s.Prepend(livra.Post{ID: "new", Title: "fresh", Content: "body"})
	snap := s.Snapshot()
	if len(snap.Posts) != 3 || snap.Posts[0] != (livra.PostSummary{ID: "new", Title: "fresh"}) {
		t.Fatalf("posts after Prepend = %#v", snap.Posts)
	}

	s.Clear()
	snap = s.Snapshot()
	if len(snap.Posts) != 0 || snap.Page != 0 || snap.TotalPages != 0 {
		t.Fatalf("snapshot after Clear = %#v", snap)
	}
}

func TestStore_LoadKeepsOnlyLatest(t *testing.T) {
	var s Store

	first := s.BeginLoad("a")
	second := s.BeginLoad("b")

	if !s.FinishLoad(second, livra.Post{ID: "b", Title: "B"}, nil) {
		t.Fatalf("latest load was dropped")
	}
	if s.FinishLoad(first, livra.Post{ID: "a", Title: "A"}, nil) {
		t.Fatalf("stale load was applied")
	}

	snap := s.Snapshot()
	if !snap.HasPost || snap.Post.ID != "b" || snap.SelectedID != "b" || snap.Loading {
		t.Fatalf("snapshot = %#v, want post b loaded", snap)
	}
}

func TestStore_LoadFailureKeepsContent(t *testing.T) {
	var s Store
	seq := s.BeginLoad("a")
	s.FinishLoad(seq, livra.Post{ID: "a", Title: "A"}, nil)

	seq = s.BeginLoad("missing")
	s.FinishLoad(seq, livra.Post{}, livra.ErrNotFound)

	snap := s.Snapshot()
	if snap.Post.ID != "a" || snap.Loading {
		t.Fatalf("snapshot = %#v, want post a kept", snap)
	}
}

func TestStore_DeselectAbandonsLoad(t *testing.T) {
	var s Store
	seq := s.BeginLoad("a")
	s.Deselect()
	if s.FinishLoad(seq, livra.Post{ID: "a"}, nil) {
		t.Fatalf("load finished after Deselect was applied")
	}
	if snap := s.Snapshot(); snap.HasPost || snap.SelectedID != "" {
		t.Fatalf("snapshot = %#v, want nothing selected", snap)
	}
}
