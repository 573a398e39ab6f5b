package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"chublink/internal/chub"
	"chublink/internal/queryparse"
)

// recordingSearcher captures every dispatched criteria set.
type recordingSearcher struct {
	mu    sync.Mutex
	calls []chub.Criteria
}

func (r *recordingSearcher) Search(_ context.Context, st *chub.ListState, crit chub.Criteria) []chub.CharacterSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, crit)
	return nil
}

func (r *recordingSearcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingSearcher) last() chub.Criteria {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func TestRapidEditsCollapseIntoOneSearch(t *testing.T) {
	rec := &recordingSearcher{}
	s := New(rec, WithQuietPeriod(30*time.Millisecond))
	defer s.Close()

	s.SetTerm("e")
	s.SetTerm("el")
	s.SetTerm("elf")
	s.SetNSFW(false)
	s.SetSort(chub.SortRating)

	time.Sleep(120 * time.Millisecond)

	if n := rec.count(); n != 1 {
		t.Fatalf("burst of edits must dispatch once, got %d", n)
	}
	got := rec.last()
	if got.SearchTerm != "elf" || got.Sort != chub.SortRating {
		t.Errorf("dispatched criteria must reflect the final edits: %+v", got)
	}
}

func TestSearchNowBypassesQuietPeriod(t *testing.T) {
	rec := &recordingSearcher{}
	s := New(rec, WithQuietPeriod(time.Hour))
	defer s.Close()

	s.SetTerm("elf")
	s.SearchNow()

	if n := rec.count(); n != 1 {
		t.Fatalf("explicit search must fire immediately, got %d dispatches", n)
	}
}

func TestPageClamping(t *testing.T) {
	rec := &recordingSearcher{}
	s := New(rec, WithQuietPeriod(time.Hour))
	defer s.Close()

	s.SetPage(-5)
	if got := s.Criteria().Page; got != 1 {
		t.Errorf("SetPage(-5) => page %d, want 1", got)
	}

	s.PrevPage()
	if got := s.Criteria().Page; got != 1 {
		t.Errorf("PrevPage at 1 => page %d, want 1", got)
	}

	s.NextPage()
	s.NextPage()
	if got := s.Criteria().Page; got != 3 {
		t.Errorf("two NextPage => page %d, want 3", got)
	}
}

func TestFilterEditsResetToFirstPage(t *testing.T) {
	rec := &recordingSearcher{}
	s := New(rec, WithQuietPeriod(time.Hour))
	defer s.Close()

	s.SetPage(4)
	s.SetTerm("elf")
	if got := s.Criteria().Page; got != 1 {
		t.Errorf("a term edit must reset to page 1, got %d", got)
	}
}

func TestApplyKeepsSeededPageSize(t *testing.T) {
	rec := &recordingSearcher{}
	s := New(rec, WithQuietPeriod(time.Hour), WithDefaults(25, true))
	defer s.Close()

	s.Apply(chub.Criteria{SearchTerm: "elf", Page: 0})
	got := s.Criteria()
	if got.First != 25 {
		t.Errorf("Apply must keep the seeded page size, got %d", got.First)
	}
	if got.Page != 1 {
		t.Errorf("page 0 must clamp to 1, got %d", got.Page)
	}
	if got.Sort != chub.SortDownloadCount {
		t.Errorf("empty sort must fall back, got %q", got.Sort)
	}
}

func TestApplyKeepsSeededNSFWWhenUnspecified(t *testing.T) {
	rec := &recordingSearcher{}
	s := New(rec, WithQuietPeriod(time.Hour), WithDefaults(10, true))
	defer s.Close()

	s.Apply(queryparse.Parse("elf tags:fantasy"))
	if got := s.Criteria(); !got.NSFW {
		t.Error("a query line without nsfw: must keep the seeded preference")
	}

	s.Apply(queryparse.Parse("elf nsfw:off"))
	if got := s.Criteria(); got.NSFW {
		t.Error("an explicit nsfw:off must override the seeded preference")
	}

	s.Apply(queryparse.Parse("elf"))
	if got := s.Criteria(); got.NSFW {
		t.Error("the override must persist across later lines that omit nsfw:")
	}
}
