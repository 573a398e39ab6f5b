// Package session owns the interaction state behind a search panel: the
// current criteria, the result list and the debounced dispatch of searches.
package session

import (
	"context"
	"sync"
	"time"

	"chublink/internal/chub"
	"chublink/internal/debounce"
)

// QuietPeriod is how long the input must stay unchanged before a search is
// dispatched on its own.
const QuietPeriod = 750 * time.Millisecond

// Searcher is the slice of the chub client the session needs.
type Searcher interface {
	Search(ctx context.Context, st *chub.ListState, crit chub.Criteria) []chub.CharacterSummary
}

// Session serializes criteria edits and search dispatches for one open
// panel. Edits schedule a debounced search; SearchNow (the explicit search
// button) fires immediately. Results are pushed through the OnResults
// callback; stale in-flight searches are discarded inside ListState.
type Session struct {
	mu        sync.Mutex
	client    Searcher
	state     *chub.ListState
	crit      chub.Criteria
	deb       *debounce.Debouncer
	onResults func([]chub.CharacterSummary)
}

// Option configures a Session.
type Option func(*Session)

// WithDefaults seeds the initial criteria (page size, nsfw preference).
func WithDefaults(first int, nsfw bool) Option {
	return func(s *Session) {
		s.crit.First = first
		s.crit.NSFW = nsfw
	}
}

// WithQuietPeriod overrides the debounce window; tests shrink it.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Session) {
		s.deb = debounce.New(d, s.dispatch)
	}
}

// OnResults registers the consumer of every completed search.
func OnResults(fn func([]chub.CharacterSummary)) Option {
	return func(s *Session) { s.onResults = fn }
}

// New creates a session around a searcher.
func New(client Searcher, opts ...Option) *Session {
	s := &Session{
		client: client,
		state:  chub.NewListState(),
		crit:   chub.Criteria{Page: 1, Sort: chub.SortDownloadCount},
	}
	s.deb = debounce.New(QuietPeriod, s.dispatch)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Criteria returns a copy of the current criteria.
func (s *Session) Criteria() chub.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crit
}

// Results returns the current list.
func (s *Session) Results() []chub.CharacterSummary {
	return s.state.Entries()
}

// SetTerm updates the free-text term and schedules a debounced search.
func (s *Session) SetTerm(term string) {
	s.edit(func(c *chub.Criteria) { c.SearchTerm = term; c.Page = 1 })
}

// SetIncludeTags replaces the include-tag list.
func (s *Session) SetIncludeTags(tags []string) {
	s.edit(func(c *chub.Criteria) { c.IncludeTags = tags; c.Page = 1 })
}

// SetExcludeTags replaces the exclude-tag list.
func (s *Session) SetExcludeTags(tags []string) {
	s.edit(func(c *chub.Criteria) { c.ExcludeTags = tags; c.Page = 1 })
}

// SetSort changes the sort key; unknown keys are ignored.
func (s *Session) SetSort(key string) {
	if !chub.IsValidSort(key) {
		return
	}
	s.edit(func(c *chub.Criteria) { c.Sort = key; c.Page = 1 })
}

// SetNSFW flips the maturity filter.
func (s *Session) SetNSFW(on bool) {
	s.edit(func(c *chub.Criteria) { c.NSFW = on; c.NSFWSet = true; c.Page = 1 })
}

// SetPage jumps to a page; values below 1 clamp to 1.
func (s *Session) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.edit(func(c *chub.Criteria) { c.Page = page })
}

// NextPage advances one page.
func (s *Session) NextPage() {
	s.edit(func(c *chub.Criteria) { c.Page++ })
}

// PrevPage goes back one page, never below 1.
func (s *Session) PrevPage() {
	s.edit(func(c *chub.Criteria) {
		if c.Page > 1 {
			c.Page--
		}
	})
}

// Apply replaces the whole criteria set at once (the CLI query line).
// Fields the line leaves out keep the seeded defaults: the page size, and
// the nsfw preference unless NSFWSet marks it as given explicitly.
func (s *Session) Apply(crit chub.Criteria) {
	s.edit(func(c *chub.Criteria) {
		first := c.First
		nsfw := c.NSFW
		*c = crit
		if c.First == 0 {
			c.First = first
		}
		if !crit.NSFWSet {
			c.NSFW = nsfw
		}
		if crit.Sort == "" {
			c.Sort = chub.SortDownloadCount
		}
		if c.Page < 1 {
			c.Page = 1
		}
	})
}

// SearchNow bypasses the quiet period (explicit search button).
func (s *Session) SearchNow() {
	s.deb.Flush()
}

// Close stops the pending debounce timer.
func (s *Session) Close() {
	s.deb.Stop()
}

func (s *Session) edit(mutate func(*chub.Criteria)) {
	s.mu.Lock()
	mutate(&s.crit)
	s.mu.Unlock()
	s.deb.Trigger()
}

// dispatch runs one search with the criteria as of now. The ListState keeps
// a stale response from overwriting a newer one, so dispatches may overlap
// without corrupting the list.
func (s *Session) dispatch() {
	s.mu.Lock()
	crit := s.crit
	cb := s.onResults
	s.mu.Unlock()

	results := s.client.Search(context.Background(), s.state, crit)
	if cb != nil {
		cb(results)
	}
}
