package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/socialconnect/feed/internal/entities"
)

// State is an accumulator's loading state.
type State int

const (
	// StateEmpty ...
	StateEmpty State = iota
	// StateLoading ...
	StateLoading
	// StateLoaded ...
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Pages returns feed pages. It is implemented by *PageCache.
type Pages interface {
	Get(ctx context.Context, key PageKey) (*entities.Page, error)
}

// Accumulator is a session's growing feed built page by page.
// All methods are serialized, a fetch holds the lock until its page is applied.
type Accumulator struct {
	mu sync.Mutex

	session string
	pages   Pages

	scope   Scope
	state   State
	page    int
	next    string
	hasMore bool
	items   []entities.FeedItem
	seen    map[entities.PostID]struct{}

	// unix nanoseconds, read without mu
	lastUsed atomic.Int64
}

// NewAccumulator creates an empty accumulator of the session.
func NewAccumulator(session string, pages Pages) *Accumulator {
	a := &Accumulator{
		session: session,
		pages:   pages,
		items:   []entities.FeedItem{},
		seen:    map[entities.PostID]struct{}{},
	}
	a.touch()

	return a
}

// Initialize loads the first page of the scope replacing accumulated items.
// On failure previous items and scope are kept.
func (a *Accumulator) Initialize(ctx context.Context, scope Scope) (entities.Feed, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.initialize(ctx, scope)
}

// Reset reloads the first page of the current scope.
func (a *Accumulator) Reset(ctx context.Context) (entities.Feed, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.initialize(ctx, a.scope)
}

// LoadMore appends the next page. It does nothing when there is nothing more to load.
func (a *Accumulator) LoadMore(ctx context.Context) (entities.Feed, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.touch()

	if a.state != StateLoaded || !a.hasMore {
		return a.snapshot(), nil
	}

	a.state = StateLoading
	// continues right after the last fetched post, deletions do not shift it
	page, err := a.pages.Get(ctx, PageKey{Session: a.session, Scope: a.scope, Page: a.page + 1, Token: a.next})
	if err != nil {
		a.state = StateLoaded
		return a.snapshot(), err
	}

	a.page++
	a.next = page.Next
	a.hasMore = page.HasMore
	a.state = StateLoaded

	for _, v := range page.Items {
		if _, ok := a.seen[v.ID]; ok {
			continue
		}
		a.seen[v.ID] = struct{}{}
		a.items = append(a.items, v)
	}

	return a.snapshot(), nil
}

// RemovePost removes the post from accumulated items keeping order of the rest.
// It returns false if the post is not accumulated.
func (a *Accumulator) RemovePost(id entities.PostID) (entities.Feed, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.touch()

	if _, ok := a.seen[id]; !ok {
		return a.snapshot(), false
	}

	for i, v := range a.items {
		if v.ID == id {
			a.items = append(a.items[:i:i], a.items[i+1:]...)
			break
		}
	}
	delete(a.seen, id)

	return a.snapshot(), true
}

// Update replaces fields of the accumulated post with f's result.
// It returns false if the post is not accumulated.
func (a *Accumulator) Update(id entities.PostID, f func(item entities.FeedItem) entities.FeedItem) (entities.Feed, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.touch()

	for i, v := range a.items {
		if v.ID == id {
			a.items[i] = f(v)
			a.items[i].ID = id
			return a.snapshot(), true
		}
	}

	return a.snapshot(), false
}

// Feed returns accumulated items.
func (a *Accumulator) Feed() entities.Feed {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.touch()

	return a.snapshot()
}

// Scope returns current scope.
func (a *Accumulator) Scope() Scope {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.scope
}

// State returns current state.
func (a *Accumulator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.state
}

// IdleSince returns last time the accumulator was used. It does not wait for a running fetch.
func (a *Accumulator) IdleSince() time.Time {
	return time.Unix(0, a.lastUsed.Load())
}

func (a *Accumulator) touch() {
	a.lastUsed.Store(time.Now().UnixNano())
}

func (a *Accumulator) initialize(ctx context.Context, scope Scope) (entities.Feed, error) {
	a.touch()

	prev := a.state
	a.state = StateLoading

	page, err := a.pages.Get(ctx, PageKey{Session: a.session, Scope: scope, Page: 1})
	if err != nil {
		a.state = prev
		return a.snapshot(), err
	}

	a.scope = scope
	a.page = 1
	a.next = page.Next
	a.hasMore = page.HasMore
	a.state = StateLoaded
	a.items = make([]entities.FeedItem, 0, len(page.Items))
	a.seen = make(map[entities.PostID]struct{}, len(page.Items))

	for _, v := range page.Items {
		if _, ok := a.seen[v.ID]; ok {
			continue
		}
		a.seen[v.ID] = struct{}{}
		a.items = append(a.items, v)
	}

	return a.snapshot(), nil
}

func (a *Accumulator) snapshot() entities.Feed {
	items := make([]entities.FeedItem, len(a.items))
	copy(items, a.items)

	return entities.Feed{
		Items:   items,
		HasMore: a.state == StateLoaded && a.hasMore,
	}
}
