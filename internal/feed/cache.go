package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/socialconnect/feed/internal/cache"
	"github.com/socialconnect/feed/internal/entities"
)

// nolint:gochecknoglobals
var cacheRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feed_page_cache_requests_total",
		Help: "Total number of feed page cache lookups by result",
	},
	[]string{"result"},
)

// nolint:gochecknoinits
func init() {
	prometheus.MustRegister(cacheRequests)
}

// Pager computes feed pages. It is implemented by *Planner.
type Pager interface {
	Plan(ctx context.Context, scope Scope, cursor Cursor) (*entities.Page, error)
}

// PageKey identifies a cached page. Pages never cross sessions.
// Token, when set, is the keyset position the page starts after and has precedence over Page.
type PageKey struct {
	Session string
	Scope   Scope
	Page    int
	Token   string
}

func (k PageKey) cursor() Cursor {
	return Cursor{Page: k.Page, Token: k.Token}
}

// PageCache memoizes feed pages per session. Invalidate drops every page of a session at once by
// rotating the session's generation, so pages of older generations are never read again.
type PageCache struct {
	p   Pager
	c   cache.Storage
	ttl time.Duration
}

// NewPageCache creates new instance of PageCache.
func NewPageCache(p Pager, c cache.Storage, ttl time.Duration) *PageCache {
	return &PageCache{
		p:   p,
		c:   c,
		ttl: ttl,
	}
}

// Get returns cached page or plans, stores and returns it.
func (pc *PageCache) Get(ctx context.Context, key PageKey) (*entities.Page, error) {
	l := log.WithFields(logrus.Fields{"session": key.Session, "scope": key.Scope.String(), "page": key.Page})

	gen, err := pc.generation(ctx, key.Session)
	if err != nil {
		// cache is an optimization only, so an unavailable backend degrades to planning every time
		l.WithError(err).Warn("failed to get cache generation")
		cacheRequests.WithLabelValues("error").Inc()

		return pc.p.Plan(ctx, key.Scope, key.cursor())
	}

	k := pageKey(gen, key)

	if b, err := pc.c.Get(ctx, k); err == nil {
		var page entities.Page
		if err := json.Unmarshal(b, &page); err == nil {
			cacheRequests.WithLabelValues("hit").Inc()
			return &page, nil
		}
		l.Warn("failed to unmarshal cached page")
	} else if !errors.Is(err, cache.ErrMiss) {
		l.WithError(err).Warn("failed to get cached page")
	}

	cacheRequests.WithLabelValues("miss").Inc()

	page, err := pc.p.Plan(ctx, key.Scope, key.cursor())
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(page); err != nil {
		l.WithError(err).Error("failed to marshal page")
	} else if err := pc.c.Set(ctx, k, b, pc.ttl); err != nil {
		l.WithError(err).Warn("failed to cache page")
	}

	return page, nil
}

// Invalidate drops all cached pages of the session.
func (pc *PageCache) Invalidate(ctx context.Context, session string) error {
	if err := pc.c.Set(ctx, generationKey(session), []byte(uuid.NewString()), pc.ttl); err != nil {
		return fmt.Errorf("failed to rotate generation: %w", err)
	}

	log.WithField("session", session).Debug("session pages invalidated")

	return nil
}

func (pc *PageCache) generation(ctx context.Context, session string) (string, error) {
	b, err := pc.c.Get(ctx, generationKey(session))
	switch {
	case err == nil:
		return string(b), nil
	case errors.Is(err, cache.ErrMiss):
		gen := uuid.NewString()
		if err := pc.c.Set(ctx, generationKey(session), []byte(gen), pc.ttl); err != nil {
			return "", fmt.Errorf("failed to set generation: %w", err)
		}
		return gen, nil
	default:
		return "", fmt.Errorf("failed to get generation: %w", err)
	}
}

func generationKey(session string) string {
	return fmt.Sprintf("gen:%s", session)
}

func pageKey(gen string, key PageKey) string {
	if key.Token != "" {
		return fmt.Sprintf("page:%s:%s:%s:@%s", key.Session, gen, key.Scope.String(), key.Token)
	}

	return fmt.Sprintf("page:%s:%s:%s:%d", key.Session, gen, key.Scope.String(), key.Page)
}
