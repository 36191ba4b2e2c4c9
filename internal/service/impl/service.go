// Package impl is implementation of service interface.
package impl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/socialconnect/feed/internal/cache"
	"github.com/socialconnect/feed/internal/entities"
	"github.com/socialconnect/feed/internal/feed"
	"github.com/socialconnect/feed/internal/service"
	"github.com/socialconnect/feed/internal/storage"
)

var log = logrus.WithField("layer", "service").WithField("package", "impl")

// nolint:gochecknoglobals
var activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "feed_sessions_active",
	Help: "Number of sessions with an initialized feed",
})

// nolint:gochecknoinits
func init() {
	prometheus.MustRegister(activeSessions)
}

// service ...
type srv struct {
	s       storage.Storage
	planner *feed.Planner
	pages   *feed.PageCache

	mu       sync.Mutex
	sessions map[string]*feed.Accumulator
}

// New creates new instance of service.
func New(s storage.Storage, c cache.Storage, pageTTL time.Duration) service.Service {
	p := feed.NewPlanner(s)

	return &srv{
		s:        s,
		planner:  p,
		pages:    feed.NewPageCache(p, c, pageTTL),
		sessions: map[string]*feed.Accumulator{},
	}
}

func (s *srv) GetUser(ctx context.Context, handle string) (*entities.User, error) {
	u, err := s.s.GetUserByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *srv) ProfilePage(ctx context.Context, viewer *entities.UserID, handle string, cursor feed.Cursor) (*entities.Page, error) {
	u, err := s.GetUser(ctx, handle)
	if err != nil {
		return nil, err
	}

	return s.planner.Plan(ctx, feed.ProfileScope(viewer, u.ID), cursor)
}

func (s *srv) InitializeFeed(ctx context.Context, session string, scope feed.Scope) (entities.Feed, error) {
	acc := s.register(session)

	out, err := acc.Initialize(ctx, scope)
	if err != nil {
		// a session which has never been loaded is not kept
		if acc.State() == feed.StateEmpty {
			s.unregister(session, acc)
		}
		return out, fmt.Errorf("failed to initialize feed: %w", err)
	}

	s.mu.Lock()
	if _, ok := s.sessions[session]; !ok {
		s.sessions[session] = acc
		activeSessions.Set(float64(len(s.sessions)))
	}
	s.mu.Unlock()

	return out, nil
}

func (s *srv) GetFeed(_ context.Context, session string) (entities.Feed, error) {
	acc, ok := s.session(session)
	if !ok {
		return entities.Feed{}, service.ErrSessionNotFound
	}

	return acc.Feed(), nil
}

func (s *srv) LoadMore(ctx context.Context, session string) (entities.Feed, error) {
	acc, ok := s.session(session)
	if !ok {
		return entities.Feed{}, service.ErrSessionNotFound
	}

	out, err := acc.LoadMore(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to load more: %w", err)
	}

	return out, nil
}

func (s *srv) RefreshFeed(ctx context.Context, session string) (entities.Feed, error) {
	acc, ok := s.session(session)
	if !ok {
		return entities.Feed{}, service.ErrSessionNotFound
	}

	return s.reset(ctx, session, acc)
}

func (s *srv) CloseSession(ctx context.Context, session string) error {
	s.mu.Lock()
	delete(s.sessions, session)
	activeSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if err := s.pages.Invalidate(ctx, session); err != nil {
		return fmt.Errorf("failed to invalidate pages: %w", err)
	}

	return nil
}

func (s *srv) Sweep(_ context.Context, idle time.Duration) int {
	deadline := time.Now().Add(-idle)

	s.mu.Lock()
	sessions := make(map[string]*feed.Accumulator, len(s.sessions))
	for k, v := range s.sessions {
		sessions[k] = v
	}
	s.mu.Unlock()

	expired := make(map[string]*feed.Accumulator)
	for k, v := range sessions {
		if v.IdleSince().Before(deadline) {
			expired[k] = v
		}
	}

	if len(expired) == 0 {
		return 0
	}

	s.mu.Lock()
	var n int
	for k, v := range expired {
		// the session could be closed and opened again meanwhile
		if s.sessions[k] == v {
			delete(s.sessions, k)
			n++
		}
	}
	activeSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if n > 0 {
		log.WithField("count", n).Info("idle sessions swept")
	}

	return n
}

func (s *srv) CreatePost(ctx context.Context, session string, p *service.CreatePostParams) (*entities.Post, entities.Feed, error) {
	content, err := validateContent(p.Content)
	if err != nil {
		return nil, s.snapshot(session), err
	}

	if p.ParentID != nil {
		parent, err := s.s.GetPost(ctx, *p.ParentID)
		if err != nil {
			return nil, s.snapshot(session), fmt.Errorf("failed to get parent post: %w", err)
		}
		if !parent.IsTopLevel() {
			return nil, s.snapshot(session), fmt.Errorf("%w: comments can not be commented", service.ErrValidation)
		}
	}

	post, err := s.s.CreatePost(ctx, &storage.CreatePostParams{
		AuthorID:  p.AuthorID,
		ParentID:  p.ParentID,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, s.snapshot(session), fmt.Errorf("failed to create post: %w", err)
	}

	acc, ok := s.session(session)
	if !ok || !post.IsTopLevel() {
		return post, s.snapshot(session), nil
	}

	out, err := s.reset(ctx, session, acc)
	if err != nil {
		// post is stored, the client sees it after the next refresh
		log.WithError(err).WithField("session", session).Warn("failed to reset feed after post creation")
	}

	return post, out, nil
}

func (s *srv) EditPost(ctx context.Context, session string, editor entities.UserID, id entities.PostID, content string) (*entities.Post, entities.Feed, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, s.snapshot(session), err
	}

	post, err := s.s.GetPost(ctx, id)
	if err != nil {
		return nil, s.snapshot(session), fmt.Errorf("failed to get post: %w", err)
	}

	if post.AuthorID != editor {
		return nil, s.snapshot(session), fmt.Errorf("%w: post belongs to another user", service.ErrUnauthorized)
	}

	now := time.Now()
	if !post.Editable(now) {
		return nil, s.snapshot(session), fmt.Errorf("%w: edit window is over", service.ErrValidation)
	}

	if err := s.s.UpdatePostContent(ctx, id, content, now); err != nil {
		return nil, s.snapshot(session), fmt.Errorf("failed to update post: %w", err)
	}

	post.Content = content
	post.UpdatedAt = now

	acc, ok := s.session(session)
	if !ok {
		return post, entities.Feed{}, nil
	}

	out, _ := acc.Update(id, func(item entities.FeedItem) entities.FeedItem {
		item.Content = post.Content
		item.UpdatedAt = post.UpdatedAt
		return item
	})

	return post, out, nil
}

func (s *srv) DeletePost(ctx context.Context, session string, deleter entities.UserID, id entities.PostID) (entities.Feed, error) {
	post, err := s.s.GetPost(ctx, id)
	if err != nil {
		return s.snapshot(session), fmt.Errorf("failed to get post: %w", err)
	}

	if post.AuthorID != deleter {
		return s.snapshot(session), fmt.Errorf("%w: post belongs to another user", service.ErrUnauthorized)
	}

	if err := s.s.DeletePost(ctx, id); err != nil {
		return s.snapshot(session), fmt.Errorf("failed to delete post: %w", err)
	}

	s.invalidate(ctx, session)

	acc, ok := s.session(session)
	if !ok {
		return entities.Feed{}, nil
	}

	out, _ := acc.RemovePost(id)

	return out, nil
}

func (s *srv) ToggleLike(ctx context.Context, session string, user entities.UserID, id entities.PostID) (bool, entities.Feed, error) {
	liked, err := s.s.ToggleLike(ctx, user, id, time.Now())
	if err != nil {
		return false, s.snapshot(session), fmt.Errorf("failed to toggle like: %w", err)
	}

	acc, ok := s.session(session)
	if !ok {
		return liked, entities.Feed{}, nil
	}

	counts, err := s.s.CountLikes(ctx, id)
	if err != nil {
		return liked, acc.Feed(), fmt.Errorf("failed to count likes: %w", err)
	}

	likedByViewer := liked
	if viewer := acc.Scope().ViewerID; viewer == nil {
		likedByViewer = false
	} else if *viewer != user {
		m, err := s.s.GetLiked(ctx, *viewer, id)
		if err != nil {
			return liked, acc.Feed(), fmt.Errorf("failed to get likes: %w", err)
		}
		likedByViewer = m[id]
	}

	out, _ := acc.Update(id, func(item entities.FeedItem) entities.FeedItem {
		item.LikeCount = counts[id]
		item.LikedByViewer = likedByViewer
		return item
	})

	return liked, out, nil
}

func (s *srv) ListComments(ctx context.Context, viewer *entities.UserID, parent entities.PostID) ([]entities.FeedItem, error) {
	if _, err := s.s.GetPost(ctx, parent); err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	comments, err := s.s.ListComments(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return s.planner.Annotate(ctx, viewer, comments...)
}

func (s *srv) Follow(ctx context.Context, session string, follower, followee entities.UserID) (entities.Feed, error) {
	if follower == followee {
		return s.snapshot(session), fmt.Errorf("%w: user can not follow themselves", service.ErrValidation)
	}

	if err := s.s.Follow(ctx, follower, followee); err != nil {
		return s.snapshot(session), fmt.Errorf("failed to follow: %w", err)
	}

	return s.audienceChanged(ctx, session, follower)
}

func (s *srv) Unfollow(ctx context.Context, session string, follower, followee entities.UserID) (entities.Feed, error) {
	if follower == followee {
		return s.snapshot(session), fmt.Errorf("%w: user can not unfollow themselves", service.ErrValidation)
	}

	if err := s.s.Unfollow(ctx, follower, followee); err != nil {
		return s.snapshot(session), fmt.Errorf("failed to unfollow: %w", err)
	}

	return s.audienceChanged(ctx, session, follower)
}

// audienceChanged resets the session's home feed of the follower.
func (s *srv) audienceChanged(ctx context.Context, session string, follower entities.UserID) (entities.Feed, error) {
	acc, ok := s.session(session)
	if !ok {
		s.invalidate(ctx, session)
		return entities.Feed{}, nil
	}

	scope := acc.Scope()
	if scope.TargetID != nil || scope.ViewerID == nil || *scope.ViewerID != follower {
		s.invalidate(ctx, session)
		return acc.Feed(), nil
	}

	return s.reset(ctx, session, acc)
}

func (s *srv) reset(ctx context.Context, session string, acc *feed.Accumulator) (entities.Feed, error) {
	s.invalidate(ctx, session)

	out, err := acc.Reset(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to reset feed: %w", err)
	}

	return out, nil
}

func (s *srv) invalidate(ctx context.Context, session string) {
	if err := s.pages.Invalidate(ctx, session); err != nil {
		log.WithError(err).WithField("session", session).Error("failed to invalidate pages")
	}
}

// register returns the session's accumulator creating it if there is none.
func (s *srv) register(session string) *feed.Accumulator {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.sessions[session]
	if !ok {
		acc = feed.NewAccumulator(session, s.pages)
		s.sessions[session] = acc
		activeSessions.Set(float64(len(s.sessions)))
	}

	return acc
}

func (s *srv) unregister(session string, acc *feed.Accumulator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions[session] == acc {
		delete(s.sessions, session)
		activeSessions.Set(float64(len(s.sessions)))
	}
}

func (s *srv) session(session string) (*feed.Accumulator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.sessions[session]
	return acc, ok
}

func (s *srv) snapshot(session string) entities.Feed {
	if acc, ok := s.session(session); ok {
		return acc.Feed()
	}

	return entities.Feed{}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)

	if content == "" {
		return "", fmt.Errorf("%w: content is empty", service.ErrValidation)
	}

	if utf8.RuneCountInString(content) > entities.MaxContentLength {
		return "", fmt.Errorf("%w: content is longer than %d characters", service.ErrValidation, entities.MaxContentLength)
	}

	return content, nil
}
