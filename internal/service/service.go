// Package service contains interface for service business-logic.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/socialconnect/feed/internal/entities"
	"github.com/socialconnect/feed/internal/feed"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

// ErrUnauthorized is returned when a user tries to change someone else's post.
var ErrUnauthorized = errors.New("unauthorized")

// ErrValidation is returned when request violates content or relation constraints.
var ErrValidation = errors.New("validation error")

// ErrSessionNotFound is returned when session has no initialized feed.
var ErrSessionNotFound = errors.New("session not found")

// Service ...
type Service interface {
	GetUser(ctx context.Context, handle string) (*entities.User, error)
	ProfilePage(ctx context.Context, viewer *entities.UserID, handle string, cursor feed.Cursor) (*entities.Page, error)

	InitializeFeed(ctx context.Context, session string, scope feed.Scope) (entities.Feed, error)
	GetFeed(ctx context.Context, session string) (entities.Feed, error)
	LoadMore(ctx context.Context, session string) (entities.Feed, error)
	RefreshFeed(ctx context.Context, session string) (entities.Feed, error)
	CloseSession(ctx context.Context, session string) error
	Sweep(ctx context.Context, idle time.Duration) int

	CreatePost(ctx context.Context, session string, p *CreatePostParams) (*entities.Post, entities.Feed, error)
	EditPost(ctx context.Context, session string, editor entities.UserID, id entities.PostID, content string) (*entities.Post, entities.Feed, error)
	DeletePost(ctx context.Context, session string, deleter entities.UserID, id entities.PostID) (entities.Feed, error)
	ToggleLike(ctx context.Context, session string, user entities.UserID, id entities.PostID) (bool, entities.Feed, error)
	ListComments(ctx context.Context, viewer *entities.UserID, parent entities.PostID) ([]entities.FeedItem, error)

	Follow(ctx context.Context, session string, follower, followee entities.UserID) (entities.Feed, error)
	Unfollow(ctx context.Context, session string, follower, followee entities.UserID) (entities.Feed, error)
}

// CreatePostParams ...
type CreatePostParams struct {
	AuthorID entities.UserID
	ParentID *entities.PostID
	Content  string
}
