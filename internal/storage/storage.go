// Package storage contains a storage interface.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/socialconnect/feed/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound ...
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists ...
var ErrAlreadyExists = errors.New("already exists")

// ErrUnavailable is returned when the database can not serve a request.
var ErrUnavailable = errors.New("storage unavailable")

// Storage provides methods for interacting with database.
type Storage interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, p *CreateUserParams) (*entities.User, error)
	GetUser(ctx context.Context, id entities.UserID) (*entities.User, error)
	GetUserByHandle(ctx context.Context, handle string) (*entities.User, error)

	Follow(ctx context.Context, follower, followee entities.UserID) error
	Unfollow(ctx context.Context, follower, followee entities.UserID) error
	GetFolloweeIDs(ctx context.Context, follower entities.UserID) ([]entities.UserID, error)

	ListPosts(ctx context.Context, p *ListPostsParams) ([]*entities.Post, error)
	ListComments(ctx context.Context, parent entities.PostID) ([]*entities.Post, error)
	CreatePost(ctx context.Context, p *CreatePostParams) (*entities.Post, error)
	GetPost(ctx context.Context, id entities.PostID) (*entities.Post, error)
	UpdatePostContent(ctx context.Context, id entities.PostID, content string, timestamp time.Time) error
	DeletePost(ctx context.Context, id entities.PostID) error

	CountLikes(ctx context.Context, id ...entities.PostID) (map[entities.PostID]uint32, error)
	GetLiked(ctx context.Context, likedBy entities.UserID, id ...entities.PostID) (map[entities.PostID]bool, error)
	ToggleLike(ctx context.Context, likedBy entities.UserID, id entities.PostID, timestamp time.Time) (bool, error)
}

// ListPostsParams ...
// Posts are always sorted by created_at DESC, id DESC.
type ListPostsParams struct {
	Authors      []entities.UserID
	TopLevelOnly bool
	Limit        uint16
	Offset       uint64
	After        *Position
}

// Position is a keyset position in created_at DESC, id DESC order.
type Position struct {
	CreatedAt time.Time
	ID        entities.PostID
}

// CreateUserParams ...
type CreateUserParams struct {
	Handle      string
	DisplayName string
	CreatedAt   time.Time
}

// CreatePostParams ...
type CreatePostParams struct {
	AuthorID  entities.UserID
	ParentID  *entities.PostID
	Content   string
	CreatedAt time.Time
}
