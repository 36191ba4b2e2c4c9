// Package entities contains main entities of service.
package entities

import (
	"time"
)

// UserID ...
type UserID int64

// PostID ...
type PostID int64

// PageSize is a count of posts in a feed page.
const PageSize = 10

// MaxContentLength is a maximal length of post's content in characters.
const MaxContentLength = 500

// EditWindow is a period after creation when author can change post's content.
const EditWindow = 15 * time.Minute

// User ...
type User struct {
	ID          UserID    `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Post ...
type Post struct {
	ID        PostID    `json:"id"`
	AuthorID  UserID    `json:"authorId"`
	ParentID  *PostID   `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsTopLevel returns true if post isn't a comment.
func (p Post) IsTopLevel() bool {
	return p.ParentID == nil
}

// Editable returns true if post's content can be changed at the moment.
func (p Post) Editable(now time.Time) bool {
	return now.Before(p.CreatedAt.Add(EditWindow))
}

// FeedItem is a post with fields calculated for a viewer.
type FeedItem struct {
	Post
	LikeCount     uint32 `json:"likeCount"`
	LikedByViewer bool   `json:"likedByViewer"`
}

// Page is a single page of a feed.
type Page struct {
	Items    []FeedItem `json:"items"`
	Number   int        `json:"number"`
	Next     string     `json:"next,omitempty"`
	HasMore  bool       `json:"hasMore"`
	Audience []UserID   `json:"audience"`
}

// Feed is an accumulated sequence of posts.
type Feed struct {
	Items   []FeedItem `json:"items"`
	HasMore bool       `json:"hasMore"`
}
