package server

import (
	"github.com/socialconnect/feed/internal/entities"
)

// InitializeFeedRequest ...
// swagger:model
type InitializeFeedRequest struct {
	// Handle of the profile to be shown. Home feed is shown when it's empty.
	Target string `json:"target,omitempty"`
}

// CreatePostRequest ...
// swagger:model
type CreatePostRequest struct {
	Content  string           `json:"content"`
	ParentID *entities.PostID `json:"parentId,omitempty"`
}

// EditPostRequest ...
// swagger:model
type EditPostRequest struct {
	Content string `json:"content"`
}

// FeedResponse ...
// swagger:model
type FeedResponse struct {
	Items   []entities.FeedItem `json:"items"`
	HasMore bool                `json:"hasMore"`
}

// PostResponse ...
// swagger:model
type PostResponse struct {
	Post *entities.Post `json:"post"`
	Feed FeedResponse   `json:"feed"`
}

// LikeResponse ...
// swagger:model
type LikeResponse struct {
	Liked bool         `json:"liked"`
	Feed  FeedResponse `json:"feed"`
}

// PageResponse ...
// swagger:model
type PageResponse struct {
	Items   []entities.FeedItem `json:"items"`
	Page    int                 `json:"page"`
	Next    string              `json:"next,omitempty"`
	HasMore bool                `json:"hasMore"`
}

// CommentsResponse ...
// swagger:model
type CommentsResponse struct {
	Comments []entities.FeedItem `json:"comments"`
}

func newFeedResponse(f entities.Feed) FeedResponse {
	items := f.Items
	if items == nil {
		items = []entities.FeedItem{}
	}

	return FeedResponse{
		Items:   items,
		HasMore: f.HasMore,
	}
}

func newPageResponse(p *entities.Page) PageResponse {
	return PageResponse{
		Items:   p.Items,
		Page:    p.Number,
		Next:    p.Next,
		HasMore: p.HasMore,
	}
}
