// Package feed composes home and profile timelines: it resolves an audience, pages through its posts,
// caches computed pages per session and accumulates pages into a client-visible sequence.
package feed

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/socialconnect/feed/internal/entities"
	"github.com/socialconnect/feed/internal/storage"
)

var log = logrus.WithField("layer", "feed").WithField("package", "feed")

// ErrInvalidCursor is returned when cursor has neither valid page nor valid token.
var ErrInvalidCursor = errors.New("invalid cursor")

// Scope defines whose posts are shown. Target has precedence over Viewer.
type Scope struct {
	ViewerID *entities.UserID
	TargetID *entities.UserID
}

// HomeScope returns scope of viewer's home feed.
func HomeScope(viewer entities.UserID) Scope {
	return Scope{ViewerID: &viewer}
}

// ProfileScope returns scope of target's profile feed seen by viewer. Viewer can be nil.
func ProfileScope(viewer *entities.UserID, target entities.UserID) Scope {
	return Scope{ViewerID: viewer, TargetID: &target}
}

func (s Scope) String() string {
	return fmt.Sprintf("%s:%s", idString(s.ViewerID), idString(s.TargetID))
}

// Cursor is a position in a feed. Token has precedence over Page.
type Cursor struct {
	Page  int
	Token string
}

// FirstPage ...
var FirstPage = Cursor{Page: 1}

// Planner builds and executes feed queries.
type Planner struct {
	s        storage.Storage
	pageSize int
}

// NewPlanner creates new instance of Planner.
func NewPlanner(s storage.Storage) *Planner {
	return &Planner{
		s:        s,
		pageSize: entities.PageSize,
	}
}

// Audience returns sorted ids of users whose posts belong to the scope.
func (p *Planner) Audience(ctx context.Context, scope Scope) ([]entities.UserID, error) {
	switch {
	case scope.TargetID != nil:
		if _, err := p.s.GetUser(ctx, *scope.TargetID); err != nil {
			return nil, fmt.Errorf("failed to get target user: %w", err)
		}

		return []entities.UserID{*scope.TargetID}, nil
	case scope.ViewerID != nil:
		followees, err := p.s.GetFolloweeIDs(ctx, *scope.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get followees: %w", err)
		}

		return unique(append(followees, *scope.ViewerID)), nil
	default:
		return []entities.UserID{}, nil
	}
}

// Plan returns a page of the scope's feed at the cursor.
func (p *Planner) Plan(ctx context.Context, scope Scope, cursor Cursor) (*entities.Page, error) {
	params := storage.ListPostsParams{
		TopLevelOnly: true,
		Limit:        uint16(p.pageSize + 1),
	}

	number := cursor.Page
	if cursor.Token != "" {
		pos, err := DecodeToken(cursor.Token)
		if err != nil {
			return nil, err
		}
		params.After = pos
		number = 0
	} else {
		if cursor.Page < 1 {
			return nil, fmt.Errorf("%w: page should be positive", ErrInvalidCursor)
		}
		params.Offset = uint64(cursor.Page-1) * uint64(p.pageSize)
	}

	audience, err := p.Audience(ctx, scope)
	if err != nil {
		return nil, err
	}

	out := entities.Page{
		Items:    []entities.FeedItem{},
		Number:   number,
		Audience: audience,
	}

	if len(audience) == 0 {
		return &out, nil
	}

	params.Authors = audience

	posts, err := p.s.ListPosts(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	if len(posts) > p.pageSize {
		posts = posts[:p.pageSize]
		out.HasMore = true
	}

	if out.Items, err = p.Annotate(ctx, scope.ViewerID, posts...); err != nil {
		return nil, err
	}

	if out.HasMore {
		last := posts[len(posts)-1]
		out.Next = EncodeToken(storage.Position{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	log.WithFields(logrus.Fields{
		"scope":    scope.String(),
		"page":     number,
		"audience": len(audience),
		"items":    len(out.Items),
	}).Debug("feed page planned")

	return &out, nil
}

// Annotate attaches like counts and viewer's like state to posts. Viewer can be nil.
func (p *Planner) Annotate(ctx context.Context, viewer *entities.UserID, posts ...*entities.Post) ([]entities.FeedItem, error) {
	out := make([]entities.FeedItem, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	ids := make([]entities.PostID, len(posts))
	for i, v := range posts {
		ids[i] = v.ID
	}

	counts, err := p.s.CountLikes(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	var liked map[entities.PostID]bool
	if viewer != nil {
		if liked, err = p.s.GetLiked(ctx, *viewer, ids...); err != nil {
			return nil, fmt.Errorf("failed to get likes: %w", err)
		}
	}

	for i, v := range posts {
		out[i] = entities.FeedItem{
			Post:          *v,
			LikeCount:     counts[v.ID],
			LikedByViewer: liked[v.ID],
		}
	}

	return out, nil
}

// EncodeToken returns opaque cursor token pointing right after the position.
func EncodeToken(p storage.Position) string {
	return base64.RawURLEncoding.EncodeToString(
		[]byte(fmt.Sprintf("%d.%d", p.CreatedAt.UnixNano(), p.ID)),
	)
}

// DecodeToken parses token produced by EncodeToken.
func DecodeToken(token string) (*storage.Position, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode token", ErrInvalidCursor)
	}

	parts := strings.Split(string(b), ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: malformed token", ErrInvalidCursor)
	}

	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed token timestamp", ErrInvalidCursor)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed token id", ErrInvalidCursor)
	}

	return &storage.Position{
		CreatedAt: time.Unix(0, ts).UTC(),
		ID:        entities.PostID(id),
	}, nil
}

func unique(ids []entities.UserID) []entities.UserID {
	m := make(map[entities.UserID]struct{}, len(ids))
	out := make([]entities.UserID, 0, len(ids))

	for _, v := range ids {
		if _, ok := m[v]; !ok {
			m[v] = struct{}{}
			out = append(out, v)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func idString(id *entities.UserID) string {
	if id == nil {
		return "-"
	}

	return strconv.FormatInt(int64(*id), 10)
}
