// Package postgres is implementation of storage interface.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/socialconnect/feed/internal/entities"
	"github.com/socialconnect/feed/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "postgres")

const (
	foreignKeyViolation    = "23503"
	uniqueViolation        = "23505"
	connectionExceptionCls = "08"
	insufficientResCls     = "53"
	operatorInterventCls   = "57"
)

type pg struct {
	ext sqlx.ExtContext
}

type userDTO struct {
	ID          int64     `db:"id"`
	Handle      string    `db:"handle"`
	DisplayName string    `db:"display_name"`
	CreatedAt   time.Time `db:"created_at"`
}

type postDTO struct {
	ID        int64         `db:"id"`
	AuthorID  int64         `db:"author_id"`
	ParentID  sql.NullInt64 `db:"parent_id"`
	Content   string        `db:"content"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

type likesDTO struct {
	PostID int64  `db:"post_id"`
	Count  uint32 `db:"count"`
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
	}
}

func (s pg) Ping(ctx context.Context) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		return nil
	}

	if err := db.PingContext(ctx); err != nil {
		return wrapError("ping", err)
	}

	return nil
}

func (s pg) CreateUser(ctx context.Context, p *storage.CreateUserParams) (*entities.User, error) {
	var u userDTO

	if err := sqlx.GetContext(ctx, s.ext, &u, `
			INSERT INTO "user"(handle, display_name, created_at)
			VALUES($1, $2, $3)
			RETURNING id, handle, display_name, created_at
		`, p.Handle, p.DisplayName, p.CreatedAt.UTC(),
	); err != nil {
		return nil, wrapError("insert user", err)
	}

	return toUser(&u), nil
}

func (s pg) GetUser(ctx context.Context, id entities.UserID) (*entities.User, error) {
	var u userDTO

	if err := sqlx.GetContext(ctx, s.ext, &u, `
			SELECT id, handle, display_name, created_at FROM "user" WHERE id = $1
		`, int64(id),
	); err != nil {
		return nil, wrapError("query user", err)
	}

	return toUser(&u), nil
}

func (s pg) GetUserByHandle(ctx context.Context, handle string) (*entities.User, error) {
	var u userDTO

	if err := sqlx.GetContext(ctx, s.ext, &u, `
			SELECT id, handle, display_name, created_at FROM "user" WHERE handle = $1
		`, handle,
	); err != nil {
		return nil, wrapError("query user", err)
	}

	return toUser(&u), nil
}

func (s pg) Follow(ctx context.Context, follower, followee entities.UserID) error {
	if _, err := s.ext.ExecContext(ctx,
		`
			INSERT INTO follow(follower, followee, created_at) VALUES($1, $2, now()) ON CONFLICT DO NOTHING
		`, int64(follower), int64(followee),
	); err != nil {
		return wrapError("exec", err)
	}

	return nil
}

func (s pg) Unfollow(ctx context.Context, follower, followee entities.UserID) error {
	if _, err := s.ext.ExecContext(ctx,
		`
			DELETE FROM follow WHERE follower=$1 AND followee=$2
		`, int64(follower), int64(followee),
	); err != nil {
		return wrapError("exec", err)
	}

	return nil
}

func (s pg) GetFolloweeIDs(ctx context.Context, follower entities.UserID) ([]entities.UserID, error) {
	var ids []int64

	if err := sqlx.SelectContext(ctx, s.ext, &ids, `
			SELECT followee FROM follow WHERE follower = $1 ORDER BY followee
		`, int64(follower),
	); err != nil {
		return nil, wrapError("query followees", err)
	}

	out := make([]entities.UserID, len(ids))
	for i, v := range ids {
		out[i] = entities.UserID(v)
	}

	return out, nil
}

func (s pg) ListPosts(ctx context.Context, p *storage.ListPostsParams) ([]*entities.Post, error) {
	if len(p.Authors) == 0 {
		return []*entities.Post{}, nil
	}

	authors := make([]int64, len(p.Authors))
	for i, v := range p.Authors {
		authors[i] = int64(v)
	}

	where := []string{"author_id = ANY($1)"}
	args := []interface{}{pq.Array(authors)}

	if p.TopLevelOnly {
		where = append(where, "parent_id IS NULL")
	}

	if p.After != nil {
		args = append(args, p.After.CreatedAt.UTC(), int64(p.After.ID))
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	args = append(args, p.Limit, p.Offset)
	query := fmt.Sprintf(`
			SELECT id, author_id, parent_id, content, created_at, updated_at
			FROM post
			WHERE %s
			ORDER BY created_at DESC, id DESC
			LIMIT $%d OFFSET $%d
		`, strings.Join(where, " AND "), len(args)-1, len(args))

	var pp []*postDTO
	if err := sqlx.SelectContext(ctx, s.ext, &pp, query, args...); err != nil {
		return nil, wrapError("query posts", err)
	}

	return toPosts(pp), nil
}

func (s pg) ListComments(ctx context.Context, parent entities.PostID) ([]*entities.Post, error) {
	var pp []*postDTO

	if err := sqlx.SelectContext(ctx, s.ext, &pp, `
			SELECT id, author_id, parent_id, content, created_at, updated_at
			FROM post
			WHERE parent_id = $1
			ORDER BY created_at ASC, id ASC
		`, int64(parent),
	); err != nil {
		return nil, wrapError("query comments", err)
	}

	return toPosts(pp), nil
}

func (s pg) CreatePost(ctx context.Context, p *storage.CreatePostParams) (*entities.Post, error) {
	var parent sql.NullInt64
	if p.ParentID != nil {
		parent = sql.NullInt64{Int64: int64(*p.ParentID), Valid: true}
	}

	var out postDTO
	if err := sqlx.GetContext(ctx, s.ext, &out, `
			INSERT INTO post(author_id, parent_id, content, created_at, updated_at)
			VALUES($1, $2, $3, $4, $4)
			RETURNING id, author_id, parent_id, content, created_at, updated_at
		`, int64(p.AuthorID), parent, p.Content, p.CreatedAt.UTC(),
	); err != nil {
		return nil, wrapError("insert post", err)
	}

	return toPost(&out), nil
}

func (s pg) GetPost(ctx context.Context, id entities.PostID) (*entities.Post, error) {
	var p postDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT id, author_id, parent_id, content, created_at, updated_at
			FROM post
			WHERE id = $1
		`, int64(id),
	); err != nil {
		return nil, wrapError("query post", err)
	}

	return toPost(&p), nil
}

func (s pg) UpdatePostContent(ctx context.Context, id entities.PostID, content string, timestamp time.Time) error {
	res, err := s.ext.ExecContext(ctx,
		`UPDATE post SET content=$2, updated_at=$3 WHERE id=$1`,
		int64(id), content, timestamp.UTC(),
	)
	if err != nil {
		return wrapError("exec", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) DeletePost(ctx context.Context, id entities.PostID) error {
	res, err := s.ext.ExecContext(ctx, `DELETE FROM post WHERE id=$1`, int64(id))
	if err != nil {
		return wrapError("exec", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) CountLikes(ctx context.Context, id ...entities.PostID) (map[entities.PostID]uint32, error) {
	out := make(map[entities.PostID]uint32, len(id))
	if len(id) == 0 {
		return out, nil
	}

	var dto []likesDTO
	if err := sqlx.SelectContext(ctx, s.ext, &dto, `
			SELECT post_id, COUNT(*) AS count FROM "like"
			WHERE post_id = ANY($1)
			GROUP BY post_id
		`, pq.Array(postIDs(id)),
	); err != nil {
		return nil, wrapError("query likes", err)
	}

	for _, v := range dto {
		out[entities.PostID(v.PostID)] = v.Count
	}

	return out, nil
}

func (s pg) GetLiked(ctx context.Context, likedBy entities.UserID, id ...entities.PostID) (map[entities.PostID]bool, error) {
	out := make(map[entities.PostID]bool, len(id))
	if len(id) == 0 {
		return out, nil
	}

	var liked []int64
	if err := sqlx.SelectContext(ctx, s.ext, &liked, `
			SELECT post_id FROM "like" WHERE user_id = $1 AND post_id = ANY($2)
		`, int64(likedBy), pq.Array(postIDs(id)),
	); err != nil {
		return nil, wrapError("query likes", err)
	}

	for _, v := range liked {
		out[entities.PostID(v)] = true
	}

	return out, nil
}

func (s pg) ToggleLike(ctx context.Context, likedBy entities.UserID, id entities.PostID, timestamp time.Time) (bool, error) {
	var liked bool

	// Single statement keeps the toggle atomic: the row is either removed or inserted.
	if err := sqlx.GetContext(ctx, s.ext, &liked, `
			WITH deleted AS (
				DELETE FROM "like" WHERE user_id = $1 AND post_id = $2 RETURNING 1
			), inserted AS (
				INSERT INTO "like"(user_id, post_id, liked_at)
				SELECT $1, $2, $3 WHERE NOT EXISTS (SELECT 1 FROM deleted)
				ON CONFLICT DO NOTHING
				RETURNING 1
			)
			SELECT EXISTS (SELECT 1 FROM inserted)
		`, int64(likedBy), int64(id), timestamp.UTC(),
	); err != nil {
		return false, wrapError("toggle like", err)
	}

	return liked, nil
}

func wrapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == foreignKeyViolation:
			return fmt.Errorf("%w: %s", storage.ErrNotFound, pqErr.Detail)
		case pqErr.Code == uniqueViolation:
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, pqErr.Detail)
		case pqErr.Code.Class() == connectionExceptionCls,
			pqErr.Code.Class() == insufficientResCls,
			pqErr.Code.Class() == operatorInterventCls:
			return fmt.Errorf("failed to %s: %w: %w", op, storage.ErrUnavailable, err)
		}

		return fmt.Errorf("failed to %s: %w", op, err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || isNetError(err) {
		log.WithError(err).WithField("op", op).Warn("database is unavailable")
		return fmt.Errorf("failed to %s: %w: %w", op, storage.ErrUnavailable, err)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

func isNetError(err error) bool {
	var ne net.Error
	return errors.As(err, &ne)
}

func toUser(u *userDTO) *entities.User {
	return &entities.User{
		ID:          entities.UserID(u.ID),
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toPost(p *postDTO) *entities.Post {
	out := entities.Post{
		ID:        entities.PostID(p.ID),
		AuthorID:  entities.UserID(p.AuthorID),
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	if p.ParentID.Valid {
		v := entities.PostID(p.ParentID.Int64)
		out.ParentID = &v
	}

	return &out
}

func toPosts(pp []*postDTO) []*entities.Post {
	out := make([]*entities.Post, len(pp))
	for i, v := range pp {
		out[i] = toPost(v)
	}

	return out
}

func postIDs(id []entities.PostID) []int64 {
	out := make([]int64, 0, len(id))
	m := make(map[entities.PostID]struct{}, len(id))

	for _, v := range id {
		if _, ok := m[v]; !ok {
			m[v] = struct{}{}
			out = append(out, int64(v))
		}
	}

	return out
}
