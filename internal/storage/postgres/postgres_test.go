//go:build integration
// +build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	m "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/socialconnect/feed/internal/entities"
	"github.com/socialconnect/feed/internal/storage"
)

var (
	db  *sql.DB
	ctx = context.Background()
	s   storage.Storage
)

func TestMain(m *testing.M) {
	shutdown := setup()

	s = New(db)

	code := m.Run()
	shutdown()
	os.Exit(code)
}

func setup() func() {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:12",
		Env:          map[string]string{"POSTGRES_PASSWORD": "root"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
	})
	if err != nil {
		logrus.WithError(err).Fatalf("failed to create container")
	}

	if err := c.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start container")
	}

	host, err := c.Host(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to get host")
	}

	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		logrus.WithError(err).Fatal("failed to map port")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=postgres password=root sslmode=disable", host, port.Int())

	db, err = sql.Open("postgres", dsn)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open connection")
	}

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	shutdownFn := func() {
		if c != nil {
			c.Terminate(ctx)
		}
	}

	migrate("postgres", "root", host, "postgres", port.Int())

	return shutdownFn
}

func migrate(username, password, hostname, dbname string, port int) {
	_, currFile, _, ok := runtime.Caller(0)
	if !ok {
		logrus.Fatal("failed to get current file location")
	}

	migrations := filepath.Join(currFile, "../../../../scripts/migrations/postgres/")

	migrator, err := m.New(
		fmt.Sprintf("file://%s", migrations),
		fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			username, password, hostname, port, dbname),
	)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		logrus.WithError(err).Fatal("failed to migrate")
	}
}

func cleanup(t *testing.T) {
	_, err := db.ExecContext(ctx, `DELETE FROM "like"`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM post`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM follow`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM "user"`)
	require.NoError(t, err)
}

func createUser(t *testing.T, handle string) entities.UserID {
	u, err := s.CreateUser(ctx, &storage.CreateUserParams{Handle: handle, DisplayName: handle, CreatedAt: time.Now()})
	require.NoError(t, err)
	return u.ID
}

func createPost(t *testing.T, author entities.UserID, content string, at time.Time) entities.PostID {
	p, err := s.CreatePost(ctx, &storage.CreatePostParams{AuthorID: author, Content: content, CreatedAt: at})
	require.NoError(t, err)
	return p.ID
}

func TestPg_CreateUser(t *testing.T) {
	defer cleanup(t)

	id := createUser(t, "alice")

	u, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice", u.Handle)

	u, err = s.GetUserByHandle(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)

	_, err = s.CreateUser(ctx, &storage.CreateUserParams{Handle: "alice", CreatedAt: time.Now()})
	require.True(t, errors.Is(err, storage.ErrAlreadyExists))

	_, err = s.GetUserByHandle(ctx, "bob")
	require.Equal(t, storage.ErrNotFound, err)
}

func TestPg_Follow(t *testing.T) {
	defer cleanup(t)

	a, b, c := createUser(t, "a"), createUser(t, "b"), createUser(t, "c")

	require.NoError(t, s.Follow(ctx, a, b))
	require.NoError(t, s.Follow(ctx, a, b))
	require.NoError(t, s.Follow(ctx, a, c))

	ids, err := s.GetFolloweeIDs(ctx, a)
	require.NoError(t, err)
	require.Equal(t, []entities.UserID{b, c}, ids)

	require.NoError(t, s.Unfollow(ctx, a, b))

	ids, err = s.GetFolloweeIDs(ctx, a)
	require.NoError(t, err)
	require.Equal(t, []entities.UserID{c}, ids)

	require.True(t, errors.Is(s.Follow(ctx, a, 100500), storage.ErrNotFound))
}

func TestPg_CreatePost(t *testing.T) {
	defer cleanup(t)

	author := createUser(t, "author")
	now := time.Now()

	p, err := s.CreatePost(ctx, &storage.CreatePostParams{AuthorID: author, Content: "text", CreatedAt: now})
	require.NoError(t, err)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, author, got.AuthorID)
	require.Equal(t, "text", got.Content)
	require.Nil(t, got.ParentID)
	require.Equal(t, now.UTC().Unix(), got.CreatedAt.Unix())

	parent := p.ID
	_, err = s.CreatePost(ctx, &storage.CreatePostParams{AuthorID: author, ParentID: &parent, Content: "comment", CreatedAt: now})
	require.NoError(t, err)

	comments, err := s.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, parent, *comments[0].ParentID)

	_, err = s.CreatePost(ctx, &storage.CreatePostParams{AuthorID: 100500, Content: "text", CreatedAt: now})
	require.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestPg_UpdatePostContent(t *testing.T) {
	defer cleanup(t)

	author := createUser(t, "author")
	id := createPost(t, author, "text", time.Now())

	require.NoError(t, s.UpdatePostContent(ctx, id, "edited", time.Now()))

	p, err := s.GetPost(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "edited", p.Content)

	require.Equal(t, storage.ErrNotFound, s.UpdatePostContent(ctx, id+1, "edited", time.Now()))
}

func TestPg_DeletePost(t *testing.T) {
	defer cleanup(t)

	author := createUser(t, "author")
	id := createPost(t, author, "text", time.Now())
	_, err := s.CreatePost(ctx, &storage.CreatePostParams{AuthorID: author, ParentID: &id, Content: "comment", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, id))

	_, err = s.GetPost(ctx, id)
	require.Equal(t, storage.ErrNotFound, err)

	comments, err := s.ListComments(ctx, id)
	require.NoError(t, err)
	require.Empty(t, comments)

	require.Equal(t, storage.ErrNotFound, s.DeletePost(ctx, id))
}

func TestPg_ToggleLike(t *testing.T) {
	defer cleanup(t)

	author, liker := createUser(t, "author"), createUser(t, "liker")
	id := createPost(t, author, "text", time.Now())

	liked, err := s.ToggleLike(ctx, liker, id, time.Now())
	require.NoError(t, err)
	require.True(t, liked)

	liked, err = s.ToggleLike(ctx, author, id, time.Now())
	require.NoError(t, err)
	require.True(t, liked)

	counts, err := s.CountLikes(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 2, counts[id])

	likes, err := s.GetLiked(ctx, liker, id, id+1)
	require.NoError(t, err)
	require.Equal(t, map[entities.PostID]bool{id: true}, likes)

	liked, err = s.ToggleLike(ctx, liker, id, time.Now())
	require.NoError(t, err)
	require.False(t, liked)

	counts, err = s.CountLikes(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 1, counts[id])

	_, err = s.ToggleLike(ctx, liker, id+100, time.Now())
	require.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestPg_ListPosts(t *testing.T) {
	defer cleanup(t)

	v, a, b, c := createUser(t, "v"), createUser(t, "a"), createUser(t, "b"), createUser(t, "c")

	v1 := createPost(t, v, "v1", time.Unix(4, 0))
	a1 := createPost(t, a, "a1", time.Unix(3, 0))
	b1 := createPost(t, b, "b1", time.Unix(2, 0))
	a2 := createPost(t, a, "a2", time.Unix(1, 0))
	createPost(t, c, "c1", time.Unix(5, 0))
	a3 := createPost(t, a, "a3", time.Unix(3, 0))

	comment, err := s.CreatePost(ctx, &storage.CreatePostParams{AuthorID: a, ParentID: &a1, Content: "comment", CreatedAt: time.Unix(6, 0)})
	require.NoError(t, err)

	audience := []entities.UserID{v, a, b}

	tt := []struct {
		name string
		p    storage.ListPostsParams
		ids  []entities.PostID
	}{
		{
			name: "audience",
			p:    storage.ListPostsParams{Authors: audience, TopLevelOnly: true, Limit: 100},
			ids:  []entities.PostID{v1, a3, a1, b1, a2},
		},
		{
			name: "with_comments",
			p:    storage.ListPostsParams{Authors: []entities.UserID{a}, Limit: 100},
			ids:  []entities.PostID{comment.ID, a3, a1, a2},
		},
		{
			name: "offset",
			p:    storage.ListPostsParams{Authors: audience, TopLevelOnly: true, Limit: 2, Offset: 2},
			ids:  []entities.PostID{a1, b1},
		},
		{
			name: "after",
			p: storage.ListPostsParams{Authors: audience, TopLevelOnly: true, Limit: 100,
				After: &storage.Position{CreatedAt: time.Unix(3, 0), ID: a3}},
			ids: []entities.PostID{a1, b1, a2},
		},
		{
			name: "empty_audience",
			p:    storage.ListPostsParams{TopLevelOnly: true, Limit: 100},
			ids:  []entities.PostID{},
		},
	}

	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			p, err := s.ListPosts(ctx, &tc.p)
			require.NoError(t, err)
			require.Len(t, p, len(tc.ids))
			for i, v := range tc.ids {
				assert.Equal(t, v, p[i].ID)
			}
		})
	}
}
