package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/socialconnect/feed/internal/entities"
	"github.com/socialconnect/feed/internal/storage"
	"github.com/socialconnect/feed/internal/storage/postgres"
)

var opts = struct {
	Postgres           string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMigrations string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`

	Users      int   `long:"users" default:"12" description:"count of users to be created"`
	MaxFollows int   `long:"max-follows" default:"5" description:"maximal count of followees per user"`
	Posts      int   `long:"posts" default:"100" description:"count of top-level posts"`
	Comments   int   `long:"comments" default:"200" description:"count of comments"`
	Likes      int   `long:"likes" default:"300" description:"count of like toggles"`
	Seed       int64 `long:"seed" default:"0" description:"random seed, current time is used when 0"`
}{}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "seed"
	parser.LongDescription = "Fills database with random users, follows, posts, comments and likes"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(opts.Seed)) // nolint:gosec

	logrus.Info("seed started")
	logrus.Infof("%+v", opts)

	s := postgres.New(mustGetDB())
	ctx := context.Background()
	now := time.Now().UTC()

	logrus.Info("create users")
	users := make([]entities.UserID, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		handle := fmt.Sprintf("user_%s", uuid.NewString()[:8])

		u, err := s.CreateUser(ctx, &storage.CreateUserParams{
			Handle:      handle,
			DisplayName: fmt.Sprintf("User %d", i+1),
			CreatedAt:   now,
		})
		if err != nil {
			logrus.WithError(err).Fatal("failed to put user into db")
		}

		users = append(users, u.ID)
	}

	if len(users) == 0 {
		logrus.Warn("no users created, skip the rest")
		return
	}

	logrus.Info("create follows")
	for _, follower := range users {
		for _, j := range rnd.Perm(len(users))[:rnd.Intn(min(opts.MaxFollows, len(users)-1)+1)] {
			if users[j] == follower {
				continue
			}

			if err := s.Follow(ctx, follower, users[j]); err != nil {
				logrus.WithError(err).Fatal("failed to put follow into db")
			}
		}
	}

	logrus.Info("create posts")
	posts := make([]entities.PostID, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		p, err := s.CreatePost(ctx, &storage.CreatePostParams{
			AuthorID:  users[rnd.Intn(len(users))],
			Content:   fmt.Sprintf("Post #%d", i+1),
			CreatedAt: now.Add(-time.Duration(rnd.Intn(30*24)) * time.Hour),
		})
		if err != nil {
			logrus.WithError(err).Fatal("failed to put post into db")
		}

		posts = append(posts, p.ID)

		if i%20 == 0 {
			logrus.Infof("%d of %d posts imported", i+1, opts.Posts)
		}
	}

	if len(posts) == 0 {
		logrus.Info("done")
		return
	}

	logrus.Info("create comments")
	for i := 0; i < opts.Comments; i++ {
		parent := posts[rnd.Intn(len(posts))]
		if _, err := s.CreatePost(ctx, &storage.CreatePostParams{
			AuthorID:  users[rnd.Intn(len(users))],
			ParentID:  &parent,
			Content:   fmt.Sprintf("Comment #%d", i+1),
			CreatedAt: now,
		}); err != nil {
			logrus.WithError(err).Fatal("failed to put comment into db")
		}
	}

	logrus.Info("create likes")
	for i := 0; i < opts.Likes; i++ {
		if _, err := s.ToggleLike(ctx, users[rnd.Intn(len(users))], posts[rnd.Intn(len(posts))], now); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			logrus.WithError(err).Fatal("failed to put like into db")
		}
	}

	logrus.Info("done")
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	driver, err := migratep.WithInstance(db, &migratep.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.PostgresMigrations), "postgres", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}
