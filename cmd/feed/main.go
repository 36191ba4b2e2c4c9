package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Decentr-net/logrus/sentry"
	"github.com/go-chi/chi"
	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/socialconnect/feed/internal/cache"
	"github.com/socialconnect/feed/internal/cache/memory"
	"github.com/socialconnect/feed/internal/cache/redis"
	"github.com/socialconnect/feed/internal/health"
	"github.com/socialconnect/feed/internal/server"
	"github.com/socialconnect/feed/internal/service"
	"github.com/socialconnect/feed/internal/service/impl"
	"github.com/socialconnect/feed/internal/storage/postgres"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Host           string        `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port           int           `long:"http.port" env:"HTTP_PORT" default:"8080" description:"port to listen on for insecure connections, defaults to a random value"`
	RequestTimeout time.Duration `long:"http.request-timeout" env:"HTTP_REQUEST_TIMEOUT" default:"45s" description:"request processing timeout"`

	Postgres                   string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMaxOpenConnections int    `long:"postgres.max_open_connections" env:"POSTGRES_MAX_OPEN_CONNECTIONS" default:"0" description:"postgres maximal open connections count, 0 means unlimited"`
	PostgresMaxIdleConnections int    `long:"postgres.max_idle_connections" env:"POSTGRES_MAX_IDLE_CONNECTIONS" default:"5" description:"postgres maximal idle connections count"`
	PostgresMigrations         string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`

	CacheBackend  string `long:"cache.backend" env:"CACHE_BACKEND" default:"memory" description:"page cache backend" choice:"memory" choice:"redis"`
	CacheCapacity int    `long:"cache.capacity" env:"CACHE_CAPACITY" default:"4096" description:"entries count of memory cache backend"`
	RedisAddr     string `long:"redis.addr" env:"REDIS_ADDR" default:"localhost:6379" description:"redis address"`
	RedisPassword string `long:"redis.password" env:"REDIS_PASSWORD" description:"redis password"`
	RedisDB       int    `long:"redis.db" env:"REDIS_DB" default:"0" description:"redis database"`
	RedisPrefix   string `long:"redis.prefix" env:"REDIS_PREFIX" default:"feed:" description:"prefix of redis keys"`

	PageCacheTTL    time.Duration `long:"feed.page-cache-ttl" env:"FEED_PAGE_CACHE_TTL" default:"10m" description:"ttl of session's cached pages"`
	ProfileCacheTTL time.Duration `long:"feed.profile-cache-ttl" env:"FEED_PROFILE_CACHE_TTL" default:"10s" description:"ttl of cached anonymous profile pages"`
	SessionIdleTTL  time.Duration `long:"feed.session-idle-ttl" env:"FEED_SESSION_IDLE_TTL" default:"30m" description:"session's feed is discarded after being idle for this period"`

	LogLevel  string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
	SentryDSN string `long:"sentry.dsn" env:"SENTRY_DSN" description:"sentry dsn"`
}{}

var errTerminated = errors.New("terminated")

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Feed"
	parser.LongDescription = "Feed composes home and profile timelines"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	if opts.SentryDSN != "" {
		hook, err := sentry.NewHook(sentry.Options{
			Dsn:              opts.SentryDSN,
			AttachStacktrace: true,
			Release:          health.GetVersion(),
			ServerName:       "feed",
		}, logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel)

		if err != nil {
			logrus.WithError(err).Fatal("failed to init sentry")
		}

		logrus.AddHook(hook)
	} else {
		logrus.Info("empty sentry dsn")
		logrus.Warn("skip sentry initialization")
	}

	db := mustGetDB()
	defer db.Close() // nolint:errcheck

	s := postgres.New(db)
	c, closeCache := mustGetCache()
	defer closeCache()

	svc := impl.New(s, c, opts.PageCacheTTL)

	r := chi.NewMux()
	r.Get("/health", health.Handler(
		5*time.Second,
		health.SubjectPinger("postgres", s.Ping),
		health.SubjectPinger("cache", c.Ping),
	))
	r.Handle("/metrics", promhttp.Handler())
	server.SetupRouter(svc, c, opts.ProfileCacheTTL, r, opts.RequestTimeout)

	srv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler: r,
	}

	ctx, cancel := context.WithCancel(context.Background())

	gr, _ := errgroup.WithContext(ctx)
	gr.Go(srv.ListenAndServe)
	gr.Go(func() error {
		sweep(ctx, svc, opts.SessionIdleTTL)
		return nil
	})
	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		s := <-sigs

		logrus.Infof("terminating by %s signal", s)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("failed to shutdown server gracefully")
		}

		return errTerminated
	})

	logrus.Info("service started")

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("feed service unexpectedly closed")
	}
}

// sweep discards sessions idle for ttl until ctx is done.
func sweep(ctx context.Context, svc service.Service, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.Sweep(ctx, ttl)
		}
	}
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}
	db.SetMaxOpenConns(opts.PostgresMaxOpenConnections)
	db.SetMaxIdleConns(opts.PostgresMaxIdleConnections)

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

	switch v, d, err := migrator.Version(); err {
	case nil:
		logrus.Infof("database version %d with dirty state %t", v, d)
	case migrate.ErrNilVersion:
		logrus.Info("database version: nil")
	default:
		logrus.WithError(err).Fatal("failed to get version")
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

func mustGetCache() (cache.Storage, func()) {
	switch opts.CacheBackend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})

		if err := client.Ping(context.Background()).Err(); err != nil {
			logrus.WithError(err).Fatal("failed to ping redis")
		}

		logrus.Infof("using redis cache on %s", opts.RedisAddr)

		return redis.New(client, opts.RedisPrefix), func() {
			if err := client.Close(); err != nil {
				logrus.WithError(err).Error("failed to close redis client")
			}
		}
	default:
		logrus.Infof("using memory cache with capacity %d", opts.CacheCapacity)

		return memory.NewStorage(opts.CacheCapacity), func() {}
	}
}
