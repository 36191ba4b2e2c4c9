// Package server Feed
//
// The Feed is a service which composes home and profile timelines of the social network and keeps
// an incrementally loaded feed per viewing session.
//
//     Schemes: https
//     BasePath: /v1
//     Version: 1.0.0
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
//
// swagger:meta
package server

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"

	"github.com/socialconnect/feed/internal/api"
	"github.com/socialconnect/feed/internal/cache"
	mm "github.com/socialconnect/feed/internal/middleware"
	"github.com/socialconnect/feed/internal/service"
)

//go:generate swagger generate spec -t swagger -m -c . -o ../../static/swagger.json

const maxBodySize = 4 * 1024

// UserIDHeader contains id of the authenticated user. Authentication is done by the gateway.
const UserIDHeader = "X-User-ID"

// SessionIDHeader contains id of the viewing session.
const SessionIDHeader = "X-Session-ID"

type server struct {
	s service.Service
}

// SetupRouter setups handlers to chi router.
// Anonymous profile pages are cached in c for profileTTL.
func SetupRouter(s service.Service, c cache.Storage, profileTTL time.Duration, r chi.Router, timeout time.Duration) {
	r.Use(
		api.RequestIDMiddleware,
		api.LoggerMiddleware,
		api.MetricsMiddleware,
		middleware.StripSlashes,
		cors.AllowAll().Handler,
		api.RecovererMiddleware,
		api.TimeoutMiddleware(timeout),
		api.BodyLimiterMiddleware(maxBodySize),
	)

	srv := server{
		s: s,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/users/{handle}", srv.getUser)
		r.Get("/users/{handle}/posts", mm.Cached(c, profileTTL, authenticated, srv.listProfilePosts))
		r.Post("/users/{handle}/follow", srv.follow)
		r.Delete("/users/{handle}/follow", srv.unfollow)

		r.Post("/feed", srv.initializeFeed)
		r.Get("/feed", srv.getFeed)
		r.Delete("/feed", srv.closeSession)
		r.Post("/feed/more", srv.loadMore)
		r.Post("/feed/refresh", srv.refreshFeed)

		r.Post("/posts", srv.createPost)
		r.Put("/posts/{id}", srv.editPost)
		r.Delete("/posts/{id}", srv.deletePost)
		r.Post("/posts/{id}/like", srv.toggleLike)
		r.Get("/posts/{id}/comments", srv.listComments)
	})
}
