// Package middleware contains http middlewares working over service's storages.
package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/socialconnect/feed/internal/cache"
)

var log = logrus.WithField("layer", "http").WithField("package", "middleware")

const keyPrefix = "http:"

// Cached serves successful responses of the handler from the storage for ttl.
// Requests are keyed by path and query, so skip should be used for requests which depend on anything else.
func Cached(s cache.Storage, ttl time.Duration, skip func(r *http.Request) bool, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if skip != nil && skip(r) {
			handler(w, r)
			return
		}

		key := keyPrefix + r.URL.RequestURI()

		content, err := s.Get(r.Context(), key)
		switch {
		case err == nil:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(content)
			return
		case !errors.Is(err, cache.ErrMiss):
			log.WithError(err).Warn("failed to get cached response")
		}

		c := httptest.NewRecorder()
		handler(c, r)

		for k, v := range c.Header() {
			w.Header()[k] = v
		}

		w.WriteHeader(c.Code)
		content = c.Body.Bytes()

		if c.Code == http.StatusOK {
			if err := s.Set(r.Context(), key, content, ttl); err != nil {
				log.WithError(err).Warn("failed to cache response")
			}
		}

		_, _ = w.Write(content)
	}
}
