// Package health contains code for health checks.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/socialconnect/feed/internal/api"
)

// nolint:gochecknoglobals
var (
	version = "dev"
	commit  = "undefined"
)

// GetVersion returns service's version and commit.
func GetVersion() string {
	return fmt.Sprintf("%s-%s", version, commit)
}

// VersionResponse ...
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// Response ...
type Response struct {
	VersionResponse
	Meta   map[string]interface{} `json:"meta,omitempty"`
	Errors map[string]string      `json:"errors,omitempty"`
}

// Pinger pings a dependency.
type Pinger interface {
	// Ping returns object with meta information and error.
	Ping(ctx context.Context) (interface{}, error)
	// Name returns name of pinger.
	Name() string
}

type subjectPinger struct {
	f func(ctx context.Context) error
	s string
}

func (p subjectPinger) Ping(ctx context.Context) (interface{}, error) {
	if err := p.f(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", p.s, err)
	}

	return nil, nil
}

func (p subjectPinger) Name() string {
	return p.s
}

// SubjectPinger wraps ping function, e.g. storage's Ping, into a named Pinger.
func SubjectPinger(s string, f func(ctx context.Context) error) Pinger {
	return subjectPinger{
		f: f,
		s: s,
	}
}

// Handler pings all dependencies concurrently. It responds with 503 when any of them fails.
func Handler(timeout time.Duration, p ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var gr errgroup.Group
		var mu sync.Mutex

		resp := Response{
			VersionResponse: VersionResponse{Version: version, Commit: commit},
			Meta:            map[string]interface{}{},
			Errors:          map[string]string{},
		}

		for i := range p {
			v := p[i]
			gr.Go(func() error {
				m, err := v.Ping(ctx)

				mu.Lock()
				defer mu.Unlock()

				if m != nil {
					resp.Meta[v.Name()] = m
				}

				if err != nil {
					logrus.WithError(err).Error("health check failed")
					resp.Errors[v.Name()] = err.Error()
					return err
				}

				return nil
			})
		}

		status := http.StatusOK
		if err := gr.Wait(); err != nil {
			status = http.StatusServiceUnavailable
		}

		api.WriteOK(w, status, resp)
	}
}
