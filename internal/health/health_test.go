package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type metaPinger struct{}

func (metaPinger) Ping(context.Context) (interface{}, error) { return 42, nil }
func (metaPinger) Name() string                              { return "meta" }

func TestHandler(t *testing.T) {
	ok := SubjectPinger("postgres", func(context.Context) error { return nil })
	fail := SubjectPinger("cache", func(context.Context) error { return errors.New("refused") })

	tt := []struct {
		name    string
		pingers []Pinger
		rcode   int
		rdata   string
	}{
		{
			name:    "ok",
			pingers: []Pinger{ok, metaPinger{}},
			rcode:   http.StatusOK,
			rdata:   `{"version":"dev","commit":"undefined","meta":{"meta":42}}`,
		},
		{
			name:    "fail",
			pingers: []Pinger{ok, fail},
			rcode:   http.StatusServiceUnavailable,
			rdata:   `{"version":"dev","commit":"undefined","errors":{"cache":"cache: refused"}}`,
		},
	}

	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Handler(time.Second, tc.pingers...)(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.rcode, w.Code)
			assert.JSONEq(t, tc.rdata, w.Body.String())
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, "dev-undefined", GetVersion())
}
