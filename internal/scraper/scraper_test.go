package scraper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iiviie/liveblog-watch/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageFetcher_Fetch(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<div id="post-1"><span>10:00</span>Hello</div>`))
	}))
	defer srv.Close()

	pf := scraper.NewPageFetcher(srv.URL, "watcher-test", 5*time.Second)
	body, err := pf.Fetch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, body, `id="post-1"`)
	assert.Equal(t, "watcher-test", gotUA)
	assert.Equal(t, srv.URL, pf.URL())
}

func TestPageFetcher_Fetch_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError},
		{name: "forbidden", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<html>error page</html>"))
			}))
			defer srv.Close()

			_, err := scraper.NewPageFetcher(srv.URL, "", time.Second).Fetch(context.Background())
			require.Error(t, err)

			var terr *scraper.TransportError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.status, terr.StatusCode)
		})
	}
}

func TestPageFetcher_Fetch_AcceptsAny2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		_, _ = w.Write([]byte(`<div id="post-2"><span>t</span>x</div>`))
	}))
	defer srv.Close()

	body, err := scraper.NewPageFetcher(srv.URL, "", time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, body, "post-2")
}

func TestPageFetcher_Fetch_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := scraper.NewPageFetcher(url, "", time.Second).Fetch(context.Background())
	require.Error(t, err)

	var terr *scraper.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Zero(t, terr.StatusCode)
	assert.Error(t, terr.Unwrap())
}
