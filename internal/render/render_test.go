// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/web2llm/internal/fetch"
	"github.com/pdiddy/web2llm/pkg/types"
)

func TestStatic(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><h1>Hi</h1></body></html>"))
	}))
	defer ts.Close()

	client := fetch.New(types.HTTPConfig{Timeout: 5 * time.Second}, fetch.WithHTTPClient(ts.Client()))
	r := &Static{Getter: client}

	html, err := r.Render(context.Background(), ts.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Hi</h1>")

	_, err = r.Render(context.Background(), ts.URL+"/missing")
	var netErr *types.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
}

func TestNew(t *testing.T) {
	tests := []struct {
		mode    types.RenderMode
		want    any
		wantErr bool
	}{
		{"", &Static{}, false},
		{types.RenderStatic, &Static{}, false},
		{types.RenderChrome, &Chrome{}, false},
		{"firefox", nil, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, err := New(types.RenderConfig{Mode: tt.mode}, nil, "ua")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, r)
		})
	}
}

func TestWaitIdle(t *testing.T) {
	old := IdleWait
	IdleWait = 20 * time.Millisecond
	defer func() { IdleWait = old }()

	idle := make(chan struct{}, 1)
	idle <- struct{}{}
	require.NoError(t, waitIdle(context.Background(), idle, "u"))

	// No event: gives up after IdleWait without failing.
	require.NoError(t, waitIdle(context.Background(), make(chan struct{}), "u"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	IdleWait = time.Minute
	assert.ErrorIs(t, waitIdle(ctx, make(chan struct{}), "u"), context.Canceled)
}

func TestChrome_RendersScriptedDOM(t *testing.T) {
	if testing.Short() || !browserAvailable() {
		t.Skip("no headless browser available")
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><div id="app"></div>
<script>document.getElementById("app").innerHTML = "<h1>Rendered</h1>";</script>
</body></html>`))
	}))
	defer ts.Close()

	r := NewChrome(types.RenderConfig{Timeout: 30 * time.Second, WaitNetworkIdle: true}, "web2llm-test")
	html, err := r.Render(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Rendered</h1>")
}
