package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	t.Run("token applied", func(t *testing.T) {
		body, err := New(&BearerAuth{}, "secret").Open(context.Background(), srv.URL+"/parcels")
		require.NoError(t, err)
		defer func() { _ = body.Close() }()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "Bearer secret", string(data))
	})

	t.Run("no token no header", func(t *testing.T) {
		body, err := New(&BearerAuth{}, "").Open(context.Background(), srv.URL+"/parcels")
		require.NoError(t, err)
		defer func() { _ = body.Close() }()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("status error", func(t *testing.T) {
		_, err := New(nil, "").Open(context.Background(), srv.URL+"/missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}
