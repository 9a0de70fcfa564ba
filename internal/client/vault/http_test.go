package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetManifest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/vault/manifest", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ciphertext": []byte("ct"),
			"nonce":      []byte("nonce123bytes"),
			"etag":       "e1",
			"version":    3,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	c.SetToken("tok")

	got, err := c.GetManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("ct"), got.Ciphertext)
	assert.Equal(t, "e1", got.ETag)
	assert.Equal(t, int64(3), got.Version)
}

func TestGetManifest_404IsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no manifest", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.GetManifest(context.Background())
	assert.ErrorIs(t, err, common.ErrManifestNotFound)
}

func TestPutManifest_SendsIfMatch(t *testing.T) {
	var gotIfMatch string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIfMatch = r.Header.Get("If-Match")
		json.NewEncoder(w).Encode(map[string]any{"etag": "e2", "version": 4})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	etag, version, err := c.PutManifest(context.Background(), []byte("ct"), []byte("n"), "e1")
	require.NoError(t, err)

	assert.Equal(t, "e1", gotIfMatch)
	assert.Equal(t, "e2", etag)
	assert.Equal(t, int64(4), version)
}

func TestPutManifest_FirstSaveOmitsIfMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["If-Match"]
		assert.False(t, present, "first save must not send If-Match")
		json.NewEncoder(w).Encode(map[string]any{"etag": "e1", "version": 1})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	_, _, err := c.PutManifest(context.Background(), []byte("ct"), []byte("n"), "")
	require.NoError(t, err)
}

func TestPutManifest_PreconditionFailures(t *testing.T) {
	for _, status := range []int{http.StatusPreconditionFailed, http.StatusConflict} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewHTTPClient(srv.URL, time.Second)
		_, _, err := c.PutManifest(context.Background(), []byte("ct"), []byte("n"), "stale")
		assert.ErrorIs(t, err, common.ErrVersionConflict, "status %d", status)

		srv.Close()
	}
}

func TestDoJSON_ServerErrorsAreUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, common.ErrServerUnavailable)
}

func TestDoJSON_NetworkErrorIsUnavailable(t *testing.T) {
	// nothing listens here
	c := NewHTTPClient("http://127.0.0.1:1", 200*time.Millisecond)
	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, common.ErrServerUnavailable)
}

func TestDoJSON_UnauthorizedMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.GetManifest(context.Background())
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLogin_StoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			json.NewEncoder(w).Encode(map[string]any{"token": "tok", "user_id": "u1", "vault_id": "v1"})
		case "/api/ping":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	sess, err := c.Login(context.Background(), "alice", []byte("verifier"))
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "v1", sess.VaultID)

	require.NoError(t, c.Ping(context.Background()))
}
