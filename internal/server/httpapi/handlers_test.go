package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/linkvault/internal/client/vault"
	"github.com/dmitrijs2005/linkvault/internal/common"
	"github.com/dmitrijs2005/linkvault/internal/logging"
	"github.com/dmitrijs2005/linkvault/internal/server/config"
	"github.com/dmitrijs2005/linkvault/internal/server/manifests"
	"github.com/dmitrijs2005/linkvault/internal/server/shared/db"
	"github.com/dmitrijs2005/linkvault/internal/server/users"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{SecretKey: testSecret, TokenValidityDuration: time.Hour}
	rm := db.NewInMemoryRepositoryManager()

	s := NewServer(":0", logging.Discard(),
		users.NewService(rm.Users(), cfg),
		manifests.NewService(rm.Manifests()),
		testSecret)

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func registerAndLogin(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()

	resp := postJSON(t, ts.URL+"/api/auth/register", map[string]any{
		"username": username, "salt": []byte("salt"), "verifier": []byte("verifier"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/auth/login", map[string]any{
		"username": username, "verifier": []byte("verifier"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lr struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))
	require.NotEmpty(t, lr.Token)
	return lr.Token
}

func doAuthed(t *testing.T, method, url, token string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_Duplicate(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/auth/register", map[string]any{
		"username": "alice", "salt": []byte("s"), "verifier": []byte("v"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/auth/register", map[string]any{
		"username": "alice", "salt": []byte("s2"), "verifier": []byte("v2"),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegister_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/auth/register", map[string]any{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSalt_UnknownUserStillAnswers(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/auth/salt", map[string]any{"username": "ghost"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sr struct {
		Salt []byte `json:"salt"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	assert.NotEmpty(t, sr.Salt)
}

func TestLogin_WrongVerifier(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts, "alice")

	resp := postJSON(t, ts.URL+"/api/auth/login", map[string]any{
		"username": "alice", "verifier": []byte("wrong"),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestManifest_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/vault/manifest")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp2 := doAuthed(t, http.MethodGet, ts.URL+"/api/vault/manifest", "garbage-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestManifest_GetBeforeFirstSave(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp := doAuthed(t, http.MethodGet, ts.URL+"/api/vault/manifest", token, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestManifest_SaveAndFetch(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp := doAuthed(t, http.MethodPut, ts.URL+"/api/vault/manifest", token,
		map[string]any{"ciphertext": []byte("ct"), "nonce": []byte("n")}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pr struct {
		ETag    string `json:"etag"`
		Version int64  `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pr))
	assert.Equal(t, int64(1), pr.Version)
	assert.Equal(t, pr.ETag, resp.Header.Get("ETag"))

	got := doAuthed(t, http.MethodGet, ts.URL+"/api/vault/manifest", token, nil, nil)
	require.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, pr.ETag, got.Header.Get("ETag"))

	var mr struct {
		Ciphertext []byte `json:"ciphertext"`
		Version    int64  `json:"version"`
	}
	require.NoError(t, json.NewDecoder(got.Body).Decode(&mr))
	assert.Equal(t, []byte("ct"), mr.Ciphertext)
	assert.Equal(t, int64(1), mr.Version)
}

func TestManifest_ConditionalPut(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp := doAuthed(t, http.MethodPut, ts.URL+"/api/vault/manifest", token,
		map[string]any{"ciphertext": []byte("ct1"), "nonce": []byte("n1")}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first struct {
		ETag string `json:"etag"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))

	t.Run("stale If-Match fails precondition", func(t *testing.T) {
		resp := doAuthed(t, http.MethodPut, ts.URL+"/api/vault/manifest", token,
			map[string]any{"ciphertext": []byte("ct2"), "nonce": []byte("n2")},
			map[string]string{"If-Match": "stale"})
		assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	})

	t.Run("first save racing existing row conflicts", func(t *testing.T) {
		resp := doAuthed(t, http.MethodPut, ts.URL+"/api/vault/manifest", token,
			map[string]any{"ciphertext": []byte("ct2"), "nonce": []byte("n2")}, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("matching If-Match advances version", func(t *testing.T) {
		resp := doAuthed(t, http.MethodPut, ts.URL+"/api/vault/manifest", token,
			map[string]any{"ciphertext": []byte("ct2"), "nonce": []byte("n2")},
			map[string]string{"If-Match": first.ETag})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var second struct {
			Version int64 `json:"version"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
		assert.Equal(t, int64(2), second.Version)
	})
}

func TestManifest_VaultsAreIsolated(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := registerAndLogin(t, ts, "alice")
	bobToken := registerAndLogin(t, ts, "bob")

	resp := doAuthed(t, http.MethodPut, ts.URL+"/api/vault/manifest", aliceToken,
		map[string]any{"ciphertext": []byte("ct"), "nonce": []byte("n")}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := doAuthed(t, http.MethodGet, ts.URL+"/api/vault/manifest", bobToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, got.StatusCode)
}

// Full round trip through the real API client, so the status-code mapping
// on both sides stays in agreement.
func TestClientServerRoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	client := vault.NewHTTPClient(ts.URL, 5*time.Second)

	require.NoError(t, client.Register(ctx, "alice", []byte("salt"), []byte("verifier")))
	assert.ErrorIs(t, client.Register(ctx, "alice", []byte("salt"), []byte("verifier")), common.ErrorAlreadyExists)

	salt, err := client.GetSalt(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("salt"), salt)

	session, err := client.Login(ctx, "alice", []byte("verifier"))
	require.NoError(t, err)
	assert.NotEmpty(t, session.VaultID)

	_, err = client.GetManifest(ctx)
	assert.ErrorIs(t, err, common.ErrManifestNotFound)

	etag, version, err := client.PutManifest(ctx, []byte("ct"), []byte("n"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	m, err := client.GetManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, etag, m.ETag)
	assert.Equal(t, []byte("ct"), m.Ciphertext)

	_, _, err = client.PutManifest(ctx, []byte("ct2"), []byte("n2"), "stale")
	assert.ErrorIs(t, err, common.ErrVersionConflict)

	_, version, err = client.PutManifest(ctx, []byte("ct2"), []byte("n2"), etag)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	require.NoError(t, client.Ping(ctx))
}
