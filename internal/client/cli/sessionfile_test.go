package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/linkvault/internal/common"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	return &App{dataDir: t.TempDir()}
}

func TestSessionState_RoundTrip(t *testing.T) {
	a := newTestApp(t)

	in := &sessionState{
		Username: "alice",
		Salt:     []byte("salt"),
		Verifier: []byte("verifier"),
		Token:    "tok",
		UserID:   "u1",
		VaultID:  "v1",
	}
	require.NoError(t, a.saveSessionState(in))

	out, err := a.loadSessionState()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSessionState_NotLoggedIn(t *testing.T) {
	a := newTestApp(t)

	_, err := a.loadSessionState()
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSessionState_Clear(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.saveSessionState(&sessionState{Username: "alice"}))
	require.NoError(t, a.clearSessionState())

	_, err := a.loadSessionState()
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// clearing twice is fine
	require.NoError(t, a.clearSessionState())
}
