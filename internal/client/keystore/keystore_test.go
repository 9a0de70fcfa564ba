package keystore

import (
	"slices"
	"testing"

	"github.com/dmitrijs2005/linkvault/internal/common"
	"github.com/dmitrijs2005/linkvault/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unlockArgs(password string) (pw, salt, verifier []byte) {
	salt = []byte("test-salt-0123456789abcdef012345")
	key := cryptox.DeriveMasterKey([]byte(password), salt)
	verifier = cryptox.MakeVerifier(key)
	return []byte(password), salt, verifier
}

func TestUnlock_CorrectPassword(t *testing.T) {
	ks := NewSessionKeystore()
	pw, salt, verifier := unlockArgs("hunter2")

	err := ks.Unlock(pw, salt, verifier, AadContext{UserID: "u1", VaultID: "v1"})
	require.NoError(t, err)

	assert.True(t, ks.IsUnlocked())

	ctx, err := ks.GetAadContext()
	require.NoError(t, err)
	assert.Equal(t, "u1", ctx.UserID)
	assert.Equal(t, "v1", ctx.VaultID)

	mak, err := ks.GetMAK()
	require.NoError(t, err)
	assert.Len(t, mak, 32)
}

func TestUnlock_WrongPasswordRetainsNothing(t *testing.T) {
	ks := NewSessionKeystore()
	_, salt, verifier := unlockArgs("hunter2")

	err := ks.Unlock([]byte("wrong"), salt, verifier, AadContext{})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.False(t, ks.IsUnlocked())

	_, err = ks.GetMAK()
	assert.ErrorIs(t, err, common.ErrKeysUnavailable)
}

func TestUnlock_WipesPasswordBuffer(t *testing.T) {
	ks := NewSessionKeystore()
	pw, salt, verifier := unlockArgs("hunter2")

	require.NoError(t, ks.Unlock(pw, salt, verifier, AadContext{}))

	for _, b := range pw {
		require.Zero(t, b, "password buffer must be wiped after unlock")
	}
}

func TestGetMAK_ReturnsIndependentCopy(t *testing.T) {
	ks := NewSessionKeystore()
	pw, salt, verifier := unlockArgs("hunter2")
	require.NoError(t, ks.Unlock(pw, salt, verifier, AadContext{}))

	a, err := ks.GetMAK()
	require.NoError(t, err)
	b, err := ks.GetMAK()
	require.NoError(t, err)

	require.True(t, slices.Equal(a, b))

	// wiping the caller's copy must not disturb the session key
	common.WipeByteArray(a)
	c, err := ks.GetMAK()
	require.NoError(t, err)
	assert.True(t, slices.Equal(b, c))
}

func TestLock_WipesAndForgets(t *testing.T) {
	ks := NewSessionKeystore()
	pw, salt, verifier := unlockArgs("hunter2")
	require.NoError(t, ks.Unlock(pw, salt, verifier, AadContext{UserID: "u1", VaultID: "v1"}))

	ks.Lock()

	assert.False(t, ks.IsUnlocked())
	_, err := ks.GetMAK()
	assert.ErrorIs(t, err, common.ErrKeysUnavailable)
	_, err = ks.GetAadContext()
	assert.ErrorIs(t, err, common.ErrKeysUnavailable)
}
