package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDataDir_CreatesNestedDir(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b")

	got, err := EnsureDataDir(target)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDataDir_Idempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "cache")

	_, err := EnsureDataDir(target)
	require.NoError(t, err)
	_, err = EnsureDataDir(target)
	require.NoError(t, err)
}
