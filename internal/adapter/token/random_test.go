package token

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	g := NewRandomGenerator()
	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		tok, err := g.Generate()
		require.NoError(t, err)
		raw, err := hex.DecodeString(tok)
		require.NoError(t, err, "token must be lowercase hex")
		assert.Len(t, raw, 32)
		assert.False(t, seen[tok], "tokens repeat")
		seen[tok] = true
	}
}

func TestWriteFile_OwnerOnlyAndReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefix", "connection-token")

	require.NoError(t, WriteFile(path, "secret"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(data))

	require.NoError(t, WriteFile(path, "rotated"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rotated", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
