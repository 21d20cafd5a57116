package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "song.lrc")

	require.NoError(t, WriteFileOverwrite(path, []byte("first version, longer"), 0644))
	require.NoError(t, WriteFileOverwrite(path, []byte("second"), 0600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
