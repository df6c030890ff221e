package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadTagFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.txt")
	content := "AABBCCDDEEFF001122334455\n\n  112233445566778899001122  \nnot a tag\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tags, err := ReadTagFile(path)
	require.NoError(t, err)

	// lines are trimmed and blanks skipped, validation is not this
	// reader's job
	require.Equal(t, []string{
		"AABBCCDDEEFF001122334455",
		"112233445566778899001122",
		"not a tag",
	}, tags)
}

func TestReadTagFileCSVExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.csv")
	require.NoError(t, os.WriteFile(path, []byte("AABBCCDDEEFF001122334455\n"), 0o600))

	tags, err := ReadTagFile(path)
	require.NoError(t, err)
	require.Len(t, tags, 1)
}

func TestReadTagFileBadExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := ReadTagFile(path)
	require.Error(t, err)
}

func TestReadTagFileMissing(t *testing.T) {
	_, err := ReadTagFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
