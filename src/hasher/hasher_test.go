package hasher

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_KnownVectors(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, c := range cases {
		got, err := Reader(bytes.NewReader([]byte(c.in)))
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestReader_DeterministicAcrossChunks(t *testing.T) {
	// Larger than one chunk so the loop runs more than once.
	data := make([]byte, 3*chunkSize+17)
	_, err := rand.New(rand.NewSource(1)).Read(data)
	require.NoError(t, err)

	first, err := Reader(bytes.NewReader(data))
	require.NoError(t, err)
	second, err := Reader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFile_MatchesReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	content := []byte("backup me")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	fromFile, err := File(path)
	require.NoError(t, err)
	fromReader, err := Reader(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, fromReader, fromFile)
}

func TestFile_MissingFile(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
