package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBufferedReaderYieldsAllBytes(t *testing.T) {
	content := "abcdefghijklmnopqrstuvwxyz"
	path := writeTemp(t, content)

	r, err := New(path, Options{BufferSize: minBufferSize})
	require.NoError(t, err)
	defer r.Close()

	var got []byte
	for {
		span, err := r.Next()
		require.NoError(t, err)
		if span == nil {
			break
		}
		got = append(got, span...)
	}
	require.Equal(t, content, string(got))
}

func TestBufferedReaderMissingFileErrorsOnFirstNext(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)
}

func TestMmapReaderYieldsWholeFileOnce(t *testing.T) {
	content := "one,two,three\n"
	path := writeTemp(t, content)

	r, err := New(path, Options{UseMmap: true})
	require.NoError(t, err)
	defer r.Close()

	span, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, content, string(span))

	span, err = r.Next()
	require.NoError(t, err)
	require.Nil(t, span)
}

func TestBufferSizeClamped(t *testing.T) {
	path := writeTemp(t, "x")
	r, err := New(path, Options{BufferSize: 1})
	require.NoError(t, err)
	defer r.Close()
	br, ok := r.(*bufferedReader)
	require.True(t, ok)
	require.Equal(t, minBufferSize, len(br.buf))
}
