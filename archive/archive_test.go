package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDirProducesReadableTarGz(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game-00001.txt"), []byte("hello"), 0o644))

	data, err := CompressDir(dir)
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(zr)

	var found bool
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if filepath.Base(hdr.Name) == "game-00001.txt" {
			found = true
			content, err := io.ReadAll(tr)
			require.NoError(t, err)
			require.Equal(t, "hello", string(content))
		}
	}
	require.True(t, found, "expected game-00001.txt in the archive")
}
