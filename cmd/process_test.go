package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectPDFs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2024")
	require.NoError(t, os.Mkdir(sub, 0755))

	for _, name := range []string{
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "notas.txt"),
		filepath.Join(sub, "c.pdf"),
	} {
		require.NoError(t, os.WriteFile(name, []byte("%PDF-1.4"), 0644))
	}

	files, err := collectPDFs([]string{dir})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "2024", "c.pdf"),
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.pdf"),
	}, files, "directories walked recursively, sorted, non-PDFs ignored")
}

func TestCollectPDFsExplicitFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "factura.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF-1.4"), 0644))

	files, err := collectPDFs([]string{file})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, files)
}

func TestCollectPDFsMissingPath(t *testing.T) {
	_, err := collectPDFs([]string{"/no/such/path.pdf"})
	assert.Error(t, err)
}
