package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteNotice_CopiesBundledTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteNotice(dir))

	got, err := os.ReadFile(filepath.Join(dir, NoticeFileName))
	require.NoError(t, err)
	assert.Equal(t, noticeTemplate, got)
}

func TestBuild_ProducesZipRootedAtDateDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "acme"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme", "stores.csv"), []byte("store_id\nS1\n"), 0o644))
	require.NoError(t, WriteNotice(dir))

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, Build(dir, zipPath))

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	names := make(map[string]bool)
	for _, f := range r.File {
		names[f.Name] = true
		assert.Equal(t, zip.Deflate, f.Method)
	}
	assert.True(t, names["acme/stores.csv"])
	assert.True(t, names[NoticeFileName])
	assert.False(t, names[filepath.Base(dir)+"/acme/stores.csv"], "entries must not carry the date dir's own path component")
}

func TestBuild_EntryContentSurvivesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := "store_id,type,address,city,zipcode\nS1,,,,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stores.csv"), []byte(content), 0o644))

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, Build(dir, zipPath))

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 1)
	rc, err := r.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}
