package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/README.md", []byte(scenarioDoc), 0644))

	lines, err := ReadLines(fs, "/README.md")
	require.NoError(t, err)
	assert.Len(t, lines, 6)
	assert.Equal(t, scenarioDoc, JoinLines(lines))

	_, err = ReadLines(fs, "/missing.md")
	assert.Error(t, err)
}

func TestFileMode(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/README.md", []byte("x"), 0600))

	assert.Equal(t, os.FileMode(0600), FileMode(fs, "/README.md"))
	assert.Equal(t, os.FileMode(0644), FileMode(fs, "/missing.md"))
}

func TestWriteFileAtomic_MemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/README.md", []byte(scenarioDoc), 0600))

	m := NewMerger(DefaultMarkers, nil)
	lines, err := ReadLines(fs, "/repo/README.md")
	require.NoError(t, err)
	merged, _, err := m.Merge(lines, oneFileReport())
	require.NoError(t, err)

	require.NoError(t, WriteFileAtomic(fs, "/repo/README.md", []byte(JoinLines(merged)), FileMode(fs, "/repo/README.md")))

	data, err := afero.ReadFile(fs, "/repo/README.md")
	require.NoError(t, err)
	assert.Contains(t, string(data), "| `pkg/a.py` | 10 | 2 | 80%|\n")
	assert.NotContains(t, string(data), "OLD TABLE")

	info, err := fs.Stat("/repo/README.md")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// no temp files left behind
	entries, err := afero.ReadDir(fs, "/repo")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomic_ReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/README.md", []byte("orig\n"), 0644))
	ro := afero.NewReadOnlyFs(base)

	err := WriteFileAtomic(ro, "/README.md", []byte("new\n"), 0644)
	require.Error(t, err)

	data, err := afero.ReadFile(base, "/README.md")
	require.NoError(t, err)
	assert.Equal(t, "orig\n", string(data))
}

func TestWriteFileAtomic_OsFs(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/README.md"
	require.NoError(t, os.WriteFile(path, []byte("orig\n"), 0644))

	require.NoError(t, WriteFileAtomic(afero.NewOsFs(), path, []byte("new\n"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomic_OsFsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "docs", "README.md")
	link := filepath.Join(dir, "README.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte("orig\n"), 0600))
	require.NoError(t, os.Symlink(filepath.Join("docs", "README.md"), link))

	fs := afero.NewOsFs()
	require.NoError(t, WriteFileAtomic(fs, link, []byte("new\n"), FileMode(fs, link)))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0, "link replaced by a regular file")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	info, err = os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
