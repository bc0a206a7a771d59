package dirwalk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain fails the package run if any test leaves a goroutine
// running after it finishes.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x=1;"), 0o644))
}

func TestNew_AdmitsAndSortsRegularFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.cfg")
	writeFile(t, dir, "a.cfg")
	writeFile(t, dir, "C.cfg")

	it, err := New(dir, nil)
	require.NoError(t, err)

	var got []string
	for {
		path, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, filepath.Base(path))
	}

	// Byte-wise ascending: uppercase sorts before lowercase.
	assert.Equal(t, []string{"C.cfg", "a.cfg", "b.cfg"}, got)
}

func TestNew_SkipsDotPrefixedEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "visible.cfg")
	writeFile(t, dir, ".hidden.cfg")

	it, err := New(dir, nil)
	require.NoError(t, err)

	path, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "visible.cfg", filepath.Base(path))
	assert.False(t, it.HasMore())
}

func TestNew_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "leaf.cfg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	it, err := New(dir, nil)
	require.NoError(t, err)

	path, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "leaf.cfg", filepath.Base(path))
	assert.False(t, it.HasMore(), "subdirectory must not be admitted")
}

func TestNew_AdmitsSymlinkToRegularFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "target.cfg")
	require.NoError(t, os.Symlink(filepath.Join(dir, "target.cfg"), filepath.Join(dir, "link.cfg")))

	it, err := New(dir, nil)
	require.NoError(t, err)

	var got []string
	for {
		path, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, filepath.Base(path))
	}
	assert.Equal(t, []string{"link.cfg", "target.cfg"}, got)
}

func TestNew_ExcludeGlobsNarrowButNeverWiden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cfg")
	writeFile(t, dir, "a.cfg.bak")
	writeFile(t, dir, ".hidden.cfg")

	it, err := New(dir, []string{"*.bak"})
	require.NoError(t, err)

	path, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "a.cfg", filepath.Base(path))
	assert.False(t, it.HasMore(), "excluded .bak file and dotfile must both be absent")
}

func TestNew_EmptyDirectoryYieldsNoEntries(t *testing.T) {
	dir := t.TempDir()

	it, err := New(dir, nil)
	require.NoError(t, err)
	assert.False(t, it.HasMore())
	_, ok := it.Next()
	assert.False(t, ok)
}

func TestNew_MissingDirectoryErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "does-not-exist"), nil)
	assert.Error(t, err)
}

func TestIterator_BaseDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cfg")

	it, err := New(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, it.BaseDir())

	var nilIt *Iterator
	assert.Equal(t, "", nilIt.BaseDir())
}

func TestIterator_NextOnNilIsSafe(t *testing.T) {
	var nilIt *Iterator
	assert.False(t, nilIt.HasMore())
	_, ok := nilIt.Next()
	assert.False(t, ok)
}
