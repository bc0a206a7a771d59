// Package dirwalk implements the directory-inclusion iterator: given a
// base directory, it enumerates a filtered, sorted set of entries as if
// their contents were concatenated at an @include_dir directive.
package dirwalk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Iterator enumerates the immediate entries of a base directory,
// admitting only regular files and symlinks (plus entries of a type Go
// cannot classify, treated the same as the spec treats an unclassifiable
// platform type), rejecting dot-prefixed names, and yielding the
// admitted names in byte-wise ascending order — the Go equivalent of
// alphasort.
type Iterator struct {
	baseDir string
	entries []string
	cursor  int
}

// New builds an Iterator over baseDir. exclude is an optional list of
// doublestar glob patterns (see internal/config); any admitted entry
// matching one of them is dropped. Patterns only ever narrow the
// admitted set — spec compliance without exclude configured is
// unaffected.
func New(baseDir string, exclude []string) (*Iterator, error) {
	dirEntries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", baseDir, err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if name == "" || name[0] == '.' {
			continue
		}
		if !admitted(de) {
			continue
		}
		if matchesAny(exclude, name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return &Iterator{baseDir: baseDir, entries: names}, nil
}

// admitted reports whether a directory entry is a regular file, a
// symlink, or of a type this platform cannot classify
// (fs.ModeIrregular). Directories and other special files are rejected.
func admitted(de os.DirEntry) bool {
	mode := de.Type()
	switch {
	case mode.IsRegular():
		return true
	case mode&fs.ModeSymlink != 0:
		return true
	case mode&fs.ModeDir != 0:
		return false
	case mode&fs.ModeType == 0:
		return true
	case mode&fs.ModeIrregular != 0:
		return true
	default:
		return false
	}
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Next returns the path of the next admitted entry (joined with the
// base directory) and advances the cursor. ok is false once the
// iterator is exhausted.
func (it *Iterator) Next() (path string, ok bool) {
	if it == nil || it.cursor >= len(it.entries) {
		return "", false
	}
	name := it.entries[it.cursor]
	it.cursor++
	return filepath.Join(it.baseDir, name), true
}

// HasMore reports whether a subsequent call to Next would yield an
// entry.
func (it *Iterator) HasMore() bool {
	return it != nil && it.cursor < len(it.entries)
}

// BaseDir returns the directory this iterator was built over.
func (it *Iterator) BaseDir() string {
	if it == nil {
		return ""
	}
	return it.baseDir
}
