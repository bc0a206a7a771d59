// Package include implements the include-stack manager: an ordered
// stack of suspended scanner frames plus a path set for loop detection,
// and the push/pop transitions that back @include and @include_dir.
package include

import (
	"errors"
	"io/fs"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/libconfigo/lcfgscan/internal/cfgerr"
	"github.com/libconfigo/lcfgscan/internal/dirwalk"
	"github.com/libconfigo/lcfgscan/internal/security"
	"github.com/libconfigo/lcfgscan/internal/suggest"
)

var errNotRegular = errors.New("not a regular file or symlink")

// isRegularOrSymlink reports whether path is a regular file or a
// symlink (§7: "not a regular file/symlink" is a distinct include
// open-failure reason from not-found/permission-denied). Lstat is used
// so a symlink is judged by its own type, not the type of its target.
func isRegularOrSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	mode := info.Mode()
	return mode.IsRegular() || mode&fs.ModeSymlink != 0
}

// Stack owns every open include frame. The top of frames is the active
// frame; no path may appear on the stack more than once.
type Stack struct {
	frames []*Frame
	// paths is the authoritative loop-detection set: canonical absolute
	// paths currently on the stack (§3, §4.2 — "no path appears more
	// than once").
	paths map[string]struct{}
	// hashes is a fast negative pre-filter keyed by xxhash of the
	// canonical path: a miss here means "definitely not a cycle"
	// without touching the paths map at all. A hit falls through to the
	// authoritative paths lookup, so a hash collision can never
	// manufacture a false cycle — it only costs one extra map lookup.
	hashes map[uint64]int

	// Validator screens a candidate include target before it is opened.
	// Nil disables the check (every target is accepted regardless of
	// size/content).
	Validator *security.Validator
	// ExcludeGlobs narrows which files an @include_dir expansion will
	// admit, beyond the baseline admission rule in internal/dirwalk.
	ExcludeGlobs []string
	// MaxDepth caps how many frames may be on the stack at once. Zero
	// means unbounded. This is a distinct guard from cycle detection:
	// a long chain of distinct files with no repeated path will never
	// trip onStack, but can still exhaust process resources.
	MaxDepth int
}

var errMaxDepth = errors.New("include depth limit exceeded")

// NewRoot builds a Stack whose single frame wraps an already-open file
// handle and its path — the scanner context construction contract from
// the scanner spec (§6): the caller owns opening the root file, the
// stack owns everything opened after that.
func NewRoot(file *os.File, path string) (*Stack, error) {
	abs, err := canonical(path)
	if err != nil {
		return nil, err
	}
	s := &Stack{
		frames: []*Frame{newFrame(abs, file, nil)},
		paths:  map[string]struct{}{abs: {}},
		hashes: map[uint64]int{},
	}
	s.recordHash(abs)
	return s, nil
}

func (s *Stack) recordHash(path string) {
	s.hashes[xxhash.Sum64String(path)]++
}

func (s *Stack) forgetHash(path string) {
	h := xxhash.Sum64String(path)
	if s.hashes[h] <= 1 {
		delete(s.hashes, h)
	} else {
		s.hashes[h]--
	}
}

// onStack is the cycle check: a hash miss proves path is not on the
// stack without a string comparison; a hash hit falls through to the
// authoritative paths set.
func (s *Stack) onStack(path string) bool {
	if _, ok := s.hashes[xxhash.Sum64String(path)]; !ok {
		return false
	}
	_, present := s.paths[path]
	return present
}

// Top returns the active frame.
func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Depth returns the number of frames currently on the stack.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// chain returns the paths currently on the stack, root first, for
// embedding in a cycle diagnostic.
func (s *Stack) chain() []string {
	out := make([]string, len(s.frames))
	for i, fr := range s.frames {
		out[i] = fr.path
	}
	return out
}

// Push resolves raw against the directory of the current top frame,
// detects a cycle, validates and opens the target, and suspends the
// current frame in favor of the new one. It is used for plain
// @include directives; the files of an @include_dir expansion are
// pushed by PushDir and HandleEOF instead. A non-nil dirIter is
// attached to the new frame.
func (s *Stack) Push(raw string, dirIter *dirwalk.Iterator) error {
	top := s.Top()
	target := resolve(top.Dir(), raw)

	abs, err := canonical(target)
	if err != nil {
		return cfgerr.NewIncludeError("include", raw, err)
	}

	if s.onStack(abs) {
		return &cfgerr.CycleError{Path: abs, Chain: s.chain()}
	}
	if s.MaxDepth > 0 && len(s.frames) >= s.MaxDepth {
		return cfgerr.NewIncludeError("include", raw, errMaxDepth)
	}

	if s.Validator != nil {
		if err := s.Validator.Validate(abs); err != nil {
			return cfgerr.NewIncludeError("include", raw, err).WithSuggestion(suggest.NearestPath(abs))
		}
	}

	file, err := os.Open(abs)
	if err != nil {
		return cfgerr.NewIncludeError("include", raw, err).WithSuggestion(suggest.NearestPath(abs))
	}
	if !isRegularOrSymlink(abs) {
		file.Close()
		return cfgerr.NewIncludeError("include", raw, errNotRegular)
	}

	s.frames = append(s.frames, newFrame(abs, file, dirIter))
	s.paths[abs] = struct{}{}
	s.recordHash(abs)
	return nil
}

// PushDir resolves raw as a directory, builds an iterator over its
// admitted entries, and — if it yields at least one entry — pushes the
// first entry as a new frame carrying the iterator. An empty directory
// pushes nothing and returns nil. An unreadable directory is reported
// as a DirectoryError; the directive is then abandoned by the caller,
// scanning continuing in the including file.
func (s *Stack) PushDir(raw string) error {
	top := s.Top()
	target := resolve(top.Dir(), raw)

	it, err := dirwalk.New(target, s.ExcludeGlobs)
	if err != nil {
		return cfgerr.NewDirectoryError(raw, err)
	}

	path, ok := it.Next()
	if !ok {
		return nil
	}
	return s.pushIterEntry(path, it)
}

func (s *Stack) pushIterEntry(path string, it *dirwalk.Iterator) error {
	abs, err := canonical(path)
	if err != nil {
		return cfgerr.NewDirectoryError(path, err)
	}
	if s.onStack(abs) {
		return &cfgerr.CycleError{Path: abs, Chain: s.chain()}
	}
	if s.MaxDepth > 0 && len(s.frames) >= s.MaxDepth {
		return cfgerr.NewDirectoryError(path, errMaxDepth)
	}
	if s.Validator != nil {
		if err := s.Validator.Validate(abs); err != nil {
			return cfgerr.NewDirectoryError(path, err)
		}
	}
	file, err := os.Open(abs)
	if err != nil {
		return cfgerr.NewDirectoryError(path, err)
	}
	s.frames = append(s.frames, newFrame(abs, file, it))
	s.paths[abs] = struct{}{}
	s.recordHash(abs)
	return nil
}

// HandleEOF pops the active frame on end-of-buffer (§4.4). If the
// popped frame carried a directory iterator with further entries, the
// next entry is pushed immediately (continuing the same expansion);
// otherwise control returns to whatever frame is now on top. terminated
// is true once the stack is fully empty — the caller should then signal
// end-of-stream.
func (s *Stack) HandleEOF() (terminated bool, err error) {
	popped := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	popped.close()
	delete(s.paths, popped.path)
	s.forgetHash(popped.path)

	if popped.dirIter != nil && popped.dirIter.HasMore() {
		path, _ := popped.dirIter.Next()
		if pushErr := s.pushIterEntry(path, popped.dirIter); pushErr != nil {
			// One bad entry abandons the rest of this directory
			// expansion rather than the whole scan; fall through to
			// restoring the parent frame.
			return len(s.frames) == 0, pushErr
		}
		return false, nil
	}

	return len(s.frames) == 0, nil
}

// Close releases every open frame, in top-to-bottom order, regardless
// of scan state — used for context teardown on every exit path.
func (s *Stack) Close() {
	for i := len(s.frames) - 1; i >= 0; i-- {
		s.frames[i].close()
	}
	s.frames = nil
	s.paths = nil
	s.hashes = nil
}

