package include

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/libconfigo/lcfgscan/internal/dirwalk"
)

// Frame is a suspended-or-active scanning state over one file: it owns
// the file handle exclusively, tracks its own 1-based line number, and
// optionally carries the directory iterator that produced it (when the
// frame was pushed by an @include_dir expansion rather than a plain
// @include).
type Frame struct {
	path    string
	file    *os.File
	reader  *bufio.Reader
	line    int
	dirIter *dirwalk.Iterator
}

func newFrame(path string, file *os.File, dirIter *dirwalk.Iterator) *Frame {
	return &Frame{
		path:    path,
		file:    file,
		reader:  bufio.NewReader(file),
		line:    1,
		dirIter: dirIter,
	}
}

// Path returns the frame's canonical, absolute path.
func (fr *Frame) Path() string { return fr.path }

// Line returns the frame's current 1-based line number.
func (fr *Frame) Line() int { return fr.line }

// Dir returns the directory this frame's file lives in, used to resolve
// a relative include path encountered while this frame is active.
func (fr *Frame) Dir() string { return filepath.Dir(fr.path) }

// ReadByte returns the next byte from the frame's file, advancing the
// frame's line counter whenever the byte is '\n' — only '\n' increments
// the counter (§6); \r and \f are line terminators for whitespace
// purposes only.
func (fr *Frame) ReadByte() (byte, error) {
	b, err := fr.reader.ReadByte()
	if err == nil && b == '\n' {
		fr.line++
	}
	return b, err
}

// Peek returns, without consuming, up to n bytes of unread input.
func (fr *Frame) Peek(n int) ([]byte, error) {
	return fr.reader.Peek(n)
}

// Discard skips n bytes, advancing the line counter for any '\n' among
// them. Used after a successful Peek-based lookahead match.
func (fr *Frame) Discard(n int) error {
	for i := 0; i < n; i++ {
		if _, err := fr.ReadByte(); err != nil {
			return err
		}
	}
	return nil
}

func (fr *Frame) close() error {
	return fr.file.Close()
}
