// Package security guards @include / @include_dir targets against
// accidentally pulling in something that is not a libconfig fragment at
// all — a large binary asset sitting next to the config tree, say.
// Adapted from a much broader multi-language source-file validator; a
// byte-oriented config grammar only needs the size and binary-content
// checks, not per-language pattern detection, since there is exactly
// one language here.
package security

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Validator rejects include targets above a size threshold that also
// look like binary data, so a stray `@include "photo.png"` fails fast
// with a clear message instead of feeding arbitrary bytes to the string
// accumulator.
type Validator struct {
	Threshold  int64 // files at or under this size skip validation entirely
	HeaderSize int64 // bytes of header read to make the binary-content call
}

// NewValidator returns a Validator with the given size threshold, in
// bytes. A non-positive threshold disables validation (every include is
// accepted regardless of size or content).
func NewValidator(threshold int64) *Validator {
	return &Validator{
		Threshold:  threshold,
		HeaderSize: 64 * 1024,
	}
}

// Validate checks path before it is opened as an include frame. It
// returns nil for files at or under the threshold, or for files whose
// header does not look like binary data.
func (v *Validator) Validate(path string) error {
	if v.Threshold <= 0 {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if info.Size() <= v.Threshold {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	header := make([]byte, v.HeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("read header: %w", err)
	}
	header = header[:n]

	for _, magic := range knownBinaryMagic {
		if hasMagic(header, magic) {
			return fmt.Errorf("file starts with a known binary signature, refusing to include")
		}
	}

	if isBinary(header) {
		return fmt.Errorf("file is %d bytes and looks like binary data, refusing to include", info.Size())
	}
	return nil
}

// knownBinaryMagic lists a handful of common binary file signatures
// worth rejecting outright, even when the 30% non-printable ratio
// would not otherwise flag a short header (e.g. a small PNG whose
// compressed payload happens to look mostly printable).
var knownBinaryMagic = [][]byte{
	{0x89, 0x50, 0x4E, 0x47}, // PNG
	{0xFF, 0xD8, 0xFF},       // JPEG
	{0x50, 0x4B, 0x03, 0x04}, // ZIP
	{0x25, 0x50, 0x44, 0x46}, // PDF
	{0x7F, 0x45, 0x4C, 0x46}, // ELF
}

// isBinary reports whether data is predominantly non-printable bytes —
// the same 30% heuristic the teacher repo's code-file validator used
// for its "is this actually source code" check.
func isBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	nonPrintable := 0
	for _, b := range data {
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(data)) > 0.3
}

// hasMagic reports whether header begins with the binary signature
// magic. Validate uses it to reject known signatures regardless of the
// printable-byte ratio.
func hasMagic(header []byte, magic []byte) bool {
	return bytes.HasPrefix(header, magic)
}
