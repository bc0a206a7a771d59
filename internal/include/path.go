package include

import "path/filepath"

// canonical produces the absolute, cleaned form of path used for cycle
// detection (§4.2). Symlinks are deliberately left unresolved: two
// different symlinks to the same underlying file are not considered
// the same include target, matching the path-identity rule a grammar
// parser would expect from "the path named in the directive", not "the
// file ultimately opened".
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// resolve computes the path an @include/@include_dir directive refers
// to, relative to the directory of the frame that is currently active
// (or, for the very first include in the root file, relative to the
// root file's own directory — baseDir already reflects that since it is
// derived from the top frame in both cases).
func resolve(baseDir, raw string) string {
	if filepath.IsAbs(raw) {
		return raw
	}
	return filepath.Join(baseDir, raw)
}
