// Package suggest offers "did you mean" hints for failed include
// resolution, using Jaro-Winkler similarity the same way the rest of
// this codebase's fuzzy-match tooling does.
package suggest

import (
	"os"
	"path/filepath"

	"github.com/hbollon/go-edlib"
)

// Threshold below which a candidate is not worth suggesting — a low
// similarity score is more likely to confuse than help.
const Threshold = 0.7

// Nearest returns the name, among dir's immediate entries, most
// similar to want by Jaro-Winkler score, or "" if dir can't be read or
// no entry clears Threshold.
func Nearest(dir, want string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	best := ""
	bestScore := Threshold
	for _, e := range entries {
		name := e.Name()
		if name == want {
			continue
		}
		score, err := edlib.StringsSimilarity(name, want, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if float64(score) > bestScore {
			bestScore = float64(score)
			best = name
		}
	}
	return best
}

// NearestPath is Nearest applied to a full candidate path: it suggests
// a sibling file in the same directory as path.
func NearestPath(path string) string {
	return Nearest(filepath.Dir(path), filepath.Base(path))
}
