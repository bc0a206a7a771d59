// Package config loads scan options from an optional .lcfgscan.kdl
// file, the same two-tier (global then project) KDL loading scheme the
// wider config-loading ecosystem this module was split out of uses.
package config

import (
	"os"
	"path/filepath"
)

// Options controls how a scanner.Context is built: validation,
// exclusion, logging, and the include-depth guard.
type Options struct {
	// ValidatorThreshold is the size, in bytes, above which an include
	// target is screened for binary content (internal/security). Zero
	// or negative disables the check.
	ValidatorThreshold int64

	// Exclude lists doublestar glob patterns an @include_dir expansion
	// will skip, beyond dirwalk's baseline dotfile/regular-file rule.
	Exclude []string

	// LogScanEvents enables internal/diag push/pop/error logging.
	LogScanEvents bool

	// MaxIncludeDepth bounds how many frames the include stack may
	// hold at once — an ambient guard against runaway expansion that
	// isn't itself a cycle (see SPEC_FULL's supplemented features).
	// Zero means unset: ValidateAndSetDefaults replaces it with 256.
	MaxIncludeDepth int
}

// Default returns the options a bare scanner.New(path) effectively
// uses: no validation, no exclusions, no logging, no depth cap.
func Default() Options {
	return Options{
		ValidatorThreshold: 0,
		Exclude:            nil,
		LogScanEvents:      false,
		MaxIncludeDepth:    0,
	}
}

// Load reads searchDir/.lcfgscan.kdl and $HOME/.lcfgscan.kdl (if
// present), merging project settings over the user's global ones, the
// project values winning field-by-field. A missing file at either tier
// is not an error; Load falls back to Default for whatever neither tier
// supplied.
func Load(searchDir string) (Options, error) {
	opts := Default()

	if home, err := os.UserHomeDir(); err == nil {
		if global, err := loadKDLFile(filepath.Join(home, ".lcfgscan.kdl")); err == nil && global != nil {
			opts = mergeOptions(opts, *global)
		}
	}

	if project, err := loadKDLFile(filepath.Join(searchDir, ".lcfgscan.kdl")); err != nil {
		return opts, err
	} else if project != nil {
		opts = mergeOptions(opts, *project)
	}

	return opts, nil
}

func loadKDLFile(path string) (*Options, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	opts, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}
	return &opts, nil
}

// mergeOptions layers override on top of base: any field override sets
// to its zero value is left at base's value, except Exclude, which
// replaces base's list outright when override specifies one at all
// (matching the project-overrides-base convention this scheme follows
// elsewhere for list-valued settings).
func mergeOptions(base, override Options) Options {
	merged := base
	if override.ValidatorThreshold != 0 {
		merged.ValidatorThreshold = override.ValidatorThreshold
	}
	if len(override.Exclude) > 0 {
		merged.Exclude = override.Exclude
	}
	if override.LogScanEvents {
		merged.LogScanEvents = true
	}
	if override.MaxIncludeDepth != 0 {
		merged.MaxIncludeDepth = override.MaxIncludeDepth
	}
	return merged
}
