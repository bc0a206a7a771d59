// Command lcfgscan drives the scanner from a terminal: one-shot scans,
// a raw token dump, and a watch mode that re-scans on file change.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/libconfigo/lcfgscan/internal/config"
	"github.com/libconfigo/lcfgscan/internal/diag"
	"github.com/libconfigo/lcfgscan/internal/scanner"
	"github.com/libconfigo/lcfgscan/internal/security"
	"github.com/libconfigo/lcfgscan/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "lcfgscan",
		Usage:                  "lex and scan libconfig-family configuration files",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "validator-threshold",
				Usage: "size in bytes above which an include target is screened for binary content (0 disables)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "doublestar glob excluded from @include_dir expansion (repeatable)",
			},
			&cli.IntFlag{
				Name:  "max-include-depth",
				Usage: "cap on simultaneously open include frames (unset uses .lcfgscan.kdl; 0 becomes the default of 256)",
			},
			&cli.BoolFlag{
				Name:  "log-scan-events",
				Usage: "log include push/pop and scan errors to stderr",
			},
		},
		Commands: []*cli.Command{
			scanCommand(),
			tokensCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "lcfgscan:", err)
		os.Exit(1)
	}
}

// loadOptions merges .lcfgscan.kdl (home, then the root file's
// directory) with whatever flags the invocation set explicitly.
func loadOptions(c *cli.Context, rootPath string) (config.Options, error) {
	opts, err := config.Load(filepath.Dir(rootPath))
	if err != nil {
		return opts, fmt.Errorf("loading scan options: %w", err)
	}

	if c.IsSet("validator-threshold") {
		opts.ValidatorThreshold = c.Int64("validator-threshold")
	}
	if excl := c.StringSlice("exclude"); len(excl) > 0 {
		opts.Exclude = excl
	}
	if c.IsSet("max-include-depth") {
		opts.MaxIncludeDepth = c.Int("max-include-depth")
	}
	if c.Bool("log-scan-events") {
		opts.LogScanEvents = true
	}

	if err := config.ValidateOptions(&opts); err != nil {
		return opts, fmt.Errorf("invalid scan options: %w", err)
	}
	return opts, nil
}

func openContext(rootPath string, opts config.Options) (*scanner.Context, error) {
	ctx, err := scanner.New(rootPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", rootPath, err)
	}
	ctx = ctx.WithExcludeGlobs(opts.Exclude).
		WithLogger(diag.New(opts.LogScanEvents)).
		WithMaxIncludeDepth(opts.MaxIncludeDepth)
	if opts.ValidatorThreshold > 0 {
		ctx = ctx.WithValidator(security.NewValidator(opts.ValidatorThreshold))
	}
	return ctx, nil
}
