package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/libconfigo/lcfgscan/internal/token"
	"github.com/libconfigo/lcfgscan/pkg/pathutil"
)

func tokensCommand() *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "print the raw token stream for a single root file",
		ArgsUsage: "ROOT",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("tokens requires exactly one root file", 1)
			}
			root := c.Args().First()

			opts, err := loadOptions(c, root)
			if err != nil {
				return err
			}
			ctx, err := openContext(root, opts)
			if err != nil {
				return err
			}
			defer ctx.Close()

			absRoot, err := filepath.Abs(root)
			if err != nil {
				absRoot = root
			}
			baseDir := filepath.Dir(absRoot)

			for {
				tok := ctx.Pull()
				fmt.Fprintln(c.App.Writer, formatToken(tok, baseDir))
				if tok.Kind == token.EOF {
					return nil
				}
				if tok.Kind == token.Error {
					return cli.Exit(ctx.LastError(), 1)
				}
			}
		},
	}
}

func formatToken(t token.Token, baseDir string) string {
	path := pathutil.ToRelative(t.Path, baseDir)
	switch t.Kind {
	case token.Name:
		return fmt.Sprintf("%s:%d NAME %q", path, t.Line, t.NameVal)
	case token.String:
		return fmt.Sprintf("%s:%d STRING %q", path, t.Line, string(t.Str))
	case token.Boolean:
		return fmt.Sprintf("%s:%d BOOLEAN %v", path, t.Line, t.BoolVal)
	case token.Integer:
		return fmt.Sprintf("%s:%d INTEGER %d", path, t.Line, t.Int32)
	case token.Integer64:
		return fmt.Sprintf("%s:%d INTEGER64 %d", path, t.Line, t.Int64)
	case token.Hex:
		return fmt.Sprintf("%s:%d HEX 0x%x", path, t.Line, t.Uint32)
	case token.Hex64:
		return fmt.Sprintf("%s:%d HEX64 0x%x", path, t.Line, t.Uint64)
	case token.Float:
		return fmt.Sprintf("%s:%d FLOAT %g", path, t.Line, t.Float64)
	case token.Garbage:
		return fmt.Sprintf("%s:%d GARBAGE %q", path, t.Line, t.Garbage)
	case token.Error:
		return fmt.Sprintf("%s:%d ERROR", path, t.Line)
	default:
		return fmt.Sprintf("%s:%d %s", path, t.Line, t.Kind)
	}
}
