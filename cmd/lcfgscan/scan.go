package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pelletier/go-toml/v2"
	kdl "github.com/sblinch/kdl-go"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/libconfigo/lcfgscan/internal/values"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "parse one or more root files into a value tree and print it",
		ArgsUsage: "ROOT [ROOT...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dump",
				Usage: "output format: text, json, kdl, or toml",
				Value: "text",
			},
		},
		Action: func(c *cli.Context) error {
			roots := c.Args().Slice()
			if len(roots) == 0 {
				return cli.Exit("scan requires at least one root file", 1)
			}

			results := make([]map[string]any, len(roots))
			scanErrs := make([]error, len(roots))

			var g errgroup.Group
			for i, root := range roots {
				i, root := i, root
				g.Go(func() error {
					opts, err := loadOptions(c, root)
					if err != nil {
						scanErrs[i] = err
						return nil
					}
					ctx, err := openContext(root, opts)
					if err != nil {
						scanErrs[i] = err
						return nil
					}
					defer ctx.Close()

					tree, err := values.NewBuilder(ctx).Build()
					if err != nil {
						scanErrs[i] = fmt.Errorf("%s: %w", root, err)
						return nil
					}
					results[i] = tree
					return nil
				})
			}
			_ = g.Wait() // per-root errors are collected, not fatal to the group

			var failed bool
			for i, root := range roots {
				if scanErrs[i] != nil {
					fmt.Fprintf(c.App.ErrWriter, "lcfgscan: %s: %v\n", root, scanErrs[i])
					failed = true
					continue
				}
				if err := dumpTree(c.App.Writer, c.String("dump"), roots[i], results[i]); err != nil {
					return err
				}
			}
			if failed {
				return cli.Exit("one or more roots failed to scan", 1)
			}
			return nil
		},
	}
}

func dumpTree(w io.Writer, format, root string, tree map[string]any) error {
	switch format {
	case "text":
		fmt.Fprintf(w, "# %s\n", root)
		printTextValue(w, tree, 0)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case "kdl":
		out, err := kdl.Marshal(tree)
		if err != nil {
			return fmt.Errorf("marshaling %s as KDL: %w", root, err)
		}
		_, err = w.Write(out)
		return err
	case "toml":
		out, err := toml.Marshal(tree)
		if err != nil {
			return fmt.Errorf("marshaling %s as TOML: %w", root, err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown dump format %q", format)
	}
}

func printTextValue(w io.Writer, v any, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	switch tv := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch tv[k].(type) {
			case map[string]any, []any:
				fmt.Fprintf(w, "%s%s:\n", indent, k)
				printTextValue(w, tv[k], depth+1)
			default:
				fmt.Fprintf(w, "%s%s = %v\n", indent, k, tv[k])
			}
		}
	case []any:
		for _, elem := range tv {
			switch elem.(type) {
			case map[string]any, []any:
				fmt.Fprintf(w, "%s-\n", indent)
				printTextValue(w, elem, depth+1)
			default:
				fmt.Fprintf(w, "%s- %v\n", indent, elem)
			}
		}
	}
}
