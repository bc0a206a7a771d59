package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/libconfigo/lcfgscan/internal/values"
	"github.com/libconfigo/lcfgscan/internal/watch"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "re-scan a root file whenever it or any file it includes changes",
		ArgsUsage: "ROOT",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "quiet period after the last file event before re-scanning",
				Value: 300 * time.Millisecond,
			},
			&cli.StringFlag{
				Name:  "dump",
				Usage: "output format: text, json, kdl, or toml",
				Value: "text",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("watch requires exactly one root file", 1)
			}
			root := c.Args().First()
			dump := c.String("dump")

			w, err := watch.New(c.Duration("debounce"))
			if err != nil {
				return err
			}
			defer w.Stop()

			rescan := func() {
				opts, err := loadOptions(c, root)
				if err != nil {
					fmt.Fprintln(c.App.ErrWriter, "lcfgscan:", err)
					return
				}
				ctx, err := openContext(root, opts)
				if err != nil {
					fmt.Fprintln(c.App.ErrWriter, "lcfgscan:", err)
					return
				}
				defer ctx.Close()

				tree, err := values.NewBuilder(ctx).Build()
				if err != nil {
					fmt.Fprintln(c.App.ErrWriter, "lcfgscan:", err)
					return
				}
				if err := dumpTree(c.App.Writer, dump, root, tree); err != nil {
					fmt.Fprintln(c.App.ErrWriter, "lcfgscan:", err)
					return
				}
				if err := w.Reset(ctx.VisitedPaths()); err != nil {
					fmt.Fprintln(c.App.ErrWriter, "lcfgscan: re-arming watches:", err)
				}
			}

			rescan()
			w.Start(rescan)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			return nil
		},
	}
}
