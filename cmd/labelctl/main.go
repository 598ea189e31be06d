// cmd/labelctl/main.go
//
// Operator CLI for the JYE labeling service.
//
// Context
// -------
// labelctl boots the same config, logger, and store as cmd/web (through
// internal/app) and drives the labeling service directly.  It is meant for
// the print room and for ops: generating codes, printing pending batches,
// reprinting, and bootstrapping the schema.
//
// Usage
// -----
//
//	labelctl migrate
//	labelctl generate --wildcard 385 --sku 98778 --quantity 3
//	labelctl batch 38598778:2 38500012
//	labelctl batch --pending --quantity 1
//	labelctl list --printed=false --from 2026-01-01
//	labelctl search 38598778
//	labelctl reprint 38598778 --quantity 2 --dialect zpl
//	labelctl wildcards
//
// Label files land in label.output_dir (relative to JYE_ROOT) unless --out
// is given.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yanizio/jye-barcode/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&cli{boot: app.Bootstrap})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand.
type cli struct {
	boot func(context.Context, app.Options) (*app.App, error)
	out  string // --out override for label files
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "labelctl",
		Short:         "JYE barcode labeling CLI",
		Long:          "Generate, print, search, and reprint JYE product barcode labels.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.out, "out", "o", "", "directory for label files (default label.output_dir)")

	root.AddCommand(
		c.migrateCmd(),
		c.generateCmd(),
		c.batchCmd(),
		c.listCmd(),
		c.searchCmd(),
		c.reprintCmd(),
		c.wildcardsCmd(),
	)
	return root
}

// run boots the app, hands it to fn, and releases it afterwards.
func (c *cli) run(cmd *cobra.Command, opts app.Options, fn func(*app.App, io.Writer) error) error {
	a, err := c.boot(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a, cmd.OutOrStdout())
}
