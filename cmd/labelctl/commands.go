package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanizio/jye-barcode/internal/app"
	"github.com/yanizio/jye-barcode/internal/domain"
	"github.com/yanizio/jye-barcode/internal/label"
	"github.com/yanizio/jye-barcode/internal/labeling"
)

// labelctl migrate
func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the codigos_barras table if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, app.Options{Migrate: true}, func(a *app.App, w io.Writer) error {
				if a.DB == nil {
					fmt.Fprintln(w, "memory driver: nothing to migrate")
					return nil
				}
				fmt.Fprintln(w, "schema up to date")
				return nil
			})
		},
	}
}

// labelctl generate --wildcard 385 --sku 98778 --quantity 3
func (c *cli) generateCmd() *cobra.Command {
	var (
		wildcard, sku, dialect string
		quantity               int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Register a new code and write its label file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := label.ParseDialect(dialect)
			if err != nil {
				return err
			}
			return c.run(cmd, app.Options{}, func(a *app.App, w io.Writer) error {
				res, err := a.Service.Generate(cmd.Context(), labeling.GenerateRequest{
					Wildcard: wildcard, SKU: sku, Quantity: quantity, Dialect: d,
				})
				if err != nil {
					return err
				}
				path, err := c.writeLabel(a, res.File)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "code %s registered (id %s)\n", res.Record.Code, res.Record.ID)
				fmt.Fprintf(w, "%d label(s) written to %s\n", res.File.Labels, path)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&wildcard, "wildcard", "w", "", "supplier wildcard (1-3 digits)")
	f.StringVarP(&sku, "sku", "s", "", "TBC SKU (1-5 digits)")
	f.IntVarP(&quantity, "quantity", "q", 1, "number of labels")
	f.StringVarP(&dialect, "dialect", "d", "", "printer language: epl or zpl (default label.dialect)")
	_ = cmd.MarkFlagRequired("wildcard")
	_ = cmd.MarkFlagRequired("sku")
	return cmd
}

// labelctl batch 38598778:2 38500012
// labelctl batch --pending
func (c *cli) batchCmd() *cobra.Command {
	var (
		dialect  string
		quantity int
		pending  bool
	)
	cmd := &cobra.Command{
		Use:   "batch [CODE[:QTY]...]",
		Short: "Print several codes into one file and mark them printed",
		Long: "Print several codes into one file and mark them printed.\n\n" +
			"Each argument is a code with an optional per-code quantity.  With\n" +
			"--pending every code not yet printed is included.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !pending {
				return errors.New("give at least one code or --pending")
			}
			d, err := label.ParseDialect(dialect)
			if err != nil {
				return err
			}
			return c.run(cmd, app.Options{}, func(a *app.App, w io.Writer) error {
				items, err := batchItems(cmd, w, a.Service, args, pending, quantity)
				if err != nil {
					return err
				}
				res, err := a.Service.BatchPrint(cmd.Context(), labeling.BatchRequest{Items: items, Dialect: d})
				if res == nil {
					return err
				}
				path, werr := c.writeLabel(a, res.File)
				if werr != nil {
					return werr
				}
				fmt.Fprintf(w, "%d code(s), %d label(s) written to %s\n", res.Codes, res.Labels, path)
				if err != nil {
					fmt.Fprintf(w, "print status NOT recorded for: %s\n",
						strings.Join(res.Marked.FailedIDs(), ", "))
					return err
				}
				fmt.Fprintf(w, "%d record(s) marked printed\n", len(res.Marked.Succeeded))
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dialect, "dialect", "d", "", "printer language: epl or zpl (default label.dialect)")
	f.IntVarP(&quantity, "quantity", "q", 1, "labels per code when no :QTY is given")
	f.BoolVar(&pending, "pending", false, "include every code not yet printed")
	return cmd
}

// batchItems resolves CODE[:QTY] arguments, plus pending records when
// asked, into batch items.  A code given more than once gets one block
// carrying the summed quantity; pending records already listed are skipped.
func batchItems(cmd *cobra.Command, w io.Writer, svc *labeling.Service, args []string, pending bool, qty int) ([]labeling.BatchItem, error) {
	ctx := cmd.Context()
	pos := make(map[string]int, len(args)) // record id → index in items
	items := make([]labeling.BatchItem, 0, len(args))

	for _, arg := range args {
		code, rawQty, hasQty := strings.Cut(arg, ":")
		n := qty
		if hasQty {
			v, err := strconv.Atoi(rawQty)
			if err != nil {
				return nil, domain.NewFieldError("quantity", domain.ErrMalformed,
					"quantity in %q must be a whole number", arg)
			}
			n = v
		}
		rec, err := svc.Search(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("code %s: %w", code, err)
		}
		if rec.Code != code {
			return nil, fmt.Errorf("code %s: %w", code, domain.ErrNotFound)
		}
		if i, ok := pos[rec.ID]; ok {
			items[i].Quantity += n
			fmt.Fprintf(w, "note: %s listed more than once; printing %d label(s)\n",
				code, items[i].Quantity)
			continue
		}
		pos[rec.ID] = len(items)
		items = append(items, labeling.BatchItem{ID: rec.ID, Code: rec.Code, Quantity: n})
	}

	if pending {
		no := false
		recs, err := svc.List(ctx, domain.Filter{Printed: &no})
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if _, ok := pos[rec.ID]; ok {
				continue
			}
			pos[rec.ID] = len(items)
			items = append(items, labeling.BatchItem{ID: rec.ID, Code: rec.Code, Quantity: qty})
		}
	}
	return items, nil
}

// labelctl list --wildcard 385 --printed=false --from 2026-01-01
func (c *cli) listCmd() *cobra.Command {
	var wildcard, printed, from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered codes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := domain.ParseFilter(wildcard, printed, from, to)
			if err != nil {
				return err
			}
			return c.run(cmd, app.Options{}, func(a *app.App, w io.Writer) error {
				recs, err := a.Service.List(cmd.Context(), f)
				if err != nil {
					return err
				}
				return printRecords(w, recs)
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&wildcard, "wildcard", "w", "", "only this supplier wildcard")
	fl.StringVar(&printed, "printed", "", "true or false; empty lists both")
	fl.StringVar(&from, "from", "", "created on or after (YYYY-MM-DD or RFC 3339)")
	fl.StringVar(&to, "to", "", "created on or before (YYYY-MM-DD covers the whole day)")
	return cmd
}

// labelctl search 38598778
func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search CODE|SKU",
		Short: "Find a record by full code or by SKU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, app.Options{}, func(a *app.App, w io.Writer) error {
				rec, err := a.Service.Search(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printRecords(w, []domain.Record{*rec})
			})
		},
	}
}

// labelctl reprint 38598778 --quantity 2
func (c *cli) reprintCmd() *cobra.Command {
	var (
		dialect  string
		quantity int
	)
	cmd := &cobra.Command{
		Use:   "reprint CODE",
		Short: "Write a label file for an existing code without changing its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := label.ParseDialect(dialect)
			if err != nil {
				return err
			}
			return c.run(cmd, app.Options{}, func(a *app.App, w io.Writer) error {
				file, err := a.Service.Reprint(cmd.Context(), labeling.ReprintRequest{
					Code: args[0], Quantity: quantity, Dialect: d,
				})
				if err != nil {
					return err
				}
				path, err := c.writeLabel(a, *file)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%d label(s) written to %s\n", file.Labels, path)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dialect, "dialect", "d", "", "printer language: epl or zpl (default label.dialect)")
	f.IntVarP(&quantity, "quantity", "q", 1, "number of labels")
	return cmd
}

// labelctl wildcards
func (c *cli) wildcardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wildcards",
		Short: "List every supplier wildcard in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, app.Options{}, func(a *app.App, w io.Writer) error {
				list, err := a.Service.Wildcards(cmd.Context())
				if err != nil {
					return err
				}
				for _, wc := range list {
					fmt.Fprintln(w, wc)
				}
				return nil
			})
		},
	}
}

//
// helpers
//

// writeLabel stores f under --out or label.output_dir and returns its path.
func (c *cli) writeLabel(a *app.App, f label.File) (string, error) {
	dir := c.out
	if dir == "" {
		dir = a.Config.Abs(a.Config.Label.OutputDir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("label dir: %w", err)
	}
	path := filepath.Join(dir, f.Name)
	if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
		return "", fmt.Errorf("write label: %w", err)
	}
	return path, nil
}

func printRecords(w io.Writer, recs []domain.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "CODE\tWILDCARD\tSKU\tPRINTED\tCREATED\tPRINTED AT")
	fmt.Fprintln(tw, "----\t--------\t---\t-------\t-------\t----------")
	for _, r := range recs {
		printedAt := "-"
		if r.PrintedAt != nil {
			printedAt = r.PrintedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n",
			r.Code, r.Wildcard, r.SKU, r.Printed,
			r.CreatedAt.Local().Format(time.DateTime), printedAt)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d record(s)\n", len(recs))
	return err
}
