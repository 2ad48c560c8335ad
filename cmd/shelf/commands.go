package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/app"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

func newServeCmd(a **app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background schedulers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*a).Run()
		},
	}
}

func newListCmd(a **app.App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List loaded categories and their links",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			err := (*a).Engine().Read(func(idx *index.MemoryIndex) error {
				for _, root := range idx.GetAllCategories() {
					c := root.Category()
					fmt.Fprintf(w, "%s\t%s\t%d links\n", c.Name, c.PasswordProtection, len(root.Links()))
					for _, n := range root.Links() {
						fmt.Fprintf(w, "  %s\t%s\t%s\n", n.Title(), n.Link().URL, catalogSummary(n.Link()))
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			return w.Flush()
		},
	}
}

func catalogSummary(l *domain.Link) string {
	if l.LastCatalogUpdate.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%d files, %s, updated %s",
		l.CatalogFileCount,
		humanize.IBytes(uint64(l.CatalogTotalSize)),
		humanize.Time(l.LastCatalogUpdate))
}

func newRefreshCmd(a **app.App) *cobra.Command {
	var silent bool
	cmd := &cobra.Command{
		Use:   "refresh <category> <link-title>",
		Short: "Rebuild the catalog of a directory or zip link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := (*a).Engine()
			id, err := findLink(*a, args[0], args[1])
			if err != nil {
				return err
			}
			if _, err := eng.RefreshCatalog(cmd.Context(), id, silent); err != nil {
				return err
			}
			return eng.Read(func(idx *index.MemoryIndex) error {
				n, ok := idx.FindNode(id)
				if !ok {
					return domain.ErrNotFound
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", n.Title(), catalogSummary(n.Link()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&silent, "silent", true, "Do not restore which directories were expanded")
	return cmd
}

// findLink resolves a top-level link of a category by title, ignoring case.
func findLink(a *app.App, category, title string) (string, error) {
	var id string
	err := a.Engine().Read(func(idx *index.MemoryIndex) error {
		root, ok := idx.GetCategory(category)
		if !ok {
			return fmt.Errorf("%w: category %q", domain.ErrNotFound, category)
		}
		for _, n := range root.Links() {
			if strings.EqualFold(n.Title(), title) {
				id = n.ID
				return nil
			}
		}
		return fmt.Errorf("%w: link %q in %q", domain.ErrNotFound, title, category)
	})
	return id, err
}

func newBackupCmd(a **app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <category>",
		Short: "Copy a category file to its manual backup destinations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := (*a).Engine().ManualBackup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d copied, %d failed\n", sum.SuccessCount, len(sum.Failures))
			for _, f := range sum.Failures {
				fmt.Fprintf(out, "  %s: %v\n", f.Destination, f.Err)
			}
			if len(sum.Failures) > 0 {
				return fmt.Errorf("%d backup destination(s) failed", len(sum.Failures))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"standalone": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

