package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkvault/internal/manifest"
)

func (a *App) tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}
	cmd.AddCommand(
		a.tagAddCmd(),
		a.tagLsCmd(),
		a.tagRmCmd(),
		a.tagRenameCmd(),
	)
	return cmd
}

func (a *App) tagAddCmd() *cobra.Command {
	var hidden bool

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			var created manifest.Tag
			res, err := a.session.Apply(ctx, func(m manifest.Manifest) (manifest.Manifest, error) {
				var err error
				m, created, err = manifest.CreateTag(m, args[0], hidden)
				return m, err
			})
			if err != nil {
				return describeSyncError(err)
			}

			fmt.Printf("Created tag %s (version %d).\n", created.ID, res.Version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&hidden, "hidden", false, "hide the tag from default views")
	return cmd
}

func (a *App) tagLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			m, err := a.session.Manifest()
			if err != nil {
				return err
			}

			counts := make(map[string]int)
			for _, b := range m.Items {
				for _, id := range b.Tags {
					counts[id]++
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tBOOKMARKS")
			for _, tag := range m.Tags {
				name := tag.Name
				if tag.Hidden {
					name += " (hidden)"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", tag.ID, name, counts[tag.ID])
			}
			return w.Flush()
		},
	}
}

func (a *App) tagRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a tag (removed from all bookmarks and filters)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			res, err := a.session.Apply(ctx, func(m manifest.Manifest) (manifest.Manifest, error) {
				return manifest.DeleteTag(m, args[0])
			})
			return a.report(res, err)
		},
	}
}

func (a *App) tagRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NEW_NAME",
		Short: "Rename a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			res, err := a.session.Apply(ctx, func(m manifest.Manifest) (manifest.Manifest, error) {
				return manifest.RenameTag(m, args[0], args[1])
			})
			return a.report(res, err)
		},
	}
}
