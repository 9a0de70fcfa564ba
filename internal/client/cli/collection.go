package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkvault/internal/manifest"
)

func (a *App) collectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage collections (smart folders driven by tag filters)",
	}
	cmd.AddCommand(
		a.collectionAddCmd(),
		a.collectionLsCmd(),
		a.collectionRmCmd(),
	)
	return cmd
}

func (a *App) collectionAddCmd() *cobra.Command {
	var icon, parentID, filterMode string
	var filterTags []string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			mode := manifest.FilterAny
			if filterMode == "all" {
				mode = manifest.FilterAll
			}

			var created manifest.Collection
			res, err := a.session.Apply(ctx, func(m manifest.Manifest) (manifest.Manifest, error) {
				m, tagIDs, err := resolveTagNames(m, filterTags)
				if err != nil {
					return m, err
				}
				m, created, err = manifest.CreateCollection(m, manifest.CollectionInput{
					Name:     args[0],
					Icon:     icon,
					ParentID: parentID,
					TagFilter: manifest.TagFilter{
						Mode:   mode,
						TagIDs: tagIDs,
					},
				})
				return m, err
			})
			if err != nil {
				return describeSyncError(err)
			}

			fmt.Printf("Created collection %s (version %d).\n", created.ID, res.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "icon name")
	cmd.Flags().StringVar(&parentID, "parent", "", "parent collection id")
	cmd.Flags().StringSliceVar(&filterTags, "tag", nil, "tag name for the membership filter (repeatable)")
	cmd.Flags().StringVar(&filterMode, "mode", "any", "filter mode: any | all")
	return cmd
}

func (a *App) collectionLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List collections as a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			m, err := a.session.Manifest()
			if err != nil {
				return err
			}

			counts := manifest.CountPerCollection(m.Collections, m.Items)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tBOOKMARKS")
			for _, entry := range manifest.FlattenWithDepth(m.Collections) {
				indent := strings.Repeat("  ", entry.Depth)
				fmt.Fprintf(w, "%s\t%s%s\t%d\n", entry.Collection.ID, indent, entry.Collection.Name, counts[entry.Collection.ID])
			}
			return w.Flush()
		},
	}
}

func (a *App) collectionRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a collection (children move up one level)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			res, err := a.session.Apply(ctx, func(m manifest.Manifest) (manifest.Manifest, error) {
				return manifest.DeleteCollection(m, args[0])
			})
			return a.report(res, err)
		},
	}
}
