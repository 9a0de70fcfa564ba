package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkvault/internal/manifest"
)

func (a *App) bookmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark",
		Short: "Manage bookmarks",
	}
	cmd.AddCommand(
		a.bookmarkAddCmd(),
		a.bookmarkListCmd(),
		a.bookmarkRmCmd(),
		a.bookmarkPinCmd(),
	)
	return cmd
}

// resolveTagNames maps tag names to IDs, creating tags that do not exist
// yet. Matching is case-insensitive, like tag name validation.
func resolveTagNames(m manifest.Manifest, names []string) (manifest.Manifest, []string, error) {
	var ids []string
	for _, name := range names {
		found := ""
		for _, tag := range m.Tags {
			if strings.EqualFold(tag.Name, name) {
				found = tag.ID
				break
			}
		}
		if found == "" {
			var tag manifest.Tag
			var err error
			m, tag, err = manifest.CreateTag(m, name, false)
			if err != nil {
				return m, nil, err
			}
			found = tag.ID
		}
		ids = append(ids, found)
	}
	return m, ids, nil
}

func (a *App) bookmarkAddCmd() *cobra.Command {
	var title, note, collectionID string
	var tags []string
	var pinned bool

	cmd := &cobra.Command{
		Use:   "add URL",
		Short: "Add a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			var added manifest.Bookmark
			res, err := a.session.Apply(ctx, func(m manifest.Manifest) (manifest.Manifest, error) {
				m, tagIDs, err := resolveTagNames(m, tags)
				if err != nil {
					return m, err
				}
				m, added, err = manifest.AddBookmark(m, manifest.BookmarkInput{
					URL:          args[0],
					Title:        title,
					Note:         note,
					Tags:         tagIDs,
					CollectionID: collectionID,
					Pinned:       pinned,
				})
				return m, err
			})
			if err != nil {
				return describeSyncError(err)
			}

			fmt.Printf("Added %s (version %d).\n", added.ID, res.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "bookmark title")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag name (repeatable; missing tags are created)")
	cmd.Flags().StringVar(&collectionID, "collection", "", "collection id")
	cmd.Flags().BoolVar(&pinned, "pin", false, "pin the bookmark")
	return cmd
}

func (a *App) bookmarkListCmd() *cobra.Command {
	var collectionID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			m, err := a.session.Manifest()
			if err != nil {
				return err
			}

			items := m.Items
			if collectionID != "" {
				col, ok := m.CollectionByID(collectionID)
				if !ok {
					return fmt.Errorf("collection %q not found", collectionID)
				}
				items = manifest.BookmarksForCollection(col, m.Items, manifest.SortByUpdated)
			}

			tagNames := make(map[string]string, len(m.Tags))
			for _, tag := range m.Tags {
				tagNames[tag.ID] = tag.Name
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tURL\tTAGS")
			for _, b := range items {
				marker := ""
				if b.Pinned {
					marker = "* "
				}
				var names []string
				for _, id := range b.Tags {
					if name, ok := tagNames[id]; ok {
						names = append(names, name)
					}
				}
				fmt.Fprintf(w, "%s\t%s%s\t%s\t%s\n", b.ID, marker, b.Title, b.URL, strings.Join(names, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&collectionID, "collection", "", "only bookmarks matching this collection's filter")
	return cmd
}

func (a *App) bookmarkRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			res, err := a.session.Apply(ctx, func(m manifest.Manifest) (manifest.Manifest, error) {
				return manifest.DeleteBookmark(m, args[0])
			})
			return a.report(res, err)
		},
	}
}

func (a *App) bookmarkPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin ID",
		Short: "Toggle a bookmark's pinned state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadForEdit(ctx); err != nil {
				return err
			}

			res, err := a.session.Apply(ctx, func(m manifest.Manifest) (manifest.Manifest, error) {
				return manifest.TogglePinned(m, args[0])
			})
			return a.report(res, err)
		},
	}
}
