package cli

import (
	"github.com/spf13/cobra"
)

func (a *App) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "linkvault",
		Short:        "Encrypted bookmark vault",
		Long:         "linkvault keeps bookmarks, tags and collections in an end-to-end encrypted manifest synchronized across devices.",
		SilenceUsage: true,
	}

	// these are consumed by the config package before cobra runs; they are
	// registered so cobra does not reject them
	root.PersistentFlags().StringP("server", "a", "", "base URL of the backend server")
	root.PersistentFlags().StringP("data-dir", "d", "", "local data directory")
	root.PersistentFlags().IntP("timeout", "t", 0, "request timeout in seconds")
	root.PersistentFlags().StringP("config", "c", "", "path to a JSON config file")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.lockCmd(),
		a.statusCmd(),
		a.syncCmd(),
		a.bookmarkCmd(),
		a.tagCmd(),
		a.collectionCmd(),
	)

	return root
}
