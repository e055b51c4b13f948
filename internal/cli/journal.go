package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metastore/internal/metastore"
)

func newJournalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "journal",
		Short: "List account renames and workspace moves that did not finish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *metastore.Store) error {
				entries, err := s.Journal()
				if err != nil {
					return err
				}
				return emit(cmd, entries, func(w io.Writer) {
					if len(entries) == 0 {
						fmt.Fprintln(w, "no unfinished operations")
						return
					}
					for _, e := range entries {
						fmt.Fprintf(w, "%s %s %s -> %s (started %s)\n",
							e.ID, e.Kind, e.From, e.To, e.Started.Format(time.RFC3339))
					}
				})
			})
		},
	}
}
