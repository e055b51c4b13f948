package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metastore/internal/metastore"
	pub "github.com/mesh-intelligence/metastore/pkg/metastore"
)

const modulePath = "github.com/mesh-intelligence/metastore"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the metastore version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "metastore v%s\nmodule: %s\nlayout: v%d\n", pub.Version, modulePath, metastore.CurrentVersion)
			return nil
		},
	}
}
