// Package cli implements the metastore administrative command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metastore/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir   string
	dataDir     string
	global      bool
	backend     string
	logLevel    string
	jsonMode    bool
	metrics     bool
	migrateFrom []int
}

var flags rootFlags

// NewRootCmd creates the top-level "metastore" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}
	root := &cobra.Command{
		Use:   "metastore",
		Short: "Administer a hierarchical account, workspace and project store",
		Long: "metastore inspects and edits the account, workspace and project documents\n" +
			"kept by a metadata store on the filesystem or in SQLite.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .metastore)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .metastore-db)")
	pf.BoolVar(&flags.global, "global", false, "use the per-user platform directories instead of the working directory")
	pf.StringVar(&flags.backend, "backend", "", "document store: filesystem or sqlite")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error or disabled")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&flags.metrics, "metrics", false, "print operation metrics to stderr on exit")
	pf.IntSliceVar(&flags.migrateFrom, "migrate-from", nil, "layout versions that may be restamped to the current one")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newAccountCmd())
	root.AddCommand(newWorkspaceCmd())
	root.AddCommand(newProjectCmd())
	root.AddCommand(newJournalCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "metastore:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps storage failures to exitSysError and everything else, bad
// input included, to exitUserError.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrIOFailure), errors.Is(err, types.ErrVersionMismatch):
		return exitSysError
	default:
		return exitUserError
	}
}
