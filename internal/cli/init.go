package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metastore/internal/metastore"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and stamp the data directory",
		Long: "Write config.yaml into the configuration directory when it is missing,\n" +
			"then open the store once so that an empty data directory is stamped\n" +
			"with the current layout version.",
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, configDir, err := resolveConfig()
	if err != nil {
		return err
	}
	created, err := writeConfigIfMissing(configDir, cfg)
	if err != nil {
		return err
	}
	if err := withStore(cmd, func(*metastore.Store) error { return nil }); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	out := cmd.OutOrStdout()
	if created {
		fmt.Fprintf(out, "wrote %s/%s\n", configDir, configFileExt)
	}
	fmt.Fprintf(out, "metastore initialized: %s store at %s (layout v%d)\n", cfg.Backend, cfg.DataDir, metastore.CurrentVersion)
	return nil
}
