package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metastore/internal/logging"
	"github.com/mesh-intelligence/metastore/internal/metastore"
	"github.com/mesh-intelligence/metastore/internal/metrics"
	pub "github.com/mesh-intelligence/metastore/pkg/metastore"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

// withStore opens the configured store, runs fn and closes the store.
func withStore(cmd *cobra.Command, fn func(s *metastore.Store) error) error {
	cfg, _, err := resolveConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New().ToWriter(cmd.ErrOrStderr()).Level(cfg.LogLevel).Build()
	if err != nil {
		return err
	}
	defer logger.Close()

	docs, err := pub.NewDocumentStore(cfg)
	if err != nil {
		return err
	}
	m := metrics.New()
	opts := metastore.Options{Logger: &logger.Logger, Metrics: m}
	if len(flags.migrateFrom) > 0 {
		opts.Migrator = metastore.StampMigrator{From: flags.migrateFrom}
	}
	store, err := metastore.Open(docs, opts)
	if err != nil {
		docs.Close()
		return err
	}

	err = fn(store)
	if cerr := store.Close(); err == nil {
		err = cerr
	}
	if flags.metrics {
		if merr := dumpMetrics(cmd.ErrOrStderr(), m); err == nil {
			err = merr
		}
	}
	return err
}

func dumpMetrics(w io.Writer, m *metrics.Metrics) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// emit writes v as indented JSON in --json mode and calls text otherwise.
func emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if flags.jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(out)
	return nil
}

// changeSet builds a change set from --set key=value and --unset key flags.
func changeSet(sets, unsets []string) (*types.ChangeSet, error) {
	cs := types.NewChangeSet()
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q: %w: want key=value", kv, types.ErrInvalidState)
		}
		cs.Set(key, value)
	}
	for _, key := range unsets {
		cs.Delete(key)
	}
	return cs, nil
}

// propertyMap builds the initial properties of a new entity from --set flags.
func propertyMap(sets []string) (map[string]string, error) {
	cs, err := changeSet(sets, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, cs.Len())
	for _, ch := range cs.Changes() {
		out[ch.Key] = ch.Value
	}
	return out, nil
}

// propertyFlags registers --set and --unset on cmd.
func propertyFlags(cmd *cobra.Command, sets, unsets *[]string) {
	cmd.Flags().StringArrayVar(sets, "set", nil, "set property key=value (repeatable)")
	if unsets != nil {
		cmd.Flags().StringArrayVar(unsets, "unset", nil, "remove property key (repeatable)")
	}
}

func printProperties(w io.Writer, props map[string]string) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s\n", k, props[k])
	}
}
