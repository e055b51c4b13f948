// Package metastore is the public entry point for opening a metadata store.
// It selects the document store named by a types.Config and hides the
// engine behind types.MetaStore.
package metastore

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/metastore/internal/filestore"
	"github.com/mesh-intelligence/metastore/internal/logging"
	engine "github.com/mesh-intelligence/metastore/internal/metastore"
	"github.com/mesh-intelligence/metastore/internal/sqlite"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

// Version is the release of this module.
const Version = "0.1.0"

// NewDocumentStore opens the document store selected by cfg, creating the
// data directory when needed.
func NewDocumentStore(cfg types.Config) (types.DocumentStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w: %w", types.ErrIOFailure, err)
	}
	switch cfg.Backend {
	case types.BackendSQLite:
		return sqlite.NewBackend(cfg.DataDir)
	default:
		return filestore.New(cfg.DataDir)
	}
}

// Open opens the store described by cfg, logging to stderr at cfg.LogLevel.
//
// Example:
//
//	store, err := metastore.Open(types.Config{
//	    Backend: types.BackendFilesystem,
//	    DataDir: "/var/lib/metastore",
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	acct, err := store.ReadAccount("anthony")
func Open(cfg types.Config) (types.MetaStore, error) {
	built, err := logging.New().Level(cfg.LogLevel).Build()
	if err != nil {
		return nil, err
	}
	return OpenWithLogger(cfg, built.Logger)
}

// OpenWithLogger is Open with a caller-supplied logger.
func OpenWithLogger(cfg types.Config, logger zerolog.Logger) (types.MetaStore, error) {
	docs, err := NewDocumentStore(cfg)
	if err != nil {
		return nil, err
	}
	store, err := engine.Open(docs, engine.Options{Logger: &logger})
	if err != nil {
		docs.Close()
		return nil, err
	}
	return store, nil
}
