package metastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/mesh-intelligence/metastore/pkg/types"
)

// CurrentVersion is the layout version this package reads and writes.
const CurrentVersion = 1

// Migrator upgrades a document store written at another layout version.
type Migrator interface {
	// Required reports whether the store at version from can be upgraded.
	Required(docs types.DocumentStore, from int) bool

	// Migrate rewrites the store for CurrentVersion. The root stamp is
	// written by the caller afterwards.
	Migrate(docs types.DocumentStore, from int) error
}

// initialize checks the root stamp, writing it into an empty store and
// running the migrator when it names another version.
func (s *Store) initialize() error {
	raw, err := s.docs.Read("", rootDocName)
	if errors.Is(err, types.ErrNotFound) {
		if err := s.writeJSON("", rootDocName, rootDoc{Version: CurrentVersion}); err != nil {
			return err
		}
		s.log.Info().Int("version", CurrentVersion).Msg("created metadata store")
		return nil
	}
	if err != nil {
		return err
	}

	// An unreadable stamp counts as version 0.
	var root rootDoc
	if err := json.Unmarshal(raw, &root); err != nil {
		s.log.Warn().Err(err).Msg("unreadable root stamp")
		root.Version = 0
	}

	if root.Version == CurrentVersion {
		s.log.Info().Int("version", root.Version).Msg("opened metadata store")
		return nil
	}
	if s.migrator == nil || !s.migrator.Required(s.docs, root.Version) {
		return fmt.Errorf("store at version %d, expected %d: %w", root.Version, CurrentVersion, types.ErrVersionMismatch)
	}

	s.log.Warn().Int("from", root.Version).Int("to", CurrentVersion).Msg("migrating metadata store")
	if err := s.migrator.Migrate(s.docs, root.Version); err != nil {
		return fmt.Errorf("migrate from version %d: %w", root.Version, err)
	}
	if err := s.writeJSON("", rootDocName, rootDoc{Version: CurrentVersion}); err != nil {
		return err
	}
	s.log.Info().Int("version", CurrentVersion).Msg("migrated metadata store")
	return nil
}

// StampMigrator upgrades stores whose layout is unchanged from one of the
// listed versions by restamping every entity document.
type StampMigrator struct {
	From []int
}

func (m StampMigrator) Required(_ types.DocumentStore, from int) bool {
	return slices.Contains(m.From, from)
}

func (m StampMigrator) Migrate(docs types.DocumentStore, _ int) error {
	prefixes, err := docs.ListFolders("")
	if err != nil {
		return err
	}
	for _, prefix := range prefixes {
		if err := restamp(docs, prefix); err != nil {
			return err
		}
	}
	return nil
}

func restamp(docs types.DocumentStore, folder string) error {
	names, err := docs.ListDocuments(folder)
	if err != nil {
		return err
	}
	for _, name := range names {
		raw, err := docs.Read(folder, name)
		if err != nil {
			return err
		}
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("decode %s/%s: %w: %w", folder, name, types.ErrIOFailure, err)
		}
		fields["Version"] = json.RawMessage(strconv.Itoa(CurrentVersion))
		out, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		if err := docs.Write(folder, name, out); err != nil {
			return err
		}
	}

	subs, err := docs.ListFolders(folder)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := restamp(docs, folder+"/"+sub); err != nil {
			return err
		}
	}
	return nil
}
