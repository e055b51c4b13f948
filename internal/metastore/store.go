// Package metastore implements types.MetaStore on top of a
// types.DocumentStore.
//
// Layout, relative to the document store root:
//
//	metastore                               root stamp {"Version": n}
//	.journal/<uuid>                         in-flight account renames
//	<prefix>/<account>/account              account document
//	<prefix>/<account>/<workspace>          workspace document
//	<prefix>/<account>/<workspace>/         workspace folder
//	<prefix>/<account>/<workspace>/<project>    project document
//	<prefix>/<account>/<workspace>/<project>/   default project content
//
// where <prefix> is the first two characters of the account id.
//
// Every operation takes the lock of the account that owns the entity: a read
// lock for reads, the write lock otherwise. Operations spanning two accounts
// take both write locks in a fixed order. Nothing spans documents
// transactionally; a failure part way through a cascade leaves the earlier
// steps applied.
package metastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/metastore/internal/codec"
	"github.com/mesh-intelligence/metastore/internal/locks"
	"github.com/mesh-intelligence/metastore/internal/metrics"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

// Document names.
const (
	rootDocName    = "metastore"
	accountDocName = "account"
	journalFolder  = ".journal"
)

// Options configures a Store. The zero value is usable.
type Options struct {
	// Logger receives store events. Defaults to a disabled logger.
	Logger *zerolog.Logger

	// Metrics records operation counts and latencies. Optional.
	Metrics *metrics.Metrics

	// Migrator upgrades a store stamped with another version. Without one a
	// version mismatch fails Open.
	Migrator Migrator
}

// Store is the metadata engine.
type Store struct {
	docs      types.DocumentStore
	locks     *locks.Registry
	log       zerolog.Logger
	metrics   *metrics.Metrics
	migrator  Migrator
	provision singleflight.Group
	closed    atomic.Bool
}

var _ types.MetaStore = (*Store)(nil)

// Open runs the migration gate against docs and returns a ready store. On
// error the document store is left open for the caller to close.
func Open(docs types.DocumentStore, opts Options) (*Store, error) {
	s := &Store{
		docs:     docs,
		locks:    locks.NewRegistry(),
		log:      zerolog.Nop(),
		metrics:  opts.Metrics,
		migrator: opts.Migrator,
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "metastore").Logger()
	}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the document store. Later operations fail with ErrClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.docs.Close()
}

func (s *Store) checkOpen() error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	return nil
}

func (s *Store) observe(op string, start time.Time, errp *error) {
	s.metrics.Observe(op, start, *errp)
	s.metrics.SetLockedAccounts(s.locks.Len())
}

// accountFolder returns the folder holding an account's documents.
func accountFolder(accountID string) string {
	return codec.AccountPrefix(accountID) + "/" + accountID
}

// workspaceFolder returns the folder holding a workspace's projects.
func workspaceFolder(workspaceID string) string {
	return accountFolder(codec.DecodeAccountID(workspaceID)) + "/" + workspaceID
}

// AccountHome returns the content URI of an account's folder.
func (s *Store) AccountHome(accountID string) string {
	return s.docs.Location(accountFolder(accountID))
}

// WorkspaceContentLocation returns the content URI of a workspace's folder,
// the parent of its projects' default locations.
func (s *Store) WorkspaceContentLocation(workspaceID string) (string, error) {
	if !codec.ValidWorkspaceID(workspaceID) {
		return "", fmt.Errorf("workspace %q: %w", workspaceID, types.ErrNotFound)
	}
	return s.docs.Location(workspaceFolder(workspaceID)), nil
}

// DefaultContentLocation returns the content URI a project named name gets
// in the workspace when created without a location.
func (s *Store) DefaultContentLocation(workspaceID, name string) (string, error) {
	if !codec.ValidWorkspaceID(workspaceID) {
		return "", fmt.Errorf("workspace %q: %w", workspaceID, types.ErrNotFound)
	}
	if name == "" {
		return "", fmt.Errorf("project name: %w: empty", types.ErrInvalidState)
	}
	return s.docs.Location(workspaceFolder(workspaceID) + "/" + codec.EncodeProjectID(name)), nil
}

// ListAccounts returns the ids of every stored account, sorted.
func (s *Store) ListAccounts() (ids []string, err error) {
	defer s.observe("list_accounts", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	prefixes, err := s.docs.ListFolders("")
	if err != nil {
		return nil, err
	}
	ids = []string{}
	for _, prefix := range prefixes {
		names, err := s.docs.ListFolders(prefix)
		if err != nil {
			return nil, err
		}
		for _, id := range names {
			ok, err := s.docs.Exists(prefix+"/"+id, accountDocName)
			if err != nil {
				return nil, err
			}
			if ok {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (s *Store) readJSON(folder, name string, v any) error {
	raw, err := s.docs.Read(folder, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w: %w", folder, name, types.ErrIOFailure, err)
	}
	return nil
}

func (s *Store) writeJSON(folder, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w: %w", folder, name, types.ErrInvalidState, err)
	}
	return s.docs.Write(folder, name, raw)
}

// removeEmptyFolder deletes folder/name when it has nothing left in it.
func (s *Store) removeEmptyFolder(folder, name string) {
	if err := s.docs.DeleteFolder(folder, name, false); err != nil && !errors.Is(err, types.ErrNotFound) {
		s.log.Debug().Err(err).Str("folder", name).Msg("folder kept")
	}
}

// firstError keeps the first failure of a cascade and logs the rest.
type firstError struct {
	log zerolog.Logger
	err error
}

func (f *firstError) add(err error, msg string) {
	if err == nil {
		return
	}
	if f.err == nil {
		f.err = err
		return
	}
	f.log.Error().Err(err).Msg(msg)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func without(list []string, item string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}

func replaced(list []string, old, updated string) []string {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, v := range list {
		if v == old && !found {
			out = append(out, updated)
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, updated)
	}
	return out
}
