package metastore

import (
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/metastore/internal/codec"
	"github.com/mesh-intelligence/metastore/internal/props"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

// CreateWorkspace stores a new workspace in ws.AccountID and assigns ws.ID.
// A name already used in the account gets a numeric suffix.
func (s *Store) CreateWorkspace(ws *types.Workspace) (err error) {
	defer s.observe("create_workspace", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return err
	}
	if ws.FullName == "" {
		return fmt.Errorf("workspace name: %w: empty", types.ErrInvalidState)
	}
	if !codec.ValidAccountID(ws.AccountID) {
		return fmt.Errorf("account %q: %w", ws.AccountID, types.ErrNotFound)
	}

	release := s.locks.Lock(ws.AccountID)
	defer release()

	acct, err := s.readAccountLocked(ws.AccountID)
	if err != nil {
		return err
	}
	folder := accountFolder(acct.ID)
	id, err := codec.NextWorkspaceID(acct.ID, ws.FullName, func(id string) (bool, error) {
		if ok, err := s.docs.ExistsFolder(folder, id); ok || err != nil {
			return ok, err
		}
		return s.docs.Exists(folder, id)
	})
	if err != nil {
		return err
	}

	merged, err := props.Merge(nil, types.ChangeSetOf(ws.Properties))
	if err != nil {
		return err
	}
	if err := s.docs.CreateFolder(folder, id); err != nil {
		return err
	}
	doc := workspaceDoc{
		Version:      CurrentVersion,
		UniqueID:     id,
		UserID:       acct.ID,
		FullName:     ws.FullName,
		ProjectNames: []string{},
		Properties:   merged,
	}
	if err := s.writeJSON(folder, id, doc); err != nil {
		return err
	}

	ws.ID = id
	ws.ProjectNames = doc.ProjectNames
	if ws.Properties, err = props.Flatten(merged); err != nil {
		return err
	}

	acct.WorkspaceIDs = append(acct.WorkspaceIDs, id)
	if err := s.writeAccountLocked(acct, nil); err != nil {
		return err
	}
	s.log.Debug().Str("workspace", id).Msg("created workspace")
	return nil
}

// ReadWorkspace loads a workspace by id.
func (s *Store) ReadWorkspace(id string) (ws *types.Workspace, err error) {
	defer s.observe("read_workspace", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if !codec.ValidWorkspaceID(id) {
		return nil, fmt.Errorf("workspace %q: %w", id, types.ErrNotFound)
	}
	accountID := codec.DecodeAccountID(id)

	release := s.locks.RLock(accountID)
	defer release()
	return s.readWorkspaceLocked(id)
}

// readWorkspaceLocked loads a workspace. A workspace whose folder is gone
// does not exist. Caller must hold the owning account's lock.
func (s *Store) readWorkspaceLocked(id string) (*types.Workspace, error) {
	if !codec.ValidWorkspaceID(id) {
		return nil, fmt.Errorf("workspace %q: %w", id, types.ErrNotFound)
	}
	folder := accountFolder(codec.DecodeAccountID(id))
	exists, err := s.docs.ExistsFolder(folder, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("workspace %q: %w", id, types.ErrNotFound)
	}
	var doc workspaceDoc
	if err := s.readJSON(folder, id, &doc); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("workspace %q: %w", id, types.ErrNotFound)
		}
		return nil, err
	}
	return doc.workspace()
}

// UpdateWorkspace rewrites the workspace document, flushing changes into its
// properties. ws.ProjectNames is ignored and refreshed from the store. If ws.AccountID names another account than the one encoded in
// ws.ID, the workspace moves there first and ws.ID changes.
func (s *Store) UpdateWorkspace(ws *types.Workspace, changes *types.ChangeSet) (err error) {
	defer s.observe("update_workspace", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return err
	}
	if ws.FullName == "" {
		return fmt.Errorf("workspace name: %w: empty", types.ErrInvalidState)
	}
	owner := codec.DecodeAccountID(ws.ID)
	if !codec.ValidWorkspaceID(ws.ID) {
		return fmt.Errorf("workspace %q: %w", ws.ID, types.ErrNotFound)
	}
	if ws.AccountID == "" {
		ws.AccountID = owner
	}

	if ws.AccountID == owner {
		release := s.locks.Lock(owner)
		defer release()
		stored, err := s.readWorkspaceLocked(ws.ID)
		if err != nil {
			return err
		}
		ws.ProjectNames = stored.ProjectNames
		return s.writeWorkspaceLocked(accountFolder(owner), ws, changes)
	}

	if !codec.ValidAccountID(ws.AccountID) {
		return fmt.Errorf("account %q: %w", ws.AccountID, types.ErrNotFound)
	}
	release := s.locks.LockAll(owner, ws.AccountID)
	defer release()
	return s.moveWorkspaceLocked(ws, changes)
}

// moveWorkspaceLocked moves ws from the account encoded in its id to
// ws.AccountID, choosing a free id there. Caller must hold both locks.
func (s *Store) moveWorkspaceLocked(ws *types.Workspace, changes *types.ChangeSet) error {
	owner := codec.DecodeAccountID(ws.ID)
	stored, err := s.readWorkspaceLocked(ws.ID)
	if err != nil {
		return err
	}
	from, err := s.readAccountLocked(owner)
	if err != nil {
		return err
	}
	to, err := s.readAccountLocked(ws.AccountID)
	if err != nil {
		return err
	}

	home := accountFolder(to.ID)
	id, err := codec.NextWorkspaceID(to.ID, codec.DecodeWorkspaceName(ws.ID), func(id string) (bool, error) {
		if ok, err := s.docs.ExistsFolder(home, id); ok || err != nil {
			return ok, err
		}
		return s.docs.Exists(home, id)
	})
	if err != nil {
		return err
	}

	journal, err := s.beginJournal(JournalWorkspaceMove, ws.ID, id)
	if err != nil {
		return err
	}
	oldID := ws.ID
	// The stored project list is authoritative for what moves.
	ws.ProjectNames = stored.ProjectNames
	move := workspaceMove{accountID: to.ID, id: id, stage: home, home: home}
	if err := s.relocateWorkspaceLocked(ws, move, changes); err != nil {
		return err
	}

	from.WorkspaceIDs = without(from.WorkspaceIDs, oldID)
	if err := s.writeAccountLocked(from, nil); err != nil {
		return err
	}
	to.WorkspaceIDs = append(to.WorkspaceIDs, id)
	if err := s.writeAccountLocked(to, nil); err != nil {
		return err
	}
	s.endJournal(journal)
	s.log.Info().Str("from", oldID).Str("to", id).Msg("moved workspace")
	return nil
}

// writeWorkspaceLocked replaces the workspace document in the account folder,
// merging changes into the stored properties. Caller must hold the lock.
func (s *Store) writeWorkspaceLocked(folder string, ws *types.Workspace, changes *types.ChangeSet) error {
	var doc workspaceDoc
	if err := s.readJSON(folder, ws.ID, &doc); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("workspace %q: %w", ws.ID, types.ErrNotFound)
		}
		return err
	}
	merged, err := props.Merge(doc.Properties, changes)
	if err != nil {
		return err
	}
	doc = workspaceDoc{
		Version:      CurrentVersion,
		UniqueID:     ws.ID,
		UserID:       ws.AccountID,
		FullName:     ws.FullName,
		ProjectNames: nonNil(ws.ProjectNames),
		Properties:   merged,
	}
	if err := s.writeJSON(folder, ws.ID, doc); err != nil {
		return err
	}
	if ws.Properties, err = props.Flatten(merged); err != nil {
		return err
	}
	changes.Reset()
	return nil
}

// DeleteWorkspace deletes every project of the workspace, then the workspace,
// and removes it from its account.
func (s *Store) DeleteWorkspace(accountID, id string) (err error) {
	defer s.observe("delete_workspace", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !codec.ValidWorkspaceID(id) || codec.DecodeAccountID(id) != accountID {
		return fmt.Errorf("workspace %q in account %q: %w", id, accountID, types.ErrNotFound)
	}

	release := s.locks.Lock(accountID)
	defer release()
	return s.deleteWorkspaceLocked(accountID, id, true)
}

// deleteWorkspaceLocked removes a workspace and its projects. If a project
// cannot be removed the workspace is kept and the first failure returned.
// With unlist set the workspace is also dropped from the account document.
// Caller must hold the account lock.
func (s *Store) deleteWorkspaceLocked(accountID, id string, unlist bool) error {
	ws, err := s.readWorkspaceLocked(id)
	if err != nil {
		return err
	}
	wsFolder := workspaceFolder(id)

	failed := firstError{log: s.log}
	for _, name := range ws.ProjectNames {
		failed.add(s.removeProjectLocked(wsFolder, codec.EncodeProjectID(name)), "delete project during workspace delete")
	}
	if failed.err != nil {
		return failed.err
	}

	if unlist {
		acct, err := s.readAccountLocked(accountID)
		if err != nil {
			return err
		}
		acct.WorkspaceIDs = without(acct.WorkspaceIDs, id)
		if err := s.writeAccountLocked(acct, nil); err != nil {
			return err
		}
	}

	folder := accountFolder(accountID)
	if err := s.docs.Delete(folder, id); err != nil && !errors.Is(err, types.ErrNotFound) {
		return err
	}
	if err := s.docs.DeleteFolder(folder, id, true); err != nil {
		return err
	}
	s.log.Debug().Str("workspace", id).Msg("deleted workspace")
	return nil
}
