package metastore

import (
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/metastore/internal/codec"
	"github.com/mesh-intelligence/metastore/internal/props"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

// CreateAccount stores a new account under acct.UserName, or acct.ID when
// UserName is empty. acct is updated with the stored values.
func (s *Store) CreateAccount(acct *types.Account) (err error) {
	defer s.observe("create_account", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return err
	}

	login := acct.UserName
	if login == "" {
		login = acct.ID
	}
	if !codec.ValidAccountID(login) {
		return fmt.Errorf("account id %q: %w", login, types.ErrInvalidState)
	}

	release := s.locks.Lock(login)
	defer release()

	exists, err := s.docs.ExistsFolder(codec.AccountPrefix(login), login)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("account %q: %w", login, types.ErrAlreadyExists)
	}
	acct.WorkspaceIDs = []string{}
	return s.initAccountLocked(acct, login)
}

// initAccountLocked writes the first document of an account, creating its
// folder when needed. Caller must hold the account lock.
func (s *Store) initAccountLocked(acct *types.Account, login string) error {
	if acct.FullName == "" {
		acct.FullName = types.DefaultFullName
	}
	merged, err := props.Merge(nil, types.ChangeSetOf(acct.Properties))
	if err != nil {
		return err
	}
	if err := s.docs.CreateFolder(codec.AccountPrefix(login), login); err != nil {
		return err
	}
	doc := accountDoc{
		Version:      CurrentVersion,
		UniqueID:     login,
		UserName:     login,
		FullName:     acct.FullName,
		WorkspaceIDs: nonNil(acct.WorkspaceIDs),
		Properties:   merged,
	}
	if err := s.writeJSON(accountFolder(login), accountDocName, doc); err != nil {
		return err
	}

	acct.ID = login
	acct.UserName = login
	acct.WorkspaceIDs = doc.WorkspaceIDs
	if acct.Properties, err = props.Flatten(merged); err != nil {
		return err
	}
	s.log.Debug().Str("account", login).Msg("created account")
	return nil
}

// ReadAccount loads an account. An account that does not exist is created
// with the default full name and returned; concurrent first reads of the
// same id create it once.
func (s *Store) ReadAccount(id string) (acct *types.Account, err error) {
	defer s.observe("read_account", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if !codec.ValidAccountID(id) {
		return nil, fmt.Errorf("account %q: %w", id, types.ErrNotFound)
	}

	release := s.locks.RLock(id)
	acct, err = s.readAccountLocked(id)
	release()
	if err == nil || !errors.Is(err, types.ErrNotFound) {
		return acct, err
	}

	v, err, _ := s.provision.Do(id, func() (any, error) {
		release := s.locks.Lock(id)
		defer release()

		acct, err := s.readAccountLocked(id)
		if err == nil || !errors.Is(err, types.ErrNotFound) {
			return acct, err
		}
		acct = types.NewAccount(id, types.DefaultFullName)
		if err := s.initAccountLocked(acct, id); err != nil {
			return nil, err
		}
		s.log.Info().Str("account", id).Msg("provisioned account on first read")
		return acct, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneAccount(v.(*types.Account)), nil
}

// readAccountLocked loads an account without provisioning. Caller must hold
// the account lock.
func (s *Store) readAccountLocked(id string) (*types.Account, error) {
	var doc accountDoc
	if err := s.readJSON(accountFolder(id), accountDocName, &doc); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("account %q: %w", id, types.ErrNotFound)
		}
		return nil, err
	}
	return doc.account()
}

// UpdateAccount rewrites the account document, flushing changes into its
// properties. acct.WorkspaceIDs is ignored and refreshed from the store. If acct.UserName differs from acct.ID the account is renamed
// first, together with everything it owns.
func (s *Store) UpdateAccount(acct *types.Account, changes *types.ChangeSet) (err error) {
	defer s.observe("update_account", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return err
	}
	if acct.ID == "" || acct.UserName == "" {
		return fmt.Errorf("account %q: %w: empty id or user name", acct.ID, types.ErrInvalidState)
	}

	if acct.UserName == acct.ID {
		release := s.locks.Lock(acct.ID)
		defer release()
		stored, err := s.readAccountLocked(acct.ID)
		if err != nil {
			return err
		}
		// The workspace list changes only through workspace operations.
		acct.WorkspaceIDs = stored.WorkspaceIDs
		return s.writeAccountLocked(acct, changes)
	}

	if !codec.ValidAccountID(acct.UserName) {
		return fmt.Errorf("account id %q: %w", acct.UserName, types.ErrInvalidState)
	}
	release := s.locks.LockAll(acct.ID, acct.UserName)
	defer release()
	if changes, err = s.renameAccountLocked(acct, changes); err != nil {
		return err
	}
	return s.writeAccountLocked(acct, changes)
}

// writeAccountLocked replaces the account document, merging changes into the
// stored properties. Caller must hold the account lock.
func (s *Store) writeAccountLocked(acct *types.Account, changes *types.ChangeSet) error {
	folder := accountFolder(acct.ID)
	var doc accountDoc
	if err := s.readJSON(folder, accountDocName, &doc); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("account %q: %w", acct.ID, types.ErrNotFound)
		}
		return err
	}
	merged, err := props.Merge(doc.Properties, changes)
	if err != nil {
		return err
	}
	doc = accountDoc{
		Version:      CurrentVersion,
		UniqueID:     acct.ID,
		UserName:     acct.UserName,
		FullName:     acct.FullName,
		WorkspaceIDs: nonNil(acct.WorkspaceIDs),
		Properties:   merged,
	}
	if err := s.writeJSON(folder, accountDocName, doc); err != nil {
		return err
	}
	if acct.Properties, err = props.Flatten(merged); err != nil {
		return err
	}
	changes.Reset()
	return nil
}

// DeleteAccount deletes every workspace of the account and then the account
// itself. If a workspace cannot be deleted the account is kept and the first
// failure returned.
func (s *Store) DeleteAccount(id string) (err error) {
	defer s.observe("delete_account", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !codec.ValidAccountID(id) {
		return fmt.Errorf("account %q: %w", id, types.ErrNotFound)
	}

	release := s.locks.Lock(id)
	defer release()

	acct, err := s.readAccountLocked(id)
	if err != nil {
		return err
	}

	failed := firstError{log: s.log}
	for _, wsID := range acct.WorkspaceIDs {
		err := s.deleteWorkspaceLocked(id, wsID, false)
		if errors.Is(err, types.ErrNotFound) {
			s.log.Warn().Str("workspace", wsID).Msg("listed workspace missing")
			continue
		}
		failed.add(err, "delete workspace during account delete")
	}
	if failed.err != nil {
		return failed.err
	}

	prefix := codec.AccountPrefix(id)
	if err := s.docs.Delete(accountFolder(id), accountDocName); err != nil {
		return err
	}
	if err := s.docs.DeleteFolder(prefix, id, true); err != nil {
		return err
	}
	s.removeEmptyFolder("", prefix)
	s.log.Debug().Str("account", id).Msg("deleted account")
	return nil
}
