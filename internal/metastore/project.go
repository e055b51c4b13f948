package metastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/metastore/internal/codec"
	"github.com/mesh-intelligence/metastore/internal/props"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

// errFolderOnly marks a project whose folder exists without a document.
var errFolderOnly = errors.New("project folder without document")

// CreateProject stores a new project in p.WorkspaceID and assigns p.ID. An
// empty ContentLocation is replaced by the default location, whose folder
// is created.
func (s *Store) CreateProject(p *types.Project) (err error) {
	defer s.observe("create_project", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return err
	}
	if p.FullName == "" {
		return fmt.Errorf("project name: %w: empty", types.ErrInvalidState)
	}
	accountID := codec.DecodeAccountID(p.WorkspaceID)
	if !codec.ValidWorkspaceID(p.WorkspaceID) {
		return fmt.Errorf("workspace %q: %w", p.WorkspaceID, types.ErrNotFound)
	}

	release := s.locks.Lock(accountID)
	defer release()

	ws, err := s.readWorkspaceLocked(p.WorkspaceID)
	if err != nil {
		return err
	}
	if ws.HasProject(p.FullName) {
		return fmt.Errorf("project %q in %q: %w", p.FullName, ws.ID, types.ErrAlreadyExists)
	}
	wsFolder := workspaceFolder(ws.ID)
	id := codec.EncodeProjectID(p.FullName)
	exists, err := s.docs.Exists(wsFolder, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("project %q in %q: %w", p.FullName, ws.ID, types.ErrAlreadyExists)
	}

	defaultLocation := s.docs.Location(wsFolder + "/" + id)
	if p.ContentLocation == "" {
		p.ContentLocation = defaultLocation
	}
	if p.ContentLocation == defaultLocation {
		if err := s.docs.CreateFolder(wsFolder, id); err != nil {
			return err
		}
	}

	merged, err := props.Merge(nil, types.ChangeSetOf(p.Properties))
	if err != nil {
		return err
	}
	doc := projectDoc{
		Version:         CurrentVersion,
		UniqueID:        id,
		WorkspaceID:     ws.ID,
		FullName:        p.FullName,
		ContentLocation: p.ContentLocation,
		Properties:      merged,
	}
	if err := s.writeJSON(wsFolder, id, doc); err != nil {
		return err
	}
	p.ID = id
	if p.Properties, err = props.Flatten(merged); err != nil {
		return err
	}

	ws.ProjectNames = append(ws.ProjectNames, p.FullName)
	if err := s.writeWorkspaceLocked(accountFolder(accountID), ws, nil); err != nil {
		return err
	}
	s.log.Debug().Str("workspace", ws.ID).Str("project", id).Msg("created project")
	return nil
}

// ReadProject loads the project called name. A project folder left without
// its document gets a rebuilt document with the default location.
func (s *Store) ReadProject(workspaceID, name string) (p *types.Project, err error) {
	defer s.observe("read_project", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	accountID := codec.DecodeAccountID(workspaceID)
	if !codec.ValidWorkspaceID(workspaceID) || name == "" {
		return nil, fmt.Errorf("project %q in %q: %w", name, workspaceID, types.ErrNotFound)
	}

	release := s.locks.RLock(accountID)
	p, err = s.readProjectLocked(workspaceID, name)
	release()
	if !errors.Is(err, errFolderOnly) {
		return p, err
	}

	release = s.locks.Lock(accountID)
	defer release()
	p, err = s.readProjectLocked(workspaceID, name)
	if !errors.Is(err, errFolderOnly) {
		return p, err
	}
	return s.healProjectLocked(workspaceID, name)
}

// readProjectLocked loads a project without healing. It returns an error
// wrapping both errFolderOnly and ErrNotFound for a folder with no
// document. Caller must hold the account lock.
func (s *Store) readProjectLocked(workspaceID, name string) (*types.Project, error) {
	if !codec.ValidWorkspaceID(workspaceID) {
		return nil, fmt.Errorf("workspace %q: %w", workspaceID, types.ErrNotFound)
	}
	accountID := codec.DecodeAccountID(workspaceID)
	exists, err := s.docs.ExistsFolder(accountFolder(accountID), workspaceID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("workspace %q: %w", workspaceID, types.ErrNotFound)
	}

	wsFolder := workspaceFolder(workspaceID)
	id := codec.EncodeProjectID(name)
	var doc projectDoc
	err = s.readJSON(wsFolder, id, &doc)
	if err == nil {
		return doc.project()
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}
	if exists, err = s.docs.ExistsFolder(wsFolder, id); err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("project %q in %q: %w: %w", name, workspaceID, types.ErrNotFound, errFolderOnly)
	}
	return nil, fmt.Errorf("project %q in %q: %w", name, workspaceID, types.ErrNotFound)
}

// healProjectLocked writes a fresh document for a project folder that lost
// it and lists the project in its workspace. Caller must hold the lock.
func (s *Store) healProjectLocked(workspaceID, name string) (*types.Project, error) {
	ws, err := s.readWorkspaceLocked(workspaceID)
	if err != nil {
		return nil, err
	}
	wsFolder := workspaceFolder(workspaceID)
	id := codec.EncodeProjectID(name)
	doc := projectDoc{
		Version:         CurrentVersion,
		UniqueID:        id,
		WorkspaceID:     workspaceID,
		FullName:        name,
		ContentLocation: s.docs.Location(wsFolder + "/" + id),
		Properties:      map[string]json.RawMessage{},
	}
	if err := s.writeJSON(wsFolder, id, doc); err != nil {
		return nil, err
	}
	if !ws.HasProject(name) {
		ws.ProjectNames = append(ws.ProjectNames, name)
		if err := s.writeWorkspaceLocked(accountFolder(ws.AccountID), ws, nil); err != nil {
			return nil, err
		}
	}
	s.log.Warn().Str("workspace", workspaceID).Str("project", name).Msg("rebuilt missing project document")
	return doc.project()
}

// UpdateProject rewrites the project document, flushing changes into its
// properties. If p.FullName no longer encodes to p.ID the project is renamed:
// its document moves, its default content folder moves with it, and a
// linked location is left alone.
func (s *Store) UpdateProject(p *types.Project, changes *types.ChangeSet) (err error) {
	defer s.observe("update_project", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return err
	}
	if p.FullName == "" {
		return fmt.Errorf("project name: %w: empty", types.ErrInvalidState)
	}
	accountID := codec.DecodeAccountID(p.WorkspaceID)
	if !codec.ValidWorkspaceID(p.WorkspaceID) || codec.DecodeProjectName(p.ID) == "" {
		return fmt.Errorf("project %q in %q: %w", p.ID, p.WorkspaceID, types.ErrNotFound)
	}

	release := s.locks.Lock(accountID)
	defer release()

	wsFolder := workspaceFolder(p.WorkspaceID)
	var stored projectDoc
	if err := s.readJSON(wsFolder, p.ID, &stored); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("project %q in %q: %w", p.ID, p.WorkspaceID, types.ErrNotFound)
		}
		return err
	}

	if id := codec.EncodeProjectID(p.FullName); id != p.ID {
		if err := s.renameProjectLocked(p, &stored, id); err != nil {
			return err
		}
	}
	return s.writeProjectLocked(wsFolder, p, changes)
}

// renameProjectLocked moves the project document to newID and updates the
// workspace's project list. Caller must hold the account lock.
func (s *Store) renameProjectLocked(p *types.Project, stored *projectDoc, newID string) error {
	ws, err := s.readWorkspaceLocked(p.WorkspaceID)
	if err != nil {
		return err
	}
	wsFolder := workspaceFolder(p.WorkspaceID)
	taken, err := s.docs.Exists(wsFolder, newID)
	if err != nil {
		return err
	}
	if taken || ws.HasProject(p.FullName) {
		return fmt.Errorf("project %q in %q: %w", p.FullName, p.WorkspaceID, types.ErrAlreadyExists)
	}

	oldLocation := s.docs.Location(wsFolder + "/" + p.ID)
	if err := s.docs.MoveDocument(wsFolder, p.ID, wsFolder, newID); err != nil {
		return err
	}
	if stored.ContentLocation == oldLocation {
		exists, err := s.docs.ExistsFolder(wsFolder, p.ID)
		if err != nil {
			return err
		}
		if exists {
			if err := s.docs.MoveFolder(wsFolder+"/"+p.ID, wsFolder+"/"+newID); err != nil {
				return err
			}
		}
	}
	if p.ContentLocation == oldLocation {
		p.ContentLocation = s.docs.Location(wsFolder + "/" + newID)
	}

	ws.ProjectNames = replaced(ws.ProjectNames, stored.FullName, p.FullName)
	if err := s.writeWorkspaceLocked(accountFolder(ws.AccountID), ws, nil); err != nil {
		return err
	}
	s.log.Debug().Str("workspace", ws.ID).Str("from", p.ID).Str("to", newID).Msg("renamed project")
	p.ID = newID
	return nil
}

// writeProjectLocked replaces the project document in folder, merging
// changes into the stored properties. Caller must hold the account lock.
func (s *Store) writeProjectLocked(folder string, p *types.Project, changes *types.ChangeSet) error {
	var doc projectDoc
	if err := s.readJSON(folder, p.ID, &doc); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("project %q: %w", p.ID, types.ErrNotFound)
		}
		return err
	}
	merged, err := props.Merge(doc.Properties, changes)
	if err != nil {
		return err
	}
	doc = projectDoc{
		Version:         CurrentVersion,
		UniqueID:        p.ID,
		WorkspaceID:     p.WorkspaceID,
		FullName:        p.FullName,
		ContentLocation: p.ContentLocation,
		Properties:      merged,
	}
	if err := s.writeJSON(folder, p.ID, doc); err != nil {
		return err
	}
	if p.Properties, err = props.Flatten(merged); err != nil {
		return err
	}
	changes.Reset()
	return nil
}

// DeleteProject removes the project called name from its workspace and
// deletes its document and default content folder.
func (s *Store) DeleteProject(workspaceID, name string) (err error) {
	defer s.observe("delete_project", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return err
	}
	accountID := codec.DecodeAccountID(workspaceID)
	if !codec.ValidWorkspaceID(workspaceID) || name == "" {
		return fmt.Errorf("project %q in %q: %w", name, workspaceID, types.ErrNotFound)
	}

	release := s.locks.Lock(accountID)
	defer release()

	ws, err := s.readWorkspaceLocked(workspaceID)
	if err != nil {
		return err
	}
	wsFolder := workspaceFolder(workspaceID)
	id := codec.EncodeProjectID(name)
	listed := ws.HasProject(name)
	if !listed {
		doc, err := s.docs.Exists(wsFolder, id)
		if err != nil {
			return err
		}
		folder, err := s.docs.ExistsFolder(wsFolder, id)
		if err != nil {
			return err
		}
		if !doc && !folder {
			return fmt.Errorf("project %q in %q: %w", name, workspaceID, types.ErrNotFound)
		}
	}

	if listed {
		ws.ProjectNames = without(ws.ProjectNames, name)
		if err := s.writeWorkspaceLocked(accountFolder(accountID), ws, nil); err != nil {
			return err
		}
	}
	if err := s.removeProjectLocked(wsFolder, id); err != nil {
		return err
	}
	s.log.Debug().Str("workspace", workspaceID).Str("project", id).Msg("deleted project")
	return nil
}

// removeProjectLocked deletes a project document and its folder inside the
// workspace folder, tolerating either being absent. Content of a linked
// project lives elsewhere and is left alone.
func (s *Store) removeProjectLocked(wsFolder, id string) error {
	if err := s.docs.Delete(wsFolder, id); err != nil && !errors.Is(err, types.ErrNotFound) {
		return err
	}
	if err := s.docs.DeleteFolder(wsFolder, id, true); err != nil && !errors.Is(err, types.ErrNotFound) {
		return err
	}
	return nil
}
