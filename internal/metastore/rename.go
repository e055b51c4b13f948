package metastore

import (
	"fmt"

	"github.com/mesh-intelligence/metastore/internal/codec"
	"github.com/mesh-intelligence/metastore/internal/props"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

// renameAccountLocked moves the account acct.ID to acct.UserName: every
// workspace is relabelled under the new id, every project follows its
// workspace, access rights are rewritten, and finally the account folder
// moves. On success acct.ID is the new id and the returned change set
// carries the rewritten access rights. Caller must hold both account locks.
func (s *Store) renameAccountLocked(acct *types.Account, changes *types.ChangeSet) (*types.ChangeSet, error) {
	oldID, newID := acct.ID, acct.UserName
	oldFolder, newFolder := accountFolder(oldID), accountFolder(newID)

	stored, err := s.readAccountLocked(oldID)
	if err != nil {
		return nil, err
	}
	taken, err := s.docs.ExistsFolder(codec.AccountPrefix(newID), newID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("account %q: %w", newID, types.ErrAlreadyExists)
	}

	journal, err := s.beginJournal(JournalAccountRename, oldID, newID)
	if err != nil {
		return nil, err
	}

	renamed := make([]string, 0, len(stored.WorkspaceIDs))
	for _, wsID := range stored.WorkspaceIDs {
		ws, err := s.readWorkspaceLocked(wsID)
		if err != nil {
			return nil, fmt.Errorf("rename account %q: %w", oldID, err)
		}
		move := workspaceMove{
			accountID: newID,
			id:        codec.RebaseWorkspaceID(wsID, newID),
			stage:     oldFolder,
			home:      newFolder,
		}
		if err := s.relocateWorkspaceLocked(ws, move, nil); err != nil {
			return nil, fmt.Errorf("rename account %q: %w", oldID, err)
		}
		renamed = append(renamed, ws.ID)
	}

	if changes == nil {
		changes = types.NewChangeSet()
	}
	current := props.Apply(copyProperties(acct.Properties), changes)
	if rights, ok := current[types.PropertyUserRights]; ok {
		rewritten, err := props.RewriteUserRights(rights, oldID, newID)
		if err != nil {
			return nil, err
		}
		changes.Set(types.PropertyUserRights, rewritten)
	}

	if err := s.docs.MoveFolder(oldFolder, newFolder); err != nil {
		return nil, err
	}
	if prefix := codec.AccountPrefix(oldID); prefix != codec.AccountPrefix(newID) {
		s.removeEmptyFolder("", prefix)
	}

	acct.ID = newID
	acct.WorkspaceIDs = renamed
	s.endJournal(journal)
	s.log.Info().Str("from", oldID).Str("to", newID).Int("workspaces", len(renamed)).Msg("renamed account")
	return changes, nil
}

// workspaceMove describes where a workspace goes. stage is the account
// folder its documents land in now; home is the account folder they live in
// once any enclosing move completes. The two differ only during an account
// rename, where the account folder itself moves last.
type workspaceMove struct {
	accountID string
	id        string
	stage     string
	home      string
}

// relocateWorkspaceLocked relabels ws as move.id under move.accountID,
// rewriting its projects and moving its document and folder into
// move.stage. ws is updated in place. Caller must hold the locks of both
// the source and the target account.
func (s *Store) relocateWorkspaceLocked(ws *types.Workspace, move workspaceMove, changes *types.ChangeSet) error {
	srcAccount := accountFolder(codec.DecodeAccountID(ws.ID))
	srcFolder := srcAccount + "/" + ws.ID

	for _, name := range ws.ProjectNames {
		p, err := s.readProjectLocked(ws.ID, name)
		if err != nil {
			s.log.Warn().Err(err).Str("workspace", ws.ID).Str("project", name).Msg("project skipped during move")
			continue
		}
		if err := s.relocateProjectLocked(p, srcFolder, move.id, move.home+"/"+move.id); err != nil {
			return err
		}
	}

	dstFolder := move.stage + "/" + move.id
	if srcFolder != dstFolder {
		exists, err := s.docs.ExistsFolder(srcAccount, ws.ID)
		if err != nil {
			return err
		}
		if exists {
			if err := s.docs.MoveFolder(srcFolder, dstFolder); err != nil {
				return err
			}
		}
		if err := s.docs.MoveDocument(srcAccount, ws.ID, move.stage, move.id); err != nil {
			return err
		}
	}

	oldID := ws.ID
	ws.ID = move.id
	ws.AccountID = move.accountID
	if err := s.writeWorkspaceLocked(move.stage, ws, changes); err != nil {
		return err
	}
	s.log.Debug().Str("from", oldID).Str("to", ws.ID).Msg("relocated workspace")
	return nil
}

// relocateProjectLocked points p at workspace workspaceID whose folder will
// be home. A project stored in its default location moves with the
// workspace folder; a linked project keeps its location. The document is
// rewritten in place in folder, the project's current workspace folder.
func (s *Store) relocateProjectLocked(p *types.Project, folder, workspaceID, home string) error {
	if p.ContentLocation == s.docs.Location(folder+"/"+p.ID) {
		p.ContentLocation = s.docs.Location(home + "/" + p.ID)
	}
	p.WorkspaceID = workspaceID
	return s.writeProjectLocked(folder, p, nil)
}

func copyProperties(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
