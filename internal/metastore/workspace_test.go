package metastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/metastore/pkg/types"
)

func TestCreateWorkspace(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		acct := mustAccount(t, s, "anthony")
		ws := &types.Workspace{AccountID: acct.ID, FullName: "My Work", Properties: map[string]string{"color": "blue"}}
		require.NoError(t, s.CreateWorkspace(ws))
		assert.Equal(t, "anthony-My%20Work", ws.ID)
		assert.Equal(t, []string{}, ws.ProjectNames)

		got, err := s.ReadWorkspace(ws.ID)
		require.NoError(t, err)
		assert.Equal(t, ws, got)

		acct, err = s.ReadAccount("anthony")
		require.NoError(t, err)
		assert.Equal(t, []string{ws.ID}, acct.WorkspaceIDs)
	})
}

func TestCreateWorkspaceCollision(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		acct := mustAccount(t, s, "anthony")
		first := mustWorkspace(t, s, acct.ID, "Demo")
		second := mustWorkspace(t, s, acct.ID, "Demo")
		third := mustWorkspace(t, s, acct.ID, "Demo")
		assert.Equal(t, "anthony-Demo", first.ID)
		assert.Equal(t, "anthony-Demo1", second.ID)
		assert.Equal(t, "anthony-Demo2", third.ID)

		acct, err := s.ReadAccount("anthony")
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID, second.ID, third.ID}, acct.WorkspaceIDs)

		got, err := s.ReadWorkspace(second.ID)
		require.NoError(t, err)
		assert.Equal(t, "Demo", got.FullName)
	})
}

func TestCreateWorkspaceErrors(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		err := s.CreateWorkspace(&types.Workspace{AccountID: "ghost", FullName: "Demo"})
		assert.ErrorIs(t, err, types.ErrNotFound)

		mustAccount(t, s, "anthony")
		err = s.CreateWorkspace(&types.Workspace{AccountID: "anthony"})
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})
}

func TestReadWorkspaceMissing(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		for _, id := range []string{"", "nodash", "-Demo", "anthony-", "anthony-Demo"} {
			_, err := s.ReadWorkspace(id)
			assert.ErrorIs(t, err, types.ErrNotFound, id)
		}
	})
}

func TestUpdateWorkspace(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		ws := mustWorkspace(t, s, mustAccount(t, s, "anthony").ID, "Demo")
		ws.FullName = "Demo Renamed"
		changes := types.NewChangeSet().Set(types.PropertySiteConfigurations, `{"site":{"Name":"x"}}`)
		require.NoError(t, s.UpdateWorkspace(ws, changes))

		got, err := s.ReadWorkspace("anthony-Demo")
		require.NoError(t, err)
		assert.Equal(t, "Demo Renamed", got.FullName)
		assert.Equal(t, `{"site":{"Name":"x"}}`, got.Properties[types.PropertySiteConfigurations])

		missing := &types.Workspace{ID: "anthony-Nope", AccountID: "anthony", FullName: "Nope"}
		assert.ErrorIs(t, s.UpdateWorkspace(missing, nil), types.ErrNotFound)
	})
}

func TestDeleteWorkspaceCascades(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		acct := mustAccount(t, s, "anthony")
		ws := mustWorkspace(t, s, acct.ID, "Demo")
		keep := mustWorkspace(t, s, acct.ID, "Keep")
		p := mustProject(t, s, ws.ID, "p1", "")
		mustProject(t, s, ws.ID, "p2", "")

		require.NoError(t, s.DeleteWorkspace(acct.ID, ws.ID))

		_, err := s.ReadWorkspace(ws.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		_, err = s.ReadProject(ws.ID, p.FullName)
		assert.ErrorIs(t, err, types.ErrNotFound)
		exists, err := s.docs.ExistsFolder("an/anthony", ws.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		acct, err = s.ReadAccount("anthony")
		require.NoError(t, err)
		assert.Equal(t, []string{keep.ID}, acct.WorkspaceIDs)

		assert.ErrorIs(t, s.DeleteWorkspace(acct.ID, ws.ID), types.ErrNotFound)
		assert.ErrorIs(t, s.DeleteWorkspace("anne", keep.ID), types.ErrNotFound)
	})
}

func TestMoveWorkspace(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		anthony := mustAccount(t, s, "anthony")
		bob := mustAccount(t, s, "bob")
		ws := mustWorkspace(t, s, anthony.ID, "Demo")
		mustProject(t, s, ws.ID, "p1", "")
		mustProject(t, s, ws.ID, "linked", "https://example.com/repo.git")

		ws.AccountID = bob.ID
		require.NoError(t, s.UpdateWorkspace(ws, types.NewChangeSet().Set("moved", "yes")))
		assert.Equal(t, "bob-Demo", ws.ID)
		assert.Equal(t, "yes", ws.Properties["moved"])

		_, err := s.ReadWorkspace("anthony-Demo")
		assert.ErrorIs(t, err, types.ErrNotFound)
		got, err := s.ReadWorkspace("bob-Demo")
		require.NoError(t, err)
		assert.Equal(t, "bob", got.AccountID)
		assert.Equal(t, []string{"p1", "linked"}, got.ProjectNames)

		p1, err := s.ReadProject("bob-Demo", "p1")
		require.NoError(t, err)
		loc, err := s.DefaultContentLocation("bob-Demo", "p1")
		require.NoError(t, err)
		assert.Equal(t, loc, p1.ContentLocation)
		assert.Equal(t, "bob-Demo", p1.WorkspaceID)
		exists, err := s.docs.ExistsFolder("bo/bob/bob-Demo", "p1")
		require.NoError(t, err)
		assert.True(t, exists)

		linked, err := s.ReadProject("bob-Demo", "linked")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/repo.git", linked.ContentLocation)

		anthony, err = s.ReadAccount("anthony")
		require.NoError(t, err)
		assert.Empty(t, anthony.WorkspaceIDs)
		bob, err = s.ReadAccount("bob")
		require.NoError(t, err)
		assert.Equal(t, []string{"bob-Demo"}, bob.WorkspaceIDs)

		entries, err := s.Journal()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestMoveWorkspaceCollision(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		anthony := mustAccount(t, s, "anthony")
		bob := mustAccount(t, s, "bob")
		mustWorkspace(t, s, bob.ID, "Demo")
		ws := mustWorkspace(t, s, anthony.ID, "Demo")

		ws.AccountID = bob.ID
		require.NoError(t, s.UpdateWorkspace(ws, nil))
		assert.Equal(t, "bob-Demo1", ws.ID)

		got, err := s.ReadWorkspace("bob-Demo1")
		require.NoError(t, err)
		assert.Equal(t, "Demo", got.FullName)
	})
}

func TestMoveWorkspaceToMissingAccount(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		ws := mustWorkspace(t, s, mustAccount(t, s, "anthony").ID, "Demo")
		ws.AccountID = "ghost"
		assert.ErrorIs(t, s.UpdateWorkspace(ws, nil), types.ErrNotFound)

		_, err := s.ReadWorkspace("anthony-Demo")
		assert.NoError(t, err)
	})
}

func TestMalformedWorkspaceIDsAreNotFound(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		ws := mustWorkspace(t, s, mustAccount(t, s, "alice").ID, "Demo")
		mustProject(t, s, ws.ID, "proj", "")

		for _, id := range []string{ws.ID + "/proj", "alice-..", "alice-Demo/../Demo", "alice-%2"} {
			_, err := s.ReadWorkspace(id)
			assert.ErrorIs(t, err, types.ErrNotFound, id)
			assert.ErrorIs(t, s.DeleteWorkspace("alice", id), types.ErrNotFound, id)
			_, err = s.ReadProject(id, "proj")
			assert.ErrorIs(t, err, types.ErrNotFound, id)
			assert.ErrorIs(t, s.DeleteProject(id, "proj"), types.ErrNotFound, id)
			assert.ErrorIs(t, s.CreateProject(&types.Project{WorkspaceID: id, FullName: "x"}), types.ErrNotFound, id)
			_, err = s.DefaultContentLocation(id, "x")
			assert.ErrorIs(t, err, types.ErrNotFound, id)
		}

		got, err := s.ReadWorkspace(ws.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"proj"}, got.ProjectNames)
		p, err := s.ReadProject(ws.ID, "proj")
		require.NoError(t, err)
		assert.Equal(t, "proj", p.FullName)
	})
}

func TestUpdateWorkspaceKeepsStoredProjectList(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		ws := mustWorkspace(t, s, mustAccount(t, s, "bob").ID, "Demo")
		stale, err := s.ReadWorkspace(ws.ID)
		require.NoError(t, err)
		mustProject(t, s, ws.ID, "p1", "")

		stale.FullName = "Demo Renamed"
		require.NoError(t, s.UpdateWorkspace(stale, nil))
		assert.Equal(t, []string{"p1"}, stale.ProjectNames)

		got, err := s.ReadWorkspace(ws.ID)
		require.NoError(t, err)
		assert.Equal(t, "Demo Renamed", got.FullName)
		assert.Equal(t, []string{"p1"}, got.ProjectNames)
	})
}
