package metastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/metastore/pkg/types"
)

const rights = `[{"Method":15,"Uri":"/workspace/anthony-Demo"},{"Method":15,"Uri":"/users/anthony"}]`

func TestAccountRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		acct := types.NewAccount("anthony", "Anthony Hoare")
		acct.Properties["email"] = "anthony@example.com"
		acct.Properties[types.PropertyUserRights] = rights
		require.NoError(t, s.CreateAccount(acct))

		got, err := s.ReadAccount("anthony")
		require.NoError(t, err)
		assert.Equal(t, acct, got)
		assert.Equal(t, []string{}, got.WorkspaceIDs)
	})
}

func TestCreateAccount(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		acct := &types.Account{ID: "anthony"}
		require.NoError(t, s.CreateAccount(acct))
		assert.Equal(t, "anthony", acct.UserName)
		assert.Equal(t, types.DefaultFullName, acct.FullName)

		err := s.CreateAccount(types.NewAccount("anthony", "Again"))
		assert.ErrorIs(t, err, types.ErrAlreadyExists)

		for _, bad := range []string{"", "..", ".hidden", "a/b"} {
			err := s.CreateAccount(types.NewAccount(bad, ""))
			assert.ErrorIs(t, err, types.ErrInvalidState, bad)
		}
	})
}

func TestCreateAccountRejectsBadRights(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		acct := types.NewAccount("anthony", "")
		acct.Properties[types.PropertyUserRights] = `{"Uri":"/"}`
		assert.ErrorIs(t, s.CreateAccount(acct), types.ErrInvalidState)
	})
}

func TestReadAccountProvisions(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		got, err := s.ReadAccount("newbie")
		require.NoError(t, err)
		assert.Equal(t, "newbie", got.ID)
		assert.Equal(t, "newbie", got.UserName)
		assert.Equal(t, types.DefaultFullName, got.FullName)
		assert.Empty(t, got.WorkspaceIDs)

		again, err := s.ReadAccount("newbie")
		require.NoError(t, err)
		assert.Equal(t, got, again)

		ids, err := s.ListAccounts()
		require.NoError(t, err)
		assert.Equal(t, []string{"newbie"}, ids)

		_, err = s.ReadAccount("../escape")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestUpdateAccount(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		acct := mustAccount(t, s, "anthony")
		acct.FullName = "Sir Anthony"
		changes := types.NewChangeSet().Set("email", "anthony@example.com").Set("team", "compilers")
		require.NoError(t, s.UpdateAccount(acct, changes))
		assert.Equal(t, 0, changes.Len())
		assert.Equal(t, "compilers", acct.Properties["team"])

		got, err := s.ReadAccount("anthony")
		require.NoError(t, err)
		assert.Equal(t, "Sir Anthony", got.FullName)
		assert.Equal(t, map[string]string{"email": "anthony@example.com", "team": "compilers"}, got.Properties)

		require.NoError(t, s.UpdateAccount(got, types.NewChangeSet().Delete("team")))
		got, err = s.ReadAccount("anthony")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"email": "anthony@example.com"}, got.Properties)
	})
}

func TestUpdateAccountMergesDisjointKeys(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		mustAccount(t, s, "anthony")
		first, err := s.ReadAccount("anthony")
		require.NoError(t, err)
		second, err := s.ReadAccount("anthony")
		require.NoError(t, err)

		require.NoError(t, s.UpdateAccount(first, types.NewChangeSet().Set("k1", "v1")))
		require.NoError(t, s.UpdateAccount(second, types.NewChangeSet().Set("k2", "v2")))

		got, err := s.ReadAccount("anthony")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, got.Properties)
	})
}

func TestUpdateAccountErrors(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		acct := types.NewAccount("ghost", "")
		assert.ErrorIs(t, s.UpdateAccount(acct, nil), types.ErrNotFound)

		acct = mustAccount(t, s, "anthony")
		acct.UserName = ""
		assert.ErrorIs(t, s.UpdateAccount(acct, nil), types.ErrInvalidState)

		acct.UserName = "anthony"
		err := s.UpdateAccount(acct, types.NewChangeSet().Set(types.PropertySiteConfigurations, "[]"))
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})
}

func TestDeleteAccountCascades(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		acct := mustAccount(t, s, "anthony")
		ws := mustWorkspace(t, s, acct.ID, "Demo")
		mustWorkspace(t, s, acct.ID, "Other")
		mustProject(t, s, ws.ID, "p1", "")
		mustProject(t, s, ws.ID, "linked", "https://example.com/repo.git")
		mustAccount(t, s, "anne")

		require.NoError(t, s.DeleteAccount("anthony"))

		exists, err := s.docs.ExistsFolder("an", "anthony")
		require.NoError(t, err)
		assert.False(t, exists)
		_, err = s.ReadWorkspace(ws.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)

		ids, err := s.ListAccounts()
		require.NoError(t, err)
		assert.Equal(t, []string{"anne"}, ids)

		assert.ErrorIs(t, s.DeleteAccount("anthony"), types.ErrNotFound)
	})
}

func TestDeleteAccountRemovesEmptyPrefix(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		mustAccount(t, s, "zed")
		require.NoError(t, s.DeleteAccount("zed"))

		exists, err := s.docs.ExistsFolder("", "ze")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestUpdateAccountKeepsStoredWorkspaceList(t *testing.T) {
	eachStore(t, func(t *testing.T, s *Store) {
		mustAccount(t, s, "bob")
		stale, err := s.ReadAccount("bob")
		require.NoError(t, err)
		ws := mustWorkspace(t, s, "bob", "Demo")

		stale.FullName = "Bob Renamed"
		require.NoError(t, s.UpdateAccount(stale, nil))
		assert.Equal(t, []string{ws.ID}, stale.WorkspaceIDs)

		got, err := s.ReadAccount("bob")
		require.NoError(t, err)
		assert.Equal(t, "Bob Renamed", got.FullName)
		assert.Equal(t, []string{ws.ID}, got.WorkspaceIDs)
	})
}
