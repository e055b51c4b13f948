// Package storetest holds the behaviour tests every types.DocumentStore
// implementation must pass.
package storetest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/metastore/pkg/types"
)

// Factory returns a fresh, empty store for one test.
type Factory func(t *testing.T) types.DocumentStore

// Run exercises a DocumentStore implementation.
func Run(t *testing.T, newStore Factory) {
	t.Run("ReadWrite", func(t *testing.T) { testReadWrite(t, newStore(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, newStore(t)) })
	t.Run("Folders", func(t *testing.T) { testFolders(t, newStore(t)) })
	t.Run("DeleteFolder", func(t *testing.T) { testDeleteFolder(t, newStore(t)) })
	t.Run("MoveDocument", func(t *testing.T) { testMoveDocument(t, newStore(t)) })
	t.Run("MoveFolder", func(t *testing.T) { testMoveFolder(t, newStore(t)) })
	t.Run("ListHidesBookkeeping", func(t *testing.T) { testListHidden(t, newStore(t)) })
	t.Run("DotDotPathsNotFound", func(t *testing.T) { testDotDotPaths(t, newStore(t)) })
}

func testReadWrite(t *testing.T, s types.DocumentStore) {
	require.NoError(t, s.CreateFolder("", "an/anthony"))

	ok, err := s.Exists("an/anthony", "account")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read("an/anthony", "account")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, s.Write("an/anthony", "account", json.RawMessage(`{"UniqueId":"anthony"}`)))
	ok, err = s.Exists("an/anthony", "account")
	require.NoError(t, err)
	assert.True(t, ok)

	// A document is not a folder.
	ok, err = s.ExistsFolder("an/anthony", "account")
	require.NoError(t, err)
	assert.False(t, ok)

	doc, err := s.Read("an/anthony", "account")
	require.NoError(t, err)
	assert.JSONEq(t, `{"UniqueId":"anthony"}`, string(doc))

	require.NoError(t, s.Delete("an/anthony", "account"))
	assert.ErrorIs(t, s.Delete("an/anthony", "account"), types.ErrNotFound)
}

func testOverwrite(t *testing.T, s types.DocumentStore) {
	require.NoError(t, s.Write("", "root", json.RawMessage(`{"Version":1}`)))
	require.NoError(t, s.Write("", "root", json.RawMessage(`{"Version":2}`)))
	doc, err := s.Read("", "root")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Version":2}`, string(doc))

	docs, err := s.ListDocuments("")
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, docs)
}

func testFolders(t *testing.T, s types.DocumentStore) {
	require.NoError(t, s.CreateFolder("al/alice", "alice-Demo"))
	require.NoError(t, s.CreateFolder("al/alice", "alice-Blog"))
	require.NoError(t, s.Write("al/alice", "alice-Demo", json.RawMessage(`{}`)))

	ok, err := s.ExistsFolder("al/alice", "alice-Demo")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ExistsFolder("al", "alice")
	require.NoError(t, err)
	assert.True(t, ok, "parents are created")

	folders, err := s.ListFolders("al/alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice-Blog", "alice-Demo"}, folders)

	docs, err := s.ListDocuments("al/alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice-Demo"}, docs)

	folders, err = s.ListFolders("missing")
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func testDeleteFolder(t *testing.T, s types.DocumentStore) {
	require.NoError(t, s.CreateFolder("ws", "proj"))
	require.NoError(t, s.Write("ws/proj", "doc", json.RawMessage(`{}`)))

	assert.Error(t, s.DeleteFolder("", "ws", false), "non-empty folder needs recursive delete")
	require.NoError(t, s.DeleteFolder("", "ws", true))

	ok, err := s.ExistsFolder("", "ws")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.Read("ws/proj", "doc")
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.ErrorIs(t, s.DeleteFolder("", "ws", true), types.ErrNotFound)

	require.NoError(t, s.CreateFolder("", "empty"))
	require.NoError(t, s.DeleteFolder("", "empty", false))
}

func testMoveDocument(t *testing.T, s types.DocumentStore) {
	require.NoError(t, s.CreateFolder("", "a"))
	require.NoError(t, s.CreateFolder("", "b"))
	require.NoError(t, s.Write("a", "one", json.RawMessage(`{"n":1}`)))
	require.NoError(t, s.Write("b", "two", json.RawMessage(`{"n":2}`)))

	require.NoError(t, s.MoveDocument("a", "one", "b", "three"))
	ok, err := s.Exists("a", "one")
	require.NoError(t, err)
	assert.False(t, ok)
	doc, err := s.Read("b", "three")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(doc))

	assert.ErrorIs(t, s.MoveDocument("b", "three", "b", "two"), types.ErrAlreadyExists)
	assert.ErrorIs(t, s.MoveDocument("a", "missing", "b", "x"), types.ErrNotFound)
}

func testMoveFolder(t *testing.T, s types.DocumentStore) {
	require.NoError(t, s.CreateFolder("al", "alice"))
	require.NoError(t, s.Write("al/alice", "account", json.RawMessage(`{"id":"alice"}`)))
	require.NoError(t, s.CreateFolder("al/alice", "alice-Demo/proj"))
	require.NoError(t, s.Write("al/alice/alice-Demo", "proj", json.RawMessage(`{}`)))

	require.NoError(t, s.MoveFolder("al/alice", "bo/bob"))

	ok, err := s.ExistsFolder("al", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	doc, err := s.Read("bo/bob", "account")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"alice"}`, string(doc))

	ok, err = s.ExistsFolder("bo/bob/alice-Demo", "proj")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Exists("bo/bob/alice-Demo", "proj")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.CreateFolder("", "taken"))
	assert.ErrorIs(t, s.MoveFolder("bo/bob", "taken"), types.ErrAlreadyExists)
	assert.ErrorIs(t, s.MoveFolder("nope", "elsewhere"), types.ErrNotFound)
}

func testListHidden(t *testing.T, s types.DocumentStore) {
	require.NoError(t, s.CreateFolder("", ".journal"))
	require.NoError(t, s.CreateFolder("", "al"))
	folders, err := s.ListFolders("")
	require.NoError(t, err)
	assert.Equal(t, []string{"al"}, folders)
}

func testDotDotPaths(t *testing.T, s types.DocumentStore) {
	require.NoError(t, s.CreateFolder("", "an/anthony"))
	require.NoError(t, s.Write("an", "secret", json.RawMessage(`{"x":1}`)))

	ok, err := s.Exists("an/anthony/..", "secret")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ExistsFolder("an", "anthony/../anthony")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read("an/anthony/..", "secret")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, s.Delete("an/anthony/..", "secret"), types.ErrNotFound)

	doc, err := s.Read("an", "secret")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(doc))
}
