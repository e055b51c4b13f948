package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/metastore/internal/storetest"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

func newTestBackend(t *testing.T, dir string) *Backend {
	t.Helper()
	b, err := NewBackend(dir)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBackend(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.DocumentStore {
		return newTestBackend(t, t.TempDir())
	})
}

func TestBackend_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	newTestBackend(t, dir)

	if _, err := os.Stat(filepath.Join(dir, DBFileName)); os.IsNotExist(err) {
		t.Errorf("%s not created", DBFileName)
	}
}

func TestBackend_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBackend(dir)
	require.NoError(t, err)
	require.NoError(t, b.CreateFolder("al", "alice"))
	require.NoError(t, b.Write("al/alice", "account", json.RawMessage(`{"UniqueId":"alice"}`)))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "Close is idempotent")

	b = newTestBackend(t, dir)
	doc, err := b.Read("al/alice", "account")
	require.NoError(t, err)
	assert.JSONEq(t, `{"UniqueId":"alice"}`, string(doc))
}

func TestBackend_PathsWithLikeWildcards(t *testing.T) {
	b := newTestBackend(t, t.TempDir())
	// Encoded names contain % and _; prefix matching must treat them literally.
	require.NoError(t, b.CreateFolder("al/alice", "alice-My%20Demo"))
	require.NoError(t, b.CreateFolder("al/alice", "alice-MyX20Demo"))
	require.NoError(t, b.CreateFolder("al/alice", "a_b"))

	require.NoError(t, b.DeleteFolder("al/alice", "alice-My%20Demo", true))
	folders, err := b.ListFolders("al/alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b", "alice-MyX20Demo"}, folders)
}

func TestBackend_MoveFolderLeavesSiblings(t *testing.T) {
	b := newTestBackend(t, t.TempDir())
	require.NoError(t, b.CreateFolder("al", "alice"))
	require.NoError(t, b.CreateFolder("al", "alice2"))
	require.NoError(t, b.Write("al/alice2", "account", json.RawMessage(`{}`)))

	require.NoError(t, b.MoveFolder("al/alice", "al/alicia"))

	ok, err := b.Exists("al/alice2", "account")
	require.NoError(t, err)
	assert.True(t, ok, "prefix sibling must not move")

	folders, err := b.ListFolders("al")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice2", "alicia"}, folders)
}

func TestBackend_WriteRejectsMalformed(t *testing.T) {
	b := newTestBackend(t, t.TempDir())
	assert.ErrorIs(t, b.Write("", "bad", json.RawMessage(`{`)), types.ErrInvalidState)
}

func TestBackend_Location(t *testing.T) {
	b := newTestBackend(t, t.TempDir())
	assert.Equal(t, "sqlite:///al/alice/alice-Demo", b.Location("al/alice/alice-Demo"))
}
