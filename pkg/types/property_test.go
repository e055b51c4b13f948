package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeSetLatestOpWins(t *testing.T) {
	cs := NewChangeSet()
	cs.Set("a", "1").Delete("a").Set("b", "2").Set("b", "3")

	got := cs.Changes()
	assert.Equal(t, []PropertyChange{
		{Key: "a", Op: PropertyDelete},
		{Key: "b", Op: PropertySet, Value: "3"},
	}, got)
	assert.Equal(t, 2, cs.Len())

	cs.Reset()
	assert.Equal(t, 0, cs.Len())
	assert.Empty(t, cs.Changes())
}

func TestChangeSetNil(t *testing.T) {
	var cs *ChangeSet
	assert.Equal(t, 0, cs.Len())
	assert.Nil(t, cs.Changes())
	cs.Reset()
}

func TestChangeSetZeroValue(t *testing.T) {
	var cs ChangeSet
	assert.Equal(t, 0, cs.Len())
	cs.Set("x", "1").Delete("y")
	assert.Equal(t, []PropertyChange{
		{Key: "x", Op: PropertySet, Value: "1"},
		{Key: "y", Op: PropertyDelete},
	}, cs.Changes())
	cs.Reset()
	assert.Equal(t, 0, cs.Len())
}

func TestChangeSetOf(t *testing.T) {
	cs := ChangeSetOf(map[string]string{"x": "1", "y": "2"})
	assert.Equal(t, []PropertyChange{
		{Key: "x", Op: PropertySet, Value: "1"},
		{Key: "y", Op: PropertySet, Value: "2"},
	}, cs.Changes())
}

func TestPropertyOpString(t *testing.T) {
	assert.Equal(t, "set", PropertySet.String())
	assert.Equal(t, "delete", PropertyDelete.String())
	assert.Equal(t, "unknown", PropertyOp(0).String())
}
