package types

import "sort"

// Property keys whose values are structured JSON rather than plain strings.
// In memory both are held as their JSON text.
const (
	// PropertyUserRights holds a JSON array of access-right entries,
	// each {"Uri": "...", "Method": n}.
	PropertyUserRights = "UserRights"

	// PropertySiteConfigurations holds a JSON object of named site
	// configurations.
	PropertySiteConfigurations = "SiteConfigurations"
)

// PropertyOp is the kind of change recorded for a property key.
type PropertyOp int

// Property operations.
const (
	PropertySet PropertyOp = iota + 1
	PropertyDelete
)

func (op PropertyOp) String() string {
	switch op {
	case PropertySet:
		return "set"
	case PropertyDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// PropertyChange is the latest operation recorded for one key.
type PropertyChange struct {
	Key   string
	Op    PropertyOp
	Value string
}

// ChangeSet lists the property changes to flush with an update. Only the
// most recent operation per key is kept. A nil *ChangeSet means no changes;
// the zero value is an empty change set ready to use.
type ChangeSet struct {
	ops map[string]PropertyChange
}

// NewChangeSet returns an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{ops: make(map[string]PropertyChange)}
}

// ChangeSetOf returns a change set that sets every entry of props.
func ChangeSetOf(props map[string]string) *ChangeSet {
	cs := NewChangeSet()
	for k, v := range props {
		cs.Set(k, v)
	}
	return cs
}

// Set records that key is created or updated to value.
func (c *ChangeSet) Set(key, value string) *ChangeSet {
	c.init()
	c.ops[key] = PropertyChange{Key: key, Op: PropertySet, Value: value}
	return c
}

// Delete records that key is removed.
func (c *ChangeSet) Delete(key string) *ChangeSet {
	c.init()
	c.ops[key] = PropertyChange{Key: key, Op: PropertyDelete}
	return c
}

func (c *ChangeSet) init() {
	if c.ops == nil {
		c.ops = make(map[string]PropertyChange)
	}
}

// Len returns the number of keys with a pending change.
func (c *ChangeSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ops)
}

// Changes returns the pending changes sorted by key.
func (c *ChangeSet) Changes() []PropertyChange {
	if c == nil {
		return nil
	}
	out := make([]PropertyChange, 0, len(c.ops))
	for _, ch := range c.ops {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Reset clears all pending changes. The store calls it after a successful
// flush.
func (c *ChangeSet) Reset() {
	if c == nil {
		return
	}
	c.ops = make(map[string]PropertyChange)
}
