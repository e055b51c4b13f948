// Package types defines the MetaStore and DocumentStore interfaces, the
// account, workspace and project entity types, and the standard errors for
// the hierarchical metadata store.
package types
