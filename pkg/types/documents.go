package types

import "encoding/json"

// DocumentStore is the storage backend beneath a MetaStore. Folders are
// slash-separated logical paths relative to the store root, "" being the
// root itself. Names never contain a slash. Documents are JSON objects.
//
// Failures are reported wrapped around ErrIOFailure, except that Read of a
// missing document returns an error wrapping ErrNotFound.
type DocumentStore interface {
	Exists(folder, name string) (bool, error)
	ExistsFolder(folder, name string) (bool, error)

	// Read returns the document. Callers must treat ErrNotFound as absence.
	Read(folder, name string) (json.RawMessage, error)

	// Write replaces the document atomically: readers see the old or the
	// new content, never a partial document.
	Write(folder, name string, doc json.RawMessage) error

	// CreateFolder creates folder/name and any missing parents.
	CreateFolder(folder, name string) error

	Delete(folder, name string) error

	// DeleteFolder removes folder/name. A non-recursive delete of a
	// non-empty folder fails.
	DeleteFolder(folder, name string, recursive bool) error

	// MoveDocument moves srcFolder/name to dstFolder/newName.
	MoveDocument(srcFolder, name, dstFolder, newName string) error

	// MoveFolder moves the folder at path src to path dst. The parent of
	// dst is created when missing; dst must not exist.
	MoveFolder(src, dst string) error

	// ListFolders returns the names of the child folders of folder, sorted,
	// excluding hidden bookkeeping folders (names starting with ".").
	ListFolders(folder string) ([]string, error)

	// ListDocuments returns the names of the documents in folder, sorted.
	ListDocuments(folder string) ([]string, error)

	// Location returns the content URI for the folder at path.
	Location(path string) string

	Close() error
}
