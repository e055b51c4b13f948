// Package sqlite implements types.DocumentStore on a single SQLite database.
// Folders and documents are rows keyed by their logical path; moving a
// folder rewrites the path prefix of every row beneath it in one
// transaction.
package sqlite

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/metastore/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// DBFileName is the database file created in the data directory.
const DBFileName = "metastore.db"

// Backend is a SQLite-backed document store.
type Backend struct {
	db   *sql.DB
	path string
}

var _ types.DocumentStore = (*Backend)(nil)

// NewBackend opens (creating if needed) the database in dataDir.
func NewBackend(dataDir string) (*Backend, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, ioFailure("mkdir", dataDir, err)
	}
	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ioFailure("open", dbPath, err)
	}
	// One connection serialises writers and lets transactions see their own
	// uncommitted rows without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, ioFailure("schema", dbPath, err)
	}
	return &Backend{db: db, path: dbPath}, nil
}

func ioFailure(op, path string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, path, types.ErrIOFailure, err)
}

func join(folder, name string) string {
	if folder == "" {
		return name
	}
	if name == "" {
		return folder
	}
	return folder + "/" + name
}

// under matches a path column equal to ?1 or beneath it.
const under = `(%[1]s = ?1 OR substr(%[1]s, 1, length(?1) + 1) = ?1 || '/')`

func underClause(column string) string {
	return fmt.Sprintf(under, column)
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func folderExists(q querier, path string) (bool, error) {
	if path == "" {
		return true, nil
	}
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM folders WHERE path = ?", path).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func docExists(q querier, folder, name string) (bool, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM documents WHERE folder = ? AND name = ?", folder, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exists reports whether the document folder/name exists.
func (b *Backend) Exists(folder, name string) (bool, error) {
	ok, err := docExists(b.db, folder, name)
	if err != nil {
		return false, ioFailure("stat", join(folder, name), err)
	}
	return ok, nil
}

// ExistsFolder reports whether the folder folder/name exists.
func (b *Backend) ExistsFolder(folder, name string) (bool, error) {
	ok, err := folderExists(b.db, join(folder, name))
	if err != nil {
		return false, ioFailure("stat", join(folder, name), err)
	}
	return ok, nil
}

// Read returns the document folder/name.
func (b *Backend) Read(folder, name string) (json.RawMessage, error) {
	var body string
	err := b.db.QueryRow("SELECT body FROM documents WHERE folder = ? AND name = ?", folder, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", join(folder, name), types.ErrNotFound)
	}
	if err != nil {
		return nil, ioFailure("read", join(folder, name), err)
	}
	return json.RawMessage(body), nil
}

// Write upserts the document folder/name. The folder must exist.
func (b *Backend) Write(folder, name string, doc json.RawMessage) error {
	if !json.Valid(doc) {
		return fmt.Errorf("write %s: %w: malformed JSON", join(folder, name), types.ErrInvalidState)
	}
	ok, err := folderExists(b.db, folder)
	if err != nil {
		return ioFailure("write", join(folder, name), err)
	}
	if !ok {
		return fmt.Errorf("write %s: %w: folder does not exist", join(folder, name), types.ErrIOFailure)
	}
	_, err = b.db.Exec(`
		INSERT INTO documents (folder, name, body) VALUES (?, ?, ?)
		ON CONFLICT(folder, name) DO UPDATE SET body = excluded.body`,
		folder, name, string(doc))
	if err != nil {
		return ioFailure("write", join(folder, name), err)
	}
	return nil
}

// CreateFolder creates folder/name and any missing parents.
func (b *Backend) CreateFolder(folder, name string) error {
	path := join(folder, name)
	tx, err := b.db.Begin()
	if err != nil {
		return ioFailure("mkdir", path, err)
	}
	defer tx.Rollback()
	if err := createParents(tx, path); err != nil {
		return ioFailure("mkdir", path, err)
	}
	if err := tx.Commit(); err != nil {
		return ioFailure("mkdir", path, err)
	}
	return nil
}

// createParents inserts path and every ancestor of it.
func createParents(tx *sql.Tx, path string) error {
	parts := strings.Split(path, "/")
	for i := range parts {
		p := strings.Join(parts[:i+1], "/")
		if p == "" {
			continue
		}
		if _, err := tx.Exec("INSERT OR IGNORE INTO folders (path) VALUES (?)", p); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the document folder/name.
func (b *Backend) Delete(folder, name string) error {
	res, err := b.db.Exec("DELETE FROM documents WHERE folder = ? AND name = ?", folder, name)
	if err != nil {
		return ioFailure("delete", join(folder, name), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", join(folder, name), types.ErrNotFound)
	}
	return nil
}

// DeleteFolder removes folder/name, and everything in it when recursive.
func (b *Backend) DeleteFolder(folder, name string, recursive bool) error {
	path := join(folder, name)
	tx, err := b.db.Begin()
	if err != nil {
		return ioFailure("delete", path, err)
	}
	defer tx.Rollback()

	ok, err := folderExists(tx, path)
	if err != nil {
		return ioFailure("delete", path, err)
	}
	if !ok {
		return fmt.Errorf("folder %s: %w", path, types.ErrNotFound)
	}
	if !recursive {
		var n int
		err := tx.QueryRow(`SELECT
			(SELECT COUNT(*) FROM folders WHERE `+underClause("path")+` AND path != ?1) +
			(SELECT COUNT(*) FROM documents WHERE `+underClause("folder")+`)`, path).Scan(&n)
		if err != nil {
			return ioFailure("delete", path, err)
		}
		if n > 0 {
			return fmt.Errorf("delete %s: %w: folder not empty", path, types.ErrIOFailure)
		}
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE "+underClause("folder"), path); err != nil {
		return ioFailure("delete", path, err)
	}
	if _, err := tx.Exec("DELETE FROM folders WHERE "+underClause("path"), path); err != nil {
		return ioFailure("delete", path, err)
	}
	if err := tx.Commit(); err != nil {
		return ioFailure("delete", path, err)
	}
	return nil
}

// MoveDocument moves srcFolder/name to dstFolder/newName.
func (b *Backend) MoveDocument(srcFolder, name, dstFolder, newName string) error {
	src, dst := join(srcFolder, name), join(dstFolder, newName)
	if src == dst {
		return nil
	}
	tx, err := b.db.Begin()
	if err != nil {
		return ioFailure("move", src, err)
	}
	defer tx.Rollback()

	taken, err := docExists(tx, dstFolder, newName)
	if err != nil {
		return ioFailure("move", src, err)
	}
	if taken {
		return fmt.Errorf("move %s: %w: %s", src, types.ErrAlreadyExists, dst)
	}
	ok, err := folderExists(tx, dstFolder)
	if err != nil {
		return ioFailure("move", src, err)
	}
	if !ok {
		return fmt.Errorf("move %s: %w: folder %s does not exist", src, types.ErrIOFailure, dstFolder)
	}
	res, err := tx.Exec("UPDATE documents SET folder = ?, name = ? WHERE folder = ? AND name = ?",
		dstFolder, newName, srcFolder, name)
	if err != nil {
		return ioFailure("move", src, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", src, types.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return ioFailure("move", src, err)
	}
	return nil
}

// MoveFolder moves the folder at src, with everything beneath it, to dst.
func (b *Backend) MoveFolder(src, dst string) error {
	if src == dst {
		return nil
	}
	tx, err := b.db.Begin()
	if err != nil {
		return ioFailure("move", src, err)
	}
	defer tx.Rollback()

	ok, err := folderExists(tx, src)
	if err != nil {
		return ioFailure("move", src, err)
	}
	if !ok {
		return fmt.Errorf("folder %s: %w", src, types.ErrNotFound)
	}
	taken, err := folderExists(tx, dst)
	if err != nil {
		return ioFailure("move", src, err)
	}
	if taken {
		return fmt.Errorf("move %s: %w: %s", src, types.ErrAlreadyExists, dst)
	}
	if i := strings.LastIndex(dst, "/"); i > 0 {
		if err := createParents(tx, dst[:i]); err != nil {
			return ioFailure("move", src, err)
		}
	}
	if _, err := tx.Exec("UPDATE folders SET path = ?2 || substr(path, length(?1) + 1) WHERE "+underClause("path"),
		src, dst); err != nil {
		return ioFailure("move", src, err)
	}
	if _, err := tx.Exec("UPDATE documents SET folder = ?2 || substr(folder, length(?1) + 1) WHERE "+underClause("folder"),
		src, dst); err != nil {
		return ioFailure("move", src, err)
	}
	if err := tx.Commit(); err != nil {
		return ioFailure("move", src, err)
	}
	return nil
}

// ListFolders returns the sorted child folder names of folder, skipping
// hidden ones.
func (b *Backend) ListFolders(folder string) ([]string, error) {
	var rows *sql.Rows
	var err error
	if folder == "" {
		rows, err = b.db.Query("SELECT path FROM folders WHERE instr(path, '/') = 0")
	} else {
		rows, err = b.db.Query("SELECT substr(path, length(?1) + 2) FROM folders WHERE substr(path, 1, length(?1) + 1) = ?1 || '/'", folder)
	}
	if err != nil {
		return nil, ioFailure("list", folder, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var rel string
		if err := rows.Scan(&rel); err != nil {
			return nil, ioFailure("list", folder, err)
		}
		if strings.Contains(rel, "/") || strings.HasPrefix(rel, ".") {
			continue
		}
		names = append(names, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, ioFailure("list", folder, err)
	}
	sort.Strings(names)
	return names, nil
}

// ListDocuments returns the sorted document names in folder.
func (b *Backend) ListDocuments(folder string) ([]string, error) {
	rows, err := b.db.Query("SELECT name FROM documents WHERE folder = ? ORDER BY name", folder)
	if err != nil {
		return nil, ioFailure("list", folder, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, ioFailure("list", folder, err)
		}
		if !strings.HasPrefix(name, ".") {
			names = append(names, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ioFailure("list", folder, err)
	}
	return names, nil
}

// Location returns a sqlite URI naming the folder at path.
func (b *Backend) Location(path string) string {
	u := url.URL{Scheme: "sqlite", Path: "/" + path}
	return u.String()
}

// Close closes the database.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
