// Package filestore implements types.DocumentStore on the local filesystem.
// Each document is a <name>.json file; each logical folder is a directory
// under the store root.
package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/mesh-intelligence/metastore/pkg/types"
)

const docExt = ".json"

// Store is a filesystem-backed document store rooted at a directory.
type Store struct {
	root string
}

var _ types.DocumentStore = (*Store)(nil)

// New returns a store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w: %w", root, types.ErrIOFailure, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create root %s: %w: %w", abs, types.ErrIOFailure, err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

// resolve maps the slash-separated logical path elements to a filesystem
// path under the root. Empty, "." and ".." elements are refused so that no
// path leaves the root.
func (s *Store) resolve(parts ...string) (string, bool) {
	out := []string{s.root}
	for _, part := range parts {
		if part == "" {
			continue
		}
		for _, elem := range strings.Split(part, "/") {
			if elem == "" || elem == "." || elem == ".." || strings.ContainsAny(elem, "\\\x00") {
				return "", false
			}
			out = append(out, elem)
		}
	}
	return filepath.Join(out...), true
}

func (s *Store) docPath(folder, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	path, ok := s.resolve(folder, name)
	return path + docExt, ok
}

func badPath(folder, name string, sentinel error) error {
	return fmt.Errorf("path %q/%q: %w", folder, name, sentinel)
}

func ioFailure(op, path string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, path, types.ErrIOFailure, err)
}

// Exists reports whether the document folder/name exists.
func (s *Store) Exists(folder, name string) (bool, error) {
	path, ok := s.docPath(folder, name)
	if !ok {
		return false, nil
	}
	return s.stat(path, false)
}

// ExistsFolder reports whether the folder folder/name exists.
func (s *Store) ExistsFolder(folder, name string) (bool, error) {
	path, ok := s.resolve(folder, name)
	if !ok {
		return false, nil
	}
	return s.stat(path, true)
}

func (s *Store) stat(path string, wantDir bool) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, ioFailure("stat", path, err)
	}
	return info.IsDir() == wantDir, nil
}

// Read returns the document folder/name.
func (s *Store) Read(folder, name string) (json.RawMessage, error) {
	path, ok := s.docPath(folder, name)
	if !ok {
		return nil, badPath(folder, name, types.ErrNotFound)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("document %s: %w", path, types.ErrNotFound)
	}
	if err != nil {
		return nil, ioFailure("read", path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("read %s: %w: malformed JSON", path, types.ErrIOFailure)
	}
	return json.RawMessage(data), nil
}

// Write replaces the document folder/name using a temp file and rename. The
// folder must already exist.
func (s *Store) Write(folder, name string, doc json.RawMessage) error {
	path, ok := s.docPath(folder, name)
	if !ok {
		return badPath(folder, name, types.ErrInvalidState)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return fmt.Errorf("write %s: %w: %w", path, types.ErrInvalidState, err)
	}
	buf.WriteByte('\n')
	if err := atomic.WriteFile(path, &buf); err != nil {
		return ioFailure("write", path, err)
	}
	return nil
}

// CreateFolder creates folder/name and any missing parents.
func (s *Store) CreateFolder(folder, name string) error {
	path, ok := s.resolve(folder, name)
	if !ok || name == "" {
		return badPath(folder, name, types.ErrInvalidState)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return ioFailure("mkdir", path, err)
	}
	return nil
}

// Delete removes the document folder/name.
func (s *Store) Delete(folder, name string) error {
	path, ok := s.docPath(folder, name)
	if !ok {
		return badPath(folder, name, types.ErrNotFound)
	}
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("document %s: %w", path, types.ErrNotFound)
	}
	if err != nil {
		return ioFailure("delete", path, err)
	}
	return nil
}

// DeleteFolder removes folder/name, and everything in it when recursive.
func (s *Store) DeleteFolder(folder, name string, recursive bool) error {
	path, ok := s.resolve(folder, name)
	if !ok || name == "" {
		return badPath(folder, name, types.ErrNotFound)
	}
	if ok, err := s.stat(path, true); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("folder %s: %w", path, types.ErrNotFound)
	}
	var err error
	if recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return ioFailure("delete", path, err)
	}
	return nil
}

// MoveDocument moves srcFolder/name to dstFolder/newName. The destination
// must not exist.
func (s *Store) MoveDocument(srcFolder, name, dstFolder, newName string) error {
	src, ok := s.docPath(srcFolder, name)
	if !ok {
		return badPath(srcFolder, name, types.ErrNotFound)
	}
	dst, ok := s.docPath(dstFolder, newName)
	if !ok {
		return badPath(dstFolder, newName, types.ErrInvalidState)
	}
	if src == dst {
		return nil
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("move %s: %w: %s", src, types.ErrAlreadyExists, dst)
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("document %s: %w", src, types.ErrNotFound)
		}
		return ioFailure("move", src, err)
	}
	return nil
}

// MoveFolder moves the folder at src to dst, creating the parent of dst.
func (s *Store) MoveFolder(src, dst string) error {
	from, ok := s.resolve(src)
	if !ok || src == "" {
		return badPath(src, "", types.ErrNotFound)
	}
	to, ok := s.resolve(dst)
	if !ok || dst == "" {
		return badPath(dst, "", types.ErrInvalidState)
	}
	if from == to {
		return nil
	}
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("move %s: %w: %s", from, types.ErrAlreadyExists, to)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return ioFailure("mkdir", filepath.Dir(to), err)
	}
	if err := os.Rename(from, to); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("folder %s: %w", from, types.ErrNotFound)
		}
		return ioFailure("move", from, err)
	}
	return nil
}

// ListFolders returns the sorted child folder names of folder, skipping
// hidden ones. A missing folder has no children.
func (s *Store) ListFolders(folder string) ([]string, error) {
	return s.list(folder, func(e fs.DirEntry) (string, bool) {
		return e.Name(), e.IsDir()
	})
}

// ListDocuments returns the sorted document names in folder.
func (s *Store) ListDocuments(folder string) ([]string, error) {
	return s.list(folder, func(e fs.DirEntry) (string, bool) {
		if e.IsDir() || !strings.HasSuffix(e.Name(), docExt) {
			return "", false
		}
		return strings.TrimSuffix(e.Name(), docExt), true
	})
}

func (s *Store) list(folder string, keep func(fs.DirEntry) (string, bool)) ([]string, error) {
	path, ok := s.resolve(folder)
	if !ok {
		return []string{}, nil
	}
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, ioFailure("list", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if name, ok := keep(e); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Location returns the file URI of the folder at path.
func (s *Store) Location(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.root, filepath.FromSlash(path)))}
	return u.String()
}

// Close is a no-op; the filesystem store holds no resources.
func (s *Store) Close() error {
	return nil
}
