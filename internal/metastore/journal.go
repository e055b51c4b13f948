package metastore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/metastore/pkg/types"
)

// Journal kinds.
const (
	JournalAccountRename = "account-rename"
	JournalWorkspaceMove = "workspace-move"
)

// JournalEntry records a multi-document operation in progress. Entries left
// behind after a crash name the operation that did not finish; the store
// never replays them.
type JournalEntry struct {
	ID      string    `json:"Id"`
	Kind    string    `json:"Kind"`
	From    string    `json:"From"`
	To      string    `json:"To"`
	Started time.Time `json:"Started"`
}

func (s *Store) beginJournal(kind, from, to string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("journal id: %w", err)
	}
	entry := JournalEntry{ID: id.String(), Kind: kind, From: from, To: to, Started: time.Now().UTC()}
	if err := s.docs.CreateFolder("", journalFolder); err != nil {
		return "", err
	}
	if err := s.writeJSON(journalFolder, entry.ID, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (s *Store) endJournal(id string) {
	if err := s.docs.Delete(journalFolder, id); err != nil {
		s.log.Error().Err(err).Str("journal", id).Msg("journal entry not removed")
	}
}

// Journal returns the operations that started but never finished, oldest
// first.
func (s *Store) Journal() (entries []JournalEntry, err error) {
	defer s.observe("journal", time.Now(), &err)
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	names, err := s.docs.ListDocuments(journalFolder)
	if err != nil {
		return nil, err
	}
	entries = []JournalEntry{}
	for _, name := range names {
		var e JournalEntry
		if err := s.readJSON(journalFolder, name, &e); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
