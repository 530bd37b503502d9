package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tunermason/SC/internal/domain"
)

const (
	databaseFile = "database.json"

	// DatabaseVersion is written into every saved database.
	DatabaseVersion = "1.0"
)

// ErrNoDatabase is returned by LoadDatabase when nothing has been saved yet.
var ErrNoDatabase = errors.New("no database; run init first")

// DatabaseFileStore keeps the database in a single file, sealed with the
// passphrase when one is given and plain JSON otherwise.
type DatabaseFileStore struct {
	path   string
	params scryptParams
	mu     sync.Mutex
}

// NewDatabaseFileStore returns a store rooted at dir.
func NewDatabaseFileStore(dir string) *DatabaseFileStore {
	return &DatabaseFileStore{path: filepath.Join(dir, databaseFile), params: defaultScryptParams()}
}

// Path returns the database file location.
func (s *DatabaseFileStore) Path() string { return s.path }

// Exists reports whether a database file is present.
func (s *DatabaseFileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// LoadDatabase reads and, if sealed, decrypts the database.
//
// Settings keys absent from the file keep their defaults.
func (s *DatabaseFileStore) LoadDatabase(passphrase string) (domain.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := readFile(s.path)
	if err != nil {
		return domain.Database{}, err
	}
	if raw == nil {
		return domain.Database{}, ErrNoDatabase
	}
	if isSealed(raw) {
		if raw, err = unseal(passphrase, raw); err != nil {
			return domain.Database{}, err
		}
	}

	db := domain.Database{Settings: domain.DefaultSettings()}
	if err := json.Unmarshal(raw, &db); err != nil {
		return domain.Database{}, fmt.Errorf("parse database: %w", err)
	}
	return db, nil
}

// SaveDatabase writes db, sealing it when passphrase is non-empty.
func (s *DatabaseFileStore) SaveDatabase(passphrase string, db domain.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db.Version = DatabaseVersion
	raw, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	if passphrase != "" {
		if raw, err = seal(passphrase, raw, s.params); err != nil {
			return err
		}
	}
	return writeFile(s.path, raw, 0o600)
}

// Compile-time assertion that DatabaseFileStore implements domain.DatabaseStore.
var _ domain.DatabaseStore = (*DatabaseFileStore)(nil)
