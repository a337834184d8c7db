// Package storage persists versioned JSON documents keyed by (kind, id).
package storage

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store keeps one JSON payload per (kind, id) with a version that grows
// on every write.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore uses the resource_state table created by db.Open.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the payload and version of a resource, or nil and 0 when
// there is none.
func (s *Store) Get(kind, id string) (payload []byte, version int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payloadStr string
	err = s.db.QueryRow(`
		SELECT payload, version FROM resource_state
		WHERE kind = ? AND id = ?
	`, kind, id).Scan(&payloadStr, &version)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return []byte(payloadStr), version, nil
}

// Set upserts the payload and bumps the version.
func (s *Store) Set(kind, id string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO resource_state (kind, id, payload, version, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			payload = excluded.payload,
			version = version + 1,
			updated_at = excluded.updated_at
	`, kind, id, string(payload), time.Now().UTC().Unix())
	if err != nil {
		return err
	}

	log.Debug().Str("kind", kind).Str("id", id).Msg("State stored")
	return nil
}

// Delete removes one resource.
func (s *Store) Delete(kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM resource_state WHERE kind = ? AND id = ?`, kind, id)
	return err
}

// Clear removes every resource of a kind, or everything when kind is empty.
func (s *Store) Clear(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if kind == "" {
		_, err = s.db.Exec(`DELETE FROM resource_state`)
	} else {
		_, err = s.db.Exec(`DELETE FROM resource_state WHERE kind = ?`, kind)
	}
	return err
}

// GetAll returns payloads and versions of every resource of a kind.
func (s *Store) GetAll(kind string) (map[string][]byte, map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, payload, version FROM resource_state WHERE kind = ?`, kind)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	payloads := make(map[string][]byte)
	versions := make(map[string]int64)
	for rows.Next() {
		var id, payloadStr string
		var version int64
		if err := rows.Scan(&id, &payloadStr, &version); err != nil {
			return nil, nil, err
		}
		payloads[id] = []byte(payloadStr)
		versions[id] = version
	}
	return payloads, versions, rows.Err()
}
