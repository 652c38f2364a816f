// Package store implements the storage collaborator for the Quorum core on
// top of Badger. All cross-entity mutations run inside a single Badger update
// transaction, which is the atomic multi-row apply-or-abort scope the domain
// operations rely on; write conflicts detected by Badger's SSI are retried a
// bounded number of times before surfacing as a conflict error.
package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

// maxTxnRetries bounds retry attempts on transaction conflicts before the
// caller sees a conflict error.
const maxTxnRetries = 5

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying on write conflicts.
// A transaction that is still conflicting after maxTxnRetries surfaces a
// CONFLICT domain error; a transaction too large for one commit does the
// same, because applying it in chunks would expose partial state.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	switch {
	case errors.Is(err, badger.ErrConflict):
		return apperrors.Conflict("concurrent modification, please retry").WithCause(err)
	case errors.Is(err, badger.ErrTxnTooBig):
		return apperrors.Conflict("operation touches too many rows to apply atomically").WithCause(err)
	}
	return err
}

// getJSON reads and unmarshals the value at key into dest within txn.
// Returns badger.ErrKeyNotFound untouched so callers can map it per entity.
func getJSON(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// setJSON marshals value and writes it at key within txn.
func setJSON(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set(key, data)
}

// unmarshalJSON decodes a raw stored value into dest.
func unmarshalJSON(val []byte, dest any) error {
	return json.Unmarshal(val, dest)
}

// exists reports whether key is present within txn.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// iteratePrefix walks all keys under prefix within txn, without prefetching
// values, calling fn with each full key.
func iteratePrefix(txn *badger.Txn, prefix []byte, fn func(key []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := fn(it.Item().KeyCopy(nil)); err != nil {
			return err
		}
	}
	return nil
}
