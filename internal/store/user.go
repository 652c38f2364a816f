package store

import (
	"context"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/quorumapp/quorum-server/internal/domain"
	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

// Key prefixes for user storage.
const (
	userPrefix        = "user:"            // user:{id} → User JSON
	userByEmailPrefix = "idx:users:email:" // idx:users:email:{lower(email)} → userID
)

// CreateUser creates a new user. Email uniqueness is case-insensitive.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		emailKey := []byte(userByEmailPrefix + strings.ToLower(u.Email))
		taken, err := exists(txn, emailKey)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.AlreadyExists("email already in use")
		}

		if err := setJSON(txn, []byte(userPrefix+u.ID), u); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(u.ID))
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var u domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, []byte(userPrefix+userID), &u)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFoundf("user %s not found", userID)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userByEmailPrefix + strings.ToLower(email)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, userID)
}

// UserExists reports whether a user ID resolves.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = exists(txn, []byte(userPrefix+userID))
		return err
	})
	return found, err
}
