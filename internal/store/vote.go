package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/sync/errgroup"

	"github.com/quorumapp/quorum-server/internal/domain"
	apperrors "github.com/quorumapp/quorum-server/internal/errors"
	"github.com/quorumapp/quorum-server/internal/id"
)

// Key prefixes for the vote ledger and its cached aggregates.
//
// The ledger key embeds (targetType, targetID, userID), so a user can hold at
// most one live vote per target by construction: changing a vote overwrites
// the row, cancelling deletes it. The count row for a target is written in
// the same transaction as every ledger transition, which keeps reads of the
// aggregate linearizable with the writes that produced it.
const (
	votePrefix      = "vote:"      // vote:{targetType}:{targetID}:{userID} → Vote JSON
	voteCountPrefix = "votecount:" // votecount:{targetType}:{targetID} → VoteCount JSON
)

// recountConcurrency bounds parallel per-target repairs in RecountAllVotes.
const recountConcurrency = 4

func voteKey(targetType domain.TargetType, targetID, userID string) []byte {
	return []byte(votePrefix + string(targetType) + ":" + targetID + ":" + userID)
}

func voteCountKey(targetType domain.TargetType, targetID string) []byte {
	return []byte(voteCountPrefix + string(targetType) + ":" + targetID)
}

// targetKey maps a vote target to its entity record key.
func targetKey(targetType domain.TargetType, targetID string) []byte {
	if targetType == domain.TargetAnswer {
		return []byte(answerPrefix + targetID)
	}
	return []byte(questionPrefix + targetID)
}

// ApplyVote records or changes userID's vote on a target and returns the
// updated aggregate. Re-casting the same vote type is a no-op; casting the
// opposite type moves the existing vote. Ledger row and count row commit
// together.
func (s *Store) ApplyVote(ctx context.Context, userID, targetID string, targetType domain.TargetType, voteType domain.VoteType) (*domain.VoteCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var count domain.VoteCount
	err := s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, targetKey(targetType, targetID))
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFoundf("%s %s not found", strings.ToLower(string(targetType)), targetID)
		}

		key := voteKey(targetType, targetID, userID)

		var existing domain.Vote
		err = getJSON(txn, key, &existing)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// First vote on this target.
			voteID, err := id.Generate(id.PrefixVote)
			if err != nil {
				return err
			}
			vote := domain.Vote{
				ID:         voteID,
				UserID:     userID,
				TargetID:   targetID,
				TargetType: targetType,
				VoteType:   voteType,
				CreatedAt:  time.Now(),
			}
			if err := setJSON(txn, key, &vote); err != nil {
				return err
			}
			return bumpVoteCount(txn, targetType, targetID, voteType, 1, &count)

		case err != nil:
			return err

		case existing.VoteType == voteType:
			// Idempotent re-cast; just report the current aggregate.
			return readVoteCount(txn, targetType, targetID, &count)

		default:
			// Vote change: the old direction loses one, the new gains one.
			existing.VoteType = voteType
			existing.CreatedAt = time.Now()
			if err := setJSON(txn, key, &existing); err != nil {
				return err
			}
			if err := bumpVoteCount(txn, targetType, targetID, voteType.Opposite(), -1, nil); err != nil {
				return err
			}
			return bumpVoteCount(txn, targetType, targetID, voteType, 1, &count)
		}
	})
	if err != nil {
		return nil, err
	}
	return &count, nil
}

// CancelVote removes userID's live vote on a target, if any, and returns the
// updated aggregate. Cancelling when no vote exists is a no-op.
func (s *Store) CancelVote(ctx context.Context, userID, targetID string, targetType domain.TargetType) (*domain.VoteCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var count domain.VoteCount
	err := s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, targetKey(targetType, targetID))
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFoundf("%s %s not found", strings.ToLower(string(targetType)), targetID)
		}

		key := voteKey(targetType, targetID, userID)

		var existing domain.Vote
		err = getJSON(txn, key, &existing)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return readVoteCount(txn, targetType, targetID, &count)
		}
		if err != nil {
			return err
		}

		if err := txn.Delete(key); err != nil {
			return err
		}
		return bumpVoteCount(txn, targetType, targetID, existing.VoteType, -1, &count)
	})
	if err != nil {
		return nil, err
	}
	return &count, nil
}

// GetVote returns userID's live vote on a target, or a not-found error.
func (s *Store) GetVote(ctx context.Context, userID, targetID string, targetType domain.TargetType) (*domain.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var vote domain.Vote
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, voteKey(targetType, targetID, userID), &vote)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFound("no vote recorded for this target")
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// GetVoteCount returns the cached aggregate for a target. A target with no
// recorded votes reports zeros.
func (s *Store) GetVoteCount(ctx context.Context, targetID string, targetType domain.TargetType) (domain.VoteCount, error) {
	var count domain.VoteCount
	if err := ctx.Err(); err != nil {
		return count, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		return readVoteCount(txn, targetType, targetID, &count)
	})
	if err != nil {
		return domain.VoteCount{}, err
	}
	return count, nil
}

// readVoteCount loads the count row into dest, treating absence as zeros.
func readVoteCount(txn *badger.Txn, targetType domain.TargetType, targetID string, dest *domain.VoteCount) error {
	err := getJSON(txn, voteCountKey(targetType, targetID), dest)
	if errors.Is(err, badger.ErrKeyNotFound) {
		*dest = domain.VoteCount{}
		return nil
	}
	return err
}

// bumpVoteCount applies delta to one direction of a target's count row
// within txn, flooring at zero. When dest is non-nil it receives the
// written aggregate.
func bumpVoteCount(txn *badger.Txn, targetType domain.TargetType, targetID string, voteType domain.VoteType, delta int, dest *domain.VoteCount) error {
	var count domain.VoteCount
	if err := readVoteCount(txn, targetType, targetID, &count); err != nil {
		return err
	}

	switch voteType {
	case domain.Upvote:
		count.Upvotes += delta
		if count.Upvotes < 0 {
			count.Upvotes = 0
		}
	case domain.Downvote:
		count.Downvotes += delta
		if count.Downvotes < 0 {
			count.Downvotes = 0
		}
	}

	if err := setJSON(txn, voteCountKey(targetType, targetID), &count); err != nil {
		return err
	}
	if dest != nil {
		*dest = count
	}
	return nil
}

// RecountVotes rebuilds a target's cached aggregate from the ledger in one
// transaction and returns the repaired counts.
func (s *Store) RecountVotes(ctx context.Context, targetID string, targetType domain.TargetType) (domain.VoteCount, error) {
	var count domain.VoteCount
	if err := ctx.Err(); err != nil {
		return count, err
	}

	err := s.update(func(txn *badger.Txn) error {
		count = domain.VoteCount{}

		prefix := []byte(votePrefix + string(targetType) + ":" + targetID + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var vote domain.Vote
			if err := it.Item().Value(func(val []byte) error {
				return unmarshalJSON(val, &vote)
			}); err != nil {
				return err
			}
			switch vote.VoteType {
			case domain.Upvote:
				count.Upvotes++
			case domain.Downvote:
				count.Downvotes++
			}
		}

		return setJSON(txn, voteCountKey(targetType, targetID), &count)
	})
	if err != nil {
		return domain.VoteCount{}, err
	}

	if s.logger != nil {
		s.logger.Info("Rebuilt vote counts",
			"targetType", targetType,
			"targetId", targetID,
			"upvotes", count.Upvotes,
			"downvotes", count.Downvotes)
	}
	return count, nil
}

// RecountAllVotes repairs the cached aggregate of every target that has a
// ledger row or a count row. Targets repair concurrently; each repair is
// its own transaction.
func (s *Store) RecountAllVotes(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	type target struct {
		targetType domain.TargetType
		targetID   string
	}
	targets := make(map[target]bool)

	err := s.db.View(func(txn *badger.Txn) error {
		collect := func(prefix string) error {
			return iteratePrefix(txn, []byte(prefix), func(key []byte) error {
				rest := string(key[len(prefix):])
				parts := strings.SplitN(rest, ":", 3)
				if len(parts) < 2 {
					return nil
				}
				tt := domain.TargetType(parts[0])
				if !tt.Valid() {
					return nil
				}
				targets[target{targetType: tt, targetID: parts[1]}] = true
				return nil
			})
		}
		if err := collect(votePrefix); err != nil {
			return err
		}
		return collect(voteCountPrefix)
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recountConcurrency)
	for t := range targets {
		g.Go(func() error {
			_, err := s.RecountVotes(gctx, t.targetID, t.targetType)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("Vote recount sweep complete", "targets", len(targets))
	}
	return nil
}
