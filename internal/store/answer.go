package store

import (
	"context"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/quorumapp/quorum-server/internal/domain"
	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

// Key prefixes for answer storage.
const (
	answerPrefix            = "answer:"               // answer:{id} → Answer JSON
	answersByQuestionPrefix = "idx:answers:question:" // idx:answers:question:{questionID}:{answerID} → answerID
	answersByAuthorPrefix   = "idx:answers:author:"   // idx:answers:author:{userID}:{answerID} → answerID
)

// CreateAnswer persists a new answer after verifying the parent question
// still exists, in one transaction.
func (s *Store) CreateAnswer(ctx context.Context, a *domain.Answer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, []byte(questionPrefix+a.QuestionID))
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFoundf("question %s not found", a.QuestionID)
		}

		if err := setJSON(txn, []byte(answerPrefix+a.ID), a); err != nil {
			return err
		}
		if err := txn.Set([]byte(answersByQuestionPrefix+a.QuestionID+":"+a.ID), []byte(a.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(answersByAuthorPrefix+a.AuthorID+":"+a.ID), []byte(a.ID))
	})
}

// GetAnswer retrieves an answer by ID.
func (s *Store) GetAnswer(ctx context.Context, answerID string) (*domain.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var a domain.Answer
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, []byte(answerPrefix+answerID), &a)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFoundf("answer %s not found", answerID)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAnswerContent replaces an answer's content and images.
func (s *Store) UpdateAnswerContent(ctx context.Context, answerID string, content *string, imageIDs *[]string) (*domain.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated domain.Answer
	err := s.update(func(txn *badger.Txn) error {
		var a domain.Answer
		if err := getJSON(txn, []byte(answerPrefix+answerID), &a); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NotFoundf("answer %s not found", answerID)
			}
			return err
		}

		if content != nil {
			a.Content = *content
		}
		if imageIDs != nil {
			a.ImageIDs = *imageIDs
		}
		a.Touch()

		if err := setJSON(txn, []byte(answerPrefix+a.ID), &a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAnswer removes an answer and its indexes. Votes on the answer are
// left behind; readers tolerate the dangling target.
func (s *Store) DeleteAnswer(ctx context.Context, answerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		var a domain.Answer
		if err := getJSON(txn, []byte(answerPrefix+answerID), &a); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NotFoundf("answer %s not found", answerID)
			}
			return err
		}

		if err := txn.Delete([]byte(answersByQuestionPrefix + a.QuestionID + ":" + answerID)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(answersByAuthorPrefix + a.AuthorID + ":" + answerID)); err != nil {
			return err
		}
		return txn.Delete([]byte(answerPrefix + answerID))
	})
}

// AnswerFilter narrows an answer listing. At least one of QuestionID or
// AuthorID must be set; the service layer enforces that before calling.
type AnswerFilter struct {
	QuestionID string
	AuthorID   string
}

// ListAnswers returns one page of answers matching filter, ordered by
// creation time with ID as the tiebreak. When QuestionID is set the
// question must resolve.
func (s *Store) ListAnswers(ctx context.Context, filter AnswerFilter, params domain.PageParams) (*domain.Page[*domain.Answer], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matched []*domain.Answer
	err := s.db.View(func(txn *badger.Txn) error {
		if filter.QuestionID != "" {
			found, err := exists(txn, []byte(questionPrefix+filter.QuestionID))
			if err != nil {
				return err
			}
			if !found {
				return apperrors.NotFoundf("question %s not found", filter.QuestionID)
			}
		}

		// Walk the narrower index when one is available.
		var prefix []byte
		switch {
		case filter.QuestionID != "":
			prefix = []byte(answersByQuestionPrefix + filter.QuestionID + ":")
		case filter.AuthorID != "":
			prefix = []byte(answersByAuthorPrefix + filter.AuthorID + ":")
		default:
			prefix = []byte(answerPrefix)
		}

		var answerIDs []string
		if err := iteratePrefix(txn, prefix, func(key []byte) error {
			answerIDs = append(answerIDs, string(key[len(prefix):]))
			return nil
		}); err != nil {
			return err
		}

		for _, answerID := range answerIDs {
			var a domain.Answer
			if err := getJSON(txn, []byte(answerPrefix+answerID), &a); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			if filter.QuestionID != "" && a.QuestionID != filter.QuestionID {
				continue
			}
			if filter.AuthorID != "" && a.AuthorID != filter.AuthorID {
				continue
			}
			answer := a
			matched = append(matched, &answer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if params.Sort == domain.SortAsc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	return paginate(matched, params), nil
}
