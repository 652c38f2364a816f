package store

import (
	"context"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/quorumapp/quorum-server/internal/domain"
	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

// Key prefixes for question storage.
const (
	questionPrefix          = "question:"            // question:{id} → Question JSON
	questionsByAuthorPrefix = "idx:questions:author:" // idx:questions:author:{userID}:{questionID} → questionID
)

// CreateQuestion persists a new question, verifies every referenced tag,
// links the tag membership indexes and bumps each tag's question count, all
// in one transaction.
func (s *Store) CreateQuestion(ctx context.Context, q *domain.Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		for _, tagID := range q.TagIDs {
			if err := adjustTagQuestionCount(txn, tagID, 1); err != nil {
				return err
			}
			if err := setTagQuestionLink(txn, tagID, q.ID); err != nil {
				return err
			}
		}

		if err := setJSON(txn, []byte(questionPrefix+q.ID), q); err != nil {
			return err
		}
		return txn.Set([]byte(questionsByAuthorPrefix+q.AuthorID+":"+q.ID), []byte(q.ID))
	})
}

// adjustTagQuestionCount applies delta to a tag's denormalized count within
// txn, flooring at zero. Missing tags are a not-found error.
func adjustTagQuestionCount(txn *badger.Txn, tagID string, delta int) error {
	var t domain.Tag
	if err := getJSON(txn, []byte(tagPrefix+tagID), &t); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.NotFoundf("tag %s not found", tagID)
		}
		return err
	}

	t.QuestionCount += delta
	if t.QuestionCount < 0 {
		t.QuestionCount = 0
	}
	t.Touch()
	return setJSON(txn, []byte(tagPrefix+tagID), &t)
}

// GetQuestion retrieves a question by ID.
func (s *Store) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var q domain.Question
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, []byte(questionPrefix+questionID), &q)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFoundf("question %s not found", questionID)
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// QuestionUpdate carries the mutable question fields; nil pointers leave the
// field untouched.
type QuestionUpdate struct {
	Title    *string
	Content  *string
	TagIDs   *[]string
	ImageIDs *[]string
}

// UpdateQuestion applies a partial update. When the tag set changes, the
// membership indexes and per-tag counts move in the same transaction.
func (s *Store) UpdateQuestion(ctx context.Context, questionID string, upd QuestionUpdate) (*domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated domain.Question
	err := s.update(func(txn *badger.Txn) error {
		var q domain.Question
		if err := getJSON(txn, []byte(questionPrefix+questionID), &q); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NotFoundf("question %s not found", questionID)
			}
			return err
		}

		if upd.Title != nil {
			q.Title = *upd.Title
		}
		if upd.Content != nil {
			q.Content = *upd.Content
		}
		if upd.ImageIDs != nil {
			q.ImageIDs = *upd.ImageIDs
		}
		if upd.TagIDs != nil {
			if err := retagQuestion(txn, &q, *upd.TagIDs); err != nil {
				return err
			}
		}

		q.Touch()
		if err := setJSON(txn, []byte(questionPrefix+q.ID), &q); err != nil {
			return err
		}
		updated = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// retagQuestion replaces q's tag set within txn, adjusting membership
// indexes and counts only for tags that actually enter or leave.
func retagQuestion(txn *badger.Txn, q *domain.Question, newTagIDs []string) error {
	old := make(map[string]bool, len(q.TagIDs))
	for _, tagID := range q.TagIDs {
		old[tagID] = true
	}

	next := make([]string, 0, len(newTagIDs))
	seen := make(map[string]bool, len(newTagIDs))
	for _, tagID := range newTagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true
		next = append(next, tagID)

		if !old[tagID] {
			if err := adjustTagQuestionCount(txn, tagID, 1); err != nil {
				return err
			}
			if err := setTagQuestionLink(txn, tagID, q.ID); err != nil {
				return err
			}
		}
	}

	for tagID := range old {
		if !seen[tagID] {
			if err := adjustTagQuestionCount(txn, tagID, -1); err != nil {
				return err
			}
			if err := deleteTagQuestionLink(txn, tagID, q.ID); err != nil {
				return err
			}
		}
	}

	q.TagIDs = next
	return nil
}

// DeleteQuestion removes a question, its author index and its tag
// memberships (decrementing counts) in one transaction. Answers and votes
// referencing it are left in place; readers tolerate the dangling links.
func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		var q domain.Question
		if err := getJSON(txn, []byte(questionPrefix+questionID), &q); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NotFoundf("question %s not found", questionID)
			}
			return err
		}

		for _, tagID := range q.TagIDs {
			if err := adjustTagQuestionCount(txn, tagID, -1); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if err := deleteTagQuestionLink(txn, tagID, questionID); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(questionsByAuthorPrefix + q.AuthorID + ":" + questionID)); err != nil {
			return err
		}
		return txn.Delete([]byte(questionPrefix + questionID))
	})
}

// QuestionFilter narrows a question listing. Zero values mean "no
// constraint"; TagMatch defaults to ANY when TagIDs is set.
type QuestionFilter struct {
	TagIDs   []string
	TagMatch domain.TagMatch
	AuthorID string
}

func (f QuestionFilter) matches(q *domain.Question) bool {
	if f.AuthorID != "" && q.AuthorID != f.AuthorID {
		return false
	}
	if len(f.TagIDs) == 0 {
		return true
	}
	if f.TagMatch == domain.TagMatchAll {
		return q.HasAllTags(f.TagIDs)
	}
	return q.HasAnyTag(f.TagIDs)
}

// ListQuestions returns one page of questions matching filter, ordered by
// creation time in the requested direction with ID as the tiebreak. The
// page envelope always reflects the filtered total, and an out-of-range
// page clamps rather than erroring.
func (s *Store) ListQuestions(ctx context.Context, filter QuestionFilter, params domain.PageParams) (*domain.Page[*domain.Question], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matched []*domain.Question
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(questionPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var q domain.Question
			if err := it.Item().Value(func(val []byte) error {
				return unmarshalJSON(val, &q)
			}); err != nil {
				return err
			}
			if filter.matches(&q) {
				question := q
				matched = append(matched, &question)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortQuestions(matched, params.Sort)
	return paginate(matched, params), nil
}

// sortQuestions orders by CreatedAt in the given direction, breaking ties
// by ID ascending so equal timestamps still page deterministically.
func sortQuestions(questions []*domain.Question, order domain.SortOrder) {
	sort.Slice(questions, func(i, j int) bool {
		a, b := questions[i], questions[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if order == domain.SortAsc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// paginate slices one page out of the full ordered result set.
func paginate[T any](items []T, params domain.PageParams) *domain.Page[T] {
	total := len(items)
	totalPages := domain.TotalPages(total, params.Limit)
	page := domain.ClampPage(params.Page, totalPages)

	start, end := domain.PageSlice(total, page, params.Limit)
	return &domain.Page[T]{
		Items:       items[start:end],
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}
}
