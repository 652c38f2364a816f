package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/quorumapp/quorum-server/internal/domain"
	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

// Key prefixes for tag storage.
const (
	tagPrefix          = "tag:"                // tag:{id} → Tag JSON
	tagByNamePrefix    = "idx:tags:name:"      // idx:tags:name:{lower(name)} → tagID
	tagBySlugPrefix    = "idx:tags:slug:"      // idx:tags:slug:{slug} → tagID
	tagQuestionsPrefix = "idx:tags:questions:" // idx:tags:questions:{tagID}:{questionID} → questionID
)

// maxSlugAttempts bounds numeric-suffix disambiguation when deriving a free
// slug from a tag name.
const maxSlugAttempts = 1000

// CreateTag persists a new tag. The caller supplies ID, timestamps and the
// base slug; name uniqueness (case-insensitive), slug disambiguation, parent
// resolution and acyclicity are all checked inside one transaction.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		nameKey := []byte(tagByNamePrefix + strings.ToLower(t.Name))
		taken, err := exists(txn, nameKey)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.AlreadyExistsf("tag named %q already exists", t.Name)
		}

		if t.ParentTagID != "" {
			if err := checkParentLink(txn, t.ID, t.ParentTagID); err != nil {
				return err
			}
		}

		slug, err := freeSlug(txn, t.Slug)
		if err != nil {
			return err
		}
		t.Slug = slug

		if err := setJSON(txn, []byte(tagPrefix+t.ID), t); err != nil {
			return err
		}
		if err := txn.Set(nameKey, []byte(t.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(tagBySlugPrefix+t.Slug), []byte(t.ID))
	})
}

// TagUpdate carries the mutable tag fields; nil pointers leave the field
// untouched.
type TagUpdate struct {
	Name        *string
	Description *string
	Synonyms    *[]string
	ParentTagID *string
}

// UpdateTag applies a partial update to a tag. Renames re-derive the slug
// (with disambiguation) and move the name and slug indexes; re-parenting
// re-validates acyclicity against the hierarchy as of this transaction.
func (s *Store) UpdateTag(ctx context.Context, tagID string, upd TagUpdate, baseSlug func(name string) string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated domain.Tag
	err := s.update(func(txn *badger.Txn) error {
		var t domain.Tag
		if err := getJSON(txn, []byte(tagPrefix+tagID), &t); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NotFoundf("tag %s not found", tagID)
			}
			return err
		}

		if upd.Name != nil && !strings.EqualFold(*upd.Name, t.Name) {
			newNameKey := []byte(tagByNamePrefix + strings.ToLower(*upd.Name))
			taken, err := exists(txn, newNameKey)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.AlreadyExistsf("tag named %q already exists", *upd.Name)
			}

			slug, err := freeSlug(txn, baseSlug(*upd.Name))
			if err != nil {
				return err
			}

			if err := txn.Delete([]byte(tagByNamePrefix + strings.ToLower(t.Name))); err != nil {
				return err
			}
			if err := txn.Delete([]byte(tagBySlugPrefix + t.Slug)); err != nil {
				return err
			}
			if err := txn.Set(newNameKey, []byte(t.ID)); err != nil {
				return err
			}
			if err := txn.Set([]byte(tagBySlugPrefix+slug), []byte(t.ID)); err != nil {
				return err
			}

			t.Name = *upd.Name
			t.Slug = slug
		} else if upd.Name != nil {
			// Case-only rename keeps the slug and moves no indexes.
			t.Name = *upd.Name
		}

		if upd.Description != nil {
			t.Description = *upd.Description
		}
		if upd.Synonyms != nil {
			t.Synonyms = *upd.Synonyms
		}
		if upd.ParentTagID != nil && *upd.ParentTagID != t.ParentTagID {
			if *upd.ParentTagID != "" {
				if err := checkParentLink(txn, t.ID, *upd.ParentTagID); err != nil {
					return err
				}
			}
			t.ParentTagID = *upd.ParentTagID
		}

		t.Touch()
		if err := setJSON(txn, []byte(tagPrefix+t.ID), &t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// checkParentLink validates that parentID resolves and that parenting tagID
// under it keeps the hierarchy acyclic. Self-parenting is the degenerate
// cycle. The ancestor walk carries a visited set so pre-existing corrupt
// loops terminate instead of spinning.
func checkParentLink(txn *badger.Txn, tagID, parentID string) error {
	if parentID == tagID {
		return apperrors.Cycle("tag cannot be its own parent")
	}

	visited := map[string]bool{tagID: true}
	current := parentID
	for current != "" {
		if visited[current] {
			return apperrors.Cyclef("parenting under %s would create a cycle", parentID)
		}
		visited[current] = true

		var t domain.Tag
		if err := getJSON(txn, []byte(tagPrefix+current), &t); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				if current == parentID {
					return apperrors.NotFoundf("parent tag %s not found", parentID)
				}
				// Dangling ancestor link; the chain ends here.
				return nil
			}
			return err
		}
		current = t.ParentTagID
	}
	return nil
}

// freeSlug returns base if unclaimed, otherwise the first base-N (N ≥ 2)
// that is.
func freeSlug(txn *badger.Txn, base string) (string, error) {
	candidate := base
	for i := 2; i <= maxSlugAttempts; i++ {
		taken, err := exists(txn, []byte(tagBySlugPrefix+candidate))
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", apperrors.Conflictf("could not find a free slug for %q", base)
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, []byte(tagPrefix+tagID), &t)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFoundf("tag %s not found", tagID)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTagBySlug retrieves a tag by its slug.
func (s *Store) GetTagBySlug(ctx context.Context, slug string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tagBySlugPrefix + slug))
		if err != nil {
			return err
		}
		var tagID string
		if err := item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, []byte(tagPrefix+tagID), &t)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFoundf("tag with slug %q not found", slug)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTags resolves a set of tag IDs; any miss is a not-found error naming
// the offending ID.
func (s *Store) GetTags(ctx context.Context, tagIDs []string) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tags := make([]*domain.Tag, 0, len(tagIDs))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, tagID := range tagIDs {
			var t domain.Tag
			if err := getJSON(txn, []byte(tagPrefix+tagID), &t); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return apperrors.NotFoundf("tag %s not found", tagID)
				}
				return err
			}
			tags = append(tags, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// ListTags returns all tags ordered by question count descending, name
// ascending as the tiebreak.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.scanTags(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].QuestionCount != tags[j].QuestionCount {
			return tags[i].QuestionCount > tags[j].QuestionCount
		}
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
	return tags, nil
}

// SearchTags returns tags whose name or synonyms match keyword, best matches
// first: name prefix, name substring, synonym prefix, synonym infix. Ties
// order by name.
func (s *Store) SearchTags(ctx context.Context, keyword string) ([]*domain.Tag, error) {
	tags, err := s.scanTags(ctx)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		tag  *domain.Tag
		rank int
	}
	matches := make([]ranked, 0, len(tags))
	for _, t := range tags {
		if rank := t.MatchRank(keyword); rank != domain.MatchNone {
			matches = append(matches, ranked{tag: t, rank: rank})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return strings.ToLower(matches[i].tag.Name) < strings.ToLower(matches[j].tag.Name)
	})

	result := make([]*domain.Tag, len(matches))
	for i, m := range matches {
		result[i] = m.tag
	}
	return result, nil
}

// scanTags loads every tag record in one snapshot.
func (s *Store) scanTags(ctx context.Context) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tags []*domain.Tag
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(tagPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var t domain.Tag
			if err := it.Item().Value(func(val []byte) error {
				return unmarshalJSON(val, &t)
			}); err != nil {
				return err
			}
			tags = append(tags, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// DeleteTag removes a tag, its indexes, and its membership on every question
// that carries it, all in one transaction. Child tags keep their (now
// dangling) parent link; votes and questions themselves are untouched.
func (s *Store) DeleteTag(ctx context.Context, tagID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		var t domain.Tag
		if err := getJSON(txn, []byte(tagPrefix+tagID), &t); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NotFoundf("tag %s not found", tagID)
			}
			return err
		}

		questionIDs, err := tagQuestionIDs(txn, tagID)
		if err != nil {
			return err
		}
		for _, qID := range questionIDs {
			var q domain.Question
			if err := getJSON(txn, []byte(questionPrefix+qID), &q); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue // stale index row, drop it below
				}
				return err
			}
			if q.RemoveTag(tagID) {
				q.Touch()
				if err := setJSON(txn, []byte(questionPrefix+qID), &q); err != nil {
					return err
				}
			}
			if err := deleteTagQuestionLink(txn, tagID, qID); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(tagByNamePrefix + strings.ToLower(t.Name))); err != nil {
			return err
		}
		if err := txn.Delete([]byte(tagBySlugPrefix + t.Slug)); err != nil {
			return err
		}
		return txn.Delete([]byte(tagPrefix + tagID))
	})
}

// MergeTags folds every source tag into target within one transaction: each
// question tagged with a source is retagged to target (deduplicated), the
// target's question count absorbs the net growth, and the sources vanish
// along with their indexes. Nothing is visible until commit.
func (s *Store) MergeTags(ctx context.Context, sourceIDs []string, targetID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged domain.Tag
	err := s.update(func(txn *badger.Txn) error {
		var target domain.Tag
		if err := getJSON(txn, []byte(tagPrefix+targetID), &target); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NotFoundf("target tag %s not found", targetID)
			}
			return err
		}

		for _, sourceID := range sourceIDs {
			var source domain.Tag
			if err := getJSON(txn, []byte(tagPrefix+sourceID), &source); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return apperrors.NotFoundf("source tag %s not found", sourceID)
				}
				return err
			}

			questionIDs, err := tagQuestionIDs(txn, sourceID)
			if err != nil {
				return err
			}
			for _, qID := range questionIDs {
				var q domain.Question
				if err := getJSON(txn, []byte(questionPrefix+qID), &q); err != nil {
					if errors.Is(err, badger.ErrKeyNotFound) {
						continue
					}
					return err
				}

				changed := q.RemoveTag(sourceID)
				if q.AddTag(targetID) {
					target.QuestionCount++
					if err := setTagQuestionLink(txn, targetID, qID); err != nil {
						return err
					}
					changed = true
				}
				if changed {
					q.Touch()
					if err := setJSON(txn, []byte(questionPrefix+qID), &q); err != nil {
						return err
					}
				}
				if err := deleteTagQuestionLink(txn, sourceID, qID); err != nil {
					return err
				}
			}

			// Children of the source are re-parented to the target so the
			// hierarchy stays connected.
			if err := reparentChildren(txn, sourceID, targetID); err != nil {
				return err
			}

			if err := txn.Delete([]byte(tagByNamePrefix + strings.ToLower(source.Name))); err != nil {
				return err
			}
			if err := txn.Delete([]byte(tagBySlugPrefix + source.Slug)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(tagPrefix + sourceID)); err != nil {
				return err
			}
		}

		// The target may have pointed at a source that no longer exists.
		for _, sourceID := range sourceIDs {
			if target.ParentTagID == sourceID {
				target.ParentTagID = ""
			}
		}

		target.Touch()
		if err := setJSON(txn, []byte(tagPrefix+targetID), &target); err != nil {
			return err
		}
		merged = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

// reparentChildren points every direct child of oldParentID at newParentID.
func reparentChildren(txn *badger.Txn, oldParentID, newParentID string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(tagPrefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var children []*domain.Tag
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		var t domain.Tag
		if err := it.Item().Value(func(val []byte) error {
			return unmarshalJSON(val, &t)
		}); err != nil {
			return err
		}
		if t.ParentTagID == oldParentID {
			tag := t
			children = append(children, &tag)
		}
	}

	for _, child := range children {
		if child.ID == newParentID {
			child.ParentTagID = ""
		} else {
			child.ParentTagID = newParentID
		}
		child.Touch()
		if err := setJSON(txn, []byte(tagPrefix+child.ID), child); err != nil {
			return err
		}
	}
	return nil
}

// RecalculateTagQuestionCount rebuilds a tag's denormalized question count
// from its membership index in one transaction. Returns the repaired count.
func (s *Store) RecalculateTagQuestionCount(ctx context.Context, tagID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int
	err := s.update(func(txn *badger.Txn) error {
		var t domain.Tag
		if err := getJSON(txn, []byte(tagPrefix+tagID), &t); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NotFoundf("tag %s not found", tagID)
			}
			return err
		}

		questionIDs, err := tagQuestionIDs(txn, tagID)
		if err != nil {
			return err
		}

		count = len(questionIDs)
		if t.QuestionCount == count {
			return nil
		}
		t.QuestionCount = count
		t.Touch()
		return setJSON(txn, []byte(tagPrefix+tagID), &t)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// tagQuestionIDs collects the question IDs in a tag's membership index.
func tagQuestionIDs(txn *badger.Txn, tagID string) ([]string, error) {
	prefix := []byte(tagQuestionsPrefix + tagID + ":")
	var ids []string
	err := iteratePrefix(txn, prefix, func(key []byte) error {
		ids = append(ids, string(key[len(prefix):]))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func setTagQuestionLink(txn *badger.Txn, tagID, questionID string) error {
	return txn.Set([]byte(tagQuestionsPrefix+tagID+":"+questionID), []byte(questionID))
}

func deleteTagQuestionLink(txn *badger.Txn, tagID, questionID string) error {
	return txn.Delete([]byte(tagQuestionsPrefix + tagID + ":" + questionID))
}
