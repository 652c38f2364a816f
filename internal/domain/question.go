package domain

import "time"

// Question is a content entity owned by its author. The author reference is
// immutable after creation. Tags is a set (unique, order-irrelevant) of tag
// IDs; Images is an ordered list of image references resolved to URLs at read
// time.
type Question struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	TagIDs    []string  `json:"tagIds"`
	ImageIDs  []string  `json:"imageIds,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Touch updates the UpdatedAt timestamp.
func (q *Question) Touch() {
	q.UpdatedAt = time.Now()
}

// HasTag reports whether the question's tag set contains tagID.
func (q *Question) HasTag(tagID string) bool {
	for _, id := range q.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// AddTag adds tagID to the tag set. Returns false if it was already present.
func (q *Question) AddTag(tagID string) bool {
	if q.HasTag(tagID) {
		return false
	}
	q.TagIDs = append(q.TagIDs, tagID)
	return true
}

// RemoveTag removes tagID from the tag set. Returns false if it was absent.
func (q *Question) RemoveTag(tagID string) bool {
	for i, id := range q.TagIDs {
		if id == tagID {
			q.TagIDs = append(q.TagIDs[:i], q.TagIDs[i+1:]...)
			return true
		}
	}
	return false
}

// HasAnyTag reports whether the tag set intersects the given IDs.
func (q *Question) HasAnyTag(tagIDs []string) bool {
	for _, id := range tagIDs {
		if q.HasTag(id) {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the tag set is a superset of the given IDs.
func (q *Question) HasAllTags(tagIDs []string) bool {
	for _, id := range tagIDs {
		if !q.HasTag(id) {
			return false
		}
	}
	return true
}
