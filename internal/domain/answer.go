package domain

import "time"

// Answer is a content entity owned by its author and attached to a parent
// question. Deleting the question does not cascade here: an answer may
// transiently reference a question that no longer exists, and read paths
// treat that as "not found" rather than an error.
type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"questionId"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	ImageIDs   []string  `json:"imageIds,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Touch updates the UpdatedAt timestamp.
func (a *Answer) Touch() {
	a.UpdatedAt = time.Now()
}
