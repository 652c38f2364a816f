package service

import (
	"time"

	"github.com/quorumapp/quorum-server/internal/domain"
)

// TagRef is the compact tag projection embedded in content views.
type TagRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// QuestionView is a question enriched for reading: resolved tags, image URLs
// and the current vote aggregate.
type QuestionView struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	AuthorID  string           `json:"authorId"`
	Tags      []TagRef         `json:"tags"`
	ImageURLs []string         `json:"imageUrls,omitempty"`
	Votes     domain.VoteCount `json:"votes"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// AnswerView is an answer enriched for reading.
type AnswerView struct {
	ID         string           `json:"id"`
	QuestionID string           `json:"questionId"`
	Content    string           `json:"content"`
	AuthorID   string           `json:"authorId"`
	ImageURLs  []string         `json:"imageUrls,omitempty"`
	Votes      domain.VoteCount `json:"votes"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}
