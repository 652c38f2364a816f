package domain

import (
	"strings"
	"time"
)

// Tag is a node in the community tag taxonomy.
// Names are unique case-insensitively; the slug is derived from the name and
// is the URL-facing identifier. ParentTagID is a weak reference forming a
// forest — the ancestor chain is always finite and acyclic.
// QuestionCount is denormalized and counts direct tag membership only: a
// question tagged with a child does not increment the parent's count.
type Tag struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	Synonyms      []string  `json:"synonyms,omitempty"`
	ParentTagID   string    `json:"parentTagId,omitempty"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// Relevance ranks for keyword matching, lower is better.
const (
	MatchNamePrefix    = 0
	MatchNameSubstring = 1
	MatchSynonymPrefix = 2
	MatchSynonymInfix  = 3
	MatchNone          = 4
)

// MatchRank returns the relevance rank of keyword against this tag's name and
// synonyms, case-insensitively. MatchNone means no match.
func (t *Tag) MatchRank(keyword string) int {
	kw := strings.ToLower(keyword)
	name := strings.ToLower(t.Name)

	switch {
	case strings.HasPrefix(name, kw):
		return MatchNamePrefix
	case strings.Contains(name, kw):
		return MatchNameSubstring
	}

	rank := MatchNone
	for _, syn := range t.Synonyms {
		s := strings.ToLower(syn)
		switch {
		case strings.HasPrefix(s, kw):
			return MatchSynonymPrefix
		case strings.Contains(s, kw):
			rank = MatchSynonymInfix
		}
	}
	return rank
}

// MergeResult is the outcome contract of a tag merge.
type MergeResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MergedTag *Tag   `json:"mergedTag,omitempty"`
}
