package domain

import "time"

// TargetType identifies what kind of content a vote applies to.
type TargetType string

// Vote target types.
const (
	TargetQuestion TargetType = "Question"
	TargetAnswer   TargetType = "Answer"
)

// Valid reports whether the target type is one of the recognized values.
func (t TargetType) Valid() bool {
	return t == TargetQuestion || t == TargetAnswer
}

// VoteType is the direction of a vote.
type VoteType string

// Vote directions.
const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// Valid reports whether the vote type is one of the recognized values.
func (v VoteType) Valid() bool {
	return v == Upvote || v == Downvote
}

// Opposite returns the other vote direction.
func (v VoteType) Opposite() VoteType {
	if v == Upvote {
		return Downvote
	}
	return Upvote
}

// Vote is a live ledger row. At most one exists per
// (userId, targetId, targetType) key; canceling removes the row rather than
// recording a cancellation.
type Vote struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	TargetID   string     `json:"targetId"`
	TargetType TargetType `json:"targetType"`
	VoteType   VoteType   `json:"voteType"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// VoteCount is the derived aggregate for a target. It is never authoritative:
// it must always equal a scan of live Vote rows for the target.
type VoteCount struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// Total returns the number of live votes behind this count.
func (c VoteCount) Total() int {
	return c.Upvotes + c.Downvotes
}

// Score returns upvotes minus downvotes.
func (c VoteCount) Score() int {
	return c.Upvotes - c.Downvotes
}

// VoteResponse is the mutation outcome contract. Failure messages are
// user-facing and never carry storage-layer internals.
type VoteResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Votes   *VoteCount `json:"votes,omitempty"`
}
