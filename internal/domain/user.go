// Package domain contains the core business entities and domain logic for the Quorum Q&A platform.
package domain

import "time"

// User represents a registered account. Authentication and profile management
// live outside this core; the user record exists so content and votes can hold
// an owning author reference.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Touch updates the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}
