package domain

import "time"

// Post is a blog post. AuthorID is set from the creator's identity and never changes.
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// PostPatch carries the mutable fields of a post. Nil fields are left untouched.
type PostPatch struct {
	Title *string
	Body  *string
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Body == nil
}
