package livra

import "time"

// DefaultPageSize is the page size the client always requests.
const DefaultPageSize = 50

// Post mirrors the payload returned by /posts/{id} and POST /posts.
type Post struct {
	ID        string `json:"id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content"`
	UserID    string `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Summary projects the post onto the fields shown in the list.
func (p Post) Summary() PostSummary {
	return PostSummary{ID: p.ID, Title: p.Title}
}

// ParsedCreatedAt returns the creation timestamp when the backend sent one.
func (p Post) ParsedCreatedAt() time.Time {
	if p.CreatedAt == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, p.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// PostSummary is a list row.
type PostSummary struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title"`
}

// PostPage mirrors the /posts list response.
type PostPage struct {
	Posts       []PostSummary `json:"posts" validate:"dive"`
	TotalPages  int           `json:"totalPages" validate:"gte=0"`
	CurrentPage int           `json:"currentPage" validate:"gte=0"`
}

// NewPost is the body of POST /posts.
type NewPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Tag is a label that can be attached to a post. An empty ID marks a tag
// that only exists on the client so far.
type Tag struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	UsageCount int    `json:"usage_count"`
}

// Persisted reports whether the backend knows this tag.
func (t Tag) Persisted() bool {
	return t.ID != ""
}

// ListQuery configures /posts requests.
type ListQuery struct {
	Search string
	UserID string
	Page   int
}

type authRequest struct {
	Token string `json:"token"`
}

// AuthResponse mirrors /auth/google.
type AuthResponse struct {
	AccessToken string `json:"access_token" validate:"required"`
}
