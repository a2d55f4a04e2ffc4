package post

import (
	"bytes"
	"encoding/json"
	"time"
)

// Post is a single blog entry as stored in the posts table.
type Post struct {
	ID        int64     `json:"id"         db:"id"`
	Title     string    `json:"title"      db:"title"`
	Content   string    `json:"content"    db:"content"`
	Excerpt   *string   `json:"excerpt"    db:"excerpt"`
	Tags      *string   `json:"tags"       db:"tags"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Field is a request attribute that records whether the client sent it.
// An explicit JSON null is treated the same as an absent key.
type Field struct {
	Set     bool
	Invalid bool
	Value   string
}

// NewField returns a Field carrying value.
func NewField(value string) Field {
	return Field{Set: true, Value: value}
}

func (f *Field) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Field{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = Field{Set: true, Invalid: true}
		return nil
	}
	*f = Field{Set: true, Value: s}
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// CreateInput is the body accepted when creating a post.
type CreateInput struct {
	Title   Field `json:"title"`
	Content Field `json:"content"`
	Excerpt Field `json:"excerpt"`
	Tags    Field `json:"tags"`
}

// UpdateInput is the body accepted when updating a post. Fields left unset
// keep their stored values.
type UpdateInput struct {
	Title   Field `json:"title"`
	Content Field `json:"content"`
	Excerpt Field `json:"excerpt"`
	Tags    Field `json:"tags"`
}

// Optional marks a column write in a Patch.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// NewPost holds sanitized values ready for insertion.
type NewPost struct {
	Title   string
	Content string
	Excerpt *string
	Tags    *string
}

// Patch holds sanitized column writes for an update. updated_at is always
// refreshed, even for an empty patch.
type Patch struct {
	Title   Optional[string]
	Content Optional[string]
	Excerpt Optional[*string]
	Tags    Optional[*string]
}

// Empty reports whether the patch writes no user columns.
func (p *Patch) Empty() bool {
	return !p.Title.Set && !p.Content.Set && !p.Excerpt.Set && !p.Tags.Set
}
