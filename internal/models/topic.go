package models

import "time"

// Topic is a node of the subject/topic tree. Level is derived from ParentID.
type Topic struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	ParentID     *string   `db:"parent_id" json:"parent_id,omitempty"`
	Subject      *string   `db:"subject" json:"subject,omitempty"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Level returns 1 for root topics and 2 for nested ones.
func (t Topic) Level() int {
	if StringValue(t.ParentID) == "" {
		return 1
	}
	return 2
}

// TopicFilter captures supported filters for listing topics.
type TopicFilter struct {
	ParentID  string
	RootsOnly bool
	Subject   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StringValue dereferences optional string columns.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns nil for blank values so optional columns stay NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }
