package models

import (
	"time"

	"github.com/lib/pq"
)

// ContentLevel is the fixed depth assigned to content in level-based browsing.
const ContentLevel = 4

// Content is a learning item (lesson, quiz, debate prompt) attached to a topic or another item.
type Content struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	ParentID     *string        `db:"parent_id" json:"parent_id,omitempty"`
	TopicID      *string        `db:"topic_id" json:"topic_id,omitempty"`
	Subjects     pq.StringArray `db:"subjects" json:"subjects"`
	DisplayOrder int            `db:"display_order" json:"display_order"`
	ShowStudent  bool           `db:"show_student" json:"show_student"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Parent resolves the effective parent: ParentID wins over TopicID.
func (c Content) Parent() string {
	if p := StringValue(c.ParentID); p != "" {
		return p
	}
	return StringValue(c.TopicID)
}

// HasSubject reports whether the item is tagged with subject.
func (c Content) HasSubject(subject string) bool {
	for _, s := range c.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// ContentFilter captures supported filters for listing content.
type ContentFilter struct {
	TopicID   string
	Subject   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
