package models

import (
	"encoding/json"
	"time"
)

// DisplayType controls how a collection page lays out its members.
type DisplayType string

const (
	DisplayAlphabetical DisplayType = "alphabetical"
	DisplayBySubject    DisplayType = "by_subject"
	DisplayCustom       DisplayType = "custom"
	DisplayGrid         DisplayType = "grid"
	DisplayList         DisplayType = "list"
)

// SortOrder is the direction applied to a collection's sort field.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// AllCollections is the sentinel that disables collection scoping.
const AllCollections = "all"

// Collection is a curated, route-bound set of topics and content.
type Collection struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Description    string          `db:"description" json:"description"`
	PageRoute      *string         `db:"page_route" json:"page_route,omitempty"`
	DisplayType    DisplayType     `db:"display_type" json:"display_type"`
	FilterCriteria json.RawMessage `db:"filter_criteria" json:"filter_criteria,omitempty"`
	SortField      string          `db:"sort_field" json:"sort_field"`
	SortOrder      SortOrder       `db:"sort_order" json:"sort_order"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// CollectionFilter captures supported filters for listing collections.
type CollectionFilter struct {
	IncludeInactive bool
	PageRoute       string
	Search          string
	Page            int
	PageSize        int
}

// MappingTargetKind names which entity a mapping row points at.
type MappingTargetKind string

const (
	MappingTopic     MappingTargetKind = "topic"
	MappingContent   MappingTargetKind = "content"
	MappingGroupcard MappingTargetKind = "groupcard"
)

// CollectionContentMapping places exactly one entity inside a collection.
type CollectionContentMapping struct {
	ID           string    `db:"id" json:"id"`
	CollectionID string    `db:"collection_id" json:"collection_id"`
	TopicID      *string   `db:"topic_id" json:"topic_id,omitempty"`
	ContentID    *string   `db:"content_id" json:"content_id,omitempty"`
	GroupcardID  *string   `db:"groupcard_id" json:"groupcard_id,omitempty"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	IsFeatured   bool      `db:"is_featured" json:"is_featured"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Target returns the single referenced entity. ok is false when zero or
// several references are set.
func (m CollectionContentMapping) Target() (kind MappingTargetKind, id string, ok bool) {
	set := 0
	if v := StringValue(m.TopicID); v != "" {
		kind, id = MappingTopic, v
		set++
	}
	if v := StringValue(m.ContentID); v != "" {
		kind, id = MappingContent, v
		set++
	}
	if v := StringValue(m.GroupcardID); v != "" {
		kind, id = MappingGroupcard, v
		set++
	}
	if set != 1 {
		return "", "", false
	}
	return kind, id, true
}
