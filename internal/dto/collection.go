package dto

import "encoding/json"

// CreateCollectionRequest captures fields for creating collections.
type CreateCollectionRequest struct {
	Name           string          `json:"name" validate:"required,max=255"`
	Description    string          `json:"description"`
	PageRoute      *string         `json:"page_route"`
	DisplayType    string          `json:"display_type" validate:"omitempty,oneof=alphabetical by_subject custom grid list"`
	FilterCriteria json.RawMessage `json:"filter_criteria"`
	SortField      string          `json:"sort_field" validate:"omitempty,oneof=display_order title created_at"`
	SortOrder      string          `json:"sort_order" validate:"omitempty,oneof=asc desc"`
}

// UpdateCollectionRequest modifies collection fields.
type UpdateCollectionRequest struct {
	Name           string          `json:"name" validate:"required,max=255"`
	Description    string          `json:"description"`
	PageRoute      *string         `json:"page_route"`
	DisplayType    string          `json:"display_type" validate:"omitempty,oneof=alphabetical by_subject custom grid list"`
	FilterCriteria json.RawMessage `json:"filter_criteria"`
	SortField      string          `json:"sort_field" validate:"omitempty,oneof=display_order title created_at"`
	SortOrder      string          `json:"sort_order" validate:"omitempty,oneof=asc desc"`
	IsActive       *bool           `json:"is_active"`
}

// AddMappingRequest places one topic, content item or group card in a collection.
type AddMappingRequest struct {
	TopicID      *string `json:"topic_id"`
	ContentID    *string `json:"content_id"`
	GroupcardID  *string `json:"groupcard_id"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,min=0"`
	IsFeatured   bool    `json:"is_featured"`
}

// MappingOrderItem assigns a display order to a mapping.
type MappingOrderItem struct {
	MappingID    string `json:"mapping_id" validate:"required"`
	DisplayOrder int    `json:"display_order" validate:"min=0"`
}

// ReorderMappingsRequest holds the new order of a collection's mappings.
type ReorderMappingsRequest struct {
	Items []MappingOrderItem `json:"items" validate:"required,min=1,dive"`
}
