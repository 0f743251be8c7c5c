package dto

// CreateTopicRequest captures fields for creating topics.
type CreateTopicRequest struct {
	Title        string  `json:"title" validate:"required,max=255"`
	ParentID     *string `json:"parent_id"`
	Subject      *string `json:"subject" validate:"omitempty,max=100"`
	DisplayOrder int     `json:"display_order" validate:"min=0"`
}

// UpdateTopicRequest modifies topic fields.
type UpdateTopicRequest struct {
	Title        string  `json:"title" validate:"required,max=255"`
	ParentID     *string `json:"parent_id"`
	Subject      *string `json:"subject" validate:"omitempty,max=100"`
	DisplayOrder int     `json:"display_order" validate:"min=0"`
}
