package dto

// CreateContentRequest captures fields for creating content items.
type CreateContentRequest struct {
	Title        string   `json:"title" validate:"required,max=255"`
	ParentID     *string  `json:"parent_id"`
	TopicID      *string  `json:"topic_id"`
	Subjects     []string `json:"subjects" validate:"dive,max=100"`
	DisplayOrder int      `json:"display_order" validate:"min=0"`
	ShowStudent  bool     `json:"show_student"`
}

// UpdateContentRequest modifies content fields.
type UpdateContentRequest struct {
	Title        string   `json:"title" validate:"required,max=255"`
	ParentID     *string  `json:"parent_id"`
	TopicID      *string  `json:"topic_id"`
	Subjects     []string `json:"subjects" validate:"dive,max=100"`
	DisplayOrder int      `json:"display_order" validate:"min=0"`
	ShowStudent  bool     `json:"show_student"`
}
