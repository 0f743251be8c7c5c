package dto

// FilterRuleRequest is the create and update payload for filter rules.
type FilterRuleRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Level       int    `json:"level" validate:"required,min=1,max=8"`
	ParentLevel *int   `json:"parent_level" validate:"omitempty,min=1,max=8"`
	FilterType  string `json:"filter_type" validate:"required,oneof=parent_id column_value custom"`
	ColumnName  string `json:"column_name" validate:"required_if=FilterType column_value"`
	ColumnValue string `json:"column_value"`
	FilterLogic string `json:"filter_logic" validate:"omitempty,oneof=equals contains in_array"`
	IsActive    *bool  `json:"is_active"`
}
