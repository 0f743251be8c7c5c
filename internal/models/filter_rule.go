package models

import "time"

// FilterType selects how a rule is evaluated.
type FilterType string

const (
	FilterParentID    FilterType = "parent_id"
	FilterColumnValue FilterType = "column_value"
	FilterCustom      FilterType = "custom"
)

// FilterLogic is the comparison applied by column_value rules.
type FilterLogic string

const (
	LogicEquals   FilterLogic = "equals"
	LogicContains FilterLogic = "contains"
	LogicInArray  FilterLogic = "in_array"
)

// FilterRule is an admin-defined predicate applied to one hierarchy level.
type FilterRule struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Level       int         `db:"level" json:"level"`
	ParentLevel *int        `db:"parent_level" json:"parent_level,omitempty"`
	FilterType  FilterType  `db:"filter_type" json:"filter_type"`
	ColumnName  string      `db:"column_name" json:"column_name"`
	ColumnValue string      `db:"column_value" json:"column_value"`
	FilterLogic FilterLogic `db:"filter_logic" json:"filter_logic"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
