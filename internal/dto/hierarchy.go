package dto

import (
	"github.com/noah-isme/lms-content-api/internal/hierarchy"
	"github.com/noah-isme/lms-content-api/internal/models"
)

// HierarchyQuery selects which slice of the tree to resolve.
type HierarchyQuery struct {
	Level             int    `form:"level" validate:"omitempty,min=1,max=8"`
	Parent            string `form:"parent"`
	Collection        string `form:"collection"`
	Expand            bool   `form:"expand"`
	IncludeUnassigned bool   `form:"unassigned"`
}

// HierarchyResponse is the resolved forest plus build diagnostics.
type HierarchyResponse struct {
	Nodes       []*hierarchy.Node                `json:"nodes"`
	Unassigned  []*hierarchy.Node                `json:"unassigned,omitempty"`
	Diagnostics hierarchy.Diagnostics            `json:"diagnostics"`
	Summary     map[hierarchy.DiagnosticKind]int `json:"diagnostic_summary,omitempty"`
	Collection  *models.Collection               `json:"collection,omitempty"`
	NodeCount   int                              `json:"node_count"`
}

// SubjectsQuery asks for the subject cross-index.
type SubjectsQuery struct {
	Subjects   []string `form:"subjects"`
	Collection string   `form:"collection"`
}

// SubjectsResponse lists the virtual subject topics.
type SubjectsResponse struct {
	Groups []hierarchy.SubjectGroup `json:"groups"`
	Order  []string                 `json:"order"`
}

// EvaluateRuleRequest evaluates a stored or ad-hoc rule against one entity.
type EvaluateRuleRequest struct {
	RuleID           string             `json:"rule_id"`
	Rule             *models.FilterRule `json:"rule"`
	EntityKind       hierarchy.Kind     `json:"entity_kind" validate:"required,oneof=topic content"`
	EntityID         string             `json:"entity_id" validate:"required"`
	ParentMatchValue string             `json:"parent_match_value"`
}

// EvaluateRuleResponse reports the rule outcome.
type EvaluateRuleResponse struct {
	RuleID  string `json:"rule_id,omitempty"`
	Matched bool   `json:"matched"`
}

// HierarchyCheckReport summarises data problems found across the whole store.
type HierarchyCheckReport struct {
	Diagnostics hierarchy.Diagnostics            `json:"diagnostics"`
	Summary     map[hierarchy.DiagnosticKind]int `json:"summary"`
	Collections int                              `json:"collections"`
	Topics      int                              `json:"topics"`
	Content     int                              `json:"content"`
}

// Healthy reports whether no problem was found.
func (r HierarchyCheckReport) Healthy() bool {
	return len(r.Diagnostics) == 0
}
