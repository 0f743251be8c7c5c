package hierarchy

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/lms-content-api/internal/models"
)

// Criterion is one recognised key of a collection's filter_criteria object.
type Criterion interface {
	Key() string
	Apply(topics []models.Topic, content []models.Content) ([]models.Topic, []models.Content)
}

// ShowStudentCriterion keeps content whose student visibility matches Value.
type ShowStudentCriterion struct {
	Value bool
}

func (ShowStudentCriterion) Key() string { return "showstudent" }

func (c ShowStudentCriterion) Apply(topics []models.Topic, content []models.Content) ([]models.Topic, []models.Content) {
	out := make([]models.Content, 0, len(content))
	for _, item := range content {
		if item.ShowStudent == c.Value {
			out = append(out, item)
		}
	}
	return topics, out
}

// SubjectCriterion keeps content tagged with Subject.
type SubjectCriterion struct {
	Subject string
}

func (SubjectCriterion) Key() string { return "subject" }

func (c SubjectCriterion) Apply(topics []models.Topic, content []models.Content) ([]models.Topic, []models.Content) {
	out := make([]models.Content, 0, len(content))
	for _, item := range content {
		if item.HasSubject(c.Subject) {
			out = append(out, item)
		}
	}
	return topics, out
}

// ParentCriterion keeps the topic ParentID, its direct child topics and the
// content placed under any of them.
type ParentCriterion struct {
	ParentID string
}

func (ParentCriterion) Key() string { return "parent" }

func (c ParentCriterion) Apply(topics []models.Topic, content []models.Content) ([]models.Topic, []models.Content) {
	keep := map[string]struct{}{c.ParentID: {}}
	outTopics := make([]models.Topic, 0, len(topics))
	for _, t := range topics {
		if t.ID == c.ParentID || models.StringValue(t.ParentID) == c.ParentID {
			outTopics = append(outTopics, t)
			keep[t.ID] = struct{}{}
		}
	}
	outContent := make([]models.Content, 0, len(content))
	for _, item := range content {
		if _, ok := keep[item.Parent()]; ok {
			outContent = append(outContent, item)
			continue
		}
		if _, ok := keep[models.StringValue(item.TopicID)]; ok {
			outContent = append(outContent, item)
		}
	}
	return outTopics, outContent
}

// Criteria is the parsed form of filter_criteria. Unknown keys are kept only
// for reporting.
type Criteria struct {
	Items   []Criterion
	Unknown []string
}

// Empty reports whether no criterion will be applied.
func (c Criteria) Empty() bool { return len(c.Items) == 0 }

// Apply runs every recognised criterion in key order.
func (c Criteria) Apply(topics []models.Topic, content []models.Content) ([]models.Topic, []models.Content) {
	for _, item := range c.Items {
		topics, content = item.Apply(topics, content)
	}
	return topics, content
}

// ParseCriteria decodes a filter_criteria blob. Unrecognised keys and values
// of the wrong type become diagnostics and are otherwise ignored.
func ParseCriteria(raw json.RawMessage) (Criteria, Diagnostics) {
	var diags Diagnostics
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Criteria{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		diags.add(DiagInvalidCriteria, "", fmt.Sprintf("filter criteria is not a JSON object: %v", err))
		return Criteria{}, diags
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out Criteria
	for _, key := range keys {
		value := fields[key]
		switch normaliseColumn(key) {
		case "showstudent":
			var b bool
			if err := json.Unmarshal(value, &b); err != nil {
				diags.add(DiagInvalidCriteria, "", fmt.Sprintf("%s must be a boolean", key))
				continue
			}
			out.Items = append(out.Items, ShowStudentCriterion{Value: b})
		case "challengesubject", "subject":
			var s string
			if err := json.Unmarshal(value, &s); err != nil || strings.TrimSpace(s) == "" {
				diags.add(DiagInvalidCriteria, "", fmt.Sprintf("%s must be a non-empty string", key))
				continue
			}
			out.Items = append(out.Items, SubjectCriterion{Subject: strings.TrimSpace(s)})
		case "parent", "parentid":
			var s string
			if err := json.Unmarshal(value, &s); err != nil || strings.TrimSpace(s) == "" {
				diags.add(DiagInvalidCriteria, "", fmt.Sprintf("%s must be a non-empty string", key))
				continue
			}
			if IsAll(s) {
				continue
			}
			out.Items = append(out.Items, ParentCriterion{ParentID: strings.TrimSpace(s)})
		default:
			out.Unknown = append(out.Unknown, key)
			diags.add(DiagUnknownCriteria, "", fmt.Sprintf("filter criteria key %q ignored", key))
		}
	}
	return out, diags
}
