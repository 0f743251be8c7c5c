package hierarchy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/lms-content-api/internal/models"
)

// Entity exposes the named columns of a topic or content row to filter rules.
type Entity interface {
	EntityID() string
	ParentRef() string
	Level() int
	Column(name string) (interface{}, bool)
}

// Predicate is a caller supplied implementation for custom rules.
type Predicate func(rule models.FilterRule, entity Entity, parentMatchValue string) bool

// Evaluator applies filter rules. Custom predicates are looked up by rule ID
// first, then by rule name.
type Evaluator struct {
	custom map[string]Predicate
}

// NewEvaluator builds an evaluator with optional custom predicates.
func NewEvaluator(custom map[string]Predicate) *Evaluator {
	cp := make(map[string]Predicate, len(custom))
	for k, v := range custom {
		if v != nil {
			cp[k] = v
		}
	}
	return &Evaluator{custom: cp}
}

var defaultEvaluator = NewEvaluator(nil)

// EvaluateFilterRule reports whether entity satisfies rule. Broken rules
// evaluate to false; inactive rules never exclude anything.
func EvaluateFilterRule(rule models.FilterRule, entity Entity, parentMatchValue string) bool {
	return defaultEvaluator.Evaluate(rule, entity, parentMatchValue)
}

// Evaluate reports whether entity satisfies rule.
func (e *Evaluator) Evaluate(rule models.FilterRule, entity Entity, parentMatchValue string) bool {
	if !rule.IsActive {
		return true
	}
	if entity == nil {
		return false
	}

	switch rule.FilterType {
	case models.FilterParentID:
		target := strings.TrimSpace(parentMatchValue)
		if strings.EqualFold(target, All) {
			return true
		}
		return entity.ParentRef() == target
	case models.FilterColumnValue:
		value, ok := entity.Column(rule.ColumnName)
		if !ok {
			return false
		}
		return matchColumn(rule.FilterLogic, value, rule.ColumnValue)
	case models.FilterCustom:
		if e == nil {
			return false
		}
		pred, ok := e.custom[rule.ID]
		if !ok {
			pred, ok = e.custom[rule.Name]
		}
		if !ok {
			return false
		}
		return safeCall(pred, rule, entity, parentMatchValue)
	default:
		return false
	}
}

// MatchesAll ANDs every active rule configured for the entity's level.
func (e *Evaluator) MatchesAll(rules []models.FilterRule, entity Entity, parentMatchValue string) bool {
	for _, rule := range rules {
		if !rule.IsActive || rule.Level != entity.Level() {
			continue
		}
		if !e.Evaluate(rule, entity, parentMatchValue) {
			return false
		}
	}
	return true
}

func safeCall(pred Predicate, rule models.FilterRule, entity Entity, parent string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return pred(rule, entity, parent)
}

func matchColumn(logic models.FilterLogic, value interface{}, target string) bool {
	switch logic {
	case models.LogicEquals:
		if list, ok := value.([]string); ok {
			return containsString(list, target)
		}
		return scalarEquals(value, target)
	case models.LogicContains:
		if list, ok := value.([]string); ok {
			return containsString(list, target)
		}
		return strings.Contains(scalarString(value), target)
	case models.LogicInArray:
		candidates := parseList(target)
		if len(candidates) == 0 {
			return false
		}
		if list, ok := value.([]string); ok {
			for _, v := range list {
				if containsString(candidates, v) {
					return true
				}
			}
			return false
		}
		return containsString(candidates, scalarString(value))
	default:
		return false
	}
}

func scalarEquals(value interface{}, target string) bool {
	switch v := value.(type) {
	case string:
		return v == target
	case int:
		n, err := strconv.Atoi(strings.TrimSpace(target))
		return err == nil && n == v
	case bool:
		b, err := strconv.ParseBool(strings.TrimSpace(target))
		return err == nil && b == v
	default:
		return false
	}
}

func scalarString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// parseList accepts a JSON array (strings, numbers or booleans) or a comma
// separated list.
func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var values []interface{}
		if err := json.Unmarshal([]byte(raw), &values); err == nil {
			out := make([]string, 0, len(values))
			for _, v := range values {
				switch typed := v.(type) {
				case string:
					out = append(out, typed)
				case float64:
					out = append(out, strconv.FormatFloat(typed, 'f', -1, 64))
				case bool:
					out = append(out, strconv.FormatBool(typed))
				}
			}
			return out
		}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsString(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

// normaliseColumn lets rules use snake_case, camelCase or lowercase names.
func normaliseColumn(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
}

type topicEntity struct {
	t models.Topic
}

// TopicEntity adapts a topic for rule evaluation.
func TopicEntity(t models.Topic) Entity { return topicEntity{t: t} }

func (e topicEntity) EntityID() string  { return e.t.ID }
func (e topicEntity) ParentRef() string { return models.StringValue(e.t.ParentID) }
func (e topicEntity) Level() int        { return e.t.Level() }

func (e topicEntity) Column(name string) (interface{}, bool) {
	switch normaliseColumn(name) {
	case "id":
		return e.t.ID, true
	case "title":
		return e.t.Title, true
	case "parentid":
		return models.StringValue(e.t.ParentID), true
	case "subject":
		return models.StringValue(e.t.Subject), true
	case "displayorder":
		return e.t.DisplayOrder, true
	case "level":
		return e.t.Level(), true
	default:
		return nil, false
	}
}

type contentEntity struct {
	c     models.Content
	level int
}

// ContentEntity adapts a content item for rule evaluation. level is the
// depth content occupies in the caller's traversal.
func ContentEntity(c models.Content, level int) Entity {
	if level <= 0 {
		level = models.ContentLevel
	}
	return contentEntity{c: c, level: level}
}

func (e contentEntity) EntityID() string  { return e.c.ID }
func (e contentEntity) ParentRef() string { return e.c.Parent() }
func (e contentEntity) Level() int        { return e.level }

func (e contentEntity) Column(name string) (interface{}, bool) {
	switch normaliseColumn(name) {
	case "id":
		return e.c.ID, true
	case "title":
		return e.c.Title, true
	case "parentid":
		return e.c.Parent(), true
	case "topicid":
		return models.StringValue(e.c.TopicID), true
	case "subjects":
		return []string(e.c.Subjects), true
	case "subject":
		if len(e.c.Subjects) == 0 {
			return "", true
		}
		return e.c.Subjects[0], true
	case "displayorder":
		return e.c.DisplayOrder, true
	case "level":
		return e.level, true
	case "showstudent":
		return e.c.ShowStudent, true
	default:
		return nil, false
	}
}
