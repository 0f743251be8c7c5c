// Package hierarchy turns flat topic, content and collection rows into the
// nested trees served to browse views. Everything here is pure and
// allocation-only: inputs are never mutated and nothing blocks.
package hierarchy

import (
	"strings"

	"github.com/noah-isme/lms-content-api/internal/models"
)

// All is the selector value that disables a parent or collection filter.
const All = models.AllCollections

// UntitledPlaceholder replaces empty titles in built nodes.
const UntitledPlaceholder = "Untitled"

// Kind tags a node as a topic or a content item.
type Kind string

const (
	KindTopic   Kind = "topic"
	KindContent Kind = "content"
)

// Node is one entry of a built tree. Children is never nil.
type Node struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Kind         Kind    `json:"kind"`
	Level        int     `json:"level"`
	ParentID     string  `json:"parent_id,omitempty"`
	Subject      string  `json:"subject,omitempty"`
	DisplayOrder int     `json:"display_order"`
	Featured     bool    `json:"featured,omitempty"`
	Cyclic       bool    `json:"cyclic,omitempty"`
	Children     []*Node `json:"children"`
}

// IsAll reports whether a selector means "no filter".
func IsAll(selector string) bool {
	selector = strings.TrimSpace(selector)
	return selector == "" || strings.EqualFold(selector, All)
}

func displayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return UntitledPlaceholder
	}
	return title
}

func topicNode(t models.Topic) Node {
	return Node{
		ID:           t.ID,
		Title:        displayTitle(t.Title),
		Kind:         KindTopic,
		Level:        t.Level(),
		ParentID:     models.StringValue(t.ParentID),
		Subject:      models.StringValue(t.Subject),
		DisplayOrder: t.DisplayOrder,
	}
}

func contentNode(c models.Content, level int) Node {
	n := Node{
		ID:           c.ID,
		Title:        displayTitle(c.Title),
		Kind:         KindContent,
		Level:        level,
		ParentID:     c.Parent(),
		DisplayOrder: c.DisplayOrder,
	}
	if len(c.Subjects) > 0 {
		n.Subject = c.Subjects[0]
	}
	return n
}
