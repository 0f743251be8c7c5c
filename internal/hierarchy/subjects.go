package hierarchy

import (
	"sort"
	"strings"

	"github.com/noah-isme/lms-content-api/internal/models"
)

// SubjectGroup is a virtual topic built from a subject tag.
type SubjectGroup struct {
	SubjectName string           `json:"subject_name"`
	Items       []models.Content `json:"items"`
	ItemCount   int              `json:"item_count"`
}

// GroupBySubject buckets content under each subject in subjectOrder. Items
// with several subjects appear in every matching group and empty groups are
// dropped. Group order follows subjectOrder.
func GroupBySubject(content []models.Content, subjectOrder []string) []SubjectGroup {
	groups := make([]SubjectGroup, 0, len(subjectOrder))
	seen := make(map[string]bool, len(subjectOrder))
	for _, subject := range subjectOrder {
		if subject == "" || seen[subject] {
			continue
		}
		seen[subject] = true

		var items []models.Content
		for _, c := range content {
			if c.HasSubject(subject) {
				items = append(items, c)
			}
		}
		if len(items) == 0 {
			continue
		}
		groups = append(groups, SubjectGroup{SubjectName: subject, Items: items, ItemCount: len(items)})
	}
	return groups
}

// KnownSubjects derives a default subject order: subjects declared on topics
// first (by display order, then title), then any remaining content tags
// alphabetically.
func KnownSubjects(topics []models.Topic, content []models.Content) []string {
	sorted := append([]models.Topic(nil), topics...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayOrder != sorted[j].DisplayOrder {
			return sorted[i].DisplayOrder < sorted[j].DisplayOrder
		}
		return sorted[i].Title < sorted[j].Title
	})

	seen := make(map[string]bool)
	var out []string
	for _, t := range sorted {
		subject := strings.TrimSpace(models.StringValue(t.Subject))
		if subject == "" || seen[subject] {
			continue
		}
		seen[subject] = true
		out = append(out, subject)
	}

	var rest []string
	for _, c := range content {
		for _, s := range c.Subjects {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
