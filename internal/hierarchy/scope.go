package hierarchy

import (
	"fmt"

	"github.com/noah-isme/lms-content-api/internal/models"
)

// Scoped is the collection-narrowed view of the entity store.
type Scoped struct {
	Topics      []models.Topic
	Content     []models.Content
	Featured    map[string]bool
	Diagnostics Diagnostics
}

// ScopeToCollection keeps the topics mapped into collectionID and the content
// that is mapped directly or hangs off a mapped or surviving topic. The "all"
// selector returns copies of the inputs. Inputs are never modified.
func ScopeToCollection(collectionID string, topics []models.Topic, content []models.Content, mappings []models.CollectionContentMapping) Scoped {
	if IsAll(collectionID) {
		return Scoped{
			Topics:  append([]models.Topic(nil), topics...),
			Content: append([]models.Content(nil), content...),
		}
	}

	var diags Diagnostics
	mapped := make(map[string]struct{})
	featured := make(map[string]bool)
	for _, m := range mappings {
		if m.CollectionID != collectionID {
			continue
		}
		_, id, ok := m.Target()
		if !ok {
			diags.add(DiagMalformedMapping, m.ID, fmt.Sprintf("mapping %s in collection %s must reference exactly one of topic, content or groupcard", m.ID, collectionID))
			continue
		}
		mapped[id] = struct{}{}
		if m.IsFeatured {
			featured[id] = true
		}
	}

	scopedTopics := make([]models.Topic, 0, len(mapped))
	kept := make(map[string]struct{})
	for _, t := range topics {
		if _, ok := mapped[t.ID]; ok {
			scopedTopics = append(scopedTopics, t)
			kept[t.ID] = struct{}{}
		}
	}

	scopedContent := make([]models.Content, 0)
	for _, c := range content {
		topicID := models.StringValue(c.TopicID)
		_, direct := mapped[c.ID]
		_, viaMapping := mapped[topicID]
		_, viaTopic := kept[topicID]
		if direct || (topicID != "" && (viaMapping || viaTopic)) {
			scopedContent = append(scopedContent, c)
		}
	}

	return Scoped{
		Topics:      scopedTopics,
		Content:     scopedContent,
		Featured:    featured,
		Diagnostics: diags,
	}
}
