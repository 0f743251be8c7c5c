package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/lms-content-api/internal/models"
)

// Input describes one tree request against a snapshot of the entity store.
type Input struct {
	Topics               []models.Topic
	Content              []models.Content
	Mappings             []models.CollectionContentMapping
	SelectedLevel        int
	SelectedParent       string
	SelectedCollectionID string

	// Criteria is the parsed filter_criteria of the selected collection.
	// It is only applied when a collection is selected.
	Criteria Criteria
	// Rules are applied per level while the tree is assembled.
	Rules     []models.FilterRule
	Evaluator *Evaluator

	// Expand attaches full subtrees in level-based mode. Collection trees
	// are always expanded.
	Expand            bool
	IncludeUnassigned bool
	ContentLevel      int
	Locale            language.Tag
}

// Result is a built forest plus everything that had to be skipped or repaired.
type Result struct {
	Nodes       []*Node     `json:"nodes"`
	Unassigned  []*Node     `json:"unassigned,omitempty"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// BuildHierarchy is the plain entry point used by views that do not need
// diagnostics.
func BuildHierarchy(topics []models.Topic, content []models.Content, selectedLevel int, selectedParent, selectedCollectionID string, mappings []models.CollectionContentMapping) []*Node {
	return Build(Input{
		Topics:               topics,
		Content:              content,
		Mappings:             mappings,
		SelectedLevel:        selectedLevel,
		SelectedParent:       selectedParent,
		SelectedCollectionID: selectedCollectionID,
	}).Nodes
}

type item struct {
	node   Node
	entity Entity
}

type builder struct {
	in       Input
	eval     *Evaluator
	collator *collate.Collator
	items    []item
	index    map[string]int
	children map[string][]int
	featured map[string]bool
	emitted  map[string]bool
	diags    Diagnostics
}

// Build resolves in into a tree. Level-based mode is used when no collection
// is selected; otherwise the collection tree is built from the scoped rows.
func Build(in Input) Result {
	b := &builder{
		in:       in,
		eval:     in.Evaluator,
		collator: collate.New(in.Locale),
		emitted:  make(map[string]bool),
	}
	if b.eval == nil {
		b.eval = defaultEvaluator
	}
	if b.in.ContentLevel <= 0 {
		b.in.ContentLevel = models.ContentLevel
	}

	collectionMode := !IsAll(in.SelectedCollectionID)
	topics, content := in.Topics, in.Content
	if collectionMode {
		scoped := ScopeToCollection(in.SelectedCollectionID, topics, content, in.Mappings)
		b.diags = append(b.diags, scoped.Diagnostics...)
		b.featured = scoped.Featured
		topics, content = in.Criteria.Apply(scoped.Topics, scoped.Content)
	}

	b.project(topics, content)
	b.breakCycles()
	orphans := b.linkChildren(collectionMode)

	var roots []int
	if collectionMode {
		roots = b.collectionRoots()
	} else {
		roots = b.levelRoots()
	}

	expand := collectionMode || in.Expand
	result := Result{Nodes: b.emitAll(roots, b.rootFilter(collectionMode), expand)}
	if in.IncludeUnassigned && len(orphans) > 0 {
		b.sortSiblings(orphans)
		// The fallback listing is how orphans stay discoverable, so rules
		// never remove its entries.
		result.Unassigned = b.emitAll(orphans, keepAll, expand)
	}
	result.Diagnostics = b.diags
	if result.Diagnostics == nil {
		result.Diagnostics = Diagnostics{}
	}
	return result
}

func keepAll(item) bool { return true }

// rootFilter applies the level rules to roots. Level roots match parent_id
// rules against the selected parent. Collection roots are matched against
// their own parent reference, so a root promoted because its parent lies
// outside the collection still passes parent_id rules while column rules
// apply as usual.
func (b *builder) rootFilter(collectionMode bool) func(item) bool {
	if collectionMode {
		return func(it item) bool {
			return b.eval.MatchesAll(b.in.Rules, it.entity, it.entity.ParentRef())
		}
	}
	parentCtx := ""
	if !IsAll(b.in.SelectedParent) {
		parentCtx = strings.TrimSpace(b.in.SelectedParent)
	}
	return func(it item) bool {
		return b.eval.MatchesAll(b.in.Rules, it.entity, parentCtx)
	}
}

func (b *builder) project(topics []models.Topic, content []models.Content) {
	b.items = make([]item, 0, len(topics)+len(content))
	b.index = make(map[string]int, len(topics)+len(content))
	add := func(it item) {
		id := it.node.ID
		if strings.TrimSpace(id) == "" {
			b.diags.add(DiagMissingID, "", fmt.Sprintf("%s %q has no id", it.node.Kind, it.node.Title))
			return
		}
		if _, dup := b.index[id]; dup {
			b.diags.add(DiagDuplicateID, id, fmt.Sprintf("%s %s repeats an id already in use; first occurrence kept", it.node.Kind, id))
			return
		}
		b.index[id] = len(b.items)
		b.items = append(b.items, it)
	}
	for _, t := range topics {
		add(item{node: topicNode(t), entity: TopicEntity(t)})
	}
	for _, c := range content {
		add(item{node: contentNode(c, b.in.ContentLevel), entity: ContentEntity(c, b.in.ContentLevel)})
	}
}

// breakCycles walks every parent chain once. Nodes sitting on a cycle lose
// their parent link and become roots flagged as cyclic.
func (b *builder) breakCycles() {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]int, len(b.items))
	for start := range b.items {
		if state[start] != unvisited {
			continue
		}
		var path []int
		cur := start
		for {
			state[cur] = onPath
			path = append(path, cur)
			next, ok := b.index[b.items[cur].node.ParentID]
			if !ok || b.items[cur].node.ParentID == "" {
				break
			}
			if state[next] == onPath {
				b.cut(path, next)
				break
			}
			if state[next] == done {
				break
			}
			cur = next
		}
		for _, idx := range path {
			state[idx] = done
		}
	}
}

func (b *builder) cut(path []int, entry int) {
	pos := 0
	for i, idx := range path {
		if idx == entry {
			pos = i
			break
		}
	}
	members := path[pos:]
	ids := make([]string, 0, len(members)+1)
	for _, idx := range members {
		ids = append(ids, b.items[idx].node.ID)
	}
	ids = append(ids, b.items[entry].node.ID)
	chain := strings.Join(ids, " -> ")
	for _, idx := range members {
		it := &b.items[idx]
		n := &it.node
		b.diags.add(DiagCycle, n.ID, fmt.Sprintf("parent chain %s loops; %s treated as a root leaf", chain, n.ID))
		n.ParentID = ""
		n.Cyclic = true
		if n.Kind == KindTopic {
			n.Level = 1
		}
		it.entity = detachedEntity{Entity: it.entity, level: n.Level}
	}
}

// detachedEntity presents a row whose parent link was cut as the root it is
// emitted as, so level rules see the same level and parent as the node.
type detachedEntity struct {
	Entity
	level int
}

func (e detachedEntity) ParentRef() string { return "" }
func (e detachedEntity) Level() int        { return e.level }

func (e detachedEntity) Column(name string) (interface{}, bool) {
	switch normaliseColumn(name) {
	case "parentid":
		return "", true
	case "level":
		return e.level, true
	default:
		return e.Entity.Column(name)
	}
}

// linkChildren indexes items by parent and returns items whose parent does not
// exist. In collection mode a parent outside the collection is expected and
// not reported.
func (b *builder) linkChildren(collectionMode bool) []int {
	b.children = make(map[string][]int)
	var global map[string]struct{}
	if collectionMode {
		global = make(map[string]struct{}, len(b.in.Topics)+len(b.in.Content))
		for _, t := range b.in.Topics {
			global[t.ID] = struct{}{}
		}
		for _, c := range b.in.Content {
			global[c.ID] = struct{}{}
		}
	}

	var orphans []int
	for idx, it := range b.items {
		parent := it.node.ParentID
		if parent == "" {
			continue
		}
		if _, ok := b.index[parent]; ok {
			b.children[parent] = append(b.children[parent], idx)
			continue
		}
		if collectionMode {
			if _, ok := global[parent]; ok {
				continue
			}
		}
		b.diags.add(DiagOrphan, it.node.ID, fmt.Sprintf("%s %s references missing parent %s", it.node.Kind, it.node.ID, parent))
		if !collectionMode {
			orphans = append(orphans, idx)
		}
	}
	for parent := range b.children {
		b.sortSiblings(b.children[parent])
	}
	return orphans
}

func (b *builder) levelRoots() []int {
	var roots []int
	if !IsAll(b.in.SelectedParent) {
		parent := strings.TrimSpace(b.in.SelectedParent)
		if _, ok := b.index[parent]; !ok {
			return nil
		}
		roots = append(roots, b.children[parent]...)
		return roots
	}

	level := b.in.SelectedLevel
	if level <= 0 {
		level = 1
	}
	for idx, it := range b.items {
		if it.node.ParentID == "" && it.node.Level == level {
			roots = append(roots, idx)
		}
	}
	b.sortSiblings(roots)
	return roots
}

func (b *builder) collectionRoots() []int {
	var roots []int
	for idx, it := range b.items {
		parent := it.node.ParentID
		if parent == "" {
			roots = append(roots, idx)
			continue
		}
		if _, ok := b.index[parent]; !ok {
			roots = append(roots, idx)
		}
	}
	b.sortSiblings(roots)
	return roots
}

// sortSiblings orders by display order, then title under the configured
// collation. Equal keys keep their input position.
func (b *builder) sortSiblings(idxs []int) {
	sort.SliceStable(idxs, func(i, j int) bool {
		a, c := b.items[idxs[i]].node, b.items[idxs[j]].node
		if a.DisplayOrder != c.DisplayOrder {
			return a.DisplayOrder < c.DisplayOrder
		}
		return b.collator.CompareString(a.Title, c.Title) < 0
	})
}

func (b *builder) emitAll(idxs []int, keep func(item) bool, expand bool) []*Node {
	out := make([]*Node, 0, len(idxs))
	for _, idx := range idxs {
		it := b.items[idx]
		if b.emitted[it.node.ID] {
			continue
		}
		if !keep(it) {
			continue
		}
		out = append(out, b.emit(idx, expand, map[string]bool{}))
	}
	return out
}

func (b *builder) emit(idx int, expand bool, ancestors map[string]bool) *Node {
	it := b.items[idx]
	n := it.node
	n.Children = []*Node{}
	if b.featured != nil {
		n.Featured = b.featured[n.ID]
	}
	b.emitted[n.ID] = true
	if !expand {
		return &n
	}

	ancestors[n.ID] = true
	defer delete(ancestors, n.ID)
	for _, child := range b.children[n.ID] {
		childNode := b.items[child].node
		if ancestors[childNode.ID] {
			b.diags.add(DiagCycle, childNode.ID, fmt.Sprintf("%s re-enters its ancestor chain under %s; kept as a leaf", childNode.ID, n.ID))
			continue
		}
		if b.emitted[childNode.ID] {
			continue
		}
		if !b.eval.MatchesAll(b.in.Rules, b.items[child].entity, n.ID) {
			continue
		}
		n.Children = append(n.Children, b.emit(child, expand, ancestors))
	}
	return &n
}
