package hierarchy

// CountNodes returns the number of nodes in the forest, children included.
func CountNodes(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		if n == nil {
			continue
		}
		total += 1 + CountNodes(n.Children)
	}
	return total
}

// FlatNode is a depth-first row of a tree, used for outlines and exports.
type FlatNode struct {
	ID         string
	Title      string
	Kind       Kind
	Level      int
	Depth      int
	Path       []string
	ChildCount int
	Featured   bool
}

// Flatten walks the forest depth first in sibling order.
func Flatten(nodes []*Node) []FlatNode {
	var out []FlatNode
	var walk func(ns []*Node, depth int, path []string)
	walk = func(ns []*Node, depth int, path []string) {
		for _, n := range ns {
			if n == nil {
				continue
			}
			p := append(append([]string(nil), path...), n.Title)
			out = append(out, FlatNode{
				ID:         n.ID,
				Title:      n.Title,
				Kind:       n.Kind,
				Level:      n.Level,
				Depth:      depth,
				Path:       p,
				ChildCount: len(n.Children),
				Featured:   n.Featured,
			})
			walk(n.Children, depth+1, p)
		}
	}
	walk(nodes, 0, nil)
	return out
}

// Find returns the node with id, searching depth first.
func Find(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			return n
		}
		if found := Find(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}
