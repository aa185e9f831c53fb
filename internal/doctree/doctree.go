package doctree

import "github.com/dgallion1/docsegment/internal/outline"

// DocTree is the heading outline of a document.
type DocTree struct {
	Title    string     `json:"title"`
	Children []*DocNode `json:"children"`
}

// DocNode is a recursive section in the outline.
type DocNode struct {
	Title    string     `json:"title"`        // Heading text
	ID       string     `json:"id,omitempty"` // Section id, empty when not assigned
	Rank     int        `json:"rank"`
	Valid    bool       `json:"valid"`
	Children []*DocNode `json:"children,omitempty"` // Subsections
}

// FromItems nests items by rank. A heading becomes the child of the nearest
// preceding heading with a lower rank.
func FromItems(title string, items []outline.Item) *DocTree {
	tree := &DocTree{Title: title}

	type stackEntry struct {
		node  *DocNode
		level int
	}
	// Root is level 0; every heading nests under it.
	root := &DocNode{Title: title}
	stack := []stackEntry{{node: root, level: 0}}

	for _, item := range items {
		newNode := &DocNode{
			Title: item.Text,
			ID:    item.Slug,
			Rank:  item.Rank,
			Valid: item.Valid,
		}
		for len(stack) > 1 && stack[len(stack)-1].level >= item.Rank {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, newNode)
		stack = append(stack, stackEntry{node: newNode, level: item.Rank})
	}

	tree.Children = root.Children
	return tree
}

// Walk visits every node depth-first with its depth (0 for top level).
func (t *DocTree) Walk(fn func(n *DocNode, depth int)) {
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(t.Children, 0)
}
