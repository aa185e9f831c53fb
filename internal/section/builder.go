package section

import (
	"strconv"
	"strings"

	"github.com/dgallion1/docsegment/internal/outline"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// ContainerTag is the element every generated container uses.
	ContainerTag = "section"
	// LevelAttr holds a container's depth relative to the start level.
	LevelAttr = "data-section-level"
)

// Options controls how headings are wrapped.
type Options struct {
	StartLevel     int
	SectionClass   string
	AnchorClass    string
	HeadingAnchor  bool
	RelativeLevels bool
}

// Builder wraps headings into section containers. A Builder belongs to a
// single run over a single document.
type Builder struct {
	opts    Options
	created map[*html.Node]bool
	// last maps an earlier-run container to the newest section placed
	// after it, so hoisted sections keep document order.
	last map[*html.Node]*html.Node
}

// Output is what one Build call produced.
type Output struct {
	Sections    []*html.Node
	Diagnostics []outline.Violation
}

func NewBuilder(opts Options) *Builder {
	if opts.StartLevel < 1 {
		opts.StartLevel = 1
	}
	return &Builder{
		opts:    opts,
		created: make(map[*html.Node]bool),
		last:    make(map[*html.Node]*html.Node),
	}
}

// Skips reports whether the heading described by item is left unwrapped.
func (b *Builder) Skips(item outline.Item) bool {
	return item.Rank < b.opts.StartLevel || item.ExcludedFromSection
}

// Build wraps each heading in document order. items[i] describes headings[i]
// and supplies the slug used as the container id.
func (b *Builder) Build(headings []outline.Heading, items []outline.Item) Output {
	var out Output
	for i, h := range headings {
		if i >= len(items) {
			break
		}
		item := items[i]
		if b.Skips(item) {
			continue
		}
		sec, diag := b.wrap(h, item)
		if diag != nil {
			out.Diagnostics = append(out.Diagnostics, *diag)
		}
		if sec != nil {
			out.Sections = append(out.Sections, sec)
		}
	}
	return out
}

func (b *Builder) wrap(h outline.Heading, item outline.Item) (*html.Node, *outline.Violation) {
	parent := h.Node.Parent
	if parent == nil {
		return nil, nil
	}

	var diag *outline.Violation
	if isContainer(parent) && !b.created[parent] {
		v := outline.PreExistingContainerAt(h, parent)
		diag = &v
	}

	depth := item.Rank - b.opts.StartLevel
	sec := b.newContainer(item.Slug, depth)
	region := CollectRegion(h.Node)

	var enclosing *html.Node
	if b.isPriorContainer(parent, h.Node, depth) && parent.Parent != nil {
		enclosing = parent
		after := enclosing
		if prev, ok := b.last[enclosing]; ok && prev.Parent == enclosing.Parent {
			after = prev
		}
		after.Parent.InsertBefore(sec, after.NextSibling)
		b.last[enclosing] = sec
	} else {
		parent.InsertBefore(sec, h.Node)
	}

	moveInto(sec, h.Node)
	for _, n := range region {
		moveInto(sec, n)
	}
	if enclosing != nil && !hasElementChild(enclosing) {
		enclosing.Parent.RemoveChild(enclosing)
	}

	if b.opts.HeadingAnchor {
		b.substituteAnchor(h.Node, item)
	}

	b.created[sec] = true
	return sec, diag
}

func (b *Builder) newContainer(id string, depth int) *html.Node {
	sec := &html.Node{
		Type:     html.ElementNode,
		Data:     ContainerTag,
		DataAtom: atom.Section,
		Attr:     []html.Attribute{{Key: "id", Val: id}},
	}
	if b.opts.SectionClass != "" {
		sec.Attr = append(sec.Attr, html.Attribute{Key: "class", Val: b.opts.SectionClass})
	}
	if b.opts.RelativeLevels {
		sec.Attr = append(sec.Attr, html.Attribute{Key: LevelAttr, Val: strconv.Itoa(depth)})
	}
	return sec
}

// isPriorContainer matches a container generated by an earlier run for a
// heading at the given depth. Containers carrying a level attribute must
// match it; otherwise the container must lead with the heading.
func (b *Builder) isPriorContainer(n, heading *html.Node, depth int) bool {
	if !isContainer(n) || b.created[n] {
		return false
	}
	if b.opts.SectionClass != "" && !outline.HasClass(n, b.opts.SectionClass) {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == LevelAttr {
			return a.Val == strconv.Itoa(depth)
		}
	}
	return firstElementChild(n) == heading
}

// substituteAnchor replaces the heading's content with a link to its section
// that is skipped by sequential keyboard navigation.
func (b *Builder) substituteAnchor(heading *html.Node, item outline.Item) {
	for c := heading.FirstChild; c != nil; c = heading.FirstChild {
		heading.RemoveChild(c)
	}
	a := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr: []html.Attribute{
			{Key: "href", Val: "#" + item.Slug},
			{Key: "tabindex", Val: "-1"},
		},
	}
	a.AppendChild(&html.Node{Type: html.TextNode, Data: item.Text})
	heading.AppendChild(a)
	AddClass(heading, b.opts.AnchorClass)
}

// AddClass appends name to n's class attribute unless already present.
func AddClass(n *html.Node, name string) {
	if name == "" || outline.HasClass(n, name) {
		return
	}
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = strings.TrimSpace(a.Val + " " + name)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: name})
}

// SetAttr sets attribute key on n, replacing any existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func isContainer(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == ContainerTag
}

func moveInto(dst, n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	dst.AppendChild(n)
}

func hasElementChild(n *html.Node) bool {
	return firstElementChild(n) != nil
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
