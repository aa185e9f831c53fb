package toc

import (
	"fmt"

	"github.com/dgallion1/docsegment/internal/outline"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Options controls which headings are listed and how the list is classed.
type Options struct {
	StartLevel int
	EndLevel   int
	Class      string
}

// Builder assembles a nested list mirroring heading depth. The list at
// stack[d] receives items of depth d, so moving between levels never needs
// to walk back up the tree.
type Builder struct {
	opts    Options
	root    *html.Node
	stack   []*html.Node
	entries int
}

func NewBuilder(opts Options) *Builder {
	if opts.StartLevel < 1 {
		opts.StartLevel = 1
	}
	if opts.EndLevel < opts.StartLevel || opts.EndLevel > 6 {
		opts.EndLevel = 6
	}
	b := &Builder{opts: opts}
	b.root = newElement("ul", atom.Ul, opts.Class, b.class(fmt.Sprintf("--h%d", opts.StartLevel)))
	b.stack = []*html.Node{b.root}
	return b
}

// Includes reports whether a heading of rank takes part in the contents.
func (b *Builder) Includes(rank int) bool {
	return rank >= b.opts.StartLevel && rank <= b.opts.EndLevel
}

// Add places one heading. Headings outside the level range are ignored;
// toc-excluded headings move the insertion point but add no entry.
func (b *Builder) Add(item outline.Item) {
	if !b.Includes(item.Rank) {
		return
	}
	depth := item.Rank - b.opts.StartLevel

	if len(b.stack)-1 > depth {
		b.stack = b.stack[:depth+1]
	}
	if item.ExcludedFromToc {
		return
	}
	// Nested lists open only for a real entry, so none is left empty.
	for len(b.stack)-1 < depth {
		b.descend(b.opts.StartLevel + len(b.stack))
	}
	b.stack[len(b.stack)-1].AppendChild(b.newEntry(item))
	b.entries++
}

// Root returns the outermost list.
func (b *Builder) Root() *html.Node {
	return b.root
}

// Len returns the number of entries added.
func (b *Builder) Len() int {
	return b.entries
}

// descend opens a nested list for headings of rank under the last entry of
// the current list.
func (b *Builder) descend(rank int) {
	cur := b.stack[len(b.stack)-1]
	holder := cur.LastChild
	if holder == nil {
		holder = newElement("li", atom.Li, b.class("__item"))
		cur.AppendChild(holder)
	}
	ul := newElement("ul", atom.Ul, b.class(fmt.Sprintf("--h%d", rank)))
	holder.AppendChild(ul)
	b.stack = append(b.stack, ul)
}

func (b *Builder) newEntry(item outline.Item) *html.Node {
	li := newElement("li", atom.Li, b.class("__item"))
	a := newElement("a", atom.A, b.class("__link"))
	a.Attr = append([]html.Attribute{{Key: "href", Val: "#" + item.Slug}}, a.Attr...)
	a.AppendChild(&html.Node{Type: html.TextNode, Data: item.Text})
	li.AppendChild(a)
	return li
}

func (b *Builder) class(suffix string) string {
	if b.opts.Class == "" {
		return ""
	}
	return b.opts.Class + suffix
}

func newElement(tag string, a atom.Atom, classes ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: a}
	var val string
	for _, c := range classes {
		if c == "" {
			continue
		}
		if val != "" {
			val += " "
		}
		val += c
	}
	if val != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: val}}
	}
	return n
}
