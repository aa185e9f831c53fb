package toc

import (
	"strings"
	"testing"

	"github.com/dgallion1/docsegment/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func item(rank int, text string) outline.Item {
	return outline.Item{Rank: rank, Text: text, Slug: strings.ToLower(text), Valid: true}
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, html.Render(&b, n))
	return b.String()
}

func children(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

func TestNestingMirrorsRanks(t *testing.T) {
	b := NewBuilder(Options{StartLevel: 1, EndLevel: 6, Class: "nest-contents"})
	for _, it := range []outline.Item{item(1, "A"), item(2, "B"), item(3, "C"), item(2, "D")} {
		b.Add(it)
	}
	root := b.Root()

	top := children(root, atom.Li)
	require.Len(t, top, 1)

	sub := children(top[0], atom.Ul)
	require.Len(t, sub, 1)
	second := children(sub[0], atom.Li)
	require.Len(t, second, 2)

	third := children(second[0], atom.Ul)
	require.Len(t, third, 1)
	assert.Len(t, children(third[0], atom.Li), 1)
	assert.Empty(t, children(second[1], atom.Ul))
	assert.Equal(t, 4, b.Len())
}

func TestRenderedMarkup(t *testing.T) {
	b := NewBuilder(Options{StartLevel: 2, EndLevel: 3, Class: "toc"})
	b.Add(item(1, "Title"))
	b.Add(item(2, "One"))
	b.Add(item(3, "Sub"))
	b.Add(item(4, "Deep"))
	b.Add(item(2, "Two"))

	want := `<ul class="toc toc--h2">` +
		`<li class="toc__item"><a href="#one" class="toc__link">One</a>` +
		`<ul class="toc--h3"><li class="toc__item"><a href="#sub" class="toc__link">Sub</a></li></ul></li>` +
		`<li class="toc__item"><a href="#two" class="toc__link">Two</a></li></ul>`
	assert.Equal(t, want, render(t, b.Root()))
}

func TestAscendsSeveralLevels(t *testing.T) {
	b := NewBuilder(Options{StartLevel: 1, Class: "t"})
	for _, it := range []outline.Item{item(1, "A"), item(2, "B"), item(3, "C"), item(4, "D"), item(2, "E")} {
		b.Add(it)
	}
	top := children(b.Root(), atom.Li)
	require.Len(t, top, 1)
	level2 := children(children(top[0], atom.Ul)[0], atom.Li)
	require.Len(t, level2, 2)
	assert.Equal(t, "E", level2[1].FirstChild.FirstChild.Data)
}

func TestExcludedHeadingKeepsBookkeeping(t *testing.T) {
	b := NewBuilder(Options{StartLevel: 1, Class: "t"})
	b.Add(item(1, "A"))
	excluded := item(2, "Hidden")
	excluded.ExcludedFromToc = true
	b.Add(excluded)
	b.Add(item(3, "C"))

	assert.Equal(t, 2, b.Len())
	out := render(t, b.Root())
	assert.NotContains(t, out, "Hidden")
	// C still sits two levels deep, under a placeholder entry.
	assert.Contains(t, out, `<ul class="t--h2"><li class="t__item"><ul class="t--h3"><li class="t__item"><a href="#c"`)
}

func TestExcludedDeeperHeadingOpensNoList(t *testing.T) {
	b := NewBuilder(Options{StartLevel: 1, Class: "t"})
	b.Add(item(1, "A"))
	b.Add(item(2, "B"))
	excluded := item(3, "Hidden")
	excluded.ExcludedFromToc = true
	b.Add(excluded)
	b.Add(item(2, "C"))

	want := `<ul class="t t--h1"><li class="t__item"><a href="#a" class="t__link">A</a>` +
		`<ul class="t--h2"><li class="t__item"><a href="#b" class="t__link">B</a></li>` +
		`<li class="t__item"><a href="#c" class="t__link">C</a></li></ul></li></ul>`
	assert.Equal(t, want, render(t, b.Root()))
	assert.NotContains(t, render(t, b.Root()), "t--h3")
}

func TestNoClassOmitsAttributes(t *testing.T) {
	b := NewBuilder(Options{StartLevel: 1})
	b.Add(item(1, "A"))
	assert.Equal(t, `<ul><li><a href="#a">A</a></li></ul>`, render(t, b.Root()))
}
