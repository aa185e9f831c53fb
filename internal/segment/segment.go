package segment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docsegment/internal/doctree"
	"github.com/dgallion1/docsegment/internal/outline"
	"github.com/dgallion1/docsegment/internal/section"
	"github.com/dgallion1/docsegment/internal/slug"
	"github.com/dgallion1/docsegment/internal/toc"
	"golang.org/x/net/html"
)

// Segmenter validates heading outlines and restructures documents. It holds
// no per-document state and may be shared; every Run starts from a fresh id
// registry.
type Segmenter struct {
	cfg Config
	log *slog.Logger
}

// Result is everything one run produced. Sections and TOC stay nil when the
// outline is not well-structured.
type Result struct {
	Operation   Operation                `json:"operation"`
	Validation  outline.ValidationResult `json:"validation"`
	Items       []outline.Item           `json:"items"`
	Sections    []*html.Node             `json:"-"`
	TOC         *html.Node               `json:"-"`
	TocPlaced   bool                     `json:"toc_placed,omitempty"`
	Diagnostics []outline.Violation      `json:"diagnostics"`
	Counts      map[string]int           `json:"counts"`
}

// WellStructured reports whether the outline passed validation.
func (r *Result) WellStructured() bool {
	return r.Validation.WellStructured
}

// Outline nests the run's headings into a tree.
func (r *Result) Outline(title string) *doctree.DocTree {
	return doctree.FromItems(title, r.Items)
}

// New returns a Segmenter for cfg. A nil logger discards output.
func New(cfg Config, log *slog.Logger) (*Segmenter, error) {
	cfg = cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Segmenter{cfg: cfg, log: log}, nil
}

// Config returns the effective configuration.
func (s *Segmenter) Config() Config {
	return s.cfg
}

// Run validates the outline under root and, when it is well-structured,
// performs op. The tree is only mutated after validation succeeds. Errors
// are reserved for misuse; outline problems are reported as diagnostics.
func (s *Segmenter) Run(root *html.Node, op Operation) (*Result, error) {
	st, ok := operations[op]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", op)
	}
	if root == nil {
		return nil, errors.New("nil document")
	}

	headings := outline.Collect(root)
	res := &Result{
		Operation:  op,
		Validation: outline.Validate(headings),
		Counts:     countTags(headings),
	}
	res.Diagnostics = append(res.Diagnostics, res.Validation.Violations...)
	res.Items = s.baseItems(headings, res.Validation)

	if !res.Validation.WellStructured || op == OpValidate {
		s.report(res)
		return res, nil
	}

	wantToc := st.toc || (st.sections && s.cfg.CreateToc)
	builder := section.NewBuilder(section.Options{
		StartLevel:     s.cfg.StartLevel,
		SectionClass:   s.cfg.SectionClass,
		AnchorClass:    s.cfg.AnchorClass,
		HeadingAnchor:  s.cfg.HeadingAnchor,
		RelativeLevels: s.cfg.RelativeLevels,
	})
	contents := toc.NewBuilder(toc.Options{
		StartLevel: s.cfg.StartLevel,
		EndLevel:   s.cfg.EndLevel,
		Class:      s.cfg.TocClass,
	})

	reg := slug.NewRegistry(s.cfg.MaxIDLength, outline.IDs(root)...)
	for i, h := range headings {
		item := &res.Items[i]
		wrapped := st.sections && !builder.Skips(*item)
		listed := wantToc && contents.Includes(item.Rank) && !item.ExcludedFromToc

		switch {
		case wrapped:
			item.Slug = s.mint(reg, h, res)
		case listed:
			// Unwrapped headings are linked directly, so they need an id.
			if id := outline.Attr(h.Node, "id"); id != "" {
				item.Slug = id
			} else {
				item.Slug = s.mint(reg, h, res)
				section.SetAttr(h.Node, "id", item.Slug)
			}
		}
	}

	if st.sections {
		out := builder.Build(headings, res.Items)
		res.Sections = out.Sections
		res.Diagnostics = append(res.Diagnostics, out.Diagnostics...)
	}
	if wantToc {
		for _, item := range res.Items {
			contents.Add(item)
		}
		res.TOC = contents.Root()
		if s.cfg.TocSelector != "" {
			res.TocPlaced = placeToc(root, s.cfg.TocSelector, res.TOC)
		}
	}

	sort.SliceStable(res.Diagnostics, func(i, j int) bool {
		return res.Diagnostics[i].Index < res.Diagnostics[j].Index
	})
	s.report(res)
	return res, nil
}

func (s *Segmenter) baseItems(headings []outline.Heading, v outline.ValidationResult) []outline.Item {
	items := make([]outline.Item, len(headings))
	for i, h := range headings {
		items[i] = outline.Item{
			Rank:                h.Rank,
			Text:                h.Text,
			ExcludedFromSection: outline.HasClass(h.Node, s.cfg.ExcludeClassSection),
			ExcludedFromToc:     outline.HasClass(h.Node, s.cfg.ExcludeClassToc),
			Valid:               i < len(v.Valid) && v.Valid[i],
		}
	}
	return items
}

func (s *Segmenter) mint(reg *slug.Registry, h outline.Heading, res *Result) string {
	id, truncated := reg.Next(h.Text)
	if truncated {
		res.Diagnostics = append(res.Diagnostics, outline.OverlongGeneratedIDAt(h, id, s.cfg.MaxIDLength))
	}
	return id
}

// report surfaces diagnostics through the logger when debugging.
func (s *Segmenter) report(res *Result) {
	if !s.cfg.Debug {
		return
	}
	ctx := context.Background()
	for _, d := range res.Diagnostics {
		level := slog.LevelError
		if d.Severity == outline.SeverityWarning {
			level = slog.LevelWarn
		}
		s.log.Log(ctx, level, "heading "+string(d.Severity),
			"kind", d.Kind,
			"title", d.Title,
			"info", d.Description,
			"index", d.Index,
			"ref", d.Ref,
		)
	}
	s.log.Debug("segmentation finished",
		"operation", res.Operation,
		"headings", len(res.Items),
		"well_structured", res.Validation.WellStructured,
		"sections", len(res.Sections),
		"diagnostics", len(res.Diagnostics),
	)
}

func placeToc(root *html.Node, selector string, list *html.Node) bool {
	target := goquery.NewDocumentFromNode(root).Find(selector).First()
	if target.Length() == 0 {
		return false
	}
	target.AppendNodes(list)
	return true
}

func countTags(headings []outline.Heading) map[string]int {
	counts := make(map[string]int)
	for _, h := range headings {
		counts[h.Node.Data]++
	}
	return counts
}
