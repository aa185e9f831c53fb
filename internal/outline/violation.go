package outline

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Kind identifies a diagnostic.
type Kind string

const (
	FirstNotTopLevel     Kind = "first_not_top_level"
	NonConsecutiveJump   Kind = "nonconsecutive_jump"
	NoHeadingsFound      Kind = "no_headings_found"
	PreExistingContainer Kind = "pre_existing_container"
	OverlongGeneratedID  Kind = "overlong_generated_id"
)

// Severity separates structural violations, which block all mutation, from
// advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Severity returns the severity a diagnostic of kind k is reported with.
func (k Kind) Severity() Severity {
	switch k {
	case PreExistingContainer, OverlongGeneratedID:
		return SeverityWarning
	}
	return SeverityError
}

// Structural reports whether k makes a document poorly structured.
func (k Kind) Structural() bool {
	return k.Severity() == SeverityError
}

// Violation is one diagnostic. Index is the position of the offending heading
// in document order, -1 when no heading is involved.
type Violation struct {
	Kind        Kind       `json:"kind"`
	Severity    Severity   `json:"severity"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	FromRank    int        `json:"from_rank,omitempty"`
	ToRank      int        `json:"to_rank,omitempty"`
	Index       int        `json:"index"`
	ID          string     `json:"id,omitempty"`
	Ref         string     `json:"ref,omitempty"`
	Node        *html.Node `json:"-"`
}

func (v Violation) Error() string {
	msg := v.Title + " " + v.Description
	if v.Ref != "" {
		msg += "\nReference: " + v.Ref
	}
	return msg
}

func newViolation(kind Kind, h *Heading) Violation {
	v := Violation{Kind: kind, Severity: kind.Severity(), Index: -1}
	if h != nil {
		v.Index = h.Index
		v.Node = h.Node
		v.Ref = outerHTML(h.Node)
	}
	return v
}

// FirstNotTopLevelAt reports a document whose first heading is not an <h1>.
func FirstNotTopLevelAt(h Heading) Violation {
	v := newViolation(FirstNotTopLevel, &h)
	v.ToRank = h.Rank
	v.Title = "First heading is not an <h1>."
	v.Description = fmt.Sprintf("To give your document a proper structure for assistive technologies, "+
		"it is important to lay out your headings beginning with an <h1>. The first heading was an <h%d>.", h.Rank)
	return v
}

// NonConsecutiveJumpAt reports a heading more than one level below its
// predecessor.
func NonConsecutiveJumpAt(h Heading, prevRank int) Violation {
	v := newViolation(NonConsecutiveJump, &h)
	v.FromRank = prevRank
	v.ToRank = h.Rank
	v.Title = fmt.Sprintf("Nonconsecutive heading level used (h%d → h%d).", prevRank, h.Rank)
	desc := fmt.Sprintf("This document contains an <h%d> tag directly following an <h%d>. "+
		"In order to maintain a consistent outline of the page for assistive technologies, "+
		"reduce the gap in the heading level by upgrading this tag to an <h%d>", h.Rank, prevRank, prevRank+1)
	// Same-level is only a sensible suggestion below the top level.
	if prevRank != 1 {
		desc += fmt.Sprintf(" or <h%d>.", prevRank)
	} else {
		desc += "."
	}
	v.Description = desc
	return v
}

// NoHeadingsFoundIn reports a document without any heading.
func NoHeadingsFoundIn() Violation {
	v := newViolation(NoHeadingsFound, nil)
	v.Title = "No headings found."
	v.Description = "Please ensure that all headings are properly tagged."
	return v
}

// PreExistingContainerAt warns that h already sits directly inside a
// container element.
func PreExistingContainerAt(h Heading, container *html.Node) Violation {
	v := newViolation(PreExistingContainer, &h)
	v.ToRank = h.Rank
	v.ID = Attr(container, "id")
	v.Title = fmt.Sprintf("Pre-existing <%s> tag.", container.Data)
	v.Description = fmt.Sprintf("The current <h%d> is already the direct child of a <%s> tag.", h.Rank, container.Data)
	return v
}

// OverlongGeneratedIDAt warns that the id generated for h was truncated.
func OverlongGeneratedIDAt(h Heading, id string, maxLen int) Violation {
	v := newViolation(OverlongGeneratedID, &h)
	v.ToRank = h.Rank
	v.ID = id
	v.Title = "Unusually long heading."
	v.Description = fmt.Sprintf("The heading text is over %d characters long.", maxLen)
	return v
}

func outerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}
