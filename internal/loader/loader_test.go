package loader

import (
	"strings"
	"testing"

	"github.com/dgallion1/docsegment/internal/outline"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"a.html", false},
		{"a.HTM", false},
		{"a.md", false},
		{"a.markdown", false},
		{"a.txt", false},
		{"a.pdf", false},
		{"a.docx", false},
		{"a.csv", true},
		{"noext", true},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForFile(%q): err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if IsSupportedExtension(tt.name) == tt.wantErr {
			t.Errorf("IsSupportedExtension(%q) = %v", tt.name, !tt.wantErr)
		}
	}
}

func TestHTMLLoader_KeepsMarkup(t *testing.T) {
	src := `<html><head><title>Guide</title></head><body><h1 id="top">A</h1><p>x</p></body></html>`
	doc, err := (&HTMLLoader{}).Load(strings.NewReader(src), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Title(doc, "guide.html"); got != "Guide" {
		t.Errorf("expected title %q, got %q", "Guide", got)
	}
	ids := outline.IDs(doc)
	if len(ids) != 1 || ids[0] != "top" {
		t.Errorf("expected ids [top], got %v", ids)
	}
}

func TestPagesDocument(t *testing.T) {
	doc := pagesDocument("report", []string{"Intro para.\n\nSecond para.", "   ", "Last page."})

	headings := outline.Collect(doc)
	want := []string{"report", "Page 1", "Page 3"}
	if len(headings) != len(want) {
		t.Fatalf("expected %d headings, got %d", len(want), len(headings))
	}
	for i, w := range want {
		if headings[i].Text != w {
			t.Errorf("heading %d: expected %q, got %q", i, w, headings[i].Text)
		}
	}
	if headings[0].Rank != 1 || headings[1].Rank != 2 {
		t.Errorf("unexpected ranks %d, %d", headings[0].Rank, headings[1].Rank)
	}
	if got := paragraphs(doc); len(got) != 3 {
		t.Errorf("expected 3 paragraphs, got %v", got)
	}
}

func TestDocxTag(t *testing.T) {
	tests := map[string]string{
		"Heading1":  "h1",
		"heading 3": "h3",
		"Heading6":  "h6",
		"Heading7":  "p",
		"Title":     "p",
		"":          "p",
	}
	for style, want := range tests {
		if got := docxTag(style); got != want {
			t.Errorf("docxTag(%q) = %q, want %q", style, got, want)
		}
	}
}
