package slug

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMaxLength caps generated ids. Longer bases are truncated.
const DefaultMaxLength = 125

var (
	leadingNonLetter = regexp.MustCompile(`^[^A-Za-z]*`)
	quotes           = regexp.MustCompile(`[‘’'“”"]`)
	nonAlphanumeric  = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// Base converts heading text into an id candidate. The result starts with a
// letter, or is empty when the text has none.
func Base(text string) string {
	s := strings.TrimSpace(text)
	s = leadingNonLetter.ReplaceAllString(s, "")
	s = quotes.ReplaceAllString(s, "")
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.TrimSuffix(s, "-")
	return strings.ToLower(s)
}

// Make returns a slug for text that is not in existing. It does not add the
// result to existing; callers sharing a set must do that themselves.
func Make(text string, existing map[string]struct{}) string {
	return unique(Base(text), func(id string) bool {
		_, ok := existing[id]
		return ok
	})
}

func unique(base string, taken func(string) bool) string {
	id := base
	for n := 1; taken(id); n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

// Registry tracks every id assigned in one document. It is not safe for
// concurrent use and must not be shared between documents.
type Registry struct {
	used   map[string]struct{}
	maxLen int
}

// NewRegistry returns a registry seeded with ids already present in the
// document. maxLen <= 0 disables truncation.
func NewRegistry(maxLen int, seed ...string) *Registry {
	r := &Registry{
		used:   make(map[string]struct{}, len(seed)),
		maxLen: maxLen,
	}
	for _, id := range seed {
		r.used[id] = struct{}{}
	}
	return r
}

// Has reports whether id is already assigned.
func (r *Registry) Has(id string) bool {
	_, ok := r.used[id]
	return ok
}

// Add records id as assigned.
func (r *Registry) Add(id string) {
	r.used[id] = struct{}{}
}

// Len returns the number of assigned ids.
func (r *Registry) Len() int {
	return len(r.used)
}

// Next mints a unique slug for text and registers it. The whole id,
// including any "-N" suffix, stays within the registry's maximum length;
// truncated is true when the base had to be cut to achieve that.
func (r *Registry) Next(text string) (id string, truncated bool) {
	base := Base(text)
	if r.maxLen > 0 && len(base) > r.maxLen {
		base = cut(base, r.maxLen)
		truncated = true
	}
	id = base
	for n := 1; r.Has(id); n++ {
		suffix := "-" + strconv.Itoa(n)
		stem := base
		if r.maxLen > 0 && len(stem)+len(suffix) > r.maxLen {
			stem = cut(stem, r.maxLen-len(suffix))
			truncated = true
		}
		id = stem + suffix
	}
	r.Add(id)
	return id, truncated
}

// cut shortens s to at most n bytes without leaving a trailing hyphen.
func cut(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		s = s[:n]
	}
	return strings.TrimSuffix(s, "-")
}
