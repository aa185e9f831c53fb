package segment

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docsegment/internal/slug"
)

// Config controls one segmentation run.
type Config struct {
	StartLevel int `json:"startLevel,omitempty"` // lowest rank wrapped and listed
	EndLevel   int `json:"endLevel,omitempty"`   // highest rank listed in the contents

	SectionClass string `json:"sectionClass,omitempty"`
	AnchorClass  string `json:"anchorClass,omitempty"`
	TocClass     string `json:"tocClass,omitempty"`

	ExcludeClassSection string `json:"excludeClassSection,omitempty"`
	ExcludeClassToc     string `json:"excludeClassToc,omitempty"`

	CreateToc      bool `json:"createToc,omitempty"`
	HeadingAnchor  bool `json:"headingAnchor,omitempty"`
	RelativeLevels bool `json:"relativeLevels,omitempty"`
	Debug          bool `json:"debug,omitempty"`

	// MaxIDLength truncates generated ids; negative disables the limit.
	MaxIDLength int `json:"maxIdLength,omitempty"`
	// TocSelector, when set, names the element the contents list is
	// appended to.
	TocSelector string `json:"tocSelector,omitempty"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		HeadingAnchor:  true,
		RelativeLevels: true,
	}.ApplyDefaults()
}

// ApplyDefaults fills unset fields.
func (c Config) ApplyDefaults() Config {
	if c.StartLevel == 0 {
		c.StartLevel = 1
	}
	if c.EndLevel == 0 {
		c.EndLevel = 6
	}
	if c.SectionClass == "" {
		c.SectionClass = "doc-section"
	}
	if c.AnchorClass == "" {
		c.AnchorClass = "section-link"
	}
	if c.TocClass == "" {
		c.TocClass = "nest-contents"
	}
	if c.ExcludeClassSection == "" {
		c.ExcludeClassSection = "section-exclude"
	}
	if c.ExcludeClassToc == "" {
		c.ExcludeClassToc = "toc-exclude"
	}
	if c.MaxIDLength == 0 {
		c.MaxIDLength = slug.DefaultMaxLength
	}
	return c
}

// Validate checks that config values are usable.
func (c Config) Validate() error {
	if c.StartLevel < 1 || c.StartLevel > 6 {
		return fmt.Errorf("startLevel must be between 1 and 6, got %d", c.StartLevel)
	}
	if c.EndLevel < c.StartLevel || c.EndLevel > 6 {
		return fmt.Errorf("endLevel must be between startLevel (%d) and 6, got %d", c.StartLevel, c.EndLevel)
	}
	for name, v := range map[string]string{
		"sectionClass":        c.SectionClass,
		"anchorClass":         c.AnchorClass,
		"tocClass":            c.TocClass,
		"excludeClassSection": c.ExcludeClassSection,
		"excludeClassToc":     c.ExcludeClassToc,
	} {
		if strings.ContainsAny(v, " \t\n") {
			return fmt.Errorf("%s must be a single class name, got %q", name, v)
		}
	}
	return nil
}
