package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/docsegment/internal/segment"
	"github.com/spf13/cobra"
)

// errIllStructured signals a document whose outline failed validation. The
// diagnostics have already been printed.
var errIllStructured = errors.New("heading outline is not well-structured")

// options holds the flags shared by every subcommand.
type options struct {
	cfg      segment.Config
	noAnchor bool
	asJSON   bool
	format   string
	title    string
}

func (o *options) segmentConfig() segment.Config {
	cfg := o.cfg
	cfg.HeadingAnchor = !o.noAnchor
	return cfg.ApplyDefaults()
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newRootCmd() *cobra.Command {
	opts := &options{cfg: segment.DefaultConfig()}

	root := &cobra.Command{
		Use:   "segment",
		Short: "Validate heading outlines and wrap documents into sections",
		Long: `segment checks that a document's headings form a well-structured outline
(starting at h1, never skipping a level on the way down) and, when they do,
wraps every heading and the content it introduces into a nested <section>
with a stable id. It can also build a nested table of contents.

Documents may be HTML, Markdown, DOCX, PDF or plain text. Use "-" to read
from stdin together with --format.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.IntVar(&opts.cfg.StartLevel, "start-level", 1, "Lowest heading rank that is wrapped and listed (1-6)")
	f.IntVar(&opts.cfg.EndLevel, "end-level", 6, "Highest heading rank listed in the table of contents")
	f.StringVar(&opts.cfg.SectionClass, "section-class", "doc-section", "Class added to generated sections")
	f.StringVar(&opts.cfg.AnchorClass, "anchor-class", "section-link", "Class added to headings that link to their section")
	f.StringVar(&opts.cfg.TocClass, "toc-class", "nest-contents", "Base class of the table of contents")
	f.StringVar(&opts.cfg.ExcludeClassSection, "exclude-section-class", "section-exclude", "Headings with this class are not wrapped")
	f.StringVar(&opts.cfg.ExcludeClassToc, "exclude-toc-class", "toc-exclude", "Headings with this class are not listed")
	f.IntVar(&opts.cfg.MaxIDLength, "max-id-length", 125, "Truncate generated ids to this length (negative disables)")
	f.BoolVar(&opts.noAnchor, "no-anchor", false, "Keep heading content instead of replacing it with a self link")
	f.BoolVar(&opts.cfg.Debug, "debug", false, "Log diagnostics and run details to stderr")
	f.BoolVar(&opts.asJSON, "json", false, "Print a JSON report instead of HTML")
	f.StringVar(&opts.format, "format", "", "Input format when reading stdin (html, md, txt, docx, pdf)")
	f.StringVar(&opts.title, "title", "", "Outline title (defaults to <title> or the file name)")

	root.AddCommand(newRunCmd(opts), newValidateCmd(opts), newTocCmd(opts))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	os.Exit(execute(newRootCmd(), os.Args[1:]))
}

func execute(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errIllStructured):
		return 1
	default:
		fmt.Fprintln(root.ErrOrStderr(), errorStyle.Render("error:"), err)
		return 2
	}
}
