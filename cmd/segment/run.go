package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgallion1/docsegment/internal/loader"
	"github.com/dgallion1/docsegment/internal/pipeline"
	"github.com/dgallion1/docsegment/internal/segment"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

func newRunCmd(opts *options) *cobra.Command {
	var output string
	var withToc bool
	var tocSelector string

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Validate and wrap a document into sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.segmentConfig()
			cfg.CreateToc = withToc
			cfg.TocSelector = tocSelector
			return process(cmd, opts, args[0], segment.OpSegment, cfg, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the document here instead of stdout")
	cmd.Flags().BoolVar(&withToc, "toc", false, "Also build a table of contents")
	cmd.Flags().StringVar(&tocSelector, "toc-selector", "", "Append the table of contents to the first element matching this selector")
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check heading outlines without changing documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed error
			for _, path := range args {
				err := process(cmd, opts, path, segment.OpValidate, opts.segmentConfig(), "")
				if err != nil && !errors.Is(err, errIllStructured) {
					return err
				}
				if err != nil {
					failed = err
				}
			}
			return failed
		},
	}
}

func newTocCmd(opts *options) *cobra.Command {
	var output string
	var tocSelector string

	cmd := &cobra.Command{
		Use:   "toc <file>",
		Short: "Build a table of contents without wrapping sections",
		Long: `toc gives every listed heading an id and prints the nested contents list.
With --toc-selector the list is inserted into the document and the whole
document is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.segmentConfig()
			cfg.TocSelector = tocSelector
			return process(cmd, opts, args[0], segment.OpToc, cfg, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write output here instead of stdout")
	cmd.Flags().StringVar(&tocSelector, "toc-selector", "", "Append the table of contents to the first element matching this selector")
	return cmd
}

// process loads one document, runs op and prints the outcome.
func process(cmd *cobra.Command, opts *options, path string, op segment.Operation, cfg segment.Config, output string) error {
	stderr := cmd.ErrOrStderr()

	doc, name, err := loadDocument(cmd.InOrStdin(), path, opts.format)
	if err != nil {
		return err
	}

	seg, err := segment.New(cfg, opts.logger(stderr))
	if err != nil {
		return err
	}
	res, err := seg.Run(doc, op)
	if err != nil {
		return err
	}

	title := opts.title
	if title == "" {
		title = loader.Title(doc, name)
	}
	report, err := pipeline.BuildResult(doc, res, title)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{
			"file":      name,
			"operation": op,
			"result":    report,
		}); err != nil {
			return err
		}
	} else {
		printDiagnostics(stderr, name, res)
		if err := writeOutput(cmd.OutOrStdout(), output, doc, res, op); err != nil {
			return err
		}
	}

	if !res.WellStructured() {
		return errIllStructured
	}
	return nil
}

func loadDocument(stdin io.Reader, path, format string) (*html.Node, string, error) {
	name := path
	var src io.Reader
	if path == "-" {
		if format == "" {
			format = "html"
		}
		name = "stdin." + format
		src = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		src = f
		name = filepath.Base(path)
		if format != "" {
			name = name + "." + format
		}
	}

	l, err := loader.ForFile(name)
	if err != nil {
		return nil, "", err
	}
	doc, err := l.Load(src, name)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return doc, name, nil
}

// writeOutput prints what the run produced. Nothing is written when the
// document was rejected or only validated.
func writeOutput(stdout io.Writer, output string, doc *html.Node, res *segment.Result, op segment.Operation) error {
	if !res.WellStructured() || op == segment.OpValidate {
		return nil
	}

	var buf bytes.Buffer
	if op == segment.OpToc && !res.TocPlaced {
		if err := html.Render(&buf, res.TOC); err != nil {
			return err
		}
	} else {
		if err := html.Render(&buf, doc); err != nil {
			return err
		}
		if res.TOC != nil && !res.TocPlaced {
			buf.WriteString("\n")
			if err := html.Render(&buf, res.TOC); err != nil {
				return err
			}
		}
	}
	buf.WriteString("\n")

	if output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(output, buf.Bytes(), 0o644)
}
