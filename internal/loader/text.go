package loader

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// TextLoader handles plain text files. Each blank-line separated paragraph
// becomes a <p>; plain text never carries headings.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*html.Node, error) {
	paragraphs, err := splitParagraphs(r)
	if err != nil {
		return nil, err
	}

	doc, body := newDocument(stem(filename))
	for _, para := range paragraphs {
		appendElement(body, "p", para)
	}
	return doc, nil
}

func splitParagraphs(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paragraphs, nil
}
