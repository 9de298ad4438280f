// Package markdown renders the markdown policy pages served under /legal.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

// Frontmatter is the YAML header of a policy page. Dates stay as written;
// the legal service formats them.
type Frontmatter struct {
	Title       string `yaml:"title"`
	LastUpdated string `yaml:"lastUpdated"`
}

type Document struct {
	Frontmatter
	HTML []byte
}

// Parser renders GFM with footnotes. Raw HTML in the source is dropped.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	return &Parser{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
	)}
}

// Render converts source. A page without frontmatter gets a zero Frontmatter;
// frontmatter that is not valid YAML is an error so a broken page is noticed.
func (p *Parser) Render(source []byte) (*Document, error) {
	ctx := parser.NewContext()
	var buf bytes.Buffer
	if err := p.md.Convert(source, &buf, parser.WithContext(ctx)); err != nil {
		return nil, err
	}

	doc := &Document{HTML: buf.Bytes()}
	if data := frontmatter.Get(ctx); data != nil {
		if err := data.Decode(&doc.Frontmatter); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}
	return doc, nil
}
