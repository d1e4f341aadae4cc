// Package markdown converts profile markdown into HTML or plain text using
// goldmark with GitHub Flavored Markdown extensions.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM, // tables, strikethrough, autolinks, task lists
		extension.Footnote,
	),
)

func parse(source []byte) ast.Node {
	return md.Parser().Parse(text.NewReader(source))
}

// ToHTML converts markdown source to HTML. A document consisting of a single
// paragraph is rendered without the enclosing <p> element.
func ToHTML(source string) (string, error) {
	src := []byte(source)
	doc := parse(src)
	unwrapSingleParagraph(doc)

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func unwrapSingleParagraph(doc ast.Node) {
	para := doc.FirstChild()
	if doc.ChildCount() != 1 || para.Kind() != ast.KindParagraph {
		return
	}
	doc.RemoveChild(doc, para)
	for c := para.FirstChild(); c != nil; {
		next := c.NextSibling()
		para.RemoveChild(para, c)
		doc.AppendChild(doc, c)
		c = next
	}
}
