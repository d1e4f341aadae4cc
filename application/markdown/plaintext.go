package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"
)

// ToText flattens markdown source to plain text. Block elements are
// separated by blank lines; tables, raw HTML, strikethrough and footnotes are
// dropped.
func ToText(source string) string {
	src := []byte(source)
	w := &textWalker{source: src}
	w.walk(parse(src))
	return w.out.String()
}

type textWalker struct {
	source []byte
	out    strings.Builder
}

func (w *textWalker) walk(n ast.Node) {
	switch n := n.(type) {
	case *ast.Document, *ast.Blockquote, *ast.List, *ast.ListItem, *ast.Emphasis:
		w.children(n)
	case *ast.Link:
		if !w.isReference(n) {
			w.children(n)
		}
	case *ast.Paragraph:
		// Link reference definitions leave an empty paragraph behind.
		if n.Lines().Len() == 0 && !n.HasChildren() {
			return
		}
		w.children(n)
		w.out.WriteString("\n\n")
	case *ast.Heading, *ast.TextBlock:
		w.children(n)
		w.out.WriteString("\n\n")
	case *ast.Text:
		w.out.Write(w.textValue(n))
		if n.SoftLineBreak() || n.HardLineBreak() {
			w.out.WriteByte('\n')
		}
	case *ast.String:
		w.out.Write(n.Value)
	case *ast.CodeSpan:
		w.out.Write(w.inlineText(n))
	case *ast.CodeBlock, *ast.FencedCodeBlock:
		w.out.Write(w.blockLines(n))
	case *ast.AutoLink:
		w.out.Write(n.Label(w.source))
	case *ast.Image:
		w.out.Write(w.inlineText(n))
	default:
		// tables, thematic breaks, raw HTML, strikethrough, task check
		// boxes, footnotes, definitions and unknown extension nodes
		// contribute nothing.
	}
}

func (w *textWalker) children(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.walk(c)
	}
}

// isReference reports whether l was written as a reference link
// ([label][ref], [ref][] or [ref]) rather than an inline link. goldmark
// resolves both to *ast.Link; only the inline form is followed by "(".
func (w *textWalker) isReference(l *ast.Link) bool {
	stop := -1
	_ = ast.Walk(l, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering && t.Segment.Stop > stop {
			stop = t.Segment.Stop
		}
		return ast.WalkContinue, nil
	})
	if stop < 0 {
		return false
	}
	rest := w.source[stop:]
	end := bytes.IndexByte(rest, ']')
	if end < 0 || end+1 >= len(rest) {
		return end >= 0
	}
	return rest[end+1] != '('
}

func (w *textWalker) textValue(n *ast.Text) []byte {
	value := n.Segment.Value(w.source)
	if n.IsRaw() {
		return value
	}
	value = util.UnescapePunctuations(value)
	value = util.ResolveNumericReferences(value)
	return util.ResolveEntityNames(value)
}

// inlineText collects the literal text below n: the code of a code span or
// the alt text of an image.
func (w *textWalker) inlineText(n ast.Node) []byte {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(w.textValue(c))
			if c.SoftLineBreak() || c.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(c.Value)
		case *ast.AutoLink:
			buf.Write(c.Label(w.source))
		}
		return ast.WalkContinue, nil
	})
	return buf.Bytes()
}

// blockLines returns the content of a code block without its final newline.
func (w *textWalker) blockLines(n ast.Node) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(w.source))
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}
