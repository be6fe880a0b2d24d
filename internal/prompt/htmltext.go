package prompt

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLToText renders a problem HTML fragment as plain text for the model.
// Superscripts become ^d or ^(expr), list items become "- " lines,
// paragraphs are separated by a blank line and links, images, icons and
// italics are dropped.
func HTMLToText(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	var w textWriter
	for _, n := range nodes {
		w.walk(n)
	}
	return strings.Trim(w.b.String(), "\n ")
}

type textWriter struct {
	b     strings.Builder
	space bool
	pre   int
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
	default:
		w.children(n)
		return
	}

	switch n.DataAtom {
	case atom.Img, atom.Svg, atom.A, atom.I, atom.Script, atom.Style:
		return
	case atom.Sup:
		w.sup(n)
	case atom.Br:
		w.trimTrailingSpace()
		w.b.WriteByte('\n')
		w.space = false
	case atom.Li:
		w.breakLines(1)
		w.b.WriteString("- ")
		w.children(n)
		w.breakLines(1)
	case atom.P:
		w.breakLines(2)
		w.children(n)
		w.breakLines(2)
	case atom.Pre:
		w.breakLines(1)
		w.pre++
		w.children(n)
		w.pre--
		w.breakLines(2)
	case atom.Div, atom.Ul, atom.Ol:
		w.breakLines(1)
		w.children(n)
		w.breakLines(1)
	default:
		w.children(n)
	}
}

func (w *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *textWriter) sup(n *html.Node) {
	text := strings.TrimSpace(textContent(n))
	if text == "" {
		return
	}
	w.flushSpace()
	if len(text) == 1 && text[0] >= '0' && text[0] <= '9' {
		w.b.WriteString("^" + text)
		return
	}
	w.b.WriteString("^(" + text + ")")
}

func (w *textWriter) text(s string) {
	if w.pre > 0 {
		w.b.WriteString(strings.ReplaceAll(s, "\r\n", "\n"))
		w.space = false
		return
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			w.space = true
			continue
		}
		w.flushSpace()
		w.b.WriteRune(r)
	}
}

// flushSpace writes one collapsed space unless at the start of a line.
func (w *textWriter) flushSpace() {
	if w.space && !w.atLineStart() {
		w.b.WriteByte(' ')
	}
	w.space = false
}

func (w *textWriter) atLineStart() bool {
	s := w.b.String()
	return s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "- ")
}

func (w *textWriter) trimTrailingSpace() {
	s := w.b.String()
	trimmed := strings.TrimRight(s, " ")
	if len(trimmed) != len(s) {
		w.b.Reset()
		w.b.WriteString(trimmed)
	}
}

// breakLines ensures the output ends with at least n newlines. Nothing is
// written at the very start.
func (w *textWriter) breakLines(n int) {
	w.space = false
	w.trimTrailingSpace()
	s := w.b.String()
	if s == "" {
		return
	}
	have := len(s) - len(strings.TrimRight(s, "\n"))
	for ; have < n; have++ {
		w.b.WriteByte('\n')
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
