// Package scrape extracts problem details from a problem page and reports
// them, together with live code edits, as PROBLEM_UPDATE payloads.
package scrape

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

const (
	titleClass   = "text-title-large"
	contentClass = "elfjS"
	exampleClass = "example"
)

// Parse reads a problem page and extracts its details.
func Parse(r io.Reader) (domain.ProblemDetails, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return domain.ProblemDetails{}, fmt.Errorf("failed to parse problem page: %w", err)
	}
	return ParseProblem(doc), nil
}

// ParseProblem extracts details from a parsed page. Missing parts are left
// empty; Examples is never nil.
//
// The description is the HTML of the content block's children up to the
// first one that is or contains an example. Examples are the trimmed texts
// of every pre block and constraints are the inner HTML of the first list.
func ParseProblem(doc *html.Node) domain.ProblemDetails {
	details := domain.ProblemDetails{Examples: []string{}}

	if title := findFirst(doc, withClass(titleClass)); title != nil {
		details.Title = strings.TrimSpace(textContent(title))
	}

	content := findFirst(doc, withClass(contentClass))
	if content == nil {
		return details
	}

	var desc strings.Builder
	for c := content.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if hasClass(c, exampleClass) || findFirstBelow(c, withClass(exampleClass)) != nil {
			break
		}
		desc.WriteString(outerHTML(c))
	}
	details.Description = desc.String()

	for _, pre := range findAll(content, withAtom(atom.Pre)) {
		details.Examples = append(details.Examples, strings.TrimSpace(textContent(pre)))
	}

	if ul := findFirstBelow(content, withAtom(atom.Ul)); ul != nil {
		details.Constraints = innerHTML(ul)
	}
	return details
}

// SlugFromPath returns the problem slug from a page path such as
// "/problems/two-sum/description/".
func SlugFromPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

type matcher func(*html.Node) bool

func withClass(class string) matcher {
	return func(n *html.Node) bool { return hasClass(n, class) }
}

func withAtom(a atom.Atom) matcher {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == a }
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" && attr.Namespace == "" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// findFirst returns n or its first descendant matching m, in document order.
func findFirst(n *html.Node, m matcher) *html.Node {
	if m(n) {
		return n
	}
	return findFirstBelow(n, m)
}

func findFirstBelow(n *html.Node, m matcher) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, m); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func outerHTML(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}
