// File: internal/browser/htmltext.go
package browser

import (
	"strings"

	"golang.org/x/net/html"
)

// TextFromHTML extracts the visible text content of an HTML fragment,
// one line per text node, skipping script and style bodies. It backs the
// best-effort extraction path used when a direct text read on a live node
// fails.
func TextFromHTML(fragment string) (string, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(lines, "\n"), nil
}
