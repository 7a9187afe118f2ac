package caption

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Default structural signatures of the YouTube player caption surface.
const (
	DefaultContainerSelector = ".ytp-caption-window-container"
	DefaultSegmentSelector   = ".ytp-caption-segment"
)

// Extract returns the normalized caption text held by a container snapshot.
// Every element matching seg, at any depth and in document order,
// contributes its text content; contributions are joined with one space.
//
// No matching segment, or a snapshot that does not parse, yields "".
// Silence between utterances is the common case, not a failure.
func Extract(containerHTML []byte, seg Selector) string {
	if len(containerHTML) == 0 {
		return ""
	}
	doc, err := html.Parse(bytes.NewReader(containerHTML))
	if err != nil {
		return ""
	}
	return ExtractNode(doc, seg)
}

// ExtractNode is Extract for an already parsed tree.
func ExtractNode(root *html.Node, seg Selector) string {
	segments := seg.MatchAll(root)
	if len(segments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(segments))
	for _, n := range segments {
		parts = append(parts, textContent(n))
	}
	return Normalize(strings.Join(parts, " "))
}

// textContent concatenates every text node under n, like DOM textContent.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}
