package cs2

import (
	"fmt"
	"strings"
)

// block lines wrap after this many byte pairs
const blockWrap = 16

// Render walks a structural tree depth-first and emits CS2 text. Entry order
// is emitted verbatim, so identical trees always render identical text, and
// text produced by Render parses back into the same tree. The output always
// ends with exactly one trailing newline.
func Render(node *Node) []byte {
	var b strings.Builder
	switch node.Kind {
	case Record:
		renderEntries(&b, node.Entries, 0)
	case Scalar:
		b.WriteString(node.Value)
		b.WriteByte('\n')
	case Block:
		renderPairs(&b, node.Bytes, "")
	}
	return []byte(b.String())
}

func indent(depth int) string {
	if depth == 0 {
		return ""
	}
	return " " + strings.Repeat(".", depth)
}

func renderEntries(b *strings.Builder, entries []Entry, depth int) {
	for _, e := range entries {
		renderEntry(b, e.Key, e.Node, depth)
	}
}

func renderEntry(b *strings.Builder, key string, n *Node, depth int) {
	switch n.Kind {
	case Record:
		b.WriteString(indent(depth))
		b.WriteString(key)
		b.WriteByte('\n')
		if depth == 0 && strings.HasPrefix(key, "[") {
			// bracket groups keep their children at the top level
			renderEntries(b, n.Entries, 0)
		} else {
			renderEntries(b, n.Entries, depth+1)
		}

	case Scalar:
		b.WriteString(indent(depth))
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(n.Value)
		b.WriteByte('\n')

	case Block:
		b.WriteString(indent(depth))
		b.WriteString(key)
		b.WriteByte('=')
		renderPairs(b, n.Bytes, strings.Repeat(" ", depth+2))
	}
}

// renderPairs writes data as hex byte pairs, wrapped after blockWrap pairs.
// Continuation lines are indented with spaces only so they cannot be read
// back as key lines.
func renderPairs(b *strings.Builder, data []byte, contIndent string) {
	for i, v := range data {
		if i > 0 {
			if i%blockWrap == 0 {
				b.WriteByte('\n')
				b.WriteString(contIndent)
			} else {
				b.WriteByte(' ')
			}
		}
		fmt.Fprintf(b, "%02x", v)
	}
	b.WriteByte('\n')
}
