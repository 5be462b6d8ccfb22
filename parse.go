package cs2

import "fmt"

const defaultMaxDepth = 64

// Parser turns CS2 text into a structural tree. The zero configuration from
// [NewParser] accepts everything well-formed CS2 files contain; use the
// chained options to tighten it. A Parser is immutable and safe for
// concurrent use.
type Parser struct {
	strict   bool
	maxDepth int
}

func NewParser() *Parser {
	return &Parser{maxDepth: defaultMaxDepth}
}

// Strict returns a Parser that fails with [ErrUnterminatedGroup] when the
// input ends on a group header that never received children. The default is
// to flush such trailing groups as empty records, which is what CS2 devices
// themselves emit at end of file.
func (p *Parser) Strict() *Parser {
	if p.strict {
		return p
	}
	return &Parser{strict: true, maxDepth: p.maxDepth}
}

// MaxDepth returns a Parser that fails with [ErrDepthExceeded] when groups
// nest deeper than n levels. The default limit is 64.
func (p *Parser) MaxDepth(n int) *Parser {
	if p.maxDepth == n {
		return p
	}
	return &Parser{strict: p.strict, maxDepth: n}
}

type parseFrame struct {
	node       *Node
	childDepth int
	bracket    bool
}

// Parse consumes CS2 text and returns the document root, a [Record] whose
// entries are the top-level groups and values of the file. Parse fails on
// the first malformed line; the error wraps one of [ErrMalformedLine],
// [ErrUnexpectedIndent], [ErrDepthExceeded] or [ErrUnterminatedGroup] and
// carries the 1-based line number.
func (p *Parser) Parse(data []byte) (*Node, error) {
	root := NewRecord()
	stack := []parseFrame{{node: root}}

	// most recently added scalar, the merge target for block continuations
	var lastLeaf *Node

	for lno, tok := range scanLines(string(data)) {
		switch tok.kind {
		case lineError:
			return nil, fmt.Errorf("line %d: %w", lno, tok.err)

		case lineBracket:
			// bracket groups always hang off the root; a new header closes
			// everything the previous one opened
			stack = stack[:1]
			group := NewRecord()
			root.Add(tok.key, group)
			stack = append(stack, parseFrame{node: group, bracket: true})
			lastLeaf = nil

		case lineBlockData:
			// scanLines only emits continuations right after a hex-pair
			// scalar or another continuation, so lastLeaf is valid here
			if lastLeaf.Kind == Scalar {
				b, err := appendHexPairs(nil, lastLeaf.Value)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lno, err)
				}
				lastLeaf.Kind = Block
				lastLeaf.Bytes = b
				lastLeaf.Value = ""
			}
			b, err := appendHexPairs(lastLeaf.Bytes, tok.value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lno, err)
			}
			lastLeaf.Bytes = b

		case lineScalar, lineGroup:
			for len(stack) > 1 && stack[len(stack)-1].childDepth > tok.depth {
				stack = stack[:len(stack)-1]
			}
			top := &stack[len(stack)-1]
			if tok.depth > top.childDepth {
				return nil, fmt.Errorf("line %d: depth %d with no group open at depth %d: %w",
					lno, tok.depth, tok.depth-1, ErrUnexpectedIndent)
			}

			if tok.kind == lineScalar {
				leaf := NewScalar(tok.value)
				top.node.Add(tok.key, leaf)
				lastLeaf = leaf
				continue
			}

			if tok.depth+1 > p.maxDepth {
				return nil, fmt.Errorf("line %d: %w (limit %d)", lno, ErrDepthExceeded, p.maxDepth)
			}
			group := NewRecord()
			top.node.Add(tok.key, group)
			stack = append(stack, parseFrame{node: group, childDepth: tok.depth + 1})
			lastLeaf = nil
		}
	}

	if p.strict {
		for _, f := range stack[1:] {
			if !f.bracket && len(f.node.Entries) == 0 {
				return nil, fmt.Errorf("group still open at end of input: %w", ErrUnterminatedGroup)
			}
		}
	}

	return root, nil
}

var defaultParser = NewParser()

// Parse parses CS2 text with the default [Parser].
func Parse(data []byte) (*Node, error) {
	return defaultParser.Parse(data)
}
