package cs2

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
)

type lineKind int8

const (
	// lineScalar is a `key=value` leaf.
	lineScalar lineKind = iota
	// lineGroup is a bare `key` opening a nested record one level deeper.
	lineGroup
	// lineBracket is a `[name]` header opening a top-level group.
	lineBracket
	// lineBlockData is a continuation line of bare hex byte pairs extending
	// the previous scalar into a block.
	lineBlockData
	// lineError carries a scan failure; err is set instead of key/value.
	lineError
)

// lineToken is one input line reduced to its structural content. Depth is
// the number of leading dots; space indentation is decoration only.
type lineToken struct {
	kind  lineKind
	depth int
	key   string
	value string
	err   error
}

var lineRegexp = regexp.MustCompile("\r\n|\r|\n")

func lines(input string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		lno := 1
		for match := lineRegexp.FindStringIndex(input); match != nil; match = lineRegexp.FindStringIndex(input) {
			if !yield(lno, input[:match[0]]) {
				return
			}
			input = input[match[1]:]
			lno++
		}
		yield(lno, input)
	}
}

// scanLines yields one lineToken per meaningful input line together with its
// 1-based line number. Blank lines and `#` comment lines are skipped. The
// sequence is finite and restartable; scanning stops early when yield
// returns false.
//
// A block continuation must be indented with leading whitespace, which is
// how devices write them. An unindented line of two hex digits after a
// hex-pair value is a group key, not more block data.
func scanLines(input string) iter.Seq2[int, lineToken] {
	return func(yield func(int, lineToken) bool) {
		// hexTail tracks whether the previous token ended in a run of hex
		// byte pairs, which is what allows a continuation line to follow.
		hexTail := false

		for lno, content := range lines(input) {
			rest := strings.TrimLeft(content, " \t")
			if rest == "" || strings.HasPrefix(rest, "#") {
				continue
			}
			indented := len(rest) < len(content)

			if hexTail && indented && !strings.Contains(rest, "=") && isHexPairs(rest) {
				if !yield(lno, lineToken{kind: lineBlockData, value: strings.TrimRight(rest, " \t")}) {
					return
				}
				continue
			}
			hexTail = false

			if strings.HasPrefix(rest, "[") {
				header := strings.TrimRight(rest, " \t")
				if !strings.HasSuffix(header, "]") || len(header) < 3 {
					if !yield(lno, lineToken{kind: lineError, err: fmt.Errorf("bad group header %q: %w", header, ErrMalformedLine)}) {
						return
					}
					continue
				}
				if !yield(lno, lineToken{kind: lineBracket, key: header}) {
					return
				}
				continue
			}

			depth := 0
			for depth < len(rest) && rest[depth] == '.' {
				depth++
			}
			rest = rest[depth:]

			key, value, found := strings.Cut(rest, "=")
			if !found {
				key = strings.TrimRight(key, " \t")
			}
			if key == "" {
				if !yield(lno, lineToken{kind: lineError, err: fmt.Errorf("empty key: %w", ErrMalformedLine)}) {
					return
				}
				continue
			}

			if !found {
				if !yield(lno, lineToken{kind: lineGroup, depth: depth, key: key}) {
					return
				}
				continue
			}

			hexTail = isHexPairs(value)
			if !yield(lno, lineToken{kind: lineScalar, depth: depth, key: key, value: value}) {
				return
			}
		}
	}
}
