package cs2

import (
	"fmt"
	"strconv"
	"strings"
)

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isHexPair(s string) bool {
	return len(s) == 2 && isHexDigit(s[0]) && isHexDigit(s[1])
}

// isHexPairs reports whether s consists entirely of whitespace-separated
// two-digit hex byte pairs, with at least one pair present.
func isHexPairs(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !isHexPair(f) {
			return false
		}
	}
	return true
}

// appendHexPairs decodes whitespace-separated hex byte pairs onto dst.
func appendHexPairs(dst []byte, s string) ([]byte, error) {
	for _, f := range strings.Fields(s) {
		if !isHexPair(f) {
			return nil, fmt.Errorf("bad byte %q: %w", f, ErrHexFormat)
		}
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad byte %q: %w", f, ErrHexFormat)
		}
		dst = append(dst, byte(b))
	}
	return dst, nil
}

// parseHexLit decodes a 0x-prefixed hex literal. In strict form the literal
// must have exactly digits hex digits; the compact form accepts any width up
// to 16 digits.
func parseHexLit(s string, compact bool, digits int) (uint64, error) {
	body, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return 0, fmt.Errorf("literal %q has no 0x prefix: %w", s, ErrHexFormat)
	}
	if compact {
		if len(body) < 1 || len(body) > 16 {
			return 0, fmt.Errorf("literal %q: %w", s, ErrHexFormat)
		}
	} else if len(body) != digits {
		return 0, fmt.Errorf("literal %q has %d digits, want %d: %w", s, len(body), digits, ErrHexFormat)
	}
	v, err := strconv.ParseUint(body, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("literal %q: %w", s, ErrHexFormat)
	}
	return v, nil
}

// formatHexLit renders v as a 0x-prefixed hex literal, zero padded to digits
// in strict form and minimal in compact form. The two forms are deliberately
// byte-distinct for equal values.
func formatHexLit(v uint64, compact bool, digits int) string {
	if compact {
		return "0x" + strconv.FormatUint(v, 16)
	}
	return fmt.Sprintf("0x%0*x", digits, v)
}
