package pattern

import (
	"strconv"
	"strings"
)

// span is a capture in left-to-right offsets of the canonical string.
type span struct {
	name string
	lo   int
	hi   int
	at   int // offset of the opening bracket in the source
}

// AnonymousName returns the placeholder name of the n-th unnamed capture.
func AnonymousName(n int) string {
	return "_" + strconv.Itoa(n)
}

// Parse parses a pattern string. Unnamed captures are numbered starting at
// anon. The returned counter is anon plus the number of captures in the
// pattern, which is the offset the next pattern of the same case must start
// from so that anonymous names never collide within a case.
func Parse(src string, anon int) (*Pattern, int, error) {
	var (
		bits  strings.Builder
		spans []span
		open  = -1 // index into spans of the open capture
		next  = anon
	)

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '[':
			if open >= 0 {
				return nil, anon, newError(src, i, ErrNestedCapture)
			}
			at := i
			name, colon, ok := parseName(src, i+1)
			if ok {
				// resume right after the colon
				i = colon
			}
			if name == "" {
				name = AnonymousName(next)
				next++
			}
			spans = append(spans, span{name: name, lo: bits.Len(), at: at})
			open = len(spans) - 1
		case '0', '1', 'x':
			bits.WriteByte(c)
		case ']':
			if open < 0 {
				return nil, anon, newError(src, i, ErrNoOpenCapture)
			}
			spans[open].hi = bits.Len()
			if spans[open].hi == spans[open].lo {
				return nil, anon, newError(src, i, ErrEmptyCapture)
			}
			open = -1
		case ' ', '_':
		default:
			return nil, anon, newError(src, i, ErrUnsupportedChar)
		}
	}
	if open >= 0 {
		return nil, anon, newError(src, spans[open].at, ErrUnclosedCapture)
	}

	p := &Pattern{
		Source:   src,
		Bits:     bits.String(),
		Captures: normalize(spans, bits.Len()),
	}
	return p, anon + len(p.Captures), nil
}

// parseName looks for a "name:" prefix starting at offset i. It reports the
// name and the offset of the colon; ok is false when there is no colon, in
// which case the bracket content is ordinary pattern text. "[:" yields ok with
// an empty name.
func parseName(src string, i int) (name string, colon int, ok bool) {
	var sb strings.Builder
	for j := i; j < len(src); j++ {
		c := src[j]
		switch {
		case c == ':':
			return sb.String(), j, true
		case c == ' ':
		case isNameChar(c):
			sb.WriteByte(c)
		default:
			return "", i, false
		}
	}
	return "", i, false
}

func isNameChar(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}

// normalize remaps left-to-right spans onto bit-significance ranges: the
// rightmost significant character is bit 0.
func normalize(spans []span, n int) []Capture {
	captures := make([]Capture, 0, len(spans))
	for _, s := range spans {
		captures = append(captures, Capture{
			Name:  s.name,
			Range: BitRange{Start: n - s.hi, End: n - s.lo},
		})
	}
	return captures
}
