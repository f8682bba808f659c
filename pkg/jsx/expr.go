package jsx

import (
	"strings"

	"github.com/leapstack-labs/boxwind/pkg/convert"
)

// ParseExpression classifies the source between the braces of an attribute
// expression.
//
// A single string literal becomes a StringLiteral, a top-level ternary a
// Conditional (branches classified recursively), an object literal an
// ObjectLiteral, and anything else stays Opaque. Empty expressions and
// expressions made only of comments are Absent.
func ParseExpression(src string) convert.Value {
	text := strings.TrimSpace(src)
	if isBlank(text) {
		return convert.AbsentValue()
	}
	if v, ok := parseTernary(text); ok {
		return v
	}
	if lit, ok := stringLiteral(text); ok {
		return convert.Literal(lit)
	}
	if entries, ok := objectLiteral(text); ok {
		return convert.Object(entries...)
	}
	return convert.Expr(text)
}

// parseBranch classifies one branch of a ternary. Objects are not expanded
// inside branches.
func parseBranch(src string) convert.Value {
	text := strings.TrimSpace(src)
	if v, ok := parseTernary(text); ok {
		return v
	}
	if lit, ok := stringLiteral(text); ok {
		return convert.Literal(lit)
	}
	return convert.Expr(text)
}

func isBlank(text string) bool {
	for text != "" {
		switch {
		case strings.HasPrefix(text, "/*"):
			end := strings.Index(text[2:], "*/")
			if end < 0 {
				return false
			}
			text = strings.TrimSpace(text[end+4:])
		case strings.HasPrefix(text, "//"):
			end := strings.IndexByte(text, '\n')
			if end < 0 {
				return true
			}
			text = strings.TrimSpace(text[end+1:])
		default:
			return false
		}
	}
	return true
}

// topLevel returns the offsets of code bytes at bracket depth zero.
func topLevel(text string) ([]int, bool) {
	var marks []int
	s := newScanner(text)
	err := s.scanCode(false, func(pos, depth int) {
		if depth == 0 {
			marks = append(marks, pos)
		}
	})
	return marks, err == nil
}

// isTernaryMark reports whether the '?' at i is a conditional operator rather
// than part of '?.' or '??'.
func isTernaryMark(text string, i int) bool {
	if i+1 < len(text) && text[i+1] == '?' || i > 0 && text[i-1] == '?' {
		return false
	}
	if i+1 < len(text) && text[i+1] == '.' {
		return i+2 < len(text) && isDigit(text[i+2])
	}
	return true
}

func parseTernary(text string) (convert.Value, bool) {
	marks, ok := topLevel(text)
	if !ok {
		return convert.Value{}, false
	}

	q := -1
	rest := 0
	for i, m := range marks {
		c := text[m]
		if c == '=' && m+1 < len(text) && text[m+1] == '>' {
			// arrow function body
			return convert.Value{}, false
		}
		if c == '?' && isTernaryMark(text, m) {
			q, rest = m, i+1
			break
		}
	}
	if q < 0 {
		return convert.Value{}, false
	}

	nested := 0
	for _, m := range marks[rest:] {
		switch text[m] {
		case '?':
			if isTernaryMark(text, m) {
				nested++
			}
		case ':':
			if nested > 0 {
				nested--
				continue
			}
			cond := strings.TrimSpace(text[:q])
			then := parseBranch(text[q+1 : m])
			els := parseBranch(text[m+1:])
			return convert.Ternary(cond, then, els), true
		}
	}
	return convert.Value{}, false
}

// stringLiteral reports whether text is exactly one quoted string and
// returns its decoded contents.
func stringLiteral(text string) (string, bool) {
	if len(text) < 2 || (text[0] != '"' && text[0] != '\'') {
		return "", false
	}
	s := newScanner(text)
	if err := s.skipString(text[0]); err != nil || s.pos != len(text) {
		return "", false
	}
	return unquote(text[1 : len(text)-1]), true
}

// unquote decodes the common JavaScript escapes. Unknown escapes yield the
// escaped character.
func unquote(body string) string {
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\n':
			// line continuation
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

func objectLiteral(text string) ([]convert.Entry, bool) {
	if text[0] != '{' || text[len(text)-1] != '}' {
		return nil, false
	}
	marks, ok := topLevel(text)
	if !ok || len(marks) != 2 || marks[0] != 0 || marks[1] != len(text)-1 {
		return nil, false
	}

	var entries []convert.Entry
	for _, part := range splitTopLevel(text[1:len(text)-1], ',') {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "...") {
			continue
		}
		if entry, ok := objectEntry(part); ok {
			entries = append(entries, entry)
		}
	}
	return entries, true
}

func objectEntry(part string) (convert.Entry, bool) {
	colon := -1
	if marks, ok := topLevel(part); ok {
		for _, m := range marks {
			if part[m] == ':' {
				colon = m
				break
			}
		}
	}
	if colon < 0 {
		if isIdentifier(part) {
			return convert.Entry{Key: part}, true
		}
		// methods, getters and the like
		return convert.Entry{}, false
	}

	key := strings.TrimSpace(part[:colon])
	if lit, ok := stringLiteral(key); ok {
		key = lit
	}
	value := strings.TrimSpace(part[colon+1:])
	if lit, ok := stringLiteral(value); ok {
		value = lit
	}
	return convert.Entry{Key: key, Value: value, HasValue: true}, true
}

// splitTopLevel splits text at separators outside brackets, strings and
// comments.
func splitTopLevel(text string, sep byte) []string {
	marks, ok := topLevel(text)
	if !ok {
		return []string{text}
	}
	var parts []string
	last := 0
	for _, m := range marks {
		if text[m] == sep {
			parts = append(parts, text[last:m])
			last = m + 1
		}
	}
	return append(parts, text[last:])
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
