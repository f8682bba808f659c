package jsx

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/boxwind/pkg/convert"
)

// visitFunc receives the offset of every code byte outside strings, comments
// and JSX, together with its bracket depth. Openers and their closers are
// reported at the same depth.
type visitFunc func(pos, depth int)

// scanError is an internal error carrying a byte offset; Parse converts it
// into a ParseError with line and column.
type scanError struct {
	offset int
	msg    string
}

func (e *scanError) Error() string { return e.msg }

// exprKeywords are identifiers after which an expression (and therefore a
// regular expression or JSX element) may start.
var exprKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"throw": true, "yield": true, "await": true, "default": true,
}

// scanner walks TSX source. It understands just enough of the language to
// tell code, strings, comments, regular expressions and JSX apart.
type scanner struct {
	src string
	pos int

	// nodes collects elements in the order of their opening tags.
	nodes []*Node

	lastSig  byte   // last significant code byte; 'a' identifier, '0' number, 's' string
	lastWord string // identifier text when lastSig == 'a'
}

func newScanner(src string) *scanner {
	return &scanner{src: src}
}

func (s *scanner) errorf(offset int, format string, args ...any) error {
	return &scanError{offset: offset, msg: fmt.Sprintf(format, args...)}
}

// peek returns the byte n positions ahead, or 0 past the end.
func (s *scanner) peek(n int) byte {
	if s.pos+n >= len(s.src) {
		return 0
	}
	return s.src[s.pos+n]
}

// scanCode consumes JavaScript code. With untilBrace set it stops at the
// unmatched closing brace, leaving pos on it.
func (s *scanner) scanCode(untilBrace bool, visit visitFunc) error {
	depth := 0
	report := func(pos, d int) {
		if visit != nil {
			visit(pos, d)
		}
	}

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '/' && s.peek(1) == '/':
			s.skipLineComment()
		case c == '/' && s.peek(1) == '*':
			if err := s.skipBlockComment(); err != nil {
				return err
			}
		case c == '/' && s.exprAllowed():
			start := s.pos
			if s.skipRegex() {
				s.lastSig = 's'
				continue
			}
			s.pos = start + 1
			s.lastSig = '/'
			report(start, depth)
		case c == '\'' || c == '"':
			if err := s.skipString(c); err != nil {
				return err
			}
			s.lastSig = 's'
		case c == '`':
			if err := s.skipTemplate(); err != nil {
				return err
			}
			s.lastSig = 's'
		case c == '<' && s.jsxStart() && (s.exprAllowed() || s.afterLineBreak()):
			start := s.pos
			strict := s.exprAllowed()
			err := s.tryElement()
			if err == nil {
				s.lastSig = ')'
				continue
			}
			if strict && !s.typeParams(start) {
				return err
			}
			s.pos = start + 1
			s.lastSig = '<'
			report(start, depth)
		case c == '(' || c == '[' || c == '{':
			report(s.pos, depth)
			depth++
			s.lastSig = c
			s.pos++
		case c == ')' || c == ']' || c == '}':
			if depth == 0 {
				if c == '}' && untilBrace {
					return nil
				}
				if untilBrace {
					return s.errorf(s.pos, errUnbalanced, c)
				}
				// Stray closer at the top level; keep going.
				s.lastSig = c
				s.pos++
				continue
			}
			depth--
			report(s.pos, depth)
			s.lastSig = c
			s.pos++
		case isIdentStart(c):
			start := s.pos
			for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
				s.pos++
			}
			s.lastWord = s.src[start:s.pos]
			s.lastSig = 'a'
		case isDigit(c):
			for s.pos < len(s.src) && (isIdentPart(s.src[s.pos]) || s.src[s.pos] == '.') {
				s.pos++
			}
			s.lastSig = '0'
		default:
			report(s.pos, depth)
			s.lastSig = c
			s.pos++
		}
	}

	if untilBrace {
		return s.errorf(len(s.src), errUnbalanced, '{')
	}
	return nil
}

// exprAllowed reports whether an operand may start at the current position,
// which is what separates a regular expression from division and a JSX
// element from a less-than comparison or a type argument list.
func (s *scanner) exprAllowed() bool {
	switch s.lastSig {
	case 0, '(', ',', '=', ':', '[', '!', '&', '|', '?', '{', '}', ';', '+', '-', '*', '%', '<', '>', '~', '^':
		return true
	case 'a':
		return exprKeywords[s.lastWord]
	}
	return false
}

func (s *scanner) jsxStart() bool {
	next := s.peek(1)
	return next == '>' || isIdentStart(next)
}

// afterLineBreak reports whether a line break separates the current
// position from an operand or closing bracket. The previous statement may
// have ended there, so a '<' could start an element.
func (s *scanner) afterLineBreak() bool {
	switch s.lastSig {
	case 'a', '0', 's', ')', ']':
	default:
		return false
	}
	for i := s.pos - 1; i >= 0; i-- {
		switch s.src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return false
}

// typeParams reports whether the '<' at start opens a type parameter list
// such as <T,>, <T extends X> or <T>(x) rather than an element.
func (s *scanner) typeParams(start int) bool {
	i := start + 1
	for i < len(s.src) && isIdentPart(s.src[i]) {
		i++
	}
	rest := strings.TrimLeft(s.src[i:], " \t\r\n")
	switch {
	case strings.HasPrefix(rest, ","), strings.HasPrefix(rest, "="):
		return true
	case strings.HasPrefix(rest, "extends") && len(rest) > 7 && isSpace(rest[7]):
		return true
	case strings.HasPrefix(rest, ">"):
		return strings.HasPrefix(strings.TrimLeft(rest[1:], " \t"), "(")
	}
	return false
}

// tryElement parses a JSX element at pos. On failure the scanner state is
// restored except for pos, which the caller resets.
func (s *scanner) tryElement() error {
	mark := len(s.nodes)
	if err := s.parseElement(); err != nil {
		for i := mark; i < len(s.nodes); i++ {
			s.nodes[i] = nil
		}
		s.nodes = s.nodes[:mark]
		return err
	}
	return nil
}

func (s *scanner) skipLineComment() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

func (s *scanner) skipBlockComment() error {
	start := s.pos
	end := strings.Index(s.src[s.pos+2:], "*/")
	if end < 0 {
		return s.errorf(start, errUnterminatedComment)
	}
	s.pos += end + 4
	return nil
}

func (s *scanner) skipString(q byte) error {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
		case q:
			s.pos++
			return nil
		case '\n':
			return s.errorf(start, errUnterminatedString)
		default:
			s.pos++
		}
	}
	return s.errorf(start, errUnterminatedString)
}

func (s *scanner) skipTemplate() error {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
		case '`':
			s.pos++
			return nil
		case '$':
			if s.peek(1) != '{' {
				s.pos++
				continue
			}
			s.pos += 2
			s.lastSig = '{'
			if err := s.scanCode(true, nil); err != nil {
				return err
			}
			s.pos++
		default:
			s.pos++
		}
	}
	return s.errorf(start, errUnterminatedTemplate)
}

// skipRegex consumes a regular expression literal and its flags. It reports
// false, without consuming anything useful, when the slash turns out not to
// start one.
func (s *scanner) skipRegex() bool {
	s.pos++
	inClass := false
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
		case '[':
			inClass = true
			s.pos++
		case ']':
			inClass = false
			s.pos++
		case '/':
			s.pos++
			if inClass {
				continue
			}
			for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
				s.pos++
			}
			return true
		case '\n':
			return false
		default:
			s.pos++
		}
	}
	return false
}

// skipTrivia skips whitespace and comments inside a tag.
func (s *scanner) skipTrivia() error {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '/' && s.peek(1) == '/':
			s.skipLineComment()
		case c == '/' && s.peek(1) == '*':
			if err := s.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

// parseElement parses a JSX element or fragment starting at '<'.
func (s *scanner) parseElement() error {
	open := s.pos
	s.pos++
	if s.peek(0) == '>' {
		s.pos++
		_, err := s.parseChildren("")
		return err
	}

	name := s.readName(isTagPart)
	if name == "" {
		return s.errorf(open, "expected tag name")
	}

	n := &Node{Element: convert.Element{Tag: name}}
	s.nodes = append(s.nodes, n)

	for {
		if err := s.skipTrivia(); err != nil {
			return err
		}
		if s.pos >= len(s.src) {
			return s.errorf(open, "unterminated tag <%s>", name)
		}

		c := s.src[s.pos]
		switch {
		case c == '/':
			if s.peek(1) != '>' {
				return s.errorf(s.pos, "expected /> in <%s>", name)
			}
			s.pos += 2
			n.Element.SelfClosing = true
			n.Open = Span{Start: open, End: s.pos}
			return nil
		case c == '>':
			s.pos++
			n.Open = Span{Start: open, End: s.pos}
			closeStart, err := s.parseChildren(name)
			if err != nil {
				return err
			}
			n.Close = Span{Start: closeStart, End: s.pos}
			return nil
		case c == '{':
			if err := s.parseSpread(n); err != nil {
				return err
			}
		case isIdentStart(c):
			attr, err := s.parseAttribute()
			if err != nil {
				return err
			}
			n.Element.Attrs = append(n.Element.Attrs, attr)
		default:
			return s.errorf(s.pos, "unexpected %q in <%s>", c, name)
		}
	}
}

// parseChildren consumes element content up to the matching closing tag and
// returns the offset where that tag starts. name is "" for fragments.
func (s *scanner) parseChildren(name string) (int, error) {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '<':
			if s.peek(1) == '/' {
				start := s.pos
				s.pos += 2
				_ = s.skipTrivia()
				closing := s.readName(isTagPart)
				_ = s.skipTrivia()
				if s.peek(0) != '>' || closing != name {
					return 0, s.errorf(start, "mismatched closing tag </%s> for <%s>", closing, name)
				}
				s.pos++
				return start, nil
			}
			if err := s.parseElement(); err != nil {
				return 0, err
			}
		case '{':
			s.pos++
			s.lastSig = '{'
			if err := s.scanCode(true, nil); err != nil {
				return 0, err
			}
			s.pos++
		default:
			s.pos++
		}
	}
	return 0, s.errorf(len(s.src), "unterminated element <%s>", name)
}

func (s *scanner) parseSpread(n *Node) error {
	start := s.pos
	s.pos++
	if err := s.skipTrivia(); err != nil {
		return err
	}
	if s.peek(0) == '}' {
		// {/* comment */} between attributes
		s.pos++
		return nil
	}
	if !strings.HasPrefix(s.src[s.pos:], "...") {
		return s.errorf(start, "expected spread attribute")
	}
	s.pos += 3
	exprStart := s.pos
	s.lastSig = '{'
	if err := s.scanCode(true, nil); err != nil {
		return err
	}
	n.Element.Spreads = append(n.Element.Spreads, strings.TrimSpace(s.src[exprStart:s.pos]))
	s.pos++
	return nil
}

func (s *scanner) parseAttribute() (convert.Attribute, error) {
	name := s.readName(isAttrPart)
	attr := convert.Attribute{Name: name, Value: convert.AbsentValue()}

	if err := s.skipTrivia(); err != nil {
		return attr, err
	}
	if s.peek(0) != '=' {
		return attr, nil
	}
	s.pos++
	if err := s.skipTrivia(); err != nil {
		return attr, err
	}

	start := s.pos
	switch c := s.peek(0); c {
	case '"', '\'':
		end := strings.IndexByte(s.src[s.pos+1:], c)
		if end < 0 {
			return attr, s.errorf(start, errUnterminatedString)
		}
		s.pos += end + 2
		attr.Initializer = s.src[start:s.pos]
		attr.Value = convert.Literal(s.src[start+1 : s.pos-1])
	case '{':
		s.pos++
		s.lastSig = '{'
		if err := s.scanCode(true, nil); err != nil {
			return attr, err
		}
		expr := s.src[start+1 : s.pos]
		s.pos++
		attr.Initializer = s.src[start:s.pos]
		attr.Value = ParseExpression(expr)
	case '<':
		if err := s.parseElement(); err != nil {
			return attr, err
		}
		attr.Initializer = s.src[start:s.pos]
		attr.Value = convert.Expr(attr.Initializer)
	default:
		return attr, s.errorf(start, "expected attribute value for %s", name)
	}
	return attr, nil
}

func (s *scanner) readName(part func(byte) bool) string {
	start := s.pos
	for s.pos < len(s.src) && part(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$' || c >= 0x80
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isTagPart(c byte) bool { return isIdentPart(c) || c == '-' || c == '.' || c == ':' }

func isAttrPart(c byte) bool { return isIdentPart(c) || c == '-' || c == ':' }
