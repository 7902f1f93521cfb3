package scanner

import (
	"fmt"
	"strings"

	"github.com/dshills/phpdoc-mcp/internal/token"
)

// Error is a lexical problem. Scanning continues past it so callers still
// receive every token that could be produced.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// operators lists multi-character operators, longest first
var operators = []struct {
	text string
	kind token.Kind
}{
	{"<=>", token.Operator},
	{"===", token.Operator},
	{"!==", token.Operator},
	{"**=", token.Operator},
	{"<<=", token.Operator},
	{">>=", token.Operator},
	{"??=", token.Operator},
	{"...", token.Ellipsis},
	{"?->", token.ObjectOperator},
	{"::", token.DoubleColon},
	{"->", token.ObjectOperator},
	{"=>", token.DoubleArrow},
	{"==", token.Operator},
	{"!=", token.Operator},
	{"<>", token.Operator},
	{"<=", token.Operator},
	{">=", token.Operator},
	{"&&", token.Operator},
	{"||", token.Operator},
	{"++", token.Operator},
	{"--", token.Operator},
	{"+=", token.Operator},
	{"-=", token.Operator},
	{"*=", token.Operator},
	{"/=", token.Operator},
	{".=", token.Operator},
	{"%=", token.Operator},
	{"&=", token.Operator},
	{"|=", token.Operator},
	{"^=", token.Operator},
	{"<<", token.Operator},
	{">>", token.Operator},
	{"??", token.Operator},
	{"**", token.Operator},
}

// Scanner converts PHP source text into tokens. Whitespace is not emitted;
// it sets the Space flag of the following token instead.
type Scanner struct {
	src    string
	pos    int
	line   int
	space  bool
	tokens []token.Token
	errs   []error
}

// New creates a scanner over src
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// Scan tokenizes src and returns the tokens with any lexical errors
func Scan(src string) ([]token.Token, []error) {
	return New(src).Run()
}

// Run scans the whole input
func (s *Scanner) Run() ([]token.Token, []error) {
	for s.pos < len(s.src) {
		if !s.scanHTML() {
			break
		}
		s.scanCode(false)
	}
	return s.tokens, s.errs
}

func (s *Scanner) errorf(line int, format string, args ...interface{}) {
	s.errs = append(s.errs, &Error{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (s *Scanner) push(kind token.Kind, text string, line int) {
	s.tokens = append(s.tokens, token.Token{Kind: kind, Text: text, Line: line, Space: s.space})
	s.space = false
}

// take emits the next n bytes as one token and advances past them
func (s *Scanner) take(kind token.Kind, n int) {
	if s.pos+n > len(s.src) {
		n = len(s.src) - s.pos
	}
	s.push(kind, s.src[s.pos:s.pos+n], s.line)
	s.advance(n)
}

func (s *Scanner) advance(n int) {
	for i := 0; i < n && s.pos < len(s.src); i++ {
		if s.src[s.pos] == '\n' {
			s.line++
		}
		s.pos++
	}
}

func (s *Scanner) peek(offset int) byte {
	if s.pos+offset < len(s.src) {
		return s.src[s.pos+offset]
	}
	return 0
}

func (s *Scanner) lastKind() (token.Kind, bool) {
	if len(s.tokens) == 0 {
		return 0, false
	}
	return s.tokens[len(s.tokens)-1].Kind, true
}

// scanHTML emits inline HTML up to the next open tag. It returns false when
// the input ends without one.
func (s *Scanner) scanHTML() bool {
	for i := s.pos; i < len(s.src); i++ {
		if s.src[i] != '<' {
			continue
		}
		n, kind := openTagAt(s.src, i)
		if n == 0 {
			continue
		}
		if i > s.pos {
			s.take(token.InlineHTML, i-s.pos)
		}
		s.take(kind, n)
		return true
	}
	if s.pos < len(s.src) {
		s.take(token.InlineHTML, len(s.src)-s.pos)
	}
	return false
}

func openTagAt(src string, i int) (int, token.Kind) {
	rest := src[i:]
	switch {
	case len(rest) >= 5 && strings.EqualFold(rest[:5], "<?php"):
		if len(rest) == 5 {
			return 5, token.OpenTag
		}
		if isSpace(rest[5]) {
			return 5 + newlineWidth(rest[5:]), token.OpenTag
		}
	case strings.HasPrefix(rest, "<?="):
		return 3, token.OpenTagWithEcho
	case strings.HasPrefix(rest, "<?") && len(rest) > 2 && isSpace(rest[2]):
		return 2 + newlineWidth(rest[2:]), token.OpenTag
	}
	return 0, 0
}

// newlineWidth returns the width of a single leading whitespace character,
// treating \r\n as one
func newlineWidth(s string) int {
	if strings.HasPrefix(s, "\r\n") {
		return 2
	}
	return 1
}

// scanCode scans PHP code. With interp set it returns after the } that
// closes a string interpolation; otherwise it returns on ?> or end of input.
func (s *Scanner) scanCode(interp bool) {
	depth := 0
	startLine := s.line
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case isSpace(c):
			s.space = true
			s.advance(1)
		case c == '#' && s.peek(1) == '[':
			s.take(token.Literal, 2)
		case c == '#' || (c == '/' && s.peek(1) == '/'):
			s.scanLineComment()
		case c == '/' && s.peek(1) == '*':
			s.scanBlockComment()
		case c == '?' && s.peek(1) == '>':
			if interp {
				s.take(token.Literal, 1)
				continue
			}
			n := 2
			if s.pos+2 < len(s.src) && (s.src[s.pos+2] == '\n' || s.src[s.pos+2] == '\r') {
				n += newlineWidth(s.src[s.pos+2:])
			}
			s.take(token.CloseTag, n)
			return
		case c == '$' && isIdentStart(s.peek(1)):
			s.take(token.Variable, 1+identLen(s.src[s.pos+1:]))
		case c == '\'':
			s.scanSingleQuoted()
		case c == '"' || c == '`':
			s.scanDoubleQuoted(c)
		case c == '<' && strings.HasPrefix(s.src[s.pos:], "<<<") && s.scanHeredoc():
		case isDigit(c) || (c == '.' && isDigit(s.peek(1))):
			s.scanNumber()
		case isIdentStart(c):
			s.scanWord()
		case c == '\\':
			s.take(token.NsSeparator, 1)
		case c == '{':
			depth++
			s.take(token.Literal, 1)
		case c == '}':
			s.take(token.Literal, 1)
			if depth == 0 && interp {
				return
			}
			if depth > 0 {
				depth--
			}
		default:
			s.scanOperator()
		}
	}
	if interp {
		s.errorf(startLine, "unterminated string interpolation")
	}
}

func (s *Scanner) scanWord() {
	n := identLen(s.src[s.pos:])
	word := s.src[s.pos : s.pos+n]
	kind := token.LookupKeyword(word)
	if kind != token.Identifier && s.forcesIdentifier() {
		kind = token.Identifier
	}
	s.take(kind, n)
}

// forcesIdentifier reports whether the previous tokens make the next word a
// name rather than a keyword: after -> or ::, and after function [&]
func (s *Scanner) forcesIdentifier() bool {
	last, ok := s.lastKind()
	if !ok {
		return false
	}
	switch last {
	case token.ObjectOperator, token.DoubleColon, token.Function, token.Const:
		return true
	case token.Literal:
		n := len(s.tokens)
		return s.tokens[n-1].Text == "&" && n >= 2 && s.tokens[n-2].Kind == token.Function
	}
	return false
}

func (s *Scanner) scanNumber() {
	rest := s.src[s.pos:]
	kind := token.LNumber
	i := 0
	if len(rest) > 1 && rest[0] == '0' && (rest[1] == 'x' || rest[1] == 'X' || rest[1] == 'b' || rest[1] == 'B') {
		i = 2
		for i < len(rest) && (isHexDigit(rest[i]) || rest[i] == '_') {
			i++
		}
		s.take(kind, i)
		return
	}
	for i < len(rest) && (isDigit(rest[i]) || rest[i] == '_') {
		i++
	}
	if i < len(rest) && rest[i] == '.' && (i+1 >= len(rest) || rest[i+1] != '.') {
		kind = token.DNumber
		i++
		for i < len(rest) && (isDigit(rest[i]) || rest[i] == '_') {
			i++
		}
	}
	if i < len(rest) && (rest[i] == 'e' || rest[i] == 'E') {
		j := i + 1
		if j < len(rest) && (rest[j] == '+' || rest[j] == '-') {
			j++
		}
		if j < len(rest) && isDigit(rest[j]) {
			kind = token.DNumber
			i = j
			for i < len(rest) && isDigit(rest[i]) {
				i++
			}
		}
	}
	s.take(kind, i)
}

func (s *Scanner) scanOperator() {
	rest := s.src[s.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			s.take(op.kind, len(op.text))
			return
		}
	}
	s.take(token.Literal, 1)
}

func (s *Scanner) scanLineComment() {
	rest := s.src[s.pos:]
	n := len(rest)
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		n = i
	}
	if i := strings.Index(rest[:n], "?>"); i >= 0 {
		n = i
	}
	n = len(strings.TrimRight(rest[:n], "\r"))
	s.take(token.Comment, n)
}

func (s *Scanner) scanBlockComment() {
	rest := s.src[s.pos:]
	n := len(rest)
	if i := strings.Index(rest[2:], "*/"); i >= 0 {
		n = i + 4
	} else {
		s.errorf(s.line, "unterminated comment")
	}
	kind := token.Comment
	if n > 4 && strings.HasPrefix(rest, "/**") && isSpace(rest[3]) {
		kind = token.DocComment
	}
	s.take(kind, n)
}

func (s *Scanner) scanSingleQuoted() {
	rest := s.src[s.pos:]
	for i := 1; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			i++
		case '\'':
			s.take(token.ConstantString, i+1)
			return
		}
	}
	s.errorf(s.line, "unterminated string")
	s.take(token.ConstantString, len(rest))
}

// scanDoubleQuoted emits a plain string as one ConstantString token. A
// string containing interpolation is split into the delimiter literals,
// EncapsedAndWhitespace chunks and the interpolated expressions.
func (s *Scanner) scanDoubleQuoted(delim byte) {
	rest := s.src[s.pos:]
	interpolated := false
	end := -1
	for i := 1; i < len(rest) && end < 0; i++ {
		switch c := rest[i]; {
		case c == '\\':
			i++
		case c == delim:
			end = i
		case c == '$' && i+1 < len(rest) && (isIdentStart(rest[i+1]) || rest[i+1] == '{'):
			interpolated = true
		case c == '{' && i+1 < len(rest) && rest[i+1] == '$':
			interpolated = true
		}
	}
	if !interpolated {
		if end < 0 {
			s.errorf(s.line, "unterminated string")
			s.take(token.ConstantString, len(rest))
			return
		}
		s.take(token.ConstantString, end+1)
		return
	}

	line := s.line
	s.take(token.Literal, 1)
	closed := s.scanParts(func() bool { return s.src[s.pos] == delim })
	if !closed {
		s.errorf(line, "unterminated string")
		return
	}
	s.take(token.Literal, 1)
}

// scanParts scans an interpolated string body until atEnd reports the
// terminator at the current position. It returns false at end of input.
func (s *Scanner) scanParts(atEnd func() bool) bool {
	chunkStart, chunkLine := s.pos, s.line
	flush := func() {
		if s.pos > chunkStart {
			s.push(token.EncapsedAndWhitespace, s.src[chunkStart:s.pos], chunkLine)
		}
	}
	for s.pos < len(s.src) {
		if atEnd() {
			flush()
			return true
		}
		c := s.src[s.pos]
		switch {
		case c == '\\' && s.pos+1 < len(s.src):
			s.advance(2)
			continue
		case c == '$' && isIdentStart(s.peek(1)):
			flush()
			s.scanStringVariable()
		case c == '$' && s.peek(1) == '{':
			flush()
			s.take(token.DollarOpenCurlyBraces, 2)
			s.scanCode(true)
		case c == '{' && s.peek(1) == '$':
			flush()
			s.take(token.CurlyOpen, 1)
			s.scanCode(true)
		default:
			s.advance(1)
			continue
		}
		chunkStart, chunkLine = s.pos, s.line
	}
	flush()
	return false
}

// scanStringVariable handles $var, $var[key] and $var->prop inside a string
func (s *Scanner) scanStringVariable() {
	s.take(token.Variable, 1+identLen(s.src[s.pos+1:]))
	switch {
	case s.peek(0) == '[':
		s.take(token.Literal, 1)
		switch c := s.peek(0); {
		case c == '$' && isIdentStart(s.peek(1)):
			s.take(token.Variable, 1+identLen(s.src[s.pos+1:]))
		case isDigit(c):
			n := 0
			for s.pos+n < len(s.src) && isDigit(s.src[s.pos+n]) {
				n++
			}
			s.take(token.LNumber, n)
		case isIdentStart(c):
			s.take(token.Identifier, identLen(s.src[s.pos:]))
		}
		if s.peek(0) == ']' {
			s.take(token.Literal, 1)
		}
	case s.peek(0) == '-' && s.peek(1) == '>' && isIdentStart(s.peek(2)):
		s.take(token.ObjectOperator, 2)
		s.take(token.Identifier, identLen(s.src[s.pos:]))
	}
}

// scanHeredoc scans <<<LABEL, <<<"LABEL" and <<<'LABEL' strings. It returns
// false, consuming nothing, when the header is not a valid heredoc start.
func (s *Scanner) scanHeredoc() bool {
	rest := s.src[s.pos:]
	i := 3
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	var quote byte
	if i < len(rest) && (rest[i] == '\'' || rest[i] == '"') {
		quote = rest[i]
		i++
	}
	n := identLen(rest[i:])
	if n == 0 {
		return false
	}
	label := rest[i : i+n]
	i += n
	if quote != 0 {
		if i >= len(rest) || rest[i] != quote {
			return false
		}
		i++
	}
	if i >= len(rest) || (rest[i] != '\n' && rest[i] != '\r') {
		return false
	}
	i += newlineWidth(rest[i:])

	line := s.line
	s.take(token.StartHeredoc, i)
	atEnd := func() bool { return s.heredocEndAt(label) >= 0 }

	if quote == '\'' {
		start, startLine := s.pos, s.line
		for s.pos < len(s.src) && !atEnd() {
			s.advance(1)
		}
		if s.pos > start {
			s.push(token.EncapsedAndWhitespace, s.src[start:s.pos], startLine)
		}
	} else {
		s.scanParts(atEnd)
	}

	indent := s.heredocEndAt(label)
	if indent < 0 {
		s.errorf(line, "unterminated heredoc %s", label)
		return true
	}
	s.advance(indent)
	s.take(token.EndHeredoc, len(label))
	return true
}

// heredocEndAt returns the indentation width when the current position
// starts a line holding the closing label, or -1
func (s *Scanner) heredocEndAt(label string) int {
	if s.pos >= len(s.src) || (s.pos > 0 && s.src[s.pos-1] != '\n') {
		return -1
	}
	i := s.pos
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t') {
		i++
	}
	if !strings.HasPrefix(s.src[i:], label) {
		return -1
	}
	if j := i + len(label); j < len(s.src) && isIdentPart(s.src[j]) {
		return -1
	}
	return i - s.pos
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func identLen(s string) int {
	if len(s) == 0 || !isIdentStart(s[0]) {
		return 0
	}
	i := 1
	for i < len(s) && isIdentPart(s[i]) {
		i++
	}
	return i
}
