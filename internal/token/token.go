package token

import (
	"fmt"
	"strings"
)

// Kind classifies a token. Literal marks single-character punctuation whose
// meaning is carried entirely by its text.
type Kind uint8

const (
	Literal Kind = iota
	InlineHTML
	OpenTag
	OpenTagWithEcho
	CloseTag
	Comment
	DocComment
	Variable
	Identifier
	ConstantString
	EncapsedAndWhitespace
	CurlyOpen
	DollarOpenCurlyBraces
	StartHeredoc
	EndHeredoc
	LNumber
	DNumber
	NsSeparator
	DoubleColon
	ObjectOperator
	DoubleArrow
	Ellipsis
	Operator

	// keywords
	Abstract
	Array
	As
	Class
	Const
	Extends
	Final
	Function
	Implements
	Include
	IncludeOnce
	Insteadof
	Interface
	Namespace
	New
	Private
	Protected
	Public
	Readonly
	Require
	RequireOnce
	Static
	Trait
	Use
	Var

	kindCount
)

var kindNames = [...]string{
	Literal:               "literal",
	InlineHTML:            "inline_html",
	OpenTag:               "open_tag",
	OpenTagWithEcho:       "open_tag_with_echo",
	CloseTag:              "close_tag",
	Comment:               "comment",
	DocComment:            "doc_comment",
	Variable:              "variable",
	Identifier:            "identifier",
	ConstantString:        "constant_string",
	EncapsedAndWhitespace: "encapsed_and_whitespace",
	CurlyOpen:             "curly_open",
	DollarOpenCurlyBraces: "dollar_open_curly_braces",
	StartHeredoc:          "start_heredoc",
	EndHeredoc:            "end_heredoc",
	LNumber:               "lnumber",
	DNumber:               "dnumber",
	NsSeparator:           "ns_separator",
	DoubleColon:           "double_colon",
	ObjectOperator:        "object_operator",
	DoubleArrow:           "double_arrow",
	Ellipsis:              "ellipsis",
	Operator:              "operator",
	Abstract:              "abstract",
	Array:                 "array",
	As:                    "as",
	Class:                 "class",
	Const:                 "const",
	Extends:               "extends",
	Final:                 "final",
	Function:              "function",
	Implements:            "implements",
	Include:               "include",
	IncludeOnce:           "include_once",
	Insteadof:             "insteadof",
	Interface:             "interface",
	Namespace:             "namespace",
	New:                   "new",
	Private:               "private",
	Protected:             "protected",
	Public:                "public",
	Readonly:              "readonly",
	Require:               "require",
	RequireOnce:           "require_once",
	Static:                "static",
	Trait:                 "trait",
	Use:                   "use",
	Var:                   "var",
}

// keywords maps lowercase keyword text to its kind. PHP keywords are
// case-insensitive.
var keywords = func() map[string]Kind {
	m := make(map[string]Kind, int(kindCount-Abstract))
	for k := Abstract; k < kindCount; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// String returns the kind's name
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsKeyword reports whether the kind is a reserved word
func (k Kind) IsKeyword() bool {
	return k >= Abstract && k < kindCount
}

// LookupKeyword returns the keyword kind for a word, or Identifier
func LookupKeyword(word string) Kind {
	if k, ok := keywords[strings.ToLower(word)]; ok {
		return k
	}
	return Identifier
}

// Token is an immutable lexical unit
type Token struct {
	Kind Kind
	Text string
	Line int

	// Space reports that whitespace preceded the token in the source
	Space bool
}

// IsLiteral reports whether the token is the given punctuation literal
func (t Token) IsLiteral(text string) bool {
	return t.Kind == Literal && t.Text == text
}

// IsWord reports whether the token is an identifier or keyword, i.e. usable
// as a name after "function", "const", "->" or "::"
func (t Token) IsWord() bool {
	return t.Kind == Identifier || t.Kind.IsKeyword()
}

func (t Token) String() string {
	if t.Kind == Literal {
		return fmt.Sprintf("%q@%d", t.Text, t.Line)
	}
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Line)
}

// Pattern selects tokens by kind, or literals by their text
type Pattern struct {
	Kind Kind
	Text string
}

// Of returns a pattern matching any token of the kind
func Of(kind Kind) Pattern {
	return Pattern{Kind: kind}
}

// Lit returns a pattern matching a punctuation literal
func Lit(text string) Pattern {
	return Pattern{Kind: Literal, Text: text}
}

// Match reports whether the token satisfies the pattern
func (p Pattern) Match(t Token) bool {
	if p.Kind == Literal {
		return t.Kind == Literal && t.Text == p.Text
	}
	return t.Kind == p.Kind
}

// Kinds builds patterns for a list of kinds
func Kinds(kinds ...Kind) []Pattern {
	out := make([]Pattern, len(kinds))
	for i, k := range kinds {
		out[i] = Of(k)
	}
	return out
}

// Lits builds patterns for a list of literals
func Lits(texts ...string) []Pattern {
	out := make([]Pattern, len(texts))
	for i, t := range texts {
		out[i] = Lit(t)
	}
	return out
}

func matchAny(patterns []Pattern, t Token) bool {
	for _, p := range patterns {
		if p.Match(t) {
			return true
		}
	}
	return false
}

// Join reconstructs source text from tokens, using the Space flag to
// restore single separating blanks
func Join(tokens []Token) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 && t.Space {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}
