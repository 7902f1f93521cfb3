package reflector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/phpdoc-mcp/internal/docblock"
	"github.com/dshills/phpdoc-mcp/internal/namespace"
	"github.com/dshills/phpdoc-mcp/internal/scanner"
	"github.com/dshills/phpdoc-mcp/internal/token"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

var (
	// memberBoundary ends the backward search for a member docblock
	memberBoundary = token.Lits("{", "}", ";")

	modifierStop = append(token.Lits("{", "}", ";"),
		token.Kinds(token.OpenTag, token.CloseTag, token.DocComment)...)

	modifierKinds = token.Kinds(token.Abstract, token.Final, token.Static,
		token.Public, token.Protected, token.Private, token.Var, token.Readonly)

	// fileBoundary ends the search for a page-level docblock
	fileBoundary = append(token.Lits("{", "}", ";"),
		token.Kinds(token.Class, token.Interface, token.Trait, token.Namespace,
			token.Function, token.Const, token.Variable)...)

	nameSearchStop = token.Lits("{", ";", "(")
)

const (
	docSearchDistance     = 10
	fileDocSearchDistance = 30
	headerSearchDistance  = 5
)

type reflector struct {
	file    *types.File
	tokens  []token.Token
	cur     *token.Cursor
	ns      *namespace.Resolver
	fileDoc int
}

// ReflectFile scans PHP source and reflects the constructs it declares.
// Lexical problems become parse errors and reflection continues on the
// tokens that were produced. A failure inside reflection leaves the file with
// empty collections and a critical parse error.
func ReflectFile(path string, content []byte) (file *types.File) {
	file = types.NewFile(path, types.ComputeContentHash(content))
	defer func() {
		if rec := recover(); rec != nil {
			parseErrors := file.ParseErrors
			*file = types.File{Path: file.Path, ContentHash: file.ContentHash, ParseErrors: parseErrors}
			file.AddParseError(0, types.SeverityCritical, fmt.Sprintf("reflection aborted: %v", rec))
		}
	}()

	tokens, lexErrs := scanner.Scan(string(content))
	for _, err := range lexErrs {
		line := 0
		var se *scanner.Error
		if errors.As(err, &se) {
			line = se.Line
		}
		file.AddParseError(line, types.SeverityError, err.Error())
	}

	r := &reflector{
		file:    file,
		tokens:  tokens,
		cur:     token.NewCursor(tokens),
		ns:      namespace.NewResolver(),
		fileDoc: -1,
	}
	r.run()
	return file
}

func (r *reflector) run() {
	r.reflectFileDocBlock()
	for i := 0; i < len(r.tokens); i++ {
		if end := r.dispatch(i); end > i {
			i = end
		}
	}
}

// dispatch reflects the construct starting at token i and returns the index
// of the last token it consumed
func (r *reflector) dispatch(i int) int {
	t := r.tokens[i]
	switch t.Kind {
	case token.Namespace:
		return r.reflectNamespace(i)
	case token.Use:
		return r.reflectUse(i)
	case token.Class, token.Interface, token.Trait:
		if t.Kind == token.Class && r.prevKind(i) == token.New {
			return r.skipBody(i)
		}
		return r.reflectClass(i)
	case token.Function:
		if r.isClosure(i) {
			return r.skipBody(i)
		}
		return r.reflectFunction(i)
	case token.Const:
		return r.reflectConstants(i, nil)
	case token.Identifier:
		switch {
		case strings.EqualFold(t.Text, "define") && r.isCall(i):
			return r.reflectDefine(i)
		case strings.EqualFold(t.Text, "enum") && r.at(i+1).Kind == token.Identifier:
			return r.skipBody(i)
		}
	case token.Include, token.IncludeOnce, token.Require, token.RequireOnce:
		return r.reflectInclude(i)
	default:
		// no-op
	}
	return i
}

func (r *reflector) at(i int) token.Token {
	t, _ := r.cur.At(i)
	return t
}

func (r *reflector) prevKind(i int) token.Kind {
	for j := i - 1; j >= 0; j-- {
		if k := r.tokens[j].Kind; k != token.Comment && k != token.DocComment {
			return k
		}
	}
	return token.Literal
}

// isClosure reports whether the function keyword at i starts an anonymous function
func (r *reflector) isClosure(i int) bool {
	j := i + 1
	if r.at(j).IsLiteral("&") {
		j++
	}
	return r.at(j).IsLiteral("(")
}

// isCall reports whether the identifier at i is a plain function call
func (r *reflector) isCall(i int) bool {
	if !r.at(i + 1).IsLiteral("(") {
		return false
	}
	switch r.prevKind(i) {
	case token.ObjectOperator, token.DoubleColon, token.Function, token.New:
		return false
	}
	return true
}

// skipBody returns the index closing the brace region that follows i
func (r *reflector) skipBody(i int) int {
	r.cur.Seek(i)
	if p := r.cur.BracePair(); p.Status != token.PairNotFound {
		return p.End
	}
	return i
}

// readName reads a possibly qualified name such as \Foo\Bar starting at i
// and returns it with the index of the first token after it
func (r *reflector) readName(i int) (string, int) {
	var b strings.Builder
	expectWord := true
	for ; i < len(r.tokens); i++ {
		t := r.tokens[i]
		switch {
		case t.Kind == token.NsSeparator:
			b.WriteString(types.NamespaceSeparator)
			expectWord = true
		case expectWord && t.IsWord():
			b.WriteString(t.Text)
			expectWord = false
		default:
			return b.String(), i
		}
	}
	return b.String(), i
}

// compact concatenates token text in [from, to) without separators,
// skipping comments
func (r *reflector) compact(from, to int) string {
	var b strings.Builder
	for j := from; j < to && j < len(r.tokens); j++ {
		if isComment(r.tokens[j]) {
			continue
		}
		b.WriteString(r.tokens[j].Text)
	}
	return b.String()
}

// readDefault collects a value expression starting at i. It stops at a , or
// ; at nesting level 0 or at an unmatched ) or ], and returns the source text
// with the index of the terminator.
func (r *reflector) readDefault(i int) (string, int) {
	level := 0
	j := i
loop:
	for ; j < len(r.tokens); j++ {
		t := r.tokens[j]
		if t.Kind == token.CloseTag {
			break
		}
		if t.Kind != token.Literal {
			continue
		}
		switch t.Text {
		case "(", "[", "#[":
			level++
		case ")", "]":
			if level == 0 {
				break loop
			}
			level--
		case ",", ";":
			if level == 0 {
				break loop
			}
		}
	}

	parts := make([]token.Token, 0, j-i)
	for _, t := range r.tokens[i:j] {
		if !isComment(t) {
			parts = append(parts, t)
		}
	}
	return token.Join(parts), j
}

func isComment(t token.Token) bool {
	return t.Kind == token.Comment || t.Kind == token.DocComment
}

// readType reads a return type up to the body or terminator
func (r *reflector) readType(i int) string {
	j := i
	for j < len(r.tokens) {
		t := r.tokens[j]
		if t.IsLiteral("{") || t.IsLiteral(";") || t.Kind == token.CloseTag || t.Kind == token.DoubleArrow {
			break
		}
		j++
	}
	return r.ns.ExpandType(r.compact(i, j))
}

type modifierSet struct {
	visibility types.Visibility
	isStatic   bool
	isFinal    bool
	isAbstract bool
	isReadonly bool
	found      bool

	// start is the earliest modifier index, or the construct index
	start int
	// last is the modifier closest to the construct, or -1
	last int
}

// modifiers collects the keywords preceding the construct at i using
// bounded backward searches
func (r *reflector) modifiers(i int) modifierSet {
	m := modifierSet{visibility: types.VisibilityPublic, start: i, last: -1}
	search := token.Search{Targets: modifierKinds, Max: headerSearchDistance, StopAt: modifierStop}
	r.cur.Seek(i)
	for {
		t, idx := r.cur.FindPrevious(search)
		if t == nil {
			return m
		}
		switch t.Kind {
		case token.Abstract:
			m.isAbstract = true
		case token.Final:
			m.isFinal = true
		case token.Static:
			m.isStatic = true
		case token.Readonly:
			m.isReadonly = true
		case token.Protected:
			m.visibility = types.VisibilityProtected
		case token.Private:
			m.visibility = types.VisibilityPrivate
		}
		if m.last < 0 {
			m.last = idx
		}
		m.found = true
		m.start = idx
		r.cur.Seek(idx)
	}
}

// reflectFileDocBlock applies the page-level rule: the first docblock belongs
// to the file only when it carries @package or is directly followed by
// another docblock. Otherwise it is left to the first construct. Leading
// declare statements are stepped over.
func (r *reflector) reflectFileDocBlock() {
	r.cur.Seek(r.leadingDeclares())
	t, idx := r.cur.FindNext(token.Search{
		Targets: token.Kinds(token.DocComment),
		Max:     fileDocSearchDistance,
		StopAt:  fileBoundary,
	})
	if t == nil {
		return
	}
	doc, err := docblock.Parse(t.Text, r.ns.ExpandType)
	if err != nil {
		return
	}
	doc.Line = t.Line
	if doc.HasTag("package") || r.at(idx+1).Kind == token.DocComment {
		r.file.DocBlock = doc
		r.fileDoc = idx
	}
}

// leadingDeclares returns the index of the ; ending the declare(...)
// statements that directly follow the open tag, or 0 when there are none
func (r *reflector) leadingDeclares() int {
	end := 0
	for {
		next := r.at(end + 1)
		if next.Kind != token.Identifier || !strings.EqualFold(next.Text, "declare") {
			return end
		}
		r.cur.Seek(end + 1)
		t, idx := r.cur.FindNext(token.Search{
			Targets: token.Lits(";"),
			Max:     fileDocSearchDistance,
			StopAt:  token.Lits("{", "}"),
		})
		if t == nil {
			return end
		}
		end = idx
	}
}

// attachDocBlock parses the docblock directly preceding start into el
func (r *reflector) attachDocBlock(el *types.Element, start int) {
	r.cur.Seek(start)
	t, idx := r.cur.FindPrevious(token.Search{
		Targets: token.Kinds(token.DocComment),
		Max:     docSearchDistance,
		StopAt:  memberBoundary,
	})
	if t == nil || idx == r.fileDoc {
		return
	}
	doc, err := docblock.Parse(t.Text, r.ns.ExpandType)
	if err != nil {
		el.AddError(r.file.Path, t.Line, types.SeverityWarning, err.Error())
		return
	}
	doc.Line = t.Line
	el.DocBlock = doc
}

// validateMagicTags records an element error for every @property or @method
// tag that cannot produce a magic member
func (r *reflector) validateMagicTags(el *types.Element, owner string) {
	if el.DocBlock == nil {
		return
	}
	for _, tag := range el.DocBlock.TagsOfKind(types.TagProperty, types.TagPropertyRead,
		types.TagPropertyWrite, types.TagMethod) {
		if msg := types.InvalidMagicTag(tag, owner); msg != "" {
			el.AddError(r.file.Path, el.DocBlock.Line, types.SeverityError, msg)
		}
	}
}

func (r *reflector) newElement(name string, line, start int) types.Element {
	return types.Element{
		Name:             name,
		Namespace:        r.ns.Namespace(),
		NamespaceAliases: r.ns.Aliases(),
		Line:             line,
		StartToken:       start,
	}
}
