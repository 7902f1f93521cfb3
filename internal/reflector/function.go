package reflector

import (
	"fmt"
	"strings"

	"github.com/dshills/phpdoc-mcp/internal/token"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

type signature struct {
	fn      *types.Function
	hasBody bool
}

// readSignature reads the name, parameters, return type and body range of
// the function keyword at i. It returns the index of the last token of the
// declaration: the closing brace, or the ; of a body-less signature.
func (r *reflector) readSignature(i int) (*signature, int) {
	kw := r.tokens[i]
	r.cur.Seek(i)
	nameTok, nameIdx := r.cur.FindNext(token.Search{
		Targets: token.Kinds(token.Identifier),
		Max:     headerSearchDistance,
		StopAt:  nameSearchStop,
	})
	if nameTok == nil {
		r.file.AddParseError(kw.Line, types.SeverityError, "function declaration without a name")
		return nil, i
	}

	fn := &types.Function{IsByReference: r.at(i + 1).IsLiteral("&")}
	fn.Element = r.newElement(nameTok.Text, kw.Line, i)

	r.cur.Seek(nameIdx)
	params := r.cur.MatchingPair("(", ")", "")
	if !params.Found() {
		r.file.AddParseError(kw.Line, types.SeverityError, fmt.Sprintf("function %s has no parameter list", fn.Name))
		return nil, nameIdx
	}
	fn.Parameters = r.reflectParameters(params.Start, params.End)
	if r.at(params.End + 1).IsLiteral(":") {
		fn.ReturnType = r.readType(params.End + 2)
	}

	sig := &signature{fn: fn}
	r.cur.Seek(params.End)
	body := r.cur.BracePair()
	switch body.Status {
	case token.PairFound:
		sig.hasBody = true
		fn.EndToken = body.End
	case token.PairNoBody:
		fn.EndToken = body.End
	default:
		r.file.AddParseError(kw.Line, types.SeverityError, fmt.Sprintf("unterminated body of function %s", fn.Name))
		fn.EndToken = len(r.tokens) - 1
	}
	return sig, fn.EndToken
}

// reflectFunction reflects a named function declared at namespace level
func (r *reflector) reflectFunction(i int) int {
	sig, end := r.readSignature(i)
	if sig == nil {
		return end
	}
	fn := sig.fn
	for _, p := range fn.Parameters {
		p.Owner = fn.FQSEN()
	}
	r.attachDocBlock(&fn.Element, i)
	r.file.Functions = append(r.file.Functions, fn)
	return end
}

// reflectParameters splits the parameter list between the parentheses at
// open and closer on top-level commas
func (r *reflector) reflectParameters(open, closer int) []*types.Parameter {
	var params []*types.Parameter
	start, depth := open+1, 0
	for j := open + 1; j <= closer; j++ {
		t := r.tokens[j]
		if j == closer || (depth == 0 && t.IsLiteral(",")) {
			if p := r.reflectParameter(start, j); p != nil {
				params = append(params, p)
			}
			start = j + 1
			continue
		}
		if t.Kind == token.Literal {
			switch t.Text {
			case "(", "[", "#[":
				depth++
			case ")", "]":
				depth--
			}
		}
	}
	return params
}

// reflectParameter reflects the parameter in the token range [from, to)
func (r *reflector) reflectParameter(from, to int) *types.Parameter {
	varIdx := -1
	for j := from; j < to; j++ {
		if r.tokens[j].Kind == token.Variable {
			varIdx = j
			break
		}
	}
	if varIdx < 0 {
		return nil
	}

	v := r.tokens[varIdx]
	p := &types.Parameter{}
	p.Name = strings.TrimPrefix(v.Text, "$")
	p.Namespace = r.ns.Namespace()
	p.Line = v.Line
	p.StartToken, p.EndToken = from, to-1

	var typ strings.Builder
	for j := from; j < varIdx; j++ {
		t := r.tokens[j]
		switch {
		case t.IsLiteral("#["):
			j = r.skipAttribute(j)
		case t.IsLiteral("&") && (j+1 == varIdx || r.tokens[j+1].Kind == token.Ellipsis):
			p.IsByReference = true
		case t.Kind == token.Ellipsis:
			p.IsVariadic = true
		case t.Kind == token.Public, t.Kind == token.Protected, t.Kind == token.Private,
			t.Kind == token.Readonly, isComment(t):
			// promoted constructor property modifiers
		default:
			typ.WriteString(t.Text)
		}
	}
	p.TypeHint = r.ns.ExpandType(typ.String())

	if varIdx+1 < to && r.tokens[varIdx+1].IsLiteral("=") {
		p.Default, _ = r.readDefault(varIdx + 2)
	}
	return p
}

// skipAttribute returns the index of the ] closing the #[ at i
func (r *reflector) skipAttribute(i int) int {
	depth := 0
	for j := i; j < len(r.tokens); j++ {
		t := r.tokens[j]
		switch {
		case t.IsLiteral("#["), t.IsLiteral("["):
			depth++
		case t.IsLiteral("]"):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(r.tokens) - 1
}

// reflectDefine reflects define('NAME', value). Calls whose name is not a
// string literal are ignored.
func (r *reflector) reflectDefine(i int) int {
	r.cur.Seek(i)
	args := r.cur.MatchingPair("(", ")", "")
	if !args.Found() {
		return i
	}
	nameTok := r.at(args.Start + 1)
	if nameTok.Kind != token.ConstantString || !r.at(args.Start+2).IsLiteral(",") {
		return args.End
	}

	name := strings.TrimPrefix(unquote(nameTok.Text), types.NamespaceSeparator)
	value, _ := r.readDefault(args.Start + 3)

	k := &types.Constant{Value: value, IsDefine: true}
	k.Element = r.newElement(name, r.tokens[i].Line, i)
	// define() declares global constants unless the name is qualified
	k.Namespace = types.GlobalNamespace
	if idx := strings.LastIndex(name, types.NamespaceSeparator); idx >= 0 {
		k.Namespace, k.Name = name[:idx], name[idx+1:]
	}
	k.EndToken = args.End
	r.attachDocBlock(&k.Element, i)
	r.file.Constants = append(r.file.Constants, k)
	return args.End
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	quote := s[0]
	s = s[1 : len(s)-1]
	if quote == '\'' {
		s = strings.ReplaceAll(s, `\'`, `'`)
	}
	return strings.ReplaceAll(s, `\\`, `\`)
}

func includeType(k token.Kind) types.IncludeType {
	switch k {
	case token.IncludeOnce:
		return types.IncludeOnce
	case token.Require:
		return types.IncludeRequire
	case token.RequireOnce:
		return types.IncludeRequireOnce
	default:
		return types.IncludePlain
	}
}

// reflectInclude reflects include/require statements; the path expression
// is kept as written without surrounding parentheses
func (r *reflector) reflectInclude(i int) int {
	kw := r.tokens[i]
	expr, end := r.readDefault(i + 1)

	if first := i + 1; r.at(first).IsLiteral("(") {
		r.cur.Seek(first)
		if p := r.cur.MatchingPair("(", ")", ""); p.Found() && p.End == end-1 {
			expr, _ = r.readDefault(first + 1)
		}
	}

	inc := &types.Include{Type: includeType(kw.Kind)}
	inc.Element = r.newElement(strings.TrimSpace(expr), kw.Line, i)
	inc.EndToken = end
	r.attachDocBlock(&inc.Element, i)
	r.file.Includes = append(r.file.Includes, inc)
	return end
}
