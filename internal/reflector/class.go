package reflector

import (
	"fmt"
	"strings"

	"github.com/dshills/phpdoc-mcp/internal/token"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

func classKind(k token.Kind) types.ElementKind {
	switch k {
	case token.Interface:
		return types.KindInterface
	case token.Trait:
		return types.KindTrait
	default:
		return types.KindClass
	}
}

// reflectClass reflects a class, interface or trait declared at i
func (r *reflector) reflectClass(i int) int {
	kw := r.tokens[i]
	kind := classKind(kw.Kind)
	mods := r.modifiers(i)

	r.cur.Seek(i)
	nameTok, nameIdx := r.cur.FindNext(token.Search{
		Targets: token.Kinds(token.Identifier),
		Max:     headerSearchDistance,
		StopAt:  nameSearchStop,
	})
	if nameTok == nil {
		r.file.AddParseError(kw.Line, types.SeverityError, fmt.Sprintf("%s declaration without a name", kind))
		return i
	}

	c := types.NewClass(kind)
	c.Element = r.newElement(nameTok.Text, kw.Line, mods.start)
	c.IsAbstract = mods.isAbstract
	c.IsFinal = mods.isFinal
	r.readClassHeader(c, nameIdx+1)
	r.attachDocBlock(&c.Element, mods.start)
	r.validateMagicTags(&c.Element, c.FQSEN())

	r.cur.Seek(nameIdx)
	body := r.cur.BracePair()
	end := body.End
	switch body.Status {
	case token.PairFound:
		r.walkClassBody(c, body.Start+1, body.End)
	case token.PairNoBody:
		r.file.AddParseError(kw.Line, types.SeverityError, fmt.Sprintf("%s %s has no body", kind, c.Name))
	default:
		r.file.AddParseError(kw.Line, types.SeverityError, fmt.Sprintf("unterminated body of %s %s", kind, c.Name))
		end = len(r.tokens) - 1
		r.cur.Seek(nameIdx)
		if _, open := r.cur.FindNext(token.Search{Targets: token.Lits("{")}); open >= 0 {
			r.walkClassBody(c, open+1, len(r.tokens))
		}
	}
	c.EndToken = end

	if err := c.Validate(); err != nil {
		c.AddError(r.file.Path, c.Line, types.SeverityError, fmt.Sprintf("%s: %v", c.FQSEN(), err))
	}
	r.file.AddClass(c)
	return end
}

// readClassHeader reads the extends and implements lists up to the body
func (r *reflector) readClassHeader(c *types.Class, i int) {
	var list *[]string
	for j := i; j < len(r.tokens); j++ {
		t := r.tokens[j]
		switch {
		case t.IsLiteral("{"), t.IsLiteral(";"):
			return
		case t.Kind == token.Extends:
			list = &c.Extends
		case t.Kind == token.Implements:
			list = &c.Implements
		case list != nil && (t.Kind == token.NsSeparator || t.IsWord()):
			name, next := r.readName(j)
			*list = append(*list, r.ns.ExpandName(name))
			j = next - 1
		}
	}
}

// walkClassBody dispatches the members found at nesting level 1
func (r *reflector) walkClassBody(c *types.Class, from, to int) {
	for j := from; j < to; j++ {
		t := r.tokens[j]
		end := j
		switch t.Kind {
		case token.Function:
			end = r.reflectMethod(j, c)
		case token.Variable:
			end = r.reflectProperty(j, c)
		case token.Const:
			end = r.reflectConstants(j, c)
		case token.Use:
			end = r.reflectTraitUse(j, c)
		case token.Literal, token.CurlyOpen, token.DollarOpenCurlyBraces:
			if token.IsBraceOpener(t) {
				end = r.skipBody(j)
			}
		default:
			// no-op
		}
		if end > j {
			j = end
		}
	}
}

// reflectMethod reflects a method declared at i inside c
func (r *reflector) reflectMethod(i int, c *types.Class) int {
	mods := r.modifiers(i)
	sig, end := r.readSignature(i)
	if sig == nil {
		return end
	}

	m := &types.Method{
		Function:   *sig.fn,
		Owner:      c.FQSEN(),
		Visibility: mods.visibility,
		IsStatic:   mods.isStatic,
		IsFinal:    mods.isFinal,
		IsAbstract: mods.isAbstract,
		HasBody:    sig.hasBody,
	}
	m.Namespace = c.Namespace
	m.NamespaceAliases = c.NamespaceAliases
	m.StartToken = mods.start
	for _, p := range m.Parameters {
		p.Owner = m.FQSEN()
	}
	r.attachDocBlock(&m.Element, mods.start)

	if c.Kind == types.KindClass && !m.HasBody && !m.IsAbstract {
		m.AddError(r.file.Path, m.Line, types.SeverityError,
			fmt.Sprintf("non-abstract method %s has no body", m.FQSEN()))
	}
	c.Methods[m.Name] = m
	return end
}

// reflectProperty reflects the property declaration whose first variable is
// at i. A declaration may list several properties sharing modifiers.
func (r *reflector) reflectProperty(i int, c *types.Class) int {
	mods := r.modifiers(i)
	if !mods.found {
		return i
	}
	typ := ""
	if mods.last >= 0 {
		typ = r.ns.ExpandType(r.compact(mods.last+1, i))
	}

	j := i
	for j < len(r.tokens) {
		t := r.tokens[j]
		switch {
		case t.Kind == token.Variable:
			p := &types.Property{
				Owner:      c.FQSEN(),
				Visibility: mods.visibility,
				IsStatic:   mods.isStatic,
				IsFinal:    mods.isFinal,
				Type:       typ,
			}
			p.Element = r.newElement(strings.TrimPrefix(t.Text, "$"), t.Line, mods.start)
			p.Namespace = c.Namespace
			if r.at(j + 1).IsLiteral("=") {
				p.Default, j = r.readDefault(j + 2)
			} else {
				j++
			}
			p.EndToken = j
			r.attachDocBlock(&p.Element, mods.start)
			if p.Type == "" {
				if vars := p.DocBlock.TagsOfKind(types.TagVar); len(vars) > 0 {
					p.Type = strings.Join(vars[0].Types, "|")
				}
			}
			c.Properties[p.Name] = p
		case t.IsLiteral(";"):
			return j
		case t.IsLiteral("{"), t.IsLiteral("}"), t.Kind == token.CloseTag:
			return j - 1
		default:
			j++
		}
	}
	return j
}

// reflectTraitUse records the traits named by a use statement in a class
// body, skipping any conflict resolution block
func (r *reflector) reflectTraitUse(i int, c *types.Class) int {
	for j := i + 1; j < len(r.tokens); {
		t := r.tokens[j]
		switch {
		case t.IsLiteral(";"):
			return j
		case t.IsLiteral("{"):
			return r.skipBody(j)
		case t.Kind == token.NsSeparator || t.IsWord():
			name, next := r.readName(j)
			c.UsedTraits = append(c.UsedTraits, r.ns.ExpandName(name))
			j = next
		default:
			j++
		}
	}
	return len(r.tokens) - 1
}

// reflectConstants reflects "const A = 1, B = 2;" either inside class c or,
// when c is nil, at namespace level
func (r *reflector) reflectConstants(i int, c *types.Class) int {
	mods := modifierSet{start: i, last: -1}
	if c != nil {
		mods = r.modifiers(i)
	}

	j := i + 1
	for j < len(r.tokens) {
		// the last word before = is the name; typed constants put a type first
		nameIdx := -1
		for ; j < len(r.tokens); j++ {
			t := r.tokens[j]
			if t.IsLiteral("=") || t.IsLiteral(";") || t.IsLiteral(",") || t.Kind == token.CloseTag {
				break
			}
			if t.IsWord() {
				nameIdx = j
			}
		}
		if nameIdx < 0 || !r.at(j).IsLiteral("=") {
			return j
		}

		nameTok := r.tokens[nameIdx]
		value, end := r.readDefault(j + 1)
		k := &types.Constant{Value: value}
		k.Element = r.newElement(nameTok.Text, nameTok.Line, mods.start)
		k.EndToken = end
		r.attachDocBlock(&k.Element, mods.start)
		if c != nil {
			k.Namespace = c.Namespace
			k.Owner = c.FQSEN()
			k.Visibility = mods.visibility
			k.IsFinal = mods.isFinal
			c.Constants[k.Name] = k
		} else {
			r.file.Constants = append(r.file.Constants, k)
		}

		j = end
		if !r.at(j).IsLiteral(",") {
			return j
		}
		j++
	}
	return j
}
