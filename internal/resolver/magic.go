package resolver

import (
	"strings"

	"github.com/dshills/phpdoc-mcp/internal/namespace"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// MagicMembers synthesizes the properties or methods that c declares through
// @property* and @method tags, followed by those of its parent chain. Tags
// that cannot produce a member are skipped and reported in errs, which only
// covers c's own docblock.
func (r *Resolver) MagicMembers(c *types.Class, kind MemberKind) (members []types.StructuralElement, errs []error) {
	if kind == Constants {
		return nil, nil
	}
	path, _ := r.idx.FileOf(c.FQSEN())
	visited := make(map[string]bool)

	for cur := c; cur != nil; {
		visited[strings.ToLower(cur.FQSEN())] = true
		own, tagErrs := magicOf(cur, kind, path)
		members = append(members, own...)
		if cur == c {
			errs = tagErrs
		}

		var next *types.Class
		for _, p := range r.parents(cur) {
			if !visited[strings.ToLower(p.FQSEN())] {
				next = p
				break
			}
		}
		cur = next
	}
	return members, errs
}

func magicOf(c *types.Class, kind MemberKind, path string) ([]types.StructuralElement, []error) {
	doc := c.DocBlock
	if doc == nil {
		return nil, nil
	}
	tagKinds := []types.TagKind{types.TagProperty, types.TagPropertyRead, types.TagPropertyWrite}
	if kind == Methods {
		tagKinds = []types.TagKind{types.TagMethod}
	}

	var (
		out  []types.StructuralElement
		errs []error
		ns   *namespace.Resolver
	)
	for _, tag := range doc.TagsOfKind(tagKinds...) {
		if msg := types.InvalidMagicTag(tag, c.FQSEN()); msg != "" {
			errs = append(errs, types.Diagnostic{File: path, Line: doc.Line, Severity: types.SeverityError, Message: msg})
			continue
		}
		if kind == Properties {
			out = append(out, magicProperty(c, tag))
			continue
		}
		if ns == nil {
			ns = typeResolver(&c.Element)
		}
		out = append(out, magicMethod(c, tag, ns))
	}
	return out, errs
}

func magicElement(c *types.Class, name, description string) types.Element {
	el := types.Element{
		Name:             name,
		Namespace:        c.Namespace,
		NamespaceAliases: c.NamespaceAliases,
		Line:             c.Line,
		StartToken:       c.StartToken,
		EndToken:         c.StartToken,
	}
	if c.DocBlock != nil {
		el.Line = c.DocBlock.Line
	}
	if description != "" {
		el.DocBlock = &types.DocBlock{Summary: description, Line: el.Line}
	}
	return el
}

func magicProperty(c *types.Class, tag types.Tag) *types.Property {
	p := &types.Property{
		Owner:      c.FQSEN(),
		Visibility: types.VisibilityPublic,
		Type:       strings.Join(tag.Types, "|"),
	}
	p.Element = magicElement(c, strings.TrimPrefix(tag.Variable, "$"), tag.Description)
	return p
}

func magicMethod(c *types.Class, tag types.Tag, ns *namespace.Resolver) *types.Method {
	m := &types.Method{
		Owner:      c.FQSEN(),
		Visibility: types.VisibilityPublic,
		IsStatic:   tag.IsStatic,
	}
	m.Element = magicElement(c, tag.MethodName, tag.Description)
	m.ReturnType = strings.Join(tag.Types, "|")
	if m.ReturnType == "" {
		m.ReturnType = "void"
	}
	m.Parameters = magicParameters(m, tag.Arguments, ns)
	return m
}

// magicParameters parses an argument list such as "string $a, int ...$b = 1"
func magicParameters(m *types.Method, args string, ns *namespace.Resolver) []*types.Parameter {
	var params []*types.Parameter
	for _, arg := range splitArguments(args) {
		decl, def, _ := strings.Cut(arg, "=")
		fields := strings.Fields(decl)
		if len(fields) == 0 {
			continue
		}

		p := &types.Parameter{Owner: m.FQSEN(), Default: strings.TrimSpace(def)}
		name := fields[len(fields)-1]
		if strings.HasPrefix(name, "&") {
			p.IsByReference = true
			name = name[1:]
		}
		if strings.HasPrefix(name, "...") {
			p.IsVariadic = true
			name = name[3:]
		}
		if !strings.HasPrefix(name, "$") {
			continue
		}
		p.Element = types.Element{
			Name:      strings.TrimPrefix(name, "$"),
			Namespace: m.Namespace,
			Line:      m.Line,
		}
		if len(fields) > 1 {
			p.TypeHint = ns.ExpandType(strings.Join(fields[:len(fields)-1], ""))
		}
		params = append(params, p)
	}
	return params
}

// splitArguments splits on commas outside of brackets
func splitArguments(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '<', '{':
			depth++
		case ')', ']', '>', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
