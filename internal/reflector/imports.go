package reflector

import (
	"strings"

	"github.com/dshills/phpdoc-mcp/internal/token"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

type importKind int

const (
	importClass importKind = iota
	importFunction
	importConstant
)

// reflectNamespace handles "namespace Foo;", "namespace Foo {" and the
// global "namespace {" block. A new namespace discards previous imports.
func (r *reflector) reflectNamespace(i int) int {
	if r.at(i+1).Kind == token.NsSeparator {
		// namespace\Foo is a relative name, not a declaration
		return i
	}
	name, end := r.readName(i + 1)
	r.ns.SetNamespace(name)
	r.file.AddNamespace(r.ns.Namespace())
	return end
}

// reflectUse records the imports of a use statement, including group
// imports such as "use A\{B, C as D};"
func (r *reflector) reflectUse(i int) int {
	if r.at(i + 1).IsLiteral("(") {
		return i
	}
	kind := importClass
	j := i + 1
	switch r.at(j).Kind {
	case token.Function:
		kind, j = importFunction, j+1
	case token.Const:
		kind, j = importConstant, j+1
	}

	for j < len(r.tokens) {
		t := r.tokens[j]
		switch {
		case t.IsLiteral(";"), t.Kind == token.CloseTag:
			return j
		case t.Kind == token.NsSeparator || t.IsWord():
			j = r.readImport(j, "", kind)
		default:
			j++
		}
	}
	return j
}

// readImport reads one import clause starting at i and returns the index
// after it
func (r *reflector) readImport(i int, prefix string, kind importKind) int {
	if prefix != "" {
		switch r.at(i).Kind {
		case token.Function:
			kind, i = importFunction, i+1
		case token.Const:
			kind, i = importConstant, i+1
		}
	}

	name, j := r.readName(i)
	if prefix != "" {
		name = prefix + types.NamespaceSeparator + name
	}

	if r.at(j).IsLiteral("{") {
		group := strings.TrimSuffix(name, types.NamespaceSeparator)
		for j++; j < len(r.tokens) && !r.at(j).IsLiteral("}"); {
			t := r.tokens[j]
			if t.Kind == token.NsSeparator || t.IsWord() {
				j = r.readImport(j, group, kind)
				continue
			}
			j++
		}
		return j + 1
	}

	alias := ""
	if r.at(j).Kind == token.As && r.at(j+1).IsWord() {
		alias = r.at(j + 1).Text
		j += 2
	}

	switch kind {
	case importFunction:
		r.ns.AddFunctionAlias(name, alias)
	case importConstant:
		r.ns.AddConstantAlias(name, alias)
	default:
		r.ns.AddAlias(name, alias)
	}
	return j
}
