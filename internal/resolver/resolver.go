package resolver

import (
	"strings"

	"github.com/dshills/phpdoc-mcp/internal/index"
	"github.com/dshills/phpdoc-mcp/internal/namespace"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// MemberKind selects the member collection of a class-like
type MemberKind int

const (
	Methods MemberKind = iota
	Properties
	Constants
)

// String returns the plural collection name
func (k MemberKind) String() string {
	switch k {
	case Methods:
		return "methods"
	case Properties:
		return "properties"
	case Constants:
		return "constants"
	default:
		return "unknown"
	}
}

// ParseMemberKind maps a collection name onto a MemberKind
func ParseMemberKind(name string) (MemberKind, bool) {
	switch strings.ToLower(name) {
	case "methods", "method":
		return Methods, true
	case "properties", "property":
		return Properties, true
	case "constants", "constant":
		return Constants, true
	}
	return 0, false
}

// Resolver answers inheritance questions against a built index. Every index
// miss contributes nothing, and elements are never modified, so a Resolver
// is safe for concurrent use.
type Resolver struct {
	idx *index.Index
}

// New creates a resolver over idx
func New(idx *index.Index) *Resolver {
	return &Resolver{idx: idx}
}

// Index returns the underlying symbol index
func (r *Resolver) Index() *index.Index {
	return r.idx
}

// Own returns the members c declares itself, ordered by line then name
func Own(c *types.Class, kind MemberKind) []types.StructuralElement {
	var out []types.StructuralElement
	switch kind {
	case Methods:
		for _, m := range c.SortedMethods() {
			out = append(out, m)
		}
	case Properties:
		for _, p := range c.SortedProperties() {
			out = append(out, p)
		}
	case Constants:
		for _, k := range c.SortedConstants() {
			out = append(out, k)
		}
	}
	return out
}

// InheritedMembers returns the members c inherits: for each resolvable
// parent its own members followed by what it inherits, then the own members
// of each trait c uses. Traits used by a parent are inherited with it.
// Unresolvable references and cycles end the walk.
func (r *Resolver) InheritedMembers(c *types.Class, kind MemberKind) []types.StructuralElement {
	visited := map[string]bool{strings.ToLower(c.FQSEN()): true}
	return r.inherited(c, kind, visited)
}

func (r *Resolver) inherited(c *types.Class, kind MemberKind, visited map[string]bool) []types.StructuralElement {
	var out []types.StructuralElement
	for _, p := range r.parents(c) {
		key := strings.ToLower(p.FQSEN())
		if visited[key] {
			continue
		}
		visited[key] = true
		out = append(out, Own(p, kind)...)
		out = append(out, r.inherited(p, kind, visited)...)
	}
	for _, ref := range c.UsedTraits {
		t, ok := r.idx.Class(ref)
		if !ok || t.Kind != types.KindTrait {
			continue
		}
		key := strings.ToLower(t.FQSEN())
		if visited[key] {
			continue
		}
		visited[key] = true
		out = append(out, Own(t, kind)...)
	}
	return out
}

// parents returns the resolvable parents of c: the single parent of a class
// or every extended interface, in declaration order
func (r *Resolver) parents(c *types.Class) []*types.Class {
	var refs []string
	switch c.Kind {
	case types.KindClass:
		if p := c.Parent(); p != "" {
			refs = []string{p}
		}
	case types.KindInterface:
		refs = c.Extends
	}
	var out []*types.Class
	for _, ref := range refs {
		if p, ok := r.idx.Class(ref); ok {
			out = append(out, p)
		}
	}
	return out
}

// Members returns the effective member list of c: own members, then those
// of used traits, then inherited ones. A name appears once, taken from the
// nearest declaration. Private members of parents are left out.
func (r *Resolver) Members(c *types.Class, kind MemberKind) []types.StructuralElement {
	seen := make(map[string]bool)
	var out []types.StructuralElement
	add := func(el types.StructuralElement, fromParent bool) {
		name := el.Common().Name
		if kind == Methods {
			name = strings.ToLower(name)
		}
		if seen[name] {
			return
		}
		if fromParent && visibilityOf(el) == types.VisibilityPrivate && !r.usesTrait(c, ownerOf(el)) {
			return
		}
		seen[name] = true
		out = append(out, el)
	}

	for _, el := range Own(c, kind) {
		add(el, false)
	}
	for _, el := range r.InheritedMembers(c, kind) {
		add(el, true)
	}
	return out
}

func (r *Resolver) usesTrait(c *types.Class, fqsen string) bool {
	for _, ref := range c.UsedTraits {
		if strings.EqualFold(strings.TrimPrefix(ref, types.NamespaceSeparator), strings.TrimPrefix(fqsen, types.NamespaceSeparator)) {
			return true
		}
	}
	return false
}

func visibilityOf(el types.StructuralElement) types.Visibility {
	switch m := el.(type) {
	case *types.Method:
		return m.Visibility
	case *types.Property:
		return m.Visibility
	case *types.Constant:
		return m.Visibility
	}
	return types.VisibilityPublic
}

func ownerOf(el types.StructuralElement) string {
	switch m := el.(type) {
	case *types.Method:
		return m.Owner
	case *types.Property:
		return m.Owner
	case *types.Constant:
		return m.Owner
	}
	return ""
}

// typeResolver rebuilds the import context an element was declared in
func typeResolver(el *types.Element) *namespace.Resolver {
	ns := namespace.NewResolver()
	ns.SetNamespace(el.Namespace)
	for alias, target := range el.NamespaceAliases {
		ns.AddAlias(target, alias)
	}
	return ns
}
