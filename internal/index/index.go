package index

import (
	"sort"
	"strings"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// Node is a namespace in the browsing tree. Path is the fully qualified
// namespace, "\" for the root.
type Node struct {
	Name     string           `json:"name"`
	Path     string           `json:"path"`
	Children map[string]*Node `json:"-"`

	// Elements holds the FQSENs of class-likes, functions and constants
	// declared directly in this namespace
	Elements []string `json:"elements,omitempty"`
}

// ChildNames returns the child namespace names in sorted order
func (n *Node) ChildNames() []string {
	out := make([]string, 0, len(n.Children))
	for name := range n.Children {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Index maps FQSENs to structural elements across a whole project. It is
// built once and is read-only afterwards, so concurrent readers need no lock.
type Index struct {
	elements  map[string]types.StructuralElement
	files     map[string]string
	classFold map[string]string
	root      *Node
}

// Build indexes every element of files. Files are processed in path order;
// a later element with a colliding FQSEN replaces the earlier one.
func Build(files []*types.File) *Index {
	idx := &Index{
		elements:  make(map[string]types.StructuralElement),
		files:     make(map[string]string),
		classFold: make(map[string]string),
		root:      &Node{Name: "", Path: types.NamespaceSeparator, Children: make(map[string]*Node)},
	}

	sorted := append([]*types.File(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, f := range sorted {
		for _, ns := range f.Namespaces {
			idx.node(ns)
		}
		for _, el := range f.Elements() {
			idx.add(el, f.Path)
		}
	}
	idx.sortNodes(idx.root)
	return idx
}

func (idx *Index) add(el types.StructuralElement, path string) {
	key := Key(el.FQSEN())
	_, replaced := idx.elements[key]
	idx.elements[key] = el
	idx.files[key] = path

	switch el.ElementKind() {
	case types.KindClass, types.KindInterface, types.KindTrait:
		idx.classFold[strings.ToLower(key)] = key
	case types.KindMethod, types.KindProperty, types.KindParameter, types.KindInclude:
		return
	}
	if el.ElementKind() == types.KindConstant && el.(*types.Constant).Owner != "" {
		return
	}
	if replaced {
		return
	}
	n := idx.node(el.Common().Namespace)
	n.Elements = append(n.Elements, el.FQSEN())
}

// node returns the tree node for a namespace path, creating missing levels
func (idx *Index) node(ns string) *Node {
	n := idx.root
	ns = strings.Trim(ns, types.NamespaceSeparator)
	if ns == "" || ns == types.GlobalNamespace {
		return n
	}
	for _, seg := range strings.Split(ns, types.NamespaceSeparator) {
		key := strings.ToLower(seg)
		child, ok := n.Children[key]
		if !ok {
			path := seg
			if n != idx.root {
				path = strings.TrimPrefix(n.Path, types.NamespaceSeparator) + types.NamespaceSeparator + seg
			}
			child = &Node{Name: seg, Path: types.NamespaceSeparator + path, Children: make(map[string]*Node)}
			n.Children[key] = child
		}
		n = child
	}
	return n
}

func (idx *Index) sortNodes(n *Node) {
	sort.Strings(n.Elements)
	for _, c := range n.Children {
		idx.sortNodes(c)
	}
}

// Key normalizes an FQSEN for lookup. Namespaces, functions and methods are
// case-insensitive in PHP; property and constant names are not. The last
// segment of a class-like or global constant keeps its case.
func Key(fqsen string) string {
	if !strings.HasPrefix(fqsen, types.NamespaceSeparator) {
		fqsen = types.NamespaceSeparator + fqsen
	}
	if owner, member, ok := strings.Cut(fqsen, "::"); ok {
		if strings.HasSuffix(member, "()") {
			member = strings.ToLower(member)
		}
		return strings.ToLower(owner) + "::" + member
	}
	if strings.HasSuffix(fqsen, "()") {
		return strings.ToLower(fqsen)
	}
	i := strings.LastIndex(fqsen, types.NamespaceSeparator)
	return strings.ToLower(fqsen[:i+1]) + fqsen[i+1:]
}

// Lookup returns the element with the given FQSEN
func (idx *Index) Lookup(fqsen string) (types.StructuralElement, bool) {
	key, ok := idx.resolveKey(fqsen)
	if !ok {
		return nil, false
	}
	return idx.elements[key], true
}

func (idx *Index) resolveKey(fqsen string) (string, bool) {
	key := Key(fqsen)
	if _, ok := idx.elements[key]; ok {
		return key, true
	}
	key, ok := idx.classFold[strings.ToLower(key)]
	return key, ok
}

// Class returns the class, interface or trait with the given FQSEN
func (idx *Index) Class(fqsen string) (*types.Class, bool) {
	el, ok := idx.Lookup(fqsen)
	if !ok {
		return nil, false
	}
	c, ok := el.(*types.Class)
	return c, ok
}

// FileOf returns the path of the file that declared fqsen
func (idx *Index) FileOf(fqsen string) (string, bool) {
	key, ok := idx.resolveKey(fqsen)
	if !ok {
		return "", false
	}
	return idx.files[key], true
}

// Len returns the number of indexed elements
func (idx *Index) Len() int {
	return len(idx.elements)
}

// Root returns the namespace tree root
func (idx *Index) Root() *Node {
	return idx.root
}

// Namespace returns the tree node for a namespace such as \App\Models
func (idx *Index) Namespace(path string) (*Node, bool) {
	n := idx.root
	path = strings.Trim(path, types.NamespaceSeparator)
	if path == "" || path == types.GlobalNamespace {
		return n, true
	}
	for _, seg := range strings.Split(path, types.NamespaceSeparator) {
		child, ok := n.Children[strings.ToLower(seg)]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// Elements returns every indexed element ordered by FQSEN
func (idx *Index) Elements() []types.StructuralElement {
	keys := make([]string, 0, len(idx.elements))
	for k := range idx.elements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.StructuralElement, len(keys))
	for i, k := range keys {
		out[i] = idx.elements[k]
	}
	return out
}

// Classes returns every indexed class-like ordered by FQSEN
func (idx *Index) Classes() []*types.Class {
	var out []*types.Class
	for _, el := range idx.Elements() {
		if c, ok := el.(*types.Class); ok {
			out = append(out, c)
		}
	}
	return out
}

// Subclasses returns the classes whose parent is fqsen
func (idx *Index) Subclasses(fqsen string) []*types.Class {
	var out []*types.Class
	for _, c := range idx.Classes() {
		if p := c.Parent(); p != "" && sameClass(p, fqsen) {
			out = append(out, c)
		}
	}
	return out
}

// ClassesImplementing returns the class-likes that implement or, for
// interfaces, extend the interface fqsen
func (idx *Index) ClassesImplementing(fqsen string) []*types.Class {
	var out []*types.Class
	for _, c := range idx.Classes() {
		refs := c.Implements
		if c.Kind == types.KindInterface {
			refs = c.Extends
		}
		for _, ref := range refs {
			if sameClass(ref, fqsen) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func sameClass(a, b string) bool {
	return strings.EqualFold(strings.TrimPrefix(a, types.NamespaceSeparator), strings.TrimPrefix(b, types.NamespaceSeparator))
}
