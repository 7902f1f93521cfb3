package types

import (
	"errors"
	"sort"
	"strings"
)

// ElementKind identifies the construct a structural element was reflected from
type ElementKind string

const (
	KindClass     ElementKind = "class"
	KindInterface ElementKind = "interface"
	KindTrait     ElementKind = "trait"
	KindFunction  ElementKind = "function"
	KindMethod    ElementKind = "method"
	KindProperty  ElementKind = "property"
	KindConstant  ElementKind = "constant"
	KindParameter ElementKind = "parameter"
	KindInclude   ElementKind = "include"
)

// Visibility represents a member's access modifier
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// GlobalNamespace is the namespace of elements declared outside any namespace block
const GlobalNamespace = "global"

// NamespaceSeparator separates namespace path segments
const NamespaceSeparator = `\`

// StructuralElement is implemented by every reflected construct
type StructuralElement interface {
	FQSEN() string
	ElementKind() ElementKind
	Common() *Element
}

// Element holds the fields shared by every structural element
type Element struct {
	Name             string            `json:"name"`
	Namespace        string            `json:"namespace"`
	NamespaceAliases map[string]string `json:"namespace_aliases,omitempty"`
	DocBlock         *DocBlock         `json:"docblock,omitempty"`
	Line             int               `json:"line"`
	StartToken       int               `json:"start_token"`
	EndToken         int               `json:"end_token"`
	Errors           []Diagnostic      `json:"errors,omitempty"`
}

// Common returns the shared element fields
func (e *Element) Common() *Element {
	return e
}

// AddError attaches a validation error to the element
func (e *Element) AddError(file string, line int, severity Severity, msg string) {
	e.Errors = append(e.Errors, Diagnostic{
		File:     file,
		Line:     line,
		Severity: severity,
		Message:  msg,
	})
}

// Summary returns the docblock summary or an empty string
func (e *Element) Summary() string {
	if e.DocBlock == nil {
		return ""
	}
	return e.DocBlock.Summary
}

// Class represents a class, interface or trait declaration
type Class struct {
	Element
	Kind ElementKind `json:"kind"`

	// Extends holds at most one entry for classes; interfaces may extend several
	Extends    []string `json:"extends,omitempty"`
	Implements []string `json:"implements,omitempty"`
	UsedTraits []string `json:"used_traits,omitempty"`
	IsAbstract bool     `json:"is_abstract,omitempty"`
	IsFinal    bool     `json:"is_final,omitempty"`

	Constants  map[string]*Constant `json:"constants,omitempty"`
	Properties map[string]*Property `json:"properties,omitempty"`
	Methods    map[string]*Method   `json:"methods,omitempty"`
}

// NewClass creates an empty class-like element of the given kind
func NewClass(kind ElementKind) *Class {
	return &Class{
		Kind:       kind,
		Constants:  make(map[string]*Constant),
		Properties: make(map[string]*Property),
		Methods:    make(map[string]*Method),
	}
}

// FQSEN returns the fully qualified name, e.g. \App\Model\User
func (c *Class) FQSEN() string {
	return Qualify(c.Namespace, c.Name)
}

// ElementKind returns class, interface or trait
func (c *Class) ElementKind() ElementKind {
	return c.Kind
}

// Parent returns the single parent reference of a class, or ""
func (c *Class) Parent() string {
	if c.Kind == KindClass && len(c.Extends) > 0 {
		return c.Extends[0]
	}
	return ""
}

// SortedMethods returns the class's own methods ordered by line then name
func (c *Class) SortedMethods() []*Method {
	out := make([]*Method, 0, len(c.Methods))
	for _, m := range c.Methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return lineThenName(out[i].Line, out[j].Line, out[i].Name, out[j].Name)
	})
	return out
}

// SortedProperties returns the class's own properties ordered by line then name
func (c *Class) SortedProperties() []*Property {
	out := make([]*Property, 0, len(c.Properties))
	for _, p := range c.Properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return lineThenName(out[i].Line, out[j].Line, out[i].Name, out[j].Name)
	})
	return out
}

// SortedConstants returns the class's own constants ordered by line then name
func (c *Class) SortedConstants() []*Constant {
	out := make([]*Constant, 0, len(c.Constants))
	for _, k := range c.Constants {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return lineThenName(out[i].Line, out[j].Line, out[i].Name, out[j].Name)
	})
	return out
}

func lineThenName(li, lj int, ni, nj string) bool {
	if li != lj {
		return li < lj
	}
	return ni < nj
}

// Function represents a global function declaration
type Function struct {
	Element
	Parameters    []*Parameter `json:"parameters,omitempty"`
	ReturnType    string       `json:"return_type,omitempty"`
	IsByReference bool         `json:"is_by_reference,omitempty"`
}

// FQSEN returns the fully qualified name, e.g. \App\helper()
func (f *Function) FQSEN() string {
	return Qualify(f.Namespace, f.Name) + "()"
}

// ElementKind returns KindFunction
func (f *Function) ElementKind() ElementKind {
	return KindFunction
}

// Method represents a method declared in a class, interface or trait
type Method struct {
	Function
	Owner      string     `json:"owner"`
	Visibility Visibility `json:"visibility"`
	IsStatic   bool       `json:"is_static,omitempty"`
	IsFinal    bool       `json:"is_final,omitempty"`
	IsAbstract bool       `json:"is_abstract,omitempty"`

	// HasBody is false for abstract and interface signatures terminated by ;
	HasBody bool `json:"has_body"`
}

// FQSEN returns the member name, e.g. \App\User::getName()
func (m *Method) FQSEN() string {
	return m.Owner + "::" + m.Name + "()"
}

// ElementKind returns KindMethod
func (m *Method) ElementKind() ElementKind {
	return KindMethod
}

// Property represents a class property
type Property struct {
	Element
	Owner      string     `json:"owner"`
	Visibility Visibility `json:"visibility"`
	IsStatic   bool       `json:"is_static,omitempty"`
	IsFinal    bool       `json:"is_final,omitempty"`
	Type       string     `json:"type,omitempty"`
	Default    string     `json:"default,omitempty"`
}

// FQSEN returns the member name, e.g. \App\User::$name
func (p *Property) FQSEN() string {
	return p.Owner + "::$" + p.Name
}

// ElementKind returns KindProperty
func (p *Property) ElementKind() ElementKind {
	return KindProperty
}

// Constant represents a class constant, a namespaced const or a define() call
type Constant struct {
	Element
	// Owner is empty for global constants
	Owner      string     `json:"owner,omitempty"`
	Visibility Visibility `json:"visibility,omitempty"`
	IsFinal    bool       `json:"is_final,omitempty"`
	Value      string     `json:"value"`
	IsDefine   bool       `json:"is_define,omitempty"`
}

// FQSEN returns \Ns\NAME for global constants and \Ns\Class::NAME for members
func (k *Constant) FQSEN() string {
	if k.Owner != "" {
		return k.Owner + "::" + k.Name
	}
	return Qualify(k.Namespace, k.Name)
}

// ElementKind returns KindConstant
func (k *Constant) ElementKind() ElementKind {
	return KindConstant
}

// Parameter represents a function or method argument.
// Empty TypeHint and Default mean the source declared none.
type Parameter struct {
	Element
	Owner         string `json:"owner,omitempty"`
	TypeHint      string `json:"type_hint,omitempty"`
	Default       string `json:"default,omitempty"`
	IsVariadic    bool   `json:"is_variadic,omitempty"`
	IsByReference bool   `json:"is_by_reference,omitempty"`
}

// FQSEN returns the owning function's FQSEN with the argument appended
func (p *Parameter) FQSEN() string {
	return p.Owner + "#$" + p.Name
}

// ElementKind returns KindParameter
func (p *Parameter) ElementKind() ElementKind {
	return KindParameter
}

// IncludeType is the statement used to pull in another file
type IncludeType string

const (
	IncludePlain       IncludeType = "include"
	IncludeOnce        IncludeType = "include_once"
	IncludeRequire     IncludeType = "require"
	IncludeRequireOnce IncludeType = "require_once"
)

// Include represents an include or require statement. Name holds the raw
// path expression.
type Include struct {
	Element
	Type IncludeType `json:"type"`
}

// FQSEN returns the include's raw path expression; includes are not indexed
func (i *Include) FQSEN() string {
	return i.Name
}

// ElementKind returns KindInclude
func (i *Include) ElementKind() ElementKind {
	return KindInclude
}

// Qualify joins a namespace and a name into an FQSEN with a leading separator
func Qualify(namespace, name string) string {
	if namespace == "" || namespace == GlobalNamespace {
		return NamespaceSeparator + name
	}
	return NamespaceSeparator + strings.TrimPrefix(namespace, NamespaceSeparator) + NamespaceSeparator + name
}

// Validate performs basic structural validation of a class-like
func (c *Class) Validate() error {
	if c.Name == "" {
		return errors.New("class name is required")
	}
	switch c.Kind {
	case KindClass, KindInterface, KindTrait:
	default:
		return errors.New("invalid class kind")
	}
	if c.Kind == KindClass && len(c.Extends) > 1 {
		return errors.New("a class can extend at most one parent")
	}
	return nil
}
