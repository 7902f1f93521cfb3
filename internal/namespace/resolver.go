package namespace

import (
	"strings"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

const sep = types.NamespaceSeparator

// primitives are type names that are never namespace-qualified
var primitives = map[string]bool{
	"string": true, "int": true, "integer": true, "bool": true, "boolean": true,
	"float": true, "double": true, "object": true, "mixed": true, "array": true,
	"resource": true, "void": true, "null": true, "callback": true, "false": true,
	"true": true, "self": true, "static": true, "$this": true, "callable": true,
	"iterable": true, "parent": true, "never": true,
}

// IsPrimitive reports whether a type name is a built-in that stays unqualified
func IsPrimitive(name string) bool {
	return primitives[strings.ToLower(name)]
}

// Resolver tracks the namespace and use-imports active at a point in a file
// and expands type names to their fully qualified form
type Resolver struct {
	namespace string
	aliases   map[string]string
	functions map[string]string
	constants map[string]string
}

// NewResolver creates a resolver in the global namespace
func NewResolver() *Resolver {
	r := &Resolver{}
	r.SetNamespace(types.GlobalNamespace)
	return r
}

// Namespace returns the active namespace, "global" outside any declaration
func (r *Resolver) Namespace() string {
	return r.namespace
}

// SetNamespace switches namespace and clears every import
func (r *Resolver) SetNamespace(ns string) {
	ns = strings.Trim(ns, sep)
	if ns == "" {
		ns = types.GlobalNamespace
	}
	r.namespace = ns
	r.aliases = make(map[string]string)
	r.functions = make(map[string]string)
	r.constants = make(map[string]string)
}

// AddAlias records a class import. An empty alias takes the last segment of
// the target.
func (r *Resolver) AddAlias(target, alias string) {
	target, alias = normalizeImport(target, alias)
	r.aliases[alias] = target
}

// AddFunctionAlias records a "use function" import
func (r *Resolver) AddFunctionAlias(target, alias string) {
	target, alias = normalizeImport(target, alias)
	r.functions[alias] = target
}

// AddConstantAlias records a "use const" import
func (r *Resolver) AddConstantAlias(target, alias string) {
	target, alias = normalizeImport(target, alias)
	r.constants[alias] = target
}

func normalizeImport(target, alias string) (string, string) {
	target = strings.TrimPrefix(strings.TrimSpace(target), sep)
	if alias == "" {
		alias = target
		if i := strings.LastIndex(target, sep); i >= 0 {
			alias = target[i+1:]
		}
	}
	return target, alias
}

// Aliases returns a copy of the class imports keyed by alias
func (r *Resolver) Aliases() map[string]string {
	if len(r.aliases) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// FunctionAlias returns the target of a "use function" import
func (r *Resolver) FunctionAlias(alias string) (string, bool) {
	t, ok := lookupFold(r.functions, alias)
	return t, ok
}

// ConstantAlias returns the target of a "use const" import
func (r *Resolver) ConstantAlias(alias string) (string, bool) {
	t, ok := r.constants[alias]
	return t, ok
}

// lookupFold finds an alias, falling back to a case-insensitive match since
// PHP class and function names are case-insensitive
func lookupFold(m map[string]string, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// ExpandType expands each member of a union type string. Primitives are left
// as written and array suffixes are preserved.
func (r *Resolver) ExpandType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parts := splitUnion(raw)
	for i, p := range parts {
		parts[i] = r.expandMember(strings.TrimSpace(p))
	}
	return strings.Join(parts, "|")
}

// ExpandName expands a single class reference such as an extends target
func (r *Resolver) ExpandName(name string) string {
	return r.expandMember(strings.TrimSpace(name))
}

func (r *Resolver) expandMember(t string) string {
	prefix := ""
	if strings.HasPrefix(t, "?") {
		prefix, t = "?", t[1:]
	}
	suffix := ""
	for strings.HasSuffix(t, "[]") {
		t = t[:len(t)-2]
		suffix += "[]"
	}
	// generic arguments are kept verbatim after the expanded base name
	generic := ""
	if i := strings.IndexAny(t, "<({"); i > 0 {
		t, generic = t[:i], t[i:]
	}
	if t == "" {
		return prefix + generic + suffix
	}
	return prefix + r.qualify(t) + generic + suffix
}

func (r *Resolver) qualify(t string) string {
	if IsPrimitive(t) || strings.HasPrefix(t, sep) {
		return t
	}

	segments := strings.Split(t, sep)
	switch target, aliased := lookupFold(r.aliases, segments[0]); {
	case strings.EqualFold(segments[0], "namespace"):
		if r.namespace == types.GlobalNamespace {
			segments = segments[1:]
		} else {
			segments[0] = r.namespace
		}
	case aliased:
		segments[0] = target
	case len(segments) == 1 && r.namespace != types.GlobalNamespace:
		segments = []string{r.namespace, t}
	}
	return sep + strings.Join(segments, sep)
}

// splitUnion splits on | outside of generic brackets
func splitUnion(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '{':
			depth++
		case '>', ')', '}':
			if depth > 0 {
				depth--
			}
		case '|':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}
