package types

import (
	"fmt"
	"strings"
)

// TagKind identifies tags that receive specialized parsing
type TagKind string

const (
	TagGeneric       TagKind = "generic"
	TagVar           TagKind = "var"
	TagParam         TagKind = "param"
	TagReturn        TagKind = "return"
	TagProperty      TagKind = "property"
	TagPropertyRead  TagKind = "property-read"
	TagPropertyWrite TagKind = "property-write"
	TagMethod        TagKind = "method"
	TagPackage       TagKind = "package"
	TagSubpackage    TagKind = "subpackage"
	TagDeprecated    TagKind = "deprecated"
	TagInheritDoc    TagKind = "inheritdoc"
)

// InheritDocMarker is the inline marker replaced by an ancestor's text
const InheritDocMarker = "{@inheritDoc}"

// DocBlock is a parsed documentation comment
type DocBlock struct {
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Tags        []Tag  `json:"tags,omitempty"`
	Line        int    `json:"line"`
}

// Tag is a single @tag entry. Name and Body are always set; the remaining
// fields are filled for the specialized kinds that use them.
type Tag struct {
	Name string  `json:"name"`
	Kind TagKind `json:"kind"`
	Body string  `json:"body,omitempty"`

	// Types holds expanded type names (var, param, return, property, method)
	Types       []string `json:"types,omitempty"`
	Variable    string   `json:"variable,omitempty"`
	Description string   `json:"description,omitempty"`

	// @param
	IsVariadic    bool `json:"is_variadic,omitempty"`
	IsByReference bool `json:"is_by_reference,omitempty"`

	// @method
	MethodName string `json:"method_name,omitempty"`
	Arguments  string `json:"arguments,omitempty"`
	IsStatic   bool   `json:"is_static,omitempty"`

	// @deprecated
	Version string `json:"version,omitempty"`
}

// TagsByName returns all tags with the given name, case-insensitively
func (d *DocBlock) TagsByName(name string) []Tag {
	if d == nil {
		return nil
	}
	var out []Tag
	for _, t := range d.Tags {
		if strings.EqualFold(t.Name, name) {
			out = append(out, t)
		}
	}
	return out
}

// HasTag reports whether the docblock carries a tag with the given name
func (d *DocBlock) HasTag(name string) bool {
	return len(d.TagsByName(name)) > 0
}

// TagsOfKind returns all tags parsed as the given kind
func (d *DocBlock) TagsOfKind(kinds ...TagKind) []Tag {
	if d == nil {
		return nil
	}
	var out []Tag
	for _, t := range d.Tags {
		for _, k := range kinds {
			if t.Kind == k {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Package returns the @package value or an empty string
func (d *DocBlock) Package() string {
	tags := d.TagsOfKind(TagPackage)
	if len(tags) == 0 {
		return ""
	}
	return tags[0].Body
}

// IsDeprecated reports whether a @deprecated tag is present
func (d *DocBlock) IsDeprecated() bool {
	return len(d.TagsOfKind(TagDeprecated)) > 0
}

// InvalidMagicTag returns the validation message for a @property* or @method
// tag that cannot produce a magic member of owner, or "" when it is usable
func InvalidMagicTag(t Tag, owner string) string {
	switch t.Kind {
	case TagProperty, TagPropertyRead, TagPropertyWrite:
		if t.Variable == "" {
			return fmt.Sprintf("@%s tag on %s has no variable name", t.Name, owner)
		}
	case TagMethod:
		if t.MethodName == "" {
			return fmt.Sprintf("@%s tag on %s has no method signature", t.Name, owner)
		}
	}
	return ""
}
