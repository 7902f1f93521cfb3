package types

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// File is the reflection result for a single source file
type File struct {
	Path        string `json:"path"`
	ContentHash string `json:"content_hash"`

	DocBlock   *DocBlock   `json:"docblock,omitempty"`
	Namespaces []string    `json:"namespaces,omitempty"`
	Classes    []*Class    `json:"classes,omitempty"`
	Interfaces []*Class    `json:"interfaces,omitempty"`
	Traits     []*Class    `json:"traits,omitempty"`
	Functions  []*Function `json:"functions,omitempty"`
	Constants  []*Constant `json:"constants,omitempty"`
	Includes   []*Include  `json:"includes,omitempty"`

	Markers     []Marker     `json:"markers,omitempty"`
	ParseErrors []Diagnostic `json:"parse_errors,omitempty"`
}

// NewFile creates an empty File for the given path and content hash
func NewFile(path, contentHash string) *File {
	return &File{Path: path, ContentHash: contentHash}
}

// ComputeContentHash returns the hex SHA-256 digest of normalized content
func ComputeContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// AddParseError records a file-level problem
func (f *File) AddParseError(line int, severity Severity, msg string) {
	f.ParseErrors = append(f.ParseErrors, Diagnostic{
		File:     f.Path,
		Line:     line,
		Severity: severity,
		Message:  msg,
	})
}

// HasErrors reports whether any parse error was recorded
func (f *File) HasErrors() bool {
	return len(f.ParseErrors) > 0
}

// AddClass stores a class-like in the collection matching its kind
func (f *File) AddClass(c *Class) {
	switch c.Kind {
	case KindInterface:
		f.Interfaces = append(f.Interfaces, c)
	case KindTrait:
		f.Traits = append(f.Traits, c)
	default:
		f.Classes = append(f.Classes, c)
	}
}

// AddNamespace records a namespace declared in the file once
func (f *File) AddNamespace(ns string) {
	for _, existing := range f.Namespaces {
		if existing == ns {
			return
		}
	}
	f.Namespaces = append(f.Namespaces, ns)
}

// ClassLikes returns classes, interfaces and traits in declaration order
func (f *File) ClassLikes() []*Class {
	out := make([]*Class, 0, len(f.Classes)+len(f.Interfaces)+len(f.Traits))
	out = append(out, f.Classes...)
	out = append(out, f.Interfaces...)
	out = append(out, f.Traits...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// Elements returns every indexable element declared in the file:
// class-likes with their members, functions and global constants
func (f *File) Elements() []StructuralElement {
	var out []StructuralElement
	for _, c := range f.ClassLikes() {
		out = append(out, c)
		for _, k := range c.SortedConstants() {
			out = append(out, k)
		}
		for _, p := range c.SortedProperties() {
			out = append(out, p)
		}
		for _, m := range c.SortedMethods() {
			out = append(out, m)
		}
	}
	for _, fn := range f.Functions {
		out = append(out, fn)
	}
	for _, k := range f.Constants {
		out = append(out, k)
	}
	return out
}

// Diagnostics returns parse errors followed by element validation errors
func (f *File) Diagnostics() []Diagnostic {
	out := append([]Diagnostic(nil), f.ParseErrors...)
	for _, el := range f.Elements() {
		out = append(out, el.Common().Errors...)
		if fn, ok := el.(*Method); ok {
			for _, p := range fn.Parameters {
				out = append(out, p.Errors...)
			}
		}
	}
	for _, fn := range f.Functions {
		for _, p := range fn.Parameters {
			out = append(out, p.Errors...)
		}
	}
	for _, inc := range f.Includes {
		out = append(out, inc.Errors...)
	}
	return out
}
