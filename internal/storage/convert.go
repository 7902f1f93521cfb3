package storage

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// FromTypesElement converts a reflected element into its searchable row
func FromTypesElement(el types.StructuralElement) *Element {
	common := el.Common()
	row := &Element{
		FQSEN:      el.FQSEN(),
		Name:       common.Name,
		Kind:       string(el.ElementKind()),
		Namespace:  common.Namespace,
		Summary:    common.Summary(),
		Signature:  Signature(el),
		Line:       common.Line,
		Deprecated: common.DocBlock.IsDeprecated(),
	}
	switch v := el.(type) {
	case *types.Method:
		row.Owner = v.Owner
	case *types.Property:
		row.Owner = v.Owner
	case *types.Constant:
		row.Owner = v.Owner
	}
	return row
}

// FromTypesFile converts every indexable element of f
func FromTypesFile(f *types.File) []*Element {
	elements := f.Elements()
	out := make([]*Element, 0, len(elements))
	for _, el := range elements {
		out = append(out, FromTypesElement(el))
	}
	return out
}

// Signature renders a one-line declaration of el
func Signature(el types.StructuralElement) string {
	switch v := el.(type) {
	case *types.Class:
		var b strings.Builder
		if v.IsAbstract {
			b.WriteString("abstract ")
		}
		if v.IsFinal {
			b.WriteString("final ")
		}
		b.WriteString(string(v.Kind) + " " + v.Name)
		if len(v.Extends) > 0 {
			b.WriteString(" extends " + strings.Join(v.Extends, ", "))
		}
		if len(v.Implements) > 0 {
			b.WriteString(" implements " + strings.Join(v.Implements, ", "))
		}
		return b.String()
	case *types.Method:
		var b strings.Builder
		b.WriteString(string(v.Visibility) + " ")
		if v.IsStatic {
			b.WriteString("static ")
		}
		b.WriteString(functionSignature(&v.Function))
		return b.String()
	case *types.Function:
		return functionSignature(v)
	case *types.Property:
		sig := string(v.Visibility) + " "
		if v.IsStatic {
			sig += "static "
		}
		if v.Type != "" {
			sig += v.Type + " "
		}
		sig += "$" + v.Name
		if v.Default != "" {
			sig += " = " + v.Default
		}
		return sig
	case *types.Constant:
		return "const " + v.Name + " = " + v.Value
	}
	return el.Common().Name
}

func functionSignature(fn *types.Function) string {
	params := make([]string, 0, len(fn.Parameters))
	for _, p := range fn.Parameters {
		var s string
		if p.TypeHint != "" {
			s = p.TypeHint + " "
		}
		if p.IsByReference {
			s += "&"
		}
		if p.IsVariadic {
			s += "..."
		}
		s += "$" + p.Name
		if p.Default != "" {
			s += " = " + p.Default
		}
		params = append(params, s)
	}
	sig := "function "
	if fn.IsByReference {
		sig += "&"
	}
	sig += fn.Name + "(" + strings.Join(params, ", ") + ")"
	if fn.ReturnType != "" {
		sig += ": " + fn.ReturnType
	}
	return sig
}

// EncodePayload serializes a reflected file for the files.payload column
func EncodePayload(f *types.File) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode payload %s: %w", f.Path, err)
	}
	return data, nil
}

// DecodePayload restores a reflected file stored by EncodePayload
func (f *File) DecodePayload() (*types.File, error) {
	if len(f.Payload) == 0 {
		return nil, fmt.Errorf("file %s has no cached payload", f.FilePath)
	}
	var out types.File
	if err := json.Unmarshal(f.Payload, &out); err != nil {
		return nil, fmt.Errorf("decode payload %s: %w", f.FilePath, err)
	}
	return &out, nil
}

// HashHex returns the stored content hash in the hex form used by types.File
func (f *File) HashHex() string {
	return hex.EncodeToString(f.ContentHash[:])
}

// ParseHash converts a hex content hash into its stored form
func ParseHash(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("invalid content hash %q: %w", s, err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("invalid content hash %q: want %d bytes, got %d", s, len(out), len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
