package resolver

import (
	"strings"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// EffectiveSummary returns the summary of el with {@inheritDoc} resolved
// against its nearest documented ancestor
func (r *Resolver) EffectiveSummary(el types.StructuralElement) string {
	return r.effective(el, func(d *types.DocBlock) string { return d.Summary }, make(map[string]bool))
}

// EffectiveDescription returns the long description of el with
// {@inheritDoc} resolved against its nearest documented ancestor
func (r *Resolver) EffectiveDescription(el types.StructuralElement) string {
	return r.effective(el, func(d *types.DocBlock) string { return d.Description }, make(map[string]bool))
}

func (r *Resolver) effective(el types.StructuralElement, pick func(*types.DocBlock) string, visited map[string]bool) string {
	own := ""
	if doc := el.Common().DocBlock; doc != nil {
		own = pick(doc)
	}

	replace := own == "" || strings.EqualFold(strings.TrimSpace(own), types.InheritDocMarker)
	marker := -1
	if !replace {
		marker = strings.Index(strings.ToLower(own), strings.ToLower(types.InheritDocMarker))
		if marker < 0 {
			return own
		}
	}

	key := strings.ToLower(el.FQSEN())
	if visited[key] {
		return own
	}
	visited[key] = true

	ancestor := r.ancestorOf(el)
	if ancestor == nil {
		return own
	}
	inherited := r.effective(ancestor, pick, visited)
	if replace {
		return inherited
	}
	return own[:marker] + inherited + own[marker+len(types.InheritDocMarker):]
}

// ancestorOf returns the element el inherits documentation from: the nearest
// resolvable ancestor class-like, or for a member the same-named member of
// the nearest ancestor declaring it
func (r *Resolver) ancestorOf(el types.StructuralElement) types.StructuralElement {
	if c, ok := el.(*types.Class); ok {
		if ancestors := r.ancestors(c); len(ancestors) > 0 {
			return ancestors[0]
		}
		return nil
	}

	owner := ownerOf(el)
	if owner == "" {
		return nil
	}
	c, ok := r.idx.Class(owner)
	if !ok {
		return nil
	}
	suffix := strings.TrimPrefix(el.FQSEN(), owner)
	for _, a := range r.ancestors(c) {
		if m, ok := r.idx.Lookup(a.FQSEN() + suffix); ok && m.ElementKind() == el.ElementKind() {
			return m
		}
	}
	return nil
}

// ancestors lists the class-likes c inherits from, nearest first: the parent
// chain, then the interfaces implemented along it with their own parents
func (r *Resolver) ancestors(c *types.Class) []*types.Class {
	visited := map[string]bool{strings.ToLower(c.FQSEN()): true}
	var out []*types.Class
	var visit func(*types.Class)
	visit = func(x *types.Class) {
		key := strings.ToLower(x.FQSEN())
		if visited[key] {
			return
		}
		visited[key] = true
		out = append(out, x)
	}

	chain := []*types.Class{c}
	for cur := c; ; {
		parents := r.parents(cur)
		if len(parents) == 0 || cur.Kind != types.KindClass {
			break
		}
		p := parents[0]
		if visited[strings.ToLower(p.FQSEN())] {
			break
		}
		visit(p)
		chain = append(chain, p)
		cur = p
	}

	var walkInterfaces func(*types.Class)
	walkInterfaces = func(x *types.Class) {
		for _, p := range r.parents(x) {
			if visited[strings.ToLower(p.FQSEN())] {
				continue
			}
			visit(p)
			walkInterfaces(p)
		}
	}
	for _, x := range chain {
		if x.Kind == types.KindInterface {
			walkInterfaces(x)
			continue
		}
		for _, ref := range x.Implements {
			i, ok := r.idx.Class(ref)
			if !ok || visited[strings.ToLower(i.FQSEN())] {
				continue
			}
			visit(i)
			walkInterfaces(i)
		}
	}
	return out
}
