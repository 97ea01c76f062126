package store

import (
	"errors"
)

// ErrSkipGroup may be returned by a WalkFunc to skip the members of the
// group it was called for.
var ErrSkipGroup = errors.New("skip this group")

// WalkFunc is called for each object during traversal.
// obj is either *Group or *Dataset.
// Return nil to continue walking, or an error to stop.
type WalkFunc func(path string, obj Object) error

// Walk traverses g and everything below it, parents before members.
// An object reachable by several hard links is visited once per path.
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if errors.Is(err, ErrSkipGroup) {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g); err != nil {
		return err
	}
	members, err := g.Members()
	if err != nil {
		return err
	}
	for _, name := range members {
		child, err := g.Object(name)
		if err != nil {
			return err
		}
		switch c := child.(type) {
		case *Group:
			if err := walkGroup(c, fn); err != nil && !errors.Is(err, ErrSkipGroup) {
				return err
			}
		case *Dataset:
			if err := fn(c.Path(), c); err != nil && !errors.Is(err, ErrSkipGroup) {
				return err
			}
		}
	}
	return nil
}

// AttrInfo describes one attribute during WalkAttrs.
type AttrInfo struct {
	Path       string // "/object@name"
	ObjectPath string
	ObjectType string // "group" or "dataset"
	Attr       *Attribute
	Value      any
	Err        error // decoding error for Value
}

// WalkAttrs calls fn for every attribute of every object below g.
func WalkAttrs(g *Group, fn func(AttrInfo) error) error {
	return Walk(g, func(p string, obj Object) error {
		typ := "group"
		if _, ok := obj.(*Dataset); ok {
			typ = "dataset"
		}
		for _, a := range obj.base().obj.attrs {
			v, err := a.Value()
			info := AttrInfo{
				Path:       JoinAttrPath(p, a.Name),
				ObjectPath: p,
				ObjectType: typ,
				Attr:       a,
				Value:      v,
				Err:        err,
			}
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}
