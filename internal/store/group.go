package store

import (
	"fmt"
)

// Group is a container of named links to groups and datasets.
type Group struct {
	node
}

// Members returns the names of the group's members in creation order.
func (g *Group) Members() ([]string, error) {
	if err := g.file.checkOpen(); err != nil {
		return nil, err
	}
	names := make([]string, len(g.obj.links))
	for i, l := range g.obj.links {
		names[i] = l.name
	}
	return names, nil
}

// Len returns the number of members.
func (g *Group) Len() int {
	return len(g.obj.links)
}

// resolve walks a relative or absolute path from g.
func (g *Group) resolve(p string) (*object, string, error) {
	if err := g.file.checkOpen(); err != nil {
		return nil, "", err
	}
	cur := g.obj
	curPath := g.path
	if len(p) > 0 && p[0] == '/' {
		cur = g.file.objects[rootID]
		curPath = "/"
	}
	for _, name := range SplitPath(p) {
		if cur.kind != kindGroup {
			return nil, "", fmt.Errorf("%s: %w", curPath, ErrNotGroup)
		}
		id, ok := cur.lookup(name)
		if !ok {
			return nil, "", fmt.Errorf("%s: %w", JoinPath(curPath, name), ErrNotFound)
		}
		cur = g.file.objects[id]
		curPath = JoinPath(curPath, name)
	}
	return cur, curPath, nil
}

// Has reports whether a path exists below g.
func (g *Group) Has(p string) bool {
	_, _, err := g.resolve(p)
	return err == nil
}

// IsGroup reports whether p names a group.
func (g *Group) IsGroup(p string) bool {
	obj, _, err := g.resolve(p)
	return err == nil && obj.kind == kindGroup
}

// IsDataset reports whether p names a dataset.
func (g *Group) IsDataset(p string) bool {
	obj, _, err := g.resolve(p)
	return err == nil && obj.kind == kindDataset
}

// Object opens a group or dataset by path.
func (g *Group) Object(p string) (Object, error) {
	obj, full, err := g.resolve(p)
	if err != nil {
		return nil, err
	}
	n := node{file: g.file, obj: obj, path: full}
	if obj.kind == kindGroup {
		return &Group{n}, nil
	}
	return &Dataset{n}, nil
}

// Group opens a subgroup by path.
func (g *Group) Group(p string) (*Group, error) {
	obj, full, err := g.resolve(p)
	if err != nil {
		return nil, err
	}
	if obj.kind != kindGroup {
		return nil, fmt.Errorf("%s: %w", full, ErrNotGroup)
	}
	return &Group{node{file: g.file, obj: obj, path: full}}, nil
}

// Dataset opens a dataset by path.
func (g *Group) Dataset(p string) (*Dataset, error) {
	obj, full, err := g.resolve(p)
	if err != nil {
		return nil, err
	}
	if obj.kind != kindDataset {
		return nil, fmt.Errorf("%s: %w", full, ErrNotDataset)
	}
	return &Dataset{node{file: g.file, obj: obj, path: full}}, nil
}

// parent resolves the group that will hold the last component of p,
// creating intermediate groups when create is set.
func (g *Group) parent(p string, create bool) (*Group, string, error) {
	parts := SplitPath(p)
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	name := parts[len(parts)-1]
	if err := validName(name); err != nil {
		return nil, "", err
	}
	cur := g
	if p[0] == '/' {
		cur = g.file.Root()
	}
	for _, part := range parts[:len(parts)-1] {
		next, err := cur.Group(part)
		if err != nil && create && !cur.Has(part) {
			next, err = cur.createChild(part)
		}
		if err != nil {
			return nil, "", err
		}
		cur = next
	}
	return cur, name, nil
}

func (g *Group) createChild(name string) (*Group, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if _, ok := g.obj.lookup(name); ok {
		return nil, fmt.Errorf("%s: %w", JoinPath(g.path, name), ErrExists)
	}
	obj := g.file.newObject(kindGroup)
	g.addLink(name, obj.id)
	return &Group{node{file: g.file, obj: obj, path: JoinPath(g.path, name)}}, nil
}

func (g *Group) addLink(name string, id uint64) {
	g.obj.links = append(g.obj.links, link{name: name, id: id})
	g.file.touch(g.obj)
}

// CreateGroup creates a group at p, creating missing intermediate groups.
// The final component must not exist.
func (g *Group) CreateGroup(p string) (*Group, error) {
	if err := g.file.checkWritable(); err != nil {
		return nil, err
	}
	parent, name, err := g.parent(p, true)
	if err != nil {
		return nil, err
	}
	return parent.createChild(name)
}

// RequireGroup returns the group at p, creating it and any missing
// intermediate groups if needed.
func (g *Group) RequireGroup(p string) (*Group, error) {
	if grp, err := g.Group(p); err == nil {
		return grp, nil
	}
	return g.CreateGroup(p)
}

// Link adds name as a hard link to target, which must live in the same file.
func (g *Group) Link(name string, target Object) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	t := target.base()
	if t.file != g.file {
		return fmt.Errorf("linking %s: %w", t.path, ErrCrossFile)
	}
	if g.obj.kind != kindGroup {
		return fmt.Errorf("%s: %w", g.path, ErrNotGroup)
	}
	if err := validName(name); err != nil {
		return err
	}
	if _, ok := g.obj.lookup(name); ok {
		return fmt.Errorf("%s: %w", JoinPath(g.path, name), ErrExists)
	}
	g.addLink(name, t.obj.id)
	return nil
}

// Unlink removes the member name. The object itself is dropped at the next
// flush once no other link reaches it.
func (g *Group) Unlink(name string) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	for i, l := range g.obj.links {
		if l.name == name {
			g.obj.links = append(g.obj.links[:i], g.obj.links[i+1:]...)
			g.file.touch(g.obj)
			return nil
		}
	}
	return fmt.Errorf("%s: %w", JoinPath(g.path, name), ErrNotFound)
}
