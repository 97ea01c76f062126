package store

import (
	"bytes"
	"fmt"
	"path"

	"github.com/robert-malhotra/go-fast5/internal/dtype"
)

// Attribute is a small named value attached to a group or dataset.
type Attribute struct {
	Name  string
	Type  *dtype.Datatype
	Shape []uint64
	Data  []byte
}

// Value decodes the attribute into a Go value.
func (a *Attribute) Value() (any, error) {
	v, err := dtype.Unmarshal(a.Type, a.Shape, a.Data)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	return v, nil
}

// IsScalar returns true if the attribute is a scalar value.
func (a *Attribute) IsScalar() bool {
	return len(a.Shape) == 0
}

func (a *Attribute) clone() *Attribute {
	return &Attribute{
		Name:  a.Name,
		Type:  a.Type,
		Shape: append([]uint64(nil), a.Shape...),
		Data:  bytes.Clone(a.Data),
	}
}

// Object is a group or a dataset.
type Object interface {
	ID() uint64
	Path() string
	base() *node
}

// node carries the behavior shared by groups and datasets.
type node struct {
	file *File
	obj  *object
	path string
}

func (n *node) base() *node { return n }

// ID returns the object identifier. Two paths are hard links to the same
// object exactly when their IDs are equal.
func (n *node) ID() uint64 {
	return n.obj.id
}

// Path returns the path the object was opened by.
func (n *node) Path() string {
	return n.path
}

// Name returns the last path component.
func (n *node) Name() string {
	if n.path == "/" {
		return "/"
	}
	return path.Base(n.path)
}

// File returns the file the object lives in.
func (n *node) File() *File {
	return n.file
}

// Attrs returns attribute names in creation order.
func (n *node) Attrs() []string {
	names := make([]string, len(n.obj.attrs))
	for i, a := range n.obj.attrs {
		names[i] = a.Name
	}
	return names
}

// HasAttr reports whether the attribute exists.
func (n *node) HasAttr(name string) bool {
	_, a := n.obj.attr(name)
	return a != nil
}

// Attr returns an attribute by name.
func (n *node) Attr(name string) (*Attribute, error) {
	if err := n.file.checkOpen(); err != nil {
		return nil, err
	}
	_, a := n.obj.attr(name)
	if a == nil {
		return nil, fmt.Errorf("attribute %s: %w", JoinAttrPath(n.path, name), ErrNotFound)
	}
	return a, nil
}

// AttrValue decodes an attribute by name.
func (n *node) AttrValue(name string) (any, error) {
	a, err := n.Attr(name)
	if err != nil {
		return nil, err
	}
	return a.Value()
}

// AttrValues decodes all attributes.
func (n *node) AttrValues() (map[string]any, error) {
	if err := n.file.checkOpen(); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(n.obj.attrs))
	for _, a := range n.obj.attrs {
		v, err := a.Value()
		if err != nil {
			return nil, err
		}
		out[a.Name] = v
	}
	return out, nil
}

// SetAttr creates or replaces an attribute. Replacing keeps the position.
func (n *node) SetAttr(name string, value any) error {
	if name == "" {
		return fmt.Errorf("%w: empty attribute name", ErrInvalidPath)
	}
	dt, shape, data, err := dtype.Marshal(value)
	if err != nil {
		return fmt.Errorf("attribute %s: %w", JoinAttrPath(n.path, name), err)
	}
	return n.putAttr(&Attribute{Name: name, Type: dt, Shape: shape, Data: data})
}

// PutAttr stores an attribute exactly as given, preserving its datatype.
func (n *node) PutAttr(a *Attribute) error {
	return n.putAttr(a.clone())
}

func (n *node) putAttr(a *Attribute) error {
	if err := n.file.checkWritable(); err != nil {
		return err
	}
	if i, _ := n.obj.attr(a.Name); i >= 0 {
		n.obj.attrs[i] = a
	} else {
		n.obj.attrs = append(n.obj.attrs, a)
	}
	n.file.touch(n.obj)
	return nil
}

// DeleteAttr removes an attribute.
func (n *node) DeleteAttr(name string) error {
	if err := n.file.checkWritable(); err != nil {
		return err
	}
	i, _ := n.obj.attr(name)
	if i < 0 {
		return fmt.Errorf("attribute %s: %w", JoinAttrPath(n.path, name), ErrNotFound)
	}
	n.obj.attrs = append(n.obj.attrs[:i], n.obj.attrs[i+1:]...)
	n.file.touch(n.obj)
	return nil
}

// ClearAttrs removes every attribute.
func (n *node) ClearAttrs() error {
	if err := n.file.checkWritable(); err != nil {
		return err
	}
	if len(n.obj.attrs) > 0 {
		n.obj.attrs = nil
		n.file.touch(n.obj)
	}
	return nil
}

// CopyAttrs copies every attribute of src, keeping stored datatypes.
// src may belong to another file.
func (n *node) CopyAttrs(src Object) error {
	if err := src.base().file.checkOpen(); err != nil {
		return err
	}
	for _, a := range src.base().obj.attrs {
		if err := n.putAttr(a.clone()); err != nil {
			return err
		}
	}
	return nil
}
