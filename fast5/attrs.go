package fast5

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/robert-malhotra/go-fast5/internal/store"
)

// attrHolder is the attribute surface shared by groups and datasets.
type attrHolder interface {
	Attrs() []string
	HasAttr(name string) bool
	AttrValue(name string) (any, error)
	AttrValues() (map[string]any, error)
	SetAttr(name string, value any) error
	ClearAttrs() error
	CopyAttrs(src store.Object) error
}

func holderOf(obj store.Object) attrHolder {
	switch o := obj.(type) {
	case *store.Group:
		return o
	case *store.Dataset:
		return o
	}
	return nil
}

// writeAttrs stores attrs in key order, optionally removing existing ones
// first.
func writeAttrs(h attrHolder, attrs map[string]any, clear bool) error {
	if clear {
		if err := h.ClearAttrs(); err != nil {
			return err
		}
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := h.SetAttr(k, attrs[k]); err != nil {
			return err
		}
	}
	return nil
}

// readAttrs returns the cleaned attributes of h.
func readAttrs(h attrHolder) (map[string]any, error) {
	vals, err := h.AttrValues()
	if err != nil {
		return nil, err
	}
	for k, v := range vals {
		vals[k] = Clean(v)
	}
	return vals, nil
}

func attrOr(h attrHolder, name string, def any) (any, error) {
	if !h.HasAttr(name) {
		return def, nil
	}
	v, err := h.AttrValue(name)
	if err != nil {
		return nil, err
	}
	return Clean(v), nil
}

// asInt converts a numeric or numeric-string attribute value.
func asInt(v any) (int64, error) {
	switch x := Clean(v).(type) {
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case float32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("not a number: %v (%T)", v, v)
}

// asFloat converts a numeric or numeric-string attribute value.
func asFloat(v any) (float64, error) {
	switch x := Clean(v).(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		return f, nil
	}
	n, err := asInt(v)
	return float64(n), err
}

func asString(v any) string {
	switch x := Clean(v).(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
