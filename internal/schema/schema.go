// Package schema provides a tagged template tree and a single recursive walk
// over it. The same walk drives website config validation (presence check)
// and satellite response sanitization (copy and strip).
package schema

import (
	"errors"
	"reflect"
	"strings"
)

// SkipLeaf is returned by a LeafFunc to omit the current key from the output
// without aborting the walk.
var SkipLeaf = errors.New("skip this leaf")

// Node is one element of a template: either a leaf marker or a nested object
// marker with its own children.
type Node struct {
	Key      string
	Children []Node
}

// IsLeaf reports whether the node is a leaf marker.
func (n Node) IsLeaf() bool {
	return n.Children == nil
}

// Leaf returns a leaf marker for key.
func Leaf(key string) Node {
	return Node{Key: key}
}

// Object returns a nested object marker for key. An object without children
// is still an object, never a leaf.
func Object(key string, children ...Node) Node {
	if children == nil {
		children = []Node{}
	}
	return Node{Key: key, Children: children}
}

// Template is an ordered set of top level nodes.
type Template []Node

// Keys returns the top level keys in template order.
func (t Template) Keys() []string {
	keys := make([]string, 0, len(t))
	for _, n := range t {
		keys = append(keys, n.Key)
	}
	return keys
}

// LeafFunc decides what happens at a leaf. path is the dotted location of the
// leaf, value the input value (nil when absent) and present whether the key
// exists in the input. The returned value is copied into the output.
type LeafFunc func(path string, value any, present bool) (any, error)

// Walk walks the template over input and calls fn for every leaf. Input keys
// that are not part of the template are never visited. A nested object whose
// output ends up empty is omitted. A non-mapping value at an object position
// is treated as an absent mapping.
func Walk(t Template, input map[string]any, fn LeafFunc) (map[string]any, error) {
	return walk(t, input, fn, "")
}

func walk(nodes []Node, input map[string]any, fn LeafFunc, prefix string) (map[string]any, error) {
	out := make(map[string]any, len(nodes))
	for _, n := range nodes {
		path := joinPath(prefix, n.Key)
		value, present := input[n.Key]

		if n.IsLeaf() {
			v, err := fn(path, value, present)
			if errors.Is(err, SkipLeaf) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out[n.Key] = v
			continue
		}

		sub := asMapping(value)
		nested, err := walk(n.Children, sub, fn, path)
		if err != nil {
			return nil, err
		}
		if len(nested) > 0 {
			out[n.Key] = nested
		}
	}
	return out, nil
}

var mappingType = reflect.TypeOf(map[string]any(nil))

// asMapping returns v as map[string]any, also accepting named map types with
// the same underlying type. Anything else is nil.
func asMapping(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || !rv.Type().ConvertibleTo(mappingType) {
		return nil
	}
	return rv.Convert(mappingType).Interface().(map[string]any)
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.Join([]string{prefix, key}, ".")
}

// IsEmpty reports whether v counts as empty: nil, the zero value of a scalar,
// or an empty slice or map.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
