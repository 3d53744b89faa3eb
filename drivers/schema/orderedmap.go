package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// OrderedMap is a map that preserves key insertion order. Tables and views
// use it so that columns stay in catalog ordinal order.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

// NewOrderedMap creates a new empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{
		keys:   make([]string, 0),
		values: make(map[string]V),
	}
}

// Set sets the value for a key, preserving insertion order.
func (om *OrderedMap[V]) Set(key string, value V) {
	if _, exists := om.values[key]; !exists {
		om.keys = append(om.keys, key)
	}
	om.values[key] = value
}

// Get retrieves the value for a key.
func (om *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := om.values[key]
	return v, ok
}

// Has reports whether key is present.
func (om *OrderedMap[V]) Has(key string) bool {
	_, ok := om.values[key]
	return ok
}

// Len returns the number of entries.
func (om *OrderedMap[V]) Len() int {
	if om == nil {
		return 0
	}
	return len(om.keys)
}

// Keys returns the keys in insertion order.
func (om *OrderedMap[V]) Keys() []string {
	if om == nil {
		return nil
	}
	return append([]string(nil), om.keys...)
}

// Values returns the values in insertion order.
func (om *OrderedMap[V]) Values() []V {
	if om == nil {
		return nil
	}
	out := make([]V, 0, len(om.keys))
	for _, k := range om.keys {
		out = append(out, om.values[k])
	}
	return out
}

// Equal reports whether both maps hold the same keys in the same order with
// equal values. go-cmp picks this method up when comparing schema graphs.
func (om *OrderedMap[V]) Equal(other *OrderedMap[V]) bool {
	if om.Len() != other.Len() {
		return false
	}
	for i, k := range om.Keys() {
		if other.keys[i] != k {
			return false
		}
		if !cmp.Equal(om.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler, outputting keys in order.
func (om *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range om.keys {
		v := om.values[k]
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key: %w", err)
		}
		valBytes, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')
		buf = append(buf, valBytes...)
		if i < len(om.keys)-1 {
			buf = append(buf, ',')
		}
	}
	buf = append(buf, '}')
	return buf, nil
}

// MarshalYAML implements yaml.Marshaler, emitting a mapping node in key order.
func (om *OrderedMap[V]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range om.keys {
		var val yaml.Node
		if err := val.Encode(om.values[k]); err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}
