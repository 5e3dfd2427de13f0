package contract

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Ordered is a string-keyed map that marshals its entries in insertion order.
// Paths and schemas use it so the document lists them in extraction order.
type Ordered[V any] struct {
	keys []string
	vals map[string]V
}

func NewOrdered[V any]() *Ordered[V] {
	return &Ordered[V]{vals: make(map[string]V)}
}

// Set inserts or replaces key. A replaced key keeps its original position.
func (m *Ordered[V]) Set(key string, v V) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

func (m *Ordered[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m *Ordered[V]) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *Ordered[V]) Len() int { return len(m.keys) }

func (m *Ordered[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Ordered[V]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		val := &yaml.Node{}
		if err := val.Encode(m.vals[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			val,
		)
	}
	return node, nil
}
