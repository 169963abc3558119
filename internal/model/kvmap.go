package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
)

// KVMap is an ordered JSON object whose values are kept opaque. It carries
// filter_rules and content_variables through to the server untouched; only
// the object shape is checked.
type KVMap struct {
	m *orderedmap.OrderedMap[string, json.RawMessage]
}

var errNotObject = errors.New("must be a JSON object")

func NewKVMap() *KVMap {
	return &KVMap{m: orderedmap.NewOrderedMap[string, json.RawMessage]()}
}

// ParseKVMap parses operator text into a KVMap. Blank text yields nil.
// Arrays, scalars and null are rejected with an error naming field.
func ParseKVMap(field, text string) (*KVMap, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	kv := NewKVMap()
	if err := kv.UnmarshalJSON([]byte(text)); err != nil {
		return nil, &ValidationError{Field: field, Message: err.Error()}
	}
	return kv, nil
}

func (k *KVMap) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	k.ensure().Set(key, raw)
	return nil
}

func (k *KVMap) Get(key string) (json.RawMessage, bool) {
	if k == nil || k.m == nil {
		return nil, false
	}
	return k.m.Get(key)
}

// String returns the value under key when it is a JSON string.
func (k *KVMap) String(key string) (string, bool) {
	raw, ok := k.Get(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (k *KVMap) Len() int {
	if k == nil || k.m == nil {
		return 0
	}
	return k.m.Len()
}

func (k *KVMap) Keys() []string {
	if k == nil || k.m == nil {
		return nil
	}
	keys := make([]string, 0, k.m.Len())
	for key := range k.m.AllFromFront() {
		keys = append(keys, key)
	}
	return keys
}

// Equal compares the canonical encodings, so key order matters.
func (k *KVMap) Equal(other *KVMap) bool {
	if k.Len() == 0 && other.Len() == 0 {
		return true
	}
	a, errA := k.MarshalJSON()
	b, errB := other.MarshalJSON()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func (k *KVMap) MarshalJSON() ([]byte, error) {
	if k == nil || k.m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for key, raw := range k.m.AllFromFront() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return nil, err
		}
		buf.Write(compact.Bytes())
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (k *KVMap) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return errNotObject
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}
	m := orderedmap.NewOrderedMap[string, json.RawMessage]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errNotObject
		}
		key, ok := tok.(string)
		if !ok {
			return errNotObject
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return errNotObject
		}
		m.Set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return errNotObject
	}
	if _, err := dec.Token(); err != io.EOF {
		return errNotObject
	}
	k.m = m
	return nil
}

func (k *KVMap) ensure() *orderedmap.OrderedMap[string, json.RawMessage] {
	if k.m == nil {
		k.m = orderedmap.NewOrderedMap[string, json.RawMessage]()
	}
	return k.m
}
