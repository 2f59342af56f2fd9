// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package value

import (
	"github.com/uxflab/uxf/reporter"
)

// KeyTypes lists the type names admissible as a map ktype.
var KeyTypes = map[string]bool{
	"int": true, "date": true, "datetime": true, "str": true, "bytes": true,
}

// MapItem is one key/value pair of a Map.
type MapItem struct {
	Key   Value
	Value Value
}

// Map is a mapping from scalar keys to values. Items preserve insertion
// order for serialization convenience only; equality is order-insensitive.
// Keys are identified by their canonical UXF literal form, so two keys
// collapse iff they render identically.
type Map struct {
	KType   string
	VType   string
	Comment string

	items      []MapItem
	index      map[string]int
	pendingKey Value
	hasPending bool
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

func (*Map) Kind() Kind { return KindMap }

// Len returns the number of key/value pairs.
func (m *Map) Len() int { return len(m.items) }

// Items returns the pairs in insertion order. The returned slice is the
// map's own backing storage; callers must not grow it.
func (m *Map) Items() []MapItem { return m.items }

// Get returns the value stored under key.
func (m *Map) Get(key Value) (Value, bool) {
	if m.index == nil {
		return nil, false
	}
	i, ok := m.index[ScalarString(key)]
	if !ok {
		return nil, false
	}
	return m.items[i].Value, true
}

// Set stores value under key, replacing any existing item with an equal
// key. Keys must be of kind int, date, datetime, str, or bytes.
func (m *Map) Set(key, v Value) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	ks := ScalarString(key)
	if i, ok := m.index[ks]; ok {
		m.items[i].Value = v
		return nil
	}
	m.index[ks] = len(m.items)
	m.items = append(m.items, MapItem{Key: key, Value: v})
	return nil
}

// Delete removes the item stored under key, reporting whether it existed.
func (m *Map) Delete(key Value) bool {
	if m.index == nil {
		return false
	}
	ks := ScalarString(key)
	i, ok := m.index[ks]
	if !ok {
		return false
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	delete(m.index, ks)
	for k, j := range m.index {
		if j > i {
			m.index[k] = j - 1
		}
	}
	return true
}

// Append is the reader protocol: the first call sets the pending key, the
// next consumes it as that key's value, and so on alternately. Use Set for
// ordinary mutation.
func (m *Map) Append(v Value) error {
	if !m.hasPending {
		if err := checkKey(v); err != nil {
			return err
		}
		m.pendingKey = v
		m.hasPending = true
		return nil
	}
	key := m.pendingKey
	m.pendingKey = nil
	m.hasPending = false
	return m.Set(key, v)
}

// NextIsKey reports whether the next Append will be taken as a key.
func (m *Map) NextIsKey() bool { return !m.hasPending }

func checkKey(v Value) error {
	if KindOf(v).IsKeyType() {
		return nil
	}
	const prefix = "map keys may only be of type int, date, datetime, str, or bytes, got "
	if KindOf(v) == KindTable {
		return reporter.Errorf("", 0, 290,
			prefix+"a table ( … ), maybe bytes (: … :) was intended?")
	}
	return reporter.Errorf("", 0, 294, prefix+"%s %s", KindOf(v), ScalarString(v))
}
