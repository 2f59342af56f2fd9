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
	"fmt"
	"strings"

	"github.com/uxflab/uxf/reporter"
)

// scalarTypeNames are the vtype names whose values are always scalar.
var scalarTypeNames = map[string]bool{
	"bool": true, "int": true, "real": true, "date": true,
	"datetime": true, "str": true, "bytes": true,
}

// Table is a typed, rectangular record container bound to a TClass. Each
// record has exactly as many values as the tclass has fields. A fieldless
// table holds no records and acts as an enumeration-like tag.
type Table struct {
	Comment string

	tclass  *TClass
	records [][]Value
}

// NewTable returns an empty table of the given tclass.
func NewTable(tc *TClass) *Table {
	return &Table{tclass: tc}
}

func (*Table) Kind() Kind { return KindTable }

// TClass returns the table's tclass, which may be nil on a table still
// being parsed.
func (t *Table) TClass() *TClass { return t.tclass }

// SetTClass binds the table to a tclass; the parser calls this when the
// ttype identifier after ( is resolved.
func (t *Table) SetTClass(tc *TClass) { t.tclass = tc }

// TType returns the bound tclass's name, or "" if unbound.
func (t *Table) TType() string {
	if t.tclass == nil {
		return ""
	}
	return t.tclass.TType()
}

// Fields returns the bound tclass's fields.
func (t *Table) Fields() []*Field {
	if t.tclass == nil {
		return nil
	}
	return t.tclass.Fields
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Records returns the records. The last record may be partial while a
// document is being parsed.
func (t *Table) Records() [][]Value { return t.records }

// At returns the row-th record.
func (t *Table) At(row int) []Value { return t.records[row] }

// First returns the first record, or nil if the table is empty.
func (t *Table) First() []Value {
	if len(t.records) == 0 {
		return nil
	}
	return t.records[0]
}

// Last returns the last record, or nil if the table is empty.
func (t *Table) Last() []Value {
	if len(t.records) == 0 {
		return nil
	}
	return t.records[len(t.records)-1]
}

// FieldIndex returns the column of the named field, or -1.
func (t *Table) FieldIndex(name string) int {
	for i, f := range t.Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// GetField returns the named field of the row-th record.
func (t *Table) GetField(row int, name string) (Value, error) {
	col := t.FieldIndex(name)
	if col < 0 {
		return nil, fmt.Errorf("table %s has no field %s", t.TType(), name)
	}
	return t.records[row][col], nil
}

// SetField replaces the named field of the row-th record.
func (t *Table) SetField(row int, name string, v Value) error {
	col := t.FieldIndex(name)
	if col < 0 {
		return fmt.Errorf("table %s has no field %s", t.TType(), name)
	}
	t.records[row][col] = v
	return nil
}

// Append is the reader protocol: the value is added to the last record if
// that record is not yet full, or begins a new record. Use AppendRecord
// for ordinary mutation.
func (t *Table) Append(v Value) error {
	if t.tclass == nil || t.tclass.Fieldless() {
		return reporter.Errorf("", 0, 334, "can't append to a fieldless table")
	}
	n := t.tclass.Len()
	if len(t.records) == 0 || len(t.records[len(t.records)-1]) >= n {
		t.records = append(t.records, make([]Value, 0, n))
	}
	last := len(t.records) - 1
	t.records[last] = append(t.records[last], v)
	return nil
}

// AppendRecord adds one complete record; its arity must equal the number
// of fields.
func (t *Table) AppendRecord(record ...Value) error {
	if t.tclass == nil || t.tclass.Fieldless() {
		return reporter.Errorf("", 0, 334, "can't append to a fieldless table")
	}
	if len(record) != t.tclass.Len() {
		return reporter.Errorf("", 0, 322,
			"can't append a record of %d values to a %d-field table %s",
			len(record), t.tclass.Len(), t.TType())
	}
	t.records = append(t.records, record)
	return nil
}

// DeleteRecord removes the row-th record.
func (t *Table) DeleteRecord(row int) {
	t.records = append(t.records[:row], t.records[row+1:]...)
}

// NextVType returns the declared vtype of the field the next appended
// value will land in, or "" if unconstrained.
func (t *Table) NextVType() string {
	if t.tclass == nil || t.tclass.Fieldless() {
		return ""
	}
	if len(t.records) == 0 {
		return t.tclass.Fields[0].VType
	}
	last := t.records[len(t.records)-1]
	if len(last) == t.tclass.Len() {
		return t.tclass.Fields[0].VType
	}
	return t.tclass.Fields[len(last)].VType
}

// IsScalar reports whether every field's declared vtype is scalar or,
// where a vtype is absent, every stored cell value is scalar.
func (t *Table) IsScalar() bool {
	allTyped := true
	for _, f := range t.Fields() {
		if f.VType == "" {
			allTyped = false
			break
		}
		if !scalarTypeNames[f.VType] {
			return false
		}
	}
	if allTyped {
		return true
	}
	for _, record := range t.records {
		for _, v := range record {
			if !IsScalar(v) {
				return false
			}
		}
	}
	return true
}

// String summarizes the table for debugging.
func (t *Table) String() string {
	var parts []string
	if t.tclass != nil {
		parts = append(parts, fmt.Sprintf("ttype=%s", t.TType()))
	} else {
		parts = append(parts, "(no fields)")
	}
	if t.Comment != "" {
		parts = append(parts, fmt.Sprintf("comment=%q", t.Comment))
	}
	parts = append(parts, fmt.Sprintf("(%d records)", len(t.records)))
	return strings.Join(parts, " ")
}
