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

import "strings"

// Field is one column of a TClass: a name plus an optional value-type
// constraint (a built-in type name or a ttype).
type Field struct {
	Name  string
	VType string
}

// NewField validates name and returns the field. vtype may be empty.
func NewField(name, vtype string) (*Field, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	return &Field{Name: name, VType: vtype}, nil
}

// TClass is the schema of a Table: a ttype name and an ordered field list.
// A TClass with no fields is "fieldless" and acts as an enumeration-like
// marker. The ttype's identity is case-insensitive but its original casing
// is preserved for serialization.
type TClass struct {
	ttype   string
	Fields  []*Field
	Comment string
}

// NewTClass validates the ttype name and returns the TClass.
func NewTClass(ttype string, fields ...*Field) (*TClass, error) {
	if err := CheckName(ttype); err != nil {
		return nil, err
	}
	return &TClass{ttype: ttype, Fields: fields}, nil
}

// TType returns the tclass's name in its original casing.
func (tc *TClass) TType() string { return tc.ttype }

// Fieldless reports whether the tclass has no fields.
func (tc *TClass) Fieldless() bool { return len(tc.Fields) == 0 }

// Len returns the number of fields.
func (tc *TClass) Len() int { return len(tc.Fields) }

// Equal reports whether the two tclasses have case-insensitively equal
// ttypes and pairwise equal (name, vtype) fields. Comments are ignored.
func (tc *TClass) Equal(other *TClass) bool {
	if tc == nil || other == nil {
		return tc == other
	}
	if !strings.EqualFold(tc.ttype, other.ttype) {
		return false
	}
	if len(tc.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range tc.Fields {
		g := other.Fields[i]
		if f.Name != g.Name || f.VType != g.VType {
			return false
		}
	}
	return true
}

// Less orders tclasses by ttype, case-insensitively where possible.
func (tc *TClass) Less(other *TClass) bool {
	a, b := strings.ToUpper(tc.ttype), strings.ToUpper(other.ttype)
	if a != b {
		return a < b
	}
	return tc.ttype < other.ttype
}
