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

// List is an ordered sequence of values with an optional comment and an
// optional value-type constraint (a built-in type name or a ttype).
type List struct {
	VType   string
	Comment string
	Values  []Value
}

// NewList returns a List holding the given values.
func NewList(values ...Value) *List {
	return &List{Values: values}
}

func (*List) Kind() Kind { return KindList }

// Append adds a value to the end of the list.
func (l *List) Append(v Value) {
	l.Values = append(l.Values, v)
}

// Len returns the number of values in the list.
func (l *List) Len() int { return len(l.Values) }
