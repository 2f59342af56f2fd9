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
	"bytes"
	"math"
	"sort"
	"strings"
)

// EqualOptions control what deep equality ignores.
type EqualOptions struct {
	IgnoreComments bool
	IgnoreCustom   bool
	IgnoreTypes    bool
}

// Equal reports deep structural equality of two documents. Maps compare
// order-insensitively (items sorted by the canonical string form of their
// keys), records compare positionally, and reals compare with a relative
// tolerance.
func Equal(a, b *Document, opts EqualOptions) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !opts.IgnoreCustom && !eqText(a.Custom, b.Custom) {
		return false
	}
	if !opts.IgnoreComments && !eqText(a.Comment, b.Comment) {
		return false
	}
	if !opts.IgnoreTypes {
		if !eqTClasses(a, b, opts) {
			return false
		}
		if !eqImports(a, b) {
			return false
		}
	}
	return EqualValue(a.Root, b.Root, opts)
}

// EqualValue reports deep equality of two values under opts.
func EqualValue(a, b Value, opts EqualOptions) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.(Bool) == b.(Bool)
	case KindInt:
		return a.(Int) == b.(Int)
	case KindReal:
		return isClose(float64(a.(Real)), float64(b.(Real)))
	case KindDate:
		return a.(Date).Time.Equal(b.(Date).Time)
	case KindDateTime:
		return a.(DateTime).Time.Equal(b.(DateTime).Time)
	case KindStr:
		return a.(Str) == b.(Str)
	case KindBytes:
		return bytes.Equal(a.(Bytes), b.(Bytes))
	case KindList:
		return eqList(a.(*List), b.(*List), opts)
	case KindMap:
		return eqMap(a.(*Map), b.(*Map), opts)
	case KindTable:
		return eqTable(a.(*Table), b.(*Table), opts)
	}
	return false
}

func eqList(a, b *List, opts EqualOptions) bool {
	if !opts.IgnoreComments && !eqText(a.Comment, b.Comment) {
		return false
	}
	if !opts.IgnoreTypes && a.VType != b.VType {
		return false
	}
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if !EqualValue(a.Values[i], b.Values[i], opts) {
			return false
		}
	}
	return true
}

func eqMap(a, b *Map, opts EqualOptions) bool {
	if !opts.IgnoreComments && !eqText(a.Comment, b.Comment) {
		return false
	}
	if !opts.IgnoreTypes && (a.KType != b.KType || a.VType != b.VType) {
		return false
	}
	if a.Len() != b.Len() {
		return false
	}
	sa, sb := sortedItems(a), sortedItems(b)
	for i := range sa {
		if ScalarString(sa[i].Key) != ScalarString(sb[i].Key) {
			return false
		}
		if !EqualValue(sa[i].Value, sb[i].Value, opts) {
			return false
		}
	}
	return true
}

func sortedItems(m *Map) []MapItem {
	items := make([]MapItem, len(m.Items()))
	copy(items, m.Items())
	sort.SliceStable(items, func(i, j int) bool {
		return ScalarString(items[i].Key) < ScalarString(items[j].Key)
	})
	return items
}

func eqTable(a, b *Table, opts EqualOptions) bool {
	if !opts.IgnoreComments && !eqText(a.Comment, b.Comment) {
		return false
	}
	if !strings.EqualFold(a.TType(), b.TType()) {
		return false
	}
	if !opts.IgnoreTypes && !eqTClass(a.TClass(), b.TClass(), opts) {
		return false
	}
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Records() {
		ra, rb := a.At(i), b.At(i)
		if len(ra) != len(rb) {
			return false
		}
		for j := range ra {
			if !EqualValue(ra[j], rb[j], opts) {
				return false
			}
		}
	}
	return true
}

func eqTClass(a, b *TClass, opts EqualOptions) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !opts.IgnoreComments && !eqText(a.Comment, b.Comment) {
		return false
	}
	if !strings.EqualFold(a.TType(), b.TType()) {
		return false
	}
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i, f := range a.Fields {
		g := b.Fields[i]
		if f.Name != g.Name {
			return false
		}
		if !opts.IgnoreTypes && f.VType != g.VType {
			return false
		}
	}
	return true
}

func eqTClasses(a, b *Document, opts EqualOptions) bool {
	if len(a.TClasses()) != len(b.TClasses()) {
		return false
	}
	for _, tc := range a.TClasses() {
		other := b.TClass(tc.TType())
		if other == nil || !eqTClass(tc, other, opts) {
			return false
		}
	}
	return true
}

func eqImports(a, b *Document) bool {
	if len(a.ImportedTTypes()) != len(b.ImportedTTypes()) {
		return false
	}
	for _, ttype := range a.ImportedTTypes() {
		sa, _ := a.ImportSource(ttype)
		sb, ok := b.ImportSource(ttype)
		if !ok || sa != sb {
			return false
		}
	}
	return true
}

// eqText treats empty and unset the same way.
func eqText(a, b string) bool { return a == b }

// isClose is a relative+absolute float comparison.
func isClose(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	return diff <= 1e-9*math.Max(math.Abs(a), math.Abs(b)) || diff <= 1e-12
}
