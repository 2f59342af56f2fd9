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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxflab/uxf/reporter"
)

func TestKindOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, KindNull, KindOf(nil))
	assert.Equal(t, KindBool, KindOf(Bool(true)))
	assert.Equal(t, KindInt, KindOf(Int(7)))
	assert.Equal(t, KindReal, KindOf(Real(0.5)))
	assert.Equal(t, KindDate, KindOf(NewDate(2023, time.January, 15)))
	assert.Equal(t, KindDateTime, KindOf(NewDateTime(time.Now(), false)))
	assert.Equal(t, KindStr, KindOf(Str("x")))
	assert.Equal(t, KindBytes, KindOf(Bytes{0xDE}))
	assert.Equal(t, KindList, KindOf(NewList()))
	assert.Equal(t, KindMap, KindOf(NewMap()))
	assert.Equal(t, KindTable, KindOf(NewTable(nil)))
}

func TestKindPredicates(t *testing.T) {
	t.Parallel()
	for _, k := range []Kind{KindNull, KindBool, KindInt, KindReal, KindDate, KindDateTime, KindStr, KindBytes} {
		assert.True(t, k.IsScalar(), k.String())
	}
	for _, k := range []Kind{KindList, KindMap, KindTable} {
		assert.False(t, k.IsScalar(), k.String())
		assert.False(t, k.IsKeyType(), k.String())
	}
	for _, k := range []Kind{KindInt, KindDate, KindDateTime, KindStr, KindBytes} {
		assert.True(t, k.IsKeyType(), k.String())
	}
	assert.False(t, KindBool.IsKeyType())
	assert.False(t, KindReal.IsKeyType())
}

func TestKindForName(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]Kind{
		"bool": KindBool, "int": KindInt, "real": KindReal,
		"date": KindDate, "datetime": KindDateTime, "str": KindStr,
		"bytes": KindBytes, "list": KindList, "map": KindMap, "table": KindTable,
	} {
		got, ok := KindForName(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := KindForName("point")
	assert.False(t, ok)
}

func TestScalarString(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		v    Value
		want string
	}{
		{nil, "?"},
		{Bool(true), "yes"},
		{Bool(false), "no"},
		{Int(-42), "-42"},
		{Real(1), "1.0"},
		{Real(-0.5), "-0.5"},
		{NewDate(2023, time.January, 15), "2023-01-15"},
		{NewDateTime(time.Date(2023, 1, 15, 10, 11, 12, 0, time.UTC), false), "2023-01-15T10:11:12"},
		{NewDateTime(time.Date(2023, 1, 15, 10, 11, 12, 0, time.UTC), true), "2023-01-15T10:11:12+00:00"},
		{Str("a & b"), "<a &amp; b>"},
		{Str("<tag>"), "<&lt;tag&gt;>"},
		{Bytes{0xDE, 0xAD, 0xBE, 0xEF}, "(:DEADBEEF:)"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, ScalarString(tc.v))
	}
}

func TestFormatReal(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "1.0", FormatReal(1))
	assert.Equal(t, "0.5", FormatReal(0.5))
	assert.Equal(t, "-3.25", FormatReal(-3.25))
	assert.Contains(t, FormatReal(1e300), "e")
}

func TestEscapeRoundTrip(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"", "plain", `a < b & c > "d"`, "&amp;"} {
		assert.Equal(t, s, Unescape(Escape(s)), s)
	}
}

func TestCheckName(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		code int // 0 means valid
	}{
		{"point", 0},
		{"_private", 0},
		{"p2", 0},
		{"", 298},
		{"2fast", 300},
		{"int", 304},
		{"yes", 304},
		{"null", 304},
		{"has space", 310},
		{"has-dash", 310},
	}
	for _, tc := range testCases {
		err := CheckName(tc.name)
		if tc.code == 0 {
			assert.NoError(t, err, tc.name)
			continue
		}
		require.Error(t, err, tc.name)
		assert.Equal(t, tc.code, diagCode(t, err), tc.name)
	}
}

func TestCheckNameTooLong(t *testing.T) {
	t.Parallel()
	long := make([]byte, MaxIdentifierLen+1)
	for i := range long {
		long[i] = 'a'
	}
	err := CheckName(string(long))
	require.Error(t, err)
	assert.Equal(t, 310, diagCode(t, err))
}

func TestNaturalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Bool(true), Naturalize("yes"))
	assert.Equal(t, Bool(true), Naturalize("TRUE"))
	assert.Equal(t, Bool(false), Naturalize("n"))
	assert.Equal(t, Int(-17), Naturalize("-17"))
	assert.Equal(t, Real(2.5), Naturalize("2.5"))
	assert.Equal(t, NewDate(2023, time.January, 15), Naturalize("2023-01-15"))
	dt, ok := Naturalize("2023-01-15T10:11:12").(DateTime)
	require.True(t, ok)
	assert.False(t, dt.HasOffset())
	assert.Equal(t, Str("not a scalar"), Naturalize("not a scalar"))
}

func TestParseDateTime(t *testing.T) {
	t.Parallel()
	dt, err := ParseDateTime("2023-01-15T10:11:12")
	require.NoError(t, err)
	assert.False(t, dt.HasOffset())
	assert.Equal(t, 12, dt.Second())

	dt, err = ParseDateTime("2023-01-15T10:11:12Z")
	require.NoError(t, err)
	assert.True(t, dt.HasOffset())

	dt, err = ParseDateTime("2023-01-15T10:11")
	require.NoError(t, err)
	assert.Equal(t, 0, dt.Second())

	_, err = ParseDateTime("not a datetime")
	assert.Error(t, err)
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "first_name", Canonicalize("first name"))
	assert.Equal(t, "a_b_c", Canonicalize("a/b.c"))
	assert.Equal(t, "UXF_int", Canonicalize("int"))
	assert.Equal(t, "UXF_fast", Canonicalize("2fast"))
	assert.True(t, strings.HasPrefix(Canonicalize(""), "UXF_"))
	assert.True(t, strings.HasPrefix(Canonicalize("2"), "UXF_"))
}

func diagCode(t *testing.T, err error) int {
	t.Helper()
	d, ok := reporter.AsDiagnostic(err)
	require.True(t, ok, "expected a diagnostic, got %v", err)
	return d.Code
}
