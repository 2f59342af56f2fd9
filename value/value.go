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

// Package value defines the UXF data model: the scalar kinds, the three
// collection kinds (List, Map, Table), typed classes (TClass, Field), and
// the Document that roots a parsed UXF file.
package value

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// FormatVersion is the UXF file format version this library reads and
// writes.
const FormatVersion = 1.0

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindDate
	KindDateTime
	KindStr
	KindBytes
	KindList
	KindMap
	KindTable
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindInt:      "int",
	KindReal:     "real",
	KindDate:     "date",
	KindDateTime: "datetime",
	KindStr:      "str",
	KindBytes:    "bytes",
	KindList:     "list",
	KindMap:      "map",
	KindTable:    "table",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// IsScalar reports whether k is one of the leaf kinds (including null).
func (k Kind) IsScalar() bool {
	switch k {
	case KindNull, KindBool, KindInt, KindReal, KindDate, KindDateTime, KindStr, KindBytes:
		return true
	}
	return false
}

// IsKeyType reports whether values of kind k may be used as map keys.
func (k Kind) IsKeyType() bool {
	switch k {
	case KindInt, KindDate, KindDateTime, KindStr, KindBytes:
		return true
	}
	return false
}

// KindForName maps a built-in type name ("int", "str", …) to its Kind.
func KindForName(name string) (Kind, bool) {
	switch name {
	case "bool":
		return KindBool, true
	case "int":
		return KindInt, true
	case "real":
		return KindReal, true
	case "date":
		return KindDate, true
	case "datetime":
		return KindDateTime, true
	case "str":
		return KindStr, true
	case "bytes":
		return KindBytes, true
	case "list":
		return KindList, true
	case "map":
		return KindMap, true
	case "table":
		return KindTable, true
	}
	return KindNull, false
}

// Value is a UXF value. The null value is the nil Value; use KindOf to
// classify values without a nil check at every call site.
type Value interface {
	Kind() Kind
}

// KindOf returns v's kind, treating nil as null.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

// IsScalar reports whether v is null or one of the scalar kinds.
func IsScalar(v Value) bool {
	return KindOf(v).IsScalar()
}

type (
	// Bool is a UXF boolean, written yes or no.
	Bool bool
	// Int is a UXF signed integer.
	Int int64
	// Real is a UXF IEEE-754 binary64 real.
	Real float64
	// Str is a UXF Unicode string, written <…> with &-escapes.
	Str string
	// Bytes is a UXF byte string, written (:HEX:).
	Bytes []byte
)

func (Bool) Kind() Kind  { return KindBool }
func (Int) Kind() Kind   { return KindInt }
func (Real) Kind() Kind  { return KindReal }
func (Str) Kind() Kind   { return KindStr }
func (Bytes) Kind() Kind { return KindBytes }

// DateLayout is the ISO-8601 layout for UXF dates.
const DateLayout = "2006-01-02"

// DateTimeLayout is the ISO-8601 layout for naive UXF datetimes; datetimes
// with a UTC offset append -07:00.
const DateTimeLayout = "2006-01-02T15:04:05"

// Date is a UXF calendar date.
type Date struct {
	time.Time
}

// NewDate returns the given calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (Date) Kind() Kind { return KindDate }

// DateTime is a UXF datetime with seconds precision. A datetime is either
// naive or carries an explicit UTC offset; the distinction is preserved so
// serialization reproduces the input form.
type DateTime struct {
	time.Time
	hasOffset bool
}

// NewDateTime wraps t, truncated to seconds precision. hasOffset records
// whether the source specified a UTC offset (or Z).
func NewDateTime(t time.Time, hasOffset bool) DateTime {
	return DateTime{t.Truncate(time.Second), hasOffset}
}

func (DateTime) Kind() Kind { return KindDateTime }

// HasOffset reports whether the datetime carries an explicit UTC offset.
func (dt DateTime) HasOffset() bool { return dt.hasOffset }

var escaper = strings.NewReplacer(
	"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

var unescaper = strings.NewReplacer(
	"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`)

// Escape encodes the characters that are significant inside <…> strings
// and #<…> comments.
func Escape(s string) string { return escaper.Replace(s) }

// Unescape decodes the string escapes &amp; &lt; &gt; &quot;.
func Unescape(s string) string { return unescaper.Replace(s) }

// ScalarString renders a scalar value in its UXF literal form: ? for null,
// yes/no, decimal ints, reals with a guaranteed decimal point, ISO-8601
// dates and datetimes, <escaped> strings, and (:HEX:) bytes. This form is
// also the canonical identity of map keys. Collections render as their
// kind name.
func ScalarString(v Value) string {
	switch KindOf(v) {
	case KindNull:
		return "?"
	case KindBool:
		if v.(Bool) {
			return "yes"
		}
		return "no"
	case KindInt:
		return strconv.FormatInt(int64(v.(Int)), 10)
	case KindReal:
		return FormatReal(float64(v.(Real)))
	case KindDate:
		return v.(Date).Format(DateLayout)
	case KindDateTime:
		dt := v.(DateTime)
		if dt.hasOffset {
			return dt.Format(DateTimeLayout + "-07:00")
		}
		return dt.Format(DateTimeLayout)
	case KindStr:
		return "<" + Escape(string(v.(Str))) + ">"
	case KindBytes:
		return "(:" + strings.ToUpper(hex.EncodeToString(v.(Bytes))) + ":)"
	}
	return KindOf(v).String()
}

// FormatReal renders f in its shortest decimal form with a guaranteed
// decimal point (or exponent), so reals never read back as ints.
func FormatReal(f float64) string {
	text := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return text
}
