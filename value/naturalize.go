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
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

var dateTimeLayouts = []struct {
	layout    string
	hasOffset bool
}{
	{DateTimeLayout + "Z07:00", true},
	{"2006-01-02T15:04Z07:00", true},
	{DateTimeLayout, false},
	{"2006-01-02T15:04", false},
	{"2006-01-02T15", false},
}

// ParseDateTime parses an ISO-8601 datetime at up to seconds precision,
// naive or with a UTC offset (Z or ±hh:mm).
func ParseDateTime(s string) (DateTime, error) {
	var err error
	for _, l := range dateTimeLayouts {
		var t time.Time
		t, err = time.Parse(l.layout, s)
		if err == nil {
			return NewDateTime(t, l.hasOffset), nil
		}
	}
	return DateTime{}, err
}

// Naturalize coerces s to the scalar it reads as: a bool for t/true/y/yes
// and f/false/n/no (case-insensitive), else an int, else a real, else a
// datetime (if s contains a T) or date, else the string itself. The
// coercion is one-way; writing never re-stringifies.
func Naturalize(s string) Value {
	switch strings.ToUpper(s) {
	case "T", "TRUE", "Y", "YES":
		return Bool(true)
	case "F", "FALSE", "N", "NO":
		return Bool(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Real(f)
	}
	if strings.ContainsRune(s, 'T') {
		if dt, err := ParseDateTime(s); err == nil {
			return dt
		}
	} else if d, err := ParseDate(s); err == nil {
		return d
	}
	return Str(s)
}

var canonicalizeCount = 1

// Canonicalize derives a valid table or field identifier from an arbitrary
// name, replacing separators with underscores, prefixing names that start
// badly or collide with reserved words, and truncating to the identifier
// limit. Converters use this to adapt external column names.
func Canonicalize(name string) string {
	const prefix = "UXF_"
	var b strings.Builder
	runes := []rune(name)
	if len(runes) > 0 && (runes[0] == '_' || unicode.IsLetter(runes[0])) {
		b.WriteRune(runes[0])
	} else {
		b.WriteString(prefix)
	}
	rest := runes
	if len(rest) > 0 {
		rest = rest[1:]
	}
	for _, c := range rest {
		switch {
		case unicode.IsSpace(c) || strings.ContainsRune(`/\,;:.-`, c):
			s := b.String()
			if s == "" || !strings.HasSuffix(s, "_") {
				b.WriteRune('_')
			}
		case c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c):
			b.WriteRune(c)
		}
	}
	result := b.String()
	if IsReservedWord(result) {
		result = prefix + result
	} else if result == "" {
		result = prefix
	}
	if result == prefix {
		result += strconv.Itoa(canonicalizeCount)
		canonicalizeCount++
	}
	if runes := []rune(result); len(runes) > MaxIdentifierLen {
		result = string(runes[:MaxIdentifierLen])
	}
	return result
}
