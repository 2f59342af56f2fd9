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

// Package writer serializes a UXF document back to text, choosing compact
// or multiline layouts with short-value heuristics.
package writer

import (
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/uxflab/uxf/reporter"
	"github.com/uxflab/uxf/value"
)

// MaxListInLine is the longest list that may be emitted on one line.
const MaxListInLine = 10

// MaxShortLen is the longest string or byte string that still counts as a
// short scalar for the one-line list heuristic.
const MaxShortLen = 32

// DefaultIndent is the indent used when Options carries one out of range.
const DefaultIndent = 2

// Options configure serialization.
type Options struct {
	// Indent is the number of spaces per nesting level, 0 through 8. An
	// out-of-range value silently becomes DefaultIndent.
	Indent int
}

// Write serializes doc to w. The only diagnostic the writer can produce is
// fatal #561 for a value the format cannot represent.
func Write(w io.Writer, doc *value.Document, handler *reporter.Handler, opts Options) error {
	indent := opts.Indent
	if indent < 0 || indent > 8 {
		indent = DefaultIndent
	}
	wr := &writer{w: w, handler: handler, pad: strings.Repeat(" ", indent)}
	if err := wr.writeDocument(doc); err != nil {
		return err
	}
	return wr.err
}

// Text serializes doc to a string.
func Text(doc *value.Document, handler *reporter.Handler, opts Options) (string, error) {
	var b strings.Builder
	if err := Write(&b, doc, handler, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

type writer struct {
	w       io.Writer
	handler *reporter.Handler
	pad     string
	err     error
}

func (wr *writer) write(s string) {
	if wr.err != nil {
		return
	}
	_, wr.err = io.WriteString(wr.w, s)
}

func (wr *writer) fatal(code int, format string, args ...interface{}) error {
	if err := wr.handler.HandleFatalf("", 0, code, format, args...); err != nil {
		return err
	}
	return wr.handler.Err()
}

func (wr *writer) writeDocument(doc *value.Document) error {
	wr.writeHeader(doc.Custom)
	if doc.Comment != "" {
		wr.write("#<" + value.Escape(doc.Comment) + ">\n")
	}
	wr.writeImports(doc.ImportSources())
	wr.writeTClasses(doc)
	nl, err := wr.writeValue(doc.Root, 0, false)
	if err != nil {
		return err
	}
	if !nl {
		wr.write("\n")
	}
	return nil
}

func (wr *writer) writeHeader(custom string) {
	wr.write("uxf " + value.FormatReal(value.FormatVersion))
	if custom != "" {
		wr.write(" " + custom)
	}
	wr.write("\n")
}

func (wr *writer) writeImports(sources []string) {
	for _, source := range sources { // first-encountered order, don't sort
		wr.write("!" + source + "\n")
	}
}

func (wr *writer) writeTClasses(doc *value.Document) {
	tclasses := append([]*value.TClass(nil), doc.TClasses()...)
	sort.SliceStable(tclasses, func(i, j int) bool {
		return tclasses[i].Less(tclasses[j])
	})
	for _, tc := range tclasses {
		if _, imported := doc.ImportSource(tc.TType()); imported {
			continue // defined in an import
		}
		wr.write("=")
		if tc.Comment != "" {
			wr.write("#<" + value.Escape(tc.Comment) + "> ")
		}
		wr.write(tc.TType())
		for _, field := range tc.Fields {
			wr.write(" " + field.Name)
			if field.VType != "" {
				wr.write(":" + field.VType)
			}
		}
		wr.write("\n")
	}
}

// writeValue emits one value and reports whether it ended with a newline,
// so the caller knows whether to terminate the line itself.
func (wr *writer) writeValue(v value.Value, indent int, isMapValue bool) (bool, error) {
	switch v := v.(type) {
	case *value.List:
		return wr.writeList(v, indent, isMapValue)
	case *value.Map:
		return wr.writeMap(v, indent, isMapValue)
	case *value.Table:
		return wr.writeTable(v, indent, isMapValue)
	}
	return false, wr.writeScalar(v, indent, wr.pad, isMapValue)
}

func (wr *writer) tab(indent int, isMapValue bool) string {
	if isMapValue {
		return ""
	}
	return strings.Repeat(wr.pad, indent)
}

func (wr *writer) writeList(l *value.List, indent int, isMapValue bool) (bool, error) {
	tab := wr.tab(indent, isMapValue)
	prefix := collectionPrefix(l)
	if l.Len() == 0 {
		wr.write(tab + "[" + prefix + "]")
		return false, nil
	}
	wr.write(tab + "[" + prefix)
	if l.Len() == 1 || (l.Len() <= MaxListInLine && areShort(l.Values...)) {
		sep := ""
		if prefix != "" {
			sep = " "
		}
		return wr.writeShortList(sep, l)
	}
	return wr.writeLongList(l, indent)
}

func (wr *writer) writeShortList(sep string, l *value.List) (bool, error) {
	for _, v := range l.Values {
		wr.write(sep)
		if _, err := wr.writeValue(v, 0, false); err != nil {
			return false, err
		}
		sep = " "
	}
	wr.write("]")
	return false, nil
}

func (wr *writer) writeLongList(l *value.List, indent int) (bool, error) {
	wr.write("\n")
	indent++
	for _, v := range l.Values {
		nl, err := wr.writeValue(v, indent, false)
		if err != nil {
			return false, err
		}
		if !nl {
			wr.write("\n")
		}
	}
	wr.write(strings.Repeat(wr.pad, indent-1) + "]\n")
	return true, nil
}

func (wr *writer) writeMap(m *value.Map, indent int, isMapValue bool) (bool, error) {
	tab := wr.tab(indent, isMapValue)
	prefix := collectionPrefix(m)
	if m.Len() == 0 {
		wr.write(tab + "{" + prefix + "}")
		return false, nil
	}
	if m.Len() == 1 {
		return wr.writeSingleItemMap(tab, prefix, m)
	}
	return wr.writeLongMap(tab, prefix, m, indent)
}

func (wr *writer) writeSingleItemMap(tab, prefix string, m *value.Map) (bool, error) {
	wr.write(tab + "{" + prefix)
	item := m.Items()[0]
	if err := wr.writeScalar(item.Key, 1, " ", false); err != nil {
		return false, err
	}
	wr.write(" ")
	nl, err := wr.writeValue(item.Value, 1, true)
	if err != nil {
		return false, err
	}
	if nl {
		wr.write(tab)
	}
	wr.write("}")
	if value.IsScalar(item.Value) {
		return false, nil
	}
	wr.write("\n")
	return true, nil
}

func (wr *writer) writeLongMap(tab, prefix string, m *value.Map, indent int) (bool, error) {
	wr.write(tab + "{" + prefix + "\n")
	indent++
	for _, item := range m.Items() {
		if err := wr.writeScalar(item.Key, indent, wr.pad, false); err != nil {
			return false, err
		}
		wr.write(" ")
		nl, err := wr.writeValue(item.Value, indent, true)
		if err != nil {
			return false, err
		}
		if !nl {
			wr.write("\n")
		}
	}
	wr.write(strings.Repeat(wr.pad, indent-1) + "}\n")
	return true, nil
}

func (wr *writer) writeTable(t *value.Table, indent int, isMapValue bool) (bool, error) {
	tab := wr.tab(indent, isMapValue)
	prefix := collectionPrefix(t)
	wr.write(tab + "(" + prefix)
	if t.Len() == 0 {
		wr.write(")")
		return false, nil
	}
	if t.Len() == 1 {
		wr.write(" ")
		if _, err := wr.writeRecord(t.First(), isMapValue); err != nil {
			return false, err
		}
		wr.write(")")
		return false, nil
	}
	return wr.writeLongTable(t, indent, isMapValue)
}

func (wr *writer) writeLongTable(t *value.Table, indent int, isMapValue bool) (bool, error) {
	wr.write("\n")
	indent++
	tab := strings.Repeat(wr.pad, indent)
	for _, record := range t.Records() {
		wr.write(tab)
		nl, err := wr.writeRecord(record, isMapValue)
		if err != nil {
			return false, err
		}
		if !nl {
			wr.write("\n")
		}
	}
	wr.write(strings.Repeat(wr.pad, indent-1) + ")\n")
	return true, nil
}

func (wr *writer) writeRecord(record []value.Value, isMapValue bool) (bool, error) {
	sep := ""
	nl := false
	for _, v := range record {
		wr.write(sep)
		var err error
		nl, err = wr.writeValue(v, 0, isMapValue)
		if err != nil {
			return false, err
		}
		sep = " "
	}
	return nl, nil
}

func (wr *writer) writeScalar(v value.Value, indent int, pad string, isMapValue bool) error {
	if !isMapValue {
		wr.write(strings.Repeat(pad, indent))
	}
	if !value.IsScalar(v) {
		return wr.fatal(561,
			"unexpected item of type %s; consider using a ttype", value.KindOf(v))
	}
	wr.write(value.ScalarString(v))
	return nil
}

// collectionPrefix interleaves a collection's comment, ktype, vtype, and
// ttype ahead of its first element.
func collectionPrefix(v value.Value) string {
	var comment, ktype, vtype, ttype string
	switch v := v.(type) {
	case *value.List:
		comment, vtype = v.Comment, v.VType
	case *value.Map:
		comment, ktype, vtype = v.Comment, v.KType, v.VType
	case *value.Table:
		comment, ttype = v.Comment, v.TType()
	}
	var parts []string
	if comment != "" {
		parts = append(parts, "#<"+value.Escape(comment)+">")
	}
	for _, part := range []string{ktype, vtype, ttype} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// areShort reports whether every item is a scalar whose text form is short
// enough for the one-line list layout.
func areShort(items ...value.Value) bool {
	for _, v := range items {
		switch v := v.(type) {
		case value.Str:
			if utf8.RuneCountInString(string(v)) > MaxShortLen {
				return false
			}
		case value.Bytes:
			if len(v) > MaxShortLen {
				return false
			}
		default:
			if !value.IsScalar(v) {
				return false
			}
		}
	}
	return true
}
