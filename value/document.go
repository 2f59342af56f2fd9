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

	"github.com/uxflab/uxf/reporter"
)

// Document is a whole UXF file: one root collection, the free-form custom
// header tag, an optional file-level comment, the ttype registry, and the
// import registry that records which ttype came from which import source.
type Document struct {
	// Root is the document's root collection: a *List, *Map, or *Table.
	Root Value
	// Custom is the free-form header tag after the version number.
	Custom string
	// Comment is the file-level comment that follows the header.
	Comment string

	tclasses []*TClass
	imports  []importBinding
}

type importBinding struct {
	ttype  string
	source string
}

// NewDocument returns a document rooted at an empty list.
func NewDocument() *Document {
	return &Document{Root: NewList()}
}

// TClass looks up a registered tclass by ttype, case-insensitively.
func (d *Document) TClass(ttype string) *TClass {
	for _, tc := range d.tclasses {
		if strings.EqualFold(tc.TType(), ttype) {
			return tc
		}
	}
	return nil
}

// TClasses returns the registered tclasses in registration order.
func (d *Document) TClasses() []*TClass { return d.tclasses }

// AddTClass registers a tclass. Registering a duplicate identical
// definition is a harmless merge where the later comment wins; a
// conflicting redefinition fails with #690.
func (d *Document) AddTClass(tc *TClass) error {
	return d.addTClass(tc, 690)
}

func (d *Document) addTClass(tc *TClass, code int) error {
	first := d.TClass(tc.TType())
	if first == nil {
		d.tclasses = append(d.tclasses, tc)
		return nil
	}
	if first.Equal(tc) {
		if tc.Comment != "" && tc.Comment != first.Comment {
			first.Comment = tc.Comment
		}
		return nil
	}
	return reporter.Errorf("", 0, code,
		"conflicting ttype definitions for %s", tc.TType())
}

// MergeTClass registers a tclass using the given conflict code; the parser
// uses this to report #520/#528/#544 at the offending line.
func (d *Document) MergeTClass(tc *TClass, code int) error {
	return d.addTClass(tc, code)
}

// RemoveTClass unregisters the tclass with the given ttype.
func (d *Document) RemoveTClass(ttype string) {
	for i, tc := range d.tclasses {
		if strings.EqualFold(tc.TType(), ttype) {
			d.tclasses = append(d.tclasses[:i], d.tclasses[i+1:]...)
			return
		}
	}
}

// SetImport records that ttype came from the given import source.
func (d *Document) SetImport(ttype, source string) {
	for i := range d.imports {
		if strings.EqualFold(d.imports[i].ttype, ttype) {
			d.imports[i].source = source
			return
		}
	}
	d.imports = append(d.imports, importBinding{ttype, source})
}

// ImportSource returns the import source the ttype came from, if any.
func (d *Document) ImportSource(ttype string) (string, bool) {
	for _, b := range d.imports {
		if strings.EqualFold(b.ttype, ttype) {
			return b.source, true
		}
	}
	return "", false
}

// ImportedTTypes returns the ttypes that came from imports.
func (d *Document) ImportedTTypes() []string {
	ttypes := make([]string, 0, len(d.imports))
	for _, b := range d.imports {
		ttypes = append(ttypes, b.ttype)
	}
	return ttypes
}

// ImportSources yields the unique import sources in first-encountered
// order. The writer emits one !import line per source in this order.
func (d *Document) ImportSources() []string {
	var sources []string
	seen := make(map[string]bool)
	for _, b := range d.imports {
		if !seen[b.source] {
			seen[b.source] = true
			sources = append(sources, b.source)
		}
	}
	return sources
}

// RemoveImport drops the ttype's import binding.
func (d *Document) RemoveImport(ttype string) {
	for i, b := range d.imports {
		if strings.EqualFold(b.ttype, ttype) {
			d.imports = append(d.imports[:i], d.imports[i+1:]...)
			return
		}
	}
}

// ClearImports drops every import binding; remaining ttypes then count as
// locally defined (the replace-imports mode).
func (d *Document) ClearImports() {
	d.imports = nil
}
