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

// Package uxf loads and dumps UXF ("Uniform eXchange Format") documents:
// plain-text, human-readable, optionally typed data interchange.
//
// Loading converts UXF text into the value model (see the value package)
// and dumping serializes it back, round-tripping semantics bit-faithfully
// up to whitespace and ordering normalization. Input may be gzipped;
// output to a name ending .gz is gzipped. Imports (files, system names,
// and http/https URLs) are resolved synchronously during load.
//
// The library is synchronous and a document is not safe for concurrent
// mutation; concurrent readers of a fully loaded document are fine.
package uxf

import (
	"github.com/uxflab/uxf/reporter"
	"github.com/uxflab/uxf/value"
	"github.com/uxflab/uxf/writer"
)

// Version is the library version; value.FormatVersion is the UXF file
// format version.
const Version = "1.0.0"

// Options configure loading and dumping. The zero value is usable:
// diagnostics go to stderr, registries are kept intact, and dumps are
// written compactly; DefaultOptions supplies the conventional indent.
type Options struct {
	// DropUnused removes tclasses unreferenced from data, and imports
	// that only contributed such tclasses.
	DropUnused bool
	// ReplaceImports replaces imports with their used ttype definitions
	// so the document becomes standalone.
	ReplaceImports bool
	// Indent is the dump indent in spaces, 0 through 8; out-of-range
	// values silently become 2.
	Indent int
	// Reporter receives every diagnostic. Nil means reporter.Stderr().
	Reporter reporter.Reporter
	// MaxDepth bounds collection nesting; 0 means the parser default.
	MaxDepth int
}

// DefaultOptions returns the conventional options: indent 2, stderr
// diagnostics.
func DefaultOptions() *Options {
	return &Options{Indent: writer.DefaultIndent}
}

// Load reads, decompresses if necessary, and parses the named UXF file
// ("-" means stdin). Fatal diagnostics abort with an error; non-fatal
// diagnostics are reported and loading continues.
func Load(filename string, opts *Options) (*value.Document, error) {
	opts = normalized(opts)
	text, err := ReadText(filename)
	if err != nil {
		return nil, reporter.Errorf(diagName(filename), 0, 102, "%v", err)
	}
	return newLoader(opts).load(text, filename, reporter.NewHandler(opts.Reporter), false)
}

// Loads parses UXF text. filename is used for diagnostics and for
// resolving relative imports; pass "-" for in-memory text.
func Loads(text, filename string, opts *Options) (*value.Document, error) {
	opts = normalized(opts)
	return newLoader(opts).load(text, filename, reporter.NewHandler(opts.Reporter), false)
}

// Dump serializes doc to the named file ("-" means stdout). A name ending
// .gz selects gzip compression.
func Dump(filename string, doc *value.Document, opts *Options) error {
	opts = normalized(opts)
	text, err := Dumps(doc, opts)
	if err != nil {
		return err
	}
	return WriteText(filename, text)
}

// Dumps serializes doc to UXF text.
func Dumps(doc *value.Document, opts *Options) (string, error) {
	opts = normalized(opts)
	h := reporter.NewHandler(opts.Reporter)
	return writer.Text(doc, h, writer.Options{Indent: opts.Indent})
}

func normalized(opts *Options) *Options {
	if opts == nil {
		return DefaultOptions()
	}
	return opts
}
