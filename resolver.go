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

package uxf

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"

	"github.com/uxflab/uxf/parser"
	"github.com/uxflab/uxf/reporter"
	"github.com/uxflab/uxf/value"
)

// UXFPathEnv names the environment variable holding extra directories to
// search for file imports, separated by the platform's list separator.
const UXFPathEnv = "UXF_PATH"

// loader owns one outermost load: the imported set and the in-progress
// ancestor set are shared by reference through every recursive import so
// duplicates are skipped and cycles are fatal.
type loader struct {
	opts     *Options
	imported map[string]bool // absolute paths and URLs already handled
	loading  map[string]bool // ancestors currently being parsed
}

func newLoader(opts *Options) *loader {
	return &loader{
		opts:     opts,
		imported: make(map[string]bool),
		loading:  make(map[string]bool),
	}
}

// load lexes and parses one document, resolving its imports recursively.
func (ld *loader) load(text, filename string, h *reporter.Handler, isImport bool) (*value.Document, error) {
	full := ""
	if filename != "" && filename != "-" {
		full = absFilename(filename)
	}
	if full != "" {
		if ld.loading[full] {
			return nil, fatalf(h, diagName(filename), 0, 580,
				"cannot do circular imports %q", full)
		}
		ld.loading[full] = true
		defer delete(ld.loading, full)
		ld.imported[full] = true
	}
	tokens, custom, err := parser.Tokenize(text, filename, h)
	if err != nil {
		return nil, err
	}
	doc, err := parser.Parse(tokens, filename, h, parser.Options{
		DropUnused:     ld.opts.DropUnused,
		ReplaceImports: ld.opts.ReplaceImports,
		IsImport:       isImport,
		MaxDepth:       ld.opts.MaxDepth,
		Importer: func(target string, lino int) (*value.Document, error) {
			return ld.importTarget(target, lino, filename, h)
		},
	})
	if err != nil {
		return nil, err
	}
	doc.Custom = custom
	if err := h.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// importTarget classifies and resolves one !import target: URLs are
// fetched, dot-free names are system imports, everything else is a file
// import searched for in the document's directory and then UXF_PATH.
func (ld *loader) importTarget(target string, lino int, fromFilename string, h *reporter.Handler) (*value.Document, error) {
	report := diagName(fromFilename)
	warn := func(code int, format string, args ...interface{}) {
		h.HandleWarningf(report, lino, code, format, args...)
	}
	switch {
	case strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://"):
		if ld.imported[target] {
			return nil, nil
		}
		ld.imported[target] = true // don't retry even on failure
		text, err := fetchURL(target)
		if err != nil {
			warn(550, "failed to import %q: %v", target, err)
			return nil, nil
		}
		doc, err := ld.load(text, "-", reporter.NewHandler(ld.opts.Reporter), true)
		if err != nil {
			warn(530, "failed to import %q: %v", target, err)
			return nil, nil
		}
		return doc, nil
	case !strings.Contains(target, "."): // system import
		filename, ok := findSystemImport(target)
		if !ok {
			warn(560, "there is no system ttype definition file %q", target)
			return nil, nil
		}
		return ld.loadImportFile(filename, report, lino, h)
	default:
		fullname := resolveImportFile(target, fromFilename)
		return ld.loadImportFile(fullname, report, lino, h)
	}
}

func (ld *loader) loadImportFile(fullname, report string, lino int, h *reporter.Handler) (*value.Document, error) {
	if ld.loading[fullname] {
		// the import chain re-entered a file that is still being loaded
		return nil, fatalf(h, report, lino, 176, "a UXF file cannot import itself")
	}
	if ld.imported[fullname] {
		return nil, nil
	}
	text, err := ReadText(fullname)
	if err != nil {
		ld.imported[fullname] = true // don't retry
		h.HandleWarningf(report, lino, 586, "failed to import %q: %v", fullname, err)
		return nil, nil
	}
	doc, err := ld.load(text, fullname, reporter.NewHandler(ld.opts.Reporter), true)
	if err != nil {
		if d, ok := reporter.AsDiagnostic(err); ok && (d.Code == 176 || d.Code == 580) {
			return nil, err // cycles unwind the whole load
		}
		h.HandleWarningf(report, lino, 586, "failed to import %q: %v", fullname, err)
		return nil, nil
	}
	return doc, nil
}

func fetchURL(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("GET %s: %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// findSystemImport looks up <name>.uxf next to the executable and then in
// uxf/ under the XDG data directories.
func findSystemImport(name string) (string, bool) {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	for _, dir := range append([]string{xdg.DataHome}, xdg.DataDirs...) {
		dirs = append(dirs, filepath.Join(dir, "uxf"))
	}
	for _, dir := range dirs {
		filename := filepath.Join(dir, name+".uxf")
		if isFile(filename) {
			return filename, true
		}
	}
	return "", false
}

// resolveImportFile searches the document's directory and then the
// UXF_PATH directories, settling on the document-relative name when the
// file exists nowhere (the open will then fail and be reported).
func resolveImportFile(target, fromFilename string) string {
	docDir := "."
	if fromFilename != "" && fromFilename != "-" {
		if dir := filepath.Dir(absFilename(fromFilename)); dir != "" {
			docDir = dir
		}
	}
	dirs := []string{docDir}
	if paths := os.Getenv(UXFPathEnv); paths != "" {
		dirs = append(dirs, filepath.SplitList(paths)...)
	}
	for _, dir := range dirs {
		fullname := joinFilename(dir, target)
		if isFile(fullname) {
			return fullname
		}
	}
	return joinFilename(docDir, target)
}

func joinFilename(dir, filename string) string {
	if filepath.IsAbs(filename) {
		return filepath.Clean(filename)
	}
	return absFilename(filepath.Join(dir, filename))
}

func absFilename(filename string) string {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return filepath.Clean(filename)
	}
	return abs
}

func isFile(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.Mode().IsRegular()
}

func diagName(filename string) string {
	if filename == "" || filename == "-" {
		return "-"
	}
	return filepath.Base(filename)
}

func fatalf(h *reporter.Handler, file string, line, code int, format string, args ...interface{}) error {
	if err := h.HandleFatalf(file, line, code, format, args...); err != nil {
		return err
	}
	return h.Err()
}
