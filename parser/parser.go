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

package parser

import (
	"math"
	"sort"
	"strings"

	"github.com/uxflab/uxf/reporter"
	"github.com/uxflab/uxf/value"
)

// Importer resolves one import target (a file name, system name, or URL)
// and returns the imported document. lino is the line the !import appeared
// on, for diagnostics. It returns (nil, nil) when the target was already
// imported or failed recoverably (the importer reports such problems
// itself), and a non-nil error only for fatal conditions such as circular
// imports.
type Importer func(target string, lino int) (*value.Document, error)

// DefaultMaxDepth bounds collection nesting so hostile inputs cannot
// exhaust the stack of downstream consumers.
const DefaultMaxDepth = 512

// Options configure a parse.
type Options struct {
	// DropUnused removes tclasses not referenced from data, and imports
	// that only contributed such tclasses.
	DropUnused bool
	// ReplaceImports drops unused imported tclasses and then clears the
	// import registry so remaining ttypes count as locally defined.
	ReplaceImports bool
	// Importer resolves !import targets. A nil importer reports #530 for
	// every import.
	Importer Importer
	// IsImport marks a nested parse of an imported document; registry
	// hygiene reporting (#416/#418/#424) is the outermost load's job.
	IsImport bool
	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int
}

// Parse consumes a token stream and builds the document. Non-fatal
// diagnostics are reported and parsing continues with best-effort
// recovery; fatal diagnostics abort with an error.
func Parse(tokens []Token, filename string, handler *reporter.Handler, opts Options) (*value.Document, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	p := &prsr{
		tokens:   tokens,
		filename: filename,
		report:   diagnosticName(filename),
		handler:  handler,
		opts:     opts,
		maxDepth: maxDepth,
		doc:      &value.Document{},
		used:     make(map[string]bool),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type prsr struct {
	tokens   []Token
	filename string
	report   string
	handler  *reporter.Handler
	opts     Options
	maxDepth int

	doc   *value.Document
	stack []value.Value
	used  map[string]bool // upper-cased ttypes referenced from data
	lino  int
}

func (p *prsr) fatal(code int, format string, args ...interface{}) error {
	err := p.handler.HandleFatalf(p.report, p.lino, code, format, args...)
	if err != nil {
		return err
	}
	return p.handler.Err()
}

// fatalModel re-reports a data-model diagnostic at the current position.
func (p *prsr) fatalModel(err error) error {
	if d, ok := reporter.AsDiagnostic(err); ok {
		located := *d
		located.File = p.report
		located.Line = p.lino
		if ferr := p.handler.HandleFatal(&located); ferr != nil {
			return ferr
		}
		return p.handler.Err()
	}
	return err
}

func (p *prsr) warn(code int, format string, args ...interface{}) {
	p.handler.HandleWarningf(p.report, p.lino, code, format, args...)
}

func (p *prsr) parse() error {
	p.parseFileComment()
	if err := p.parseImports(); err != nil {
		return err
	}
	if err := p.parseTClasses(); err != nil {
		return err
	}
	if err := p.parseData(); err != nil {
		return err
	}
	if !p.opts.IsImport {
		p.checkTClasses()
	}
	if p.doc.Root == nil {
		p.doc.Root = value.NewList()
	}
	return p.handler.ReporterError()
}

func (p *prsr) parseFileComment() {
	if len(p.tokens) > 0 && p.tokens[0].Kind == TokenComment {
		p.doc.Comment = p.tokens[0].Text
		p.tokens = p.tokens[1:]
	}
}

func (p *prsr) parseImports() error {
	for len(p.tokens) > 0 && p.tokens[0].Kind == TokenImport {
		t := p.tokens[0]
		p.lino = t.Line
		if err := p.handleImport(t.Text); err != nil {
			return err
		}
		p.tokens = p.tokens[1:]
	}
	return nil
}

func (p *prsr) handleImport(target string) error {
	if p.opts.Importer == nil {
		p.warn(530, "failed to import %q: no importer is configured", target)
		return nil
	}
	imported, err := p.opts.Importer(target, p.lino)
	if err != nil {
		return err
	}
	if imported == nil {
		return nil // already imported, or a failure the importer reported
	}
	for _, tc := range imported.TClasses() {
		if err := p.doc.MergeTClass(tc, 544); err != nil {
			return p.fatalModel(err)
		}
		p.doc.SetImport(tc.TType(), target)
	}
	return nil
}

// tclassBuilder accumulates one = block until its end is known.
type tclassBuilder struct {
	ttype   string
	fields  []*value.Field
	comment string
}

func (p *prsr) parseTClasses() error {
	var cur *tclassBuilder
	offset := 0
loop:
	for i, t := range p.tokens {
		p.lino = t.Line
		switch t.Kind {
		case TokenTClassBegin:
			if cur != nil {
				if err := p.finishTClass(cur, 518, 520); err != nil {
					return err
				}
			}
			cur = &tclassBuilder{}
		case TokenComment:
			if cur == nil {
				break loop
			}
			cur.comment = t.Text
		case TokenIdentifier:
			if cur == nil {
				return p.fatal(522, "missing ttype; is an `=` missing?")
			}
			if cur.ttype == "" {
				if err := value.CheckName(t.Text); err != nil {
					return p.fatalModel(err)
				}
				cur.ttype = t.Text
			} else {
				field, err := value.NewField(t.Text, "")
				if err != nil {
					return p.fatalModel(err)
				}
				cur.fields = append(cur.fields, field)
			}
		case TokenType:
			if cur == nil || len(cur.fields) == 0 {
				return p.fatal(524,
					"cannot use a built-in type name or constant as a tclass name, got %s", t)
			}
			cur.fields[len(cur.fields)-1].VType = t.Text
		case TokenTClassEnd:
			if cur != nil {
				if err := p.finishTClass(cur, 526, 528); err != nil {
					return err
				}
				cur = nil
			}
			offset = i + 1
		default:
			break loop // no more tclasses
		}
	}
	p.tokens = p.tokens[offset:]
	return nil
}

func (p *prsr) finishTClass(b *tclassBuilder, missingCode, conflictCode int) error {
	if b.ttype == "" {
		return p.fatal(missingCode, "TClass without ttype")
	}
	tc, err := value.NewTClass(b.ttype, b.fields...)
	if err != nil {
		return p.fatalModel(err)
	}
	tc.Comment = b.comment
	if err := p.doc.MergeTClass(tc, conflictCode); err != nil {
		return p.fatalModel(err)
	}
	return nil
}

func (p *prsr) parseData() error {
	for i := 0; i < len(p.tokens); i++ {
		if err := p.handler.ReporterError(); err != nil {
			return err
		}
		t := p.tokens[i]
		p.lino = t.Line
		kind := t.Kind
		isStart := isCollectionStart(kind)
		if p.doc.Root == nil && !isStart {
			p.warn(402, "expected a map, list, or table, got %s", t)
		}
		switch {
		case isStart:
			if err := p.onCollectionStart(t); err != nil {
				return err
			}
			if p.doc.Root == nil {
				p.doc.Root = p.stack[0]
			}
		case isCollectionEnd(kind):
			p.onCollectionEnd(t)
		case kind == TokenComment:
			p.handleComment(i)
		case kind == TokenIdentifier:
			if err := p.handleIdentifier(i, t); err != nil {
				return err
			}
		case kind == TokenType:
			if err := p.handleType(t); err != nil {
				return err
			}
		case kind == TokenStr:
			if err := p.handleStr(t); err != nil {
				return err
			}
		case kind.IsScalar():
			if err := p.handleScalar(t); err != nil {
				return err
			}
		case kind == TokenEOF:
			return nil
		default:
			p.warn(410, "unexpected token, got %s", t)
		}
	}
	return nil
}

func isCollectionStart(kind TokenKind) bool {
	return kind == TokenMapBegin || kind == TokenListBegin || kind == TokenTableBegin
}

func isCollectionEnd(kind TokenKind) bool {
	return kind == TokenMapEnd || kind == TokenListEnd || kind == TokenTableEnd
}

func (p *prsr) kindAt(i int) TokenKind {
	if i < 0 || i >= len(p.tokens) {
		return TokenKind(-1)
	}
	return p.tokens[i].Kind
}

func (p *prsr) top() value.Value {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *prsr) onCollectionStart(t Token) error {
	if len(p.stack) >= p.maxDepth {
		return p.fatal(590, "maximum collection nesting depth (%d) exceeded", p.maxDepth)
	}
	var v value.Value
	switch t.Kind {
	case TokenMapBegin:
		v = value.NewMap()
	case TokenListBegin:
		v = value.NewList()
	case TokenTableBegin:
		v = value.NewTable(nil)
	}
	if len(p.stack) > 0 {
		if _, message := p.typecheck(v); message != "" {
			p.warn(420, "%s", message)
		}
		if err := p.appendToParent(v); err != nil {
			return err
		}
	}
	p.stack = append(p.stack, v)
	return nil
}

func (p *prsr) onCollectionEnd(t Token) {
	if len(p.stack) == 0 {
		p.warn(510, "unexpected %s suggests unmatched map, list, or table start/end pair", t)
		return
	}
	var want value.Kind
	var closer string
	switch t.Kind {
	case TokenListEnd:
		want, closer = value.KindList, "]"
	case TokenMapEnd:
		want, closer = value.KindMap, "}"
	case TokenTableEnd:
		want, closer = value.KindTable, ")"
	}
	if value.KindOf(p.top()) != want {
		p.warn(512, "expected %q, got %s", closer, t)
	}
	p.stack = p.stack[:len(p.stack)-1]
}

func (p *prsr) handleComment(i int) {
	if !isCollectionStart(p.kindAt(i - 1)) {
		p.warn(440, "comments may only be put at the beginning of a map, list, or table")
	}
	switch parent := p.top().(type) {
	case *value.List:
		parent.Comment = p.tokens[i].Text
	case *value.Map:
		parent.Comment = p.tokens[i].Text
	case *value.Table:
		parent.Comment = p.tokens[i].Text
	}
}

func (p *prsr) handleIdentifier(i int, t Token) error {
	if len(p.stack) == 0 {
		p.warn(441, "invalid UXF data")
		return nil
	}
	afterOpener := func(opener TokenKind) bool {
		if p.kindAt(i-1) == opener {
			return true
		}
		return p.kindAt(i-1) == TokenComment && p.kindAt(i-2) == opener
	}
	switch {
	case p.kindAt(i-1) == TokenType &&
		(p.kindAt(i-2) == TokenMapBegin ||
			(p.kindAt(i-2) == TokenComment && p.kindAt(i-3) == TokenMapBegin)):
		// the map's vtype position, naming a ttype
		tc := p.doc.TClass(t.Text)
		if tc == nil {
			p.warn(442, "expected map vtype, got %s", t)
			return nil
		}
		if m, ok := p.top().(*value.Map); ok {
			m.VType = tc.TType()
		}
		p.used[strings.ToUpper(tc.TType())] = true
	case afterOpener(TokenListBegin):
		tc := p.doc.TClass(t.Text)
		if tc == nil {
			p.warn(446, "expected list vtype, got %s", t)
			return nil
		}
		if l, ok := p.top().(*value.List); ok {
			l.VType = tc.TType()
		}
		p.used[strings.ToUpper(tc.TType())] = true
	case afterOpener(TokenTableBegin):
		tc := p.doc.TClass(t.Text)
		if tc == nil {
			// a table without a tclass is invalid
			return p.fatal(450, "expected table ttype, got %s", t)
		}
		table, ok := p.top().(*value.Table)
		if !ok {
			p.warn(441, "invalid UXF data")
			return nil
		}
		table.SetTClass(tc)
		p.used[strings.ToUpper(tc.TType())] = true
		if len(p.stack) > 1 {
			p.checkNestedTableVType(p.stack[len(p.stack)-2], tc)
		}
	default:
		if upper := strings.ToUpper(t.Text); upper == "TRUE" || upper == "FALSE" {
			p.warn(458, "boolean values are represented by yes or no")
		} else {
			p.warn(460,
				"ttypes may only appear at the start of a map (as the value type), list, or table, %s", t)
		}
	}
	return nil
}

// checkNestedTableVType enforces the strict reading of nested-table
// constraints: a list or map vtype naming a specific ttype admits only
// tables of exactly that ttype, while a vtype of table admits any.
func (p *prsr) checkNestedTableVType(grandparent value.Value, tc *value.TClass) {
	var vtype string
	switch gp := grandparent.(type) {
	case *value.List:
		vtype = gp.VType
	case *value.Map:
		vtype = gp.VType
	default:
		return
	}
	if vtype != "" && vtype != "table" && !strings.EqualFold(vtype, tc.TType()) {
		p.warn(456, "expected table value of type %s, got value of type %s", vtype, tc.TType())
	}
}

func (p *prsr) handleType(t Token) error {
	switch parent := p.top().(type) {
	case *value.List:
		if parent.VType != "" {
			p.warn(470, "can only have at most one vtype for a list, got %s", t)
		}
		parent.VType = t.Text
	case *value.Map:
		if parent.KType == "" {
			if !value.KeyTypes[t.Text] {
				return p.fatal(280,
					"ktype may only be bytes, date, datetime, int, or str, got %s", t.Text)
			}
			parent.KType = t.Text
		} else if parent.VType == "" {
			parent.VType = t.Text
		} else {
			p.warn(480, "can only have at most one ktype and one vtype for a map, got %s", t)
		}
	case nil:
		p.warn(469, "invalid UXF data")
	default:
		p.warn(484, "ktypes and vtypes are only allowed at the start of maps and lists, got %s", t)
	}
	return nil
}

func (p *prsr) handleStr(t Token) error {
	v := t.Value
	vtype, message := p.typecheck(v)
	switch vtype {
	case "bool", "int", "real", "date", "datetime":
		want, _ := value.KindForName(vtype)
		naturalized := value.Naturalize(string(v.(value.Str)))
		if value.KindOf(naturalized) == want {
			p.warn(486, "converted str %s to %s %s",
				value.ScalarString(v), vtype, value.ScalarString(naturalized))
			v = naturalized
		} else {
			p.warn(400, "%s", message)
		}
	default:
		if message != "" {
			p.warn(400, "%s", message)
		}
	}
	if len(p.stack) == 0 {
		p.warn(489, "invalid UXF data")
		return nil
	}
	return p.appendToParent(v)
}

func (p *prsr) handleScalar(t Token) error {
	v := t.Value
	vtype, message := p.typecheck(v)
	if v != nil && vtype != "" {
		switch {
		case vtype == "real" && value.KindOf(v) == value.KindInt:
			converted := value.Real(float64(v.(value.Int)))
			p.warn(496, "converted int %s to real %s",
				value.ScalarString(v), value.ScalarString(converted))
			v = converted
		case vtype == "int" && value.KindOf(v) == value.KindReal:
			converted := value.Int(int64(math.RoundToEven(float64(v.(value.Real)))))
			p.warn(498, "converted real %s to int %s",
				value.ScalarString(v), value.ScalarString(converted))
			v = converted
		default:
			p.warn(400, "%s", message)
		}
	}
	if len(p.stack) == 0 {
		p.warn(501, "invalid UXF data")
		return nil
	}
	return p.appendToParent(v)
}

// typecheck returns the parent's declared type constraint and a nonempty
// message when v is incompatible with it.
func (p *prsr) typecheck(v value.Value) (vtype, message string) {
	parent := p.top()
	if parent == nil {
		p.warn(590, "invalid UXF data")
		return "", ""
	}
	switch parent := parent.(type) {
	case *value.Map:
		if parent.NextIsKey() {
			vtype = parent.KType
		} else {
			vtype = parent.VType
		}
	case *value.List:
		vtype = parent.VType
	case *value.Table:
		vtype = parent.NextVType()
	}
	if v == nil || vtype == "" {
		return "", ""
	}
	if kind, builtin := value.KindForName(vtype); builtin {
		if value.KindOf(v) != kind {
			return vtype, mismatch(vtype, v)
		}
	} else if p.doc.TClass(vtype) == nil {
		return vtype, mismatch(vtype, v)
	}
	return "", ""
}

func mismatch(vtype string, v value.Value) string {
	return "expected " + vtype + ", got " + value.KindOf(v).String() + " " + value.ScalarString(v)
}

func (p *prsr) appendToParent(v value.Value) error {
	switch parent := p.top().(type) {
	case *value.List:
		parent.Append(v)
		return nil
	case *value.Map:
		if err := parent.Append(v); err != nil {
			return p.fatalModel(err)
		}
		return nil
	case *value.Table:
		if err := parent.Append(v); err != nil {
			return p.fatalModel(err)
		}
		return nil
	}
	p.warn(501, "invalid UXF data")
	return nil
}

// checkTClasses is phase 5: registry cleanup and hygiene reporting.
func (p *prsr) checkTClasses() {
	imported := make(map[string]bool)
	for _, ttype := range p.doc.ImportedTTypes() {
		imported[strings.ToUpper(ttype)] = true
	}
	if p.opts.ReplaceImports {
		p.replaceImports()
		imported = make(map[string]bool)
	}
	if p.opts.DropUnused {
		p.dropUnused()
	}
	var unused, undefined []string
	defined := make(map[string]bool)
	for _, tc := range p.doc.TClasses() {
		upper := strings.ToUpper(tc.TType())
		defined[upper] = true
		if p.used[upper] || imported[upper] || tc.Fieldless() {
			continue
		}
		unused = append(unused, tc.TType())
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		if len(unused) == 1 {
			p.warn(416, "unused ttype: %s", unused[0])
		} else {
			p.warn(418, "unused ttypes: %s", strings.Join(unused, ", "))
		}
	}
	for upper := range p.used {
		if !defined[upper] {
			undefined = append(undefined, upper)
		}
	}
	if len(undefined) > 0 {
		sort.Strings(undefined)
		if len(undefined) == 1 {
			p.warn(424, "undefined ttype: %s", undefined[0])
		} else {
			p.warn(424, "undefined ttypes: %s", strings.Join(undefined, ", "))
		}
	}
}

func (p *prsr) replaceImports() {
	for _, ttype := range p.doc.ImportedTTypes() {
		if !p.used[strings.ToUpper(ttype)] {
			p.doc.RemoveTClass(ttype)
		}
	}
	p.doc.ClearImports()
}

func (p *prsr) dropUnused() {
	ttypesForSource := make(map[string]map[string]bool)
	for _, ttype := range p.doc.ImportedTTypes() {
		source, _ := p.doc.ImportSource(ttype)
		if ttypesForSource[source] == nil {
			ttypesForSource[source] = make(map[string]bool)
		}
		ttypesForSource[source][strings.ToUpper(ttype)] = true
	}
	for _, tc := range append([]*value.TClass(nil), p.doc.TClasses()...) {
		upper := strings.ToUpper(tc.TType())
		if p.used[upper] {
			continue
		}
		p.doc.RemoveTClass(tc.TType())
		for _, ttypes := range ttypesForSource {
			delete(ttypes, upper)
		}
	}
	for source, ttypes := range ttypesForSource {
		if len(ttypes) > 0 {
			continue
		}
		for _, ttype := range append([]string(nil), p.doc.ImportedTTypes()...) {
			if bound, _ := p.doc.ImportSource(ttype); bound == source {
				p.doc.RemoveImport(ttype)
			}
		}
	}
}
