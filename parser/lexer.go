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
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/uxflab/uxf/reporter"
	"github.com/uxflab/uxf/value"
)

// FormatVersion is the UXF file format version this library reads and
// writes.
const FormatVersion = value.FormatVersion

type lexer struct {
	text     string
	pos      int
	lino     int
	filename string
	report   string // basename used in diagnostics
	handler  *reporter.Handler
	custom   string
	inTClass bool
	tokens   []Token
}

// Tokenize converts UXF text into a token stream, returning the tokens and
// the header's custom tag. Fatal lexical diagnostics abort with an error;
// non-fatal ones are reported to the handler and lexing continues.
func Tokenize(text, filename string, handler *reporter.Handler) ([]Token, string, error) {
	l := &lexer{
		text:     text,
		lino:     1,
		filename: filename,
		report:   diagnosticName(filename),
		handler:  handler,
	}
	if err := l.scanHeader(); err != nil {
		return nil, "", err
	}
	if err := l.maybeReadComment(); err != nil {
		return nil, "", err
	}
	for !l.atEnd() {
		if err := l.handler.ReporterError(); err != nil {
			return nil, "", err
		}
		if err := l.scanNext(); err != nil {
			return nil, "", err
		}
	}
	l.add(TokenEOF)
	return l.tokens, l.custom, nil
}

func diagnosticName(filename string) string {
	if filename == "" || filename == "-" {
		return "-"
	}
	return filepath.Base(filename)
}

func (l *lexer) fatal(code int, format string, args ...interface{}) error {
	err := l.handler.HandleFatalf(l.report, l.lino, code, format, args...)
	if err != nil {
		return err
	}
	// The reporter swallowed a fatal diagnostic; unwind anyway since the
	// lexer cannot recover its state.
	return l.handler.Err()
}

func (l *lexer) warn(code int, format string, args ...interface{}) {
	l.handler.HandleWarningf(l.report, l.lino, code, format, args...)
}

func (l *lexer) scanHeader() error {
	i := strings.IndexByte(l.text, '\n')
	if i == -1 {
		return l.fatal(110, "missing UXF file header or empty file")
	}
	l.pos = i
	cmd, version, custom := splitHeader(l.text[:i])
	if version == "" {
		return l.fatal(120, "invalid UXF file header")
	}
	if cmd != "uxf" {
		return l.fatal(130, "not a UXF file")
	}
	if v, err := strconv.ParseFloat(version, 64); err != nil || v < 0 {
		l.warn(151, "failed to read UXF file version number")
	} else if v > FormatVersion {
		l.warn(141, "version (%s) > current (%s)", version, value.FormatReal(FormatVersion))
	}
	l.custom = custom
	return nil
}

// splitHeader splits the first line into at most three whitespace-separated
// parts, with the third keeping its internal spacing.
func splitHeader(line string) (cmd, version, custom string) {
	line = strings.Trim(line, " \t\r")
	i := strings.IndexAny(line, " \t")
	if i == -1 {
		return line, "", ""
	}
	cmd = line[:i]
	rest := strings.TrimLeft(line[i:], " \t")
	j := strings.IndexAny(rest, " \t")
	if j == -1 {
		return cmd, rest, ""
	}
	return cmd, rest[:j], strings.TrimLeft(rest[j:], " \t")
}

func (l *lexer) maybeReadComment() error {
	l.skipWS()
	if l.atEnd() || l.text[l.pos] != '#' {
		return nil
	}
	l.pos++
	if l.peek() != '<' {
		l.warn(160, "invalid comment syntax: expected '<', got %q", l.peek())
		return nil
	}
	l.pos++
	text, err := l.matchTo(">", "comment string")
	if err != nil {
		return err
	}
	l.addText(TokenComment, value.Unescape(text))
	return nil
}

func (l *lexer) atEnd() bool { return l.pos >= len(l.text) }

func (l *lexer) scanNext() error {
	start := l.pos
	c := l.getch()
	switch {
	case c == '\n':
		l.lino++
	case unicode.IsSpace(c):
		// insignificant whitespace
	case c == '(':
		if l.peek() == ':' {
			l.pos++
			return l.readBytes()
		}
		l.checkInTClass()
		l.add(TokenTableBegin)
	case c == ')':
		l.add(TokenTableEnd)
	case c == '[':
		l.checkInTClass()
		l.add(TokenListBegin)
	case c == '=':
		l.checkInTClass() // allow for fieldless TClasses
		l.add(TokenTClassBegin)
		l.inTClass = true
	case c == ']':
		l.add(TokenListEnd)
	case c == '{':
		l.checkInTClass()
		l.add(TokenMapBegin)
	case c == '}':
		l.inTClass = false
		l.add(TokenMapEnd)
	case c == '?':
		l.add(TokenNull)
	case c == '!':
		return l.readImports()
	case c == '#':
		return l.readComment()
	case c == '<':
		return l.readString()
	case c == ':':
		l.readFieldVType()
	case c == '-' && isDecimal(l.peek()):
		return l.readNumberOrDate(start)
	case isDecimal(c):
		return l.readNumberOrDate(start)
	case c == '_' || unicode.IsLetter(c):
		l.readName(start)
	default:
		l.warn(170, "invalid character encountered: %q", c)
	}
	return nil
}

// checkInTClass ends an open tclass definition implicitly when a
// collection opener (or another =) follows it.
func (l *lexer) checkInTClass() {
	if l.inTClass {
		l.inTClass = false
		l.add(TokenTClassEnd)
	}
}

func (l *lexer) readImports() error {
	thisFile := fullFilename(l.filename, "")
	dir := filepath.Dir(thisFile)
	for {
		target, err := l.matchTo("\n", "import")
		if err != nil {
			return err
		}
		target = strings.TrimSpace(target)
		if l.filename != "" && l.filename != "-" && thisFile == fullFilename(target, dir) {
			return l.fatal(176, "a UXF file cannot import itself")
		}
		l.addText(TokenImport, target)
		l.lino++ // matchTo consumed the terminating newline
		if l.peek() != '!' {
			return nil
		}
		l.pos++
	}
}

func fullFilename(filename, dir string) string {
	if filepath.IsAbs(filename) {
		return filepath.Clean(filename)
	}
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(filepath.Join(dir, filename))
	if err != nil {
		return filepath.Join(dir, filename)
	}
	return abs
}

func (l *lexer) readComment() error {
	ok := false
	if n := len(l.tokens); n > 0 {
		switch l.tokens[n-1].Kind {
		case TokenListBegin, TokenMapBegin, TokenTableBegin, TokenTClassBegin:
			ok = true
		}
	}
	if !ok {
		l.warn(190, "comments may only occur at the start of lists, maps, tables, and tclasses")
		return nil
	}
	if l.peek() != '<' {
		l.warn(180, "a str must follow the # comment introducer, got %q", l.peek())
		return nil
	}
	l.pos++
	text, err := l.matchTo(">", "comment string")
	if err != nil {
		return err
	}
	if text != "" {
		l.addText(TokenComment, value.Unescape(text))
	}
	return nil
}

func (l *lexer) readString() error {
	text, err := l.matchTo(">", "string")
	if err != nil {
		return err
	}
	l.addValue(TokenStr, value.Str(value.Unescape(text)))
	return nil
}

func (l *lexer) readBytes() error {
	text, err := l.matchTo(":)", "bytes")
	if err != nil {
		return err
	}
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	raw, err := hex.DecodeString(compact)
	if err != nil {
		return l.fatal(200, "expected bytes, got %q: %v", text, err)
	}
	l.addValue(TokenBytes, value.Bytes(raw))
	return nil
}

// readNumberOrDate consumes the characters a number, date, or datetime may
// contain and classifies the result: any of :TZ means datetime, exactly
// two hyphens without those means date, . or e/E means real, everything
// else an int. A leading sign is consumed before the loop so it never
// counts as a date separator.
func (l *lexer) readNumberOrDate(start int) error {
	isReal, isDateTime := false, false
	hyphens := 0
	for !l.atEnd() {
		c := rune(l.text[l.pos])
		if !isDecimal(c) && !strings.ContainsRune("-+.:eETZ", c) {
			break
		}
		switch {
		case c == '.' || c == 'e' || c == 'E':
			isReal = true
		case c == '-':
			hyphens++
		case c == ':' || c == 'T' || c == 'Z':
			isDateTime = true
		}
		l.pos++
	}
	text := l.text[start:l.pos]
	switch {
	case isDateTime:
		l.readDateTime(text)
	case hyphens == 2:
		d, err := value.ParseDate(text)
		if err != nil {
			l.warn(220, "invalid number or date/time: %q: %v", text, err)
			return nil
		}
		l.addValue(TokenDate, d)
	case isReal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			l.warn(220, "invalid number or date/time: %q: %v", text, err)
			return nil
		}
		l.addValue(TokenReal, value.Real(f))
	default:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			l.warn(220, "invalid number or date/time: %q: %v", text, err)
			return nil
		}
		l.addValue(TokenInt, value.Int(i))
	}
	return nil
}

func (l *lexer) readDateTime(text string) {
	dt, err := value.ParseDateTime(text)
	if err == nil {
		l.addValue(TokenDateTime, dt)
		return
	}
	if len(text) > 19 {
		// an unsupported timezone suffix; fall back to the naive prefix
		if dt, err2 := value.ParseDateTime(text[:19]); err2 == nil {
			l.addValue(TokenDateTime, dt)
			l.warn(231, "skipped timezone data, used %q, got %q", text[:19], text)
			return
		}
		l.warn(240, "invalid datetime: %q: %v", text, err)
		return
	}
	l.warn(220, "invalid number or date/time: %q: %v", text, err)
}

// readName lexes a bareword starting at start (whose first rune is already
// consumed) and classifies it: yes/no are booleans, built-in type names
// are TYPE tokens, everything else is an identifier truncated to the
// identifier length limit.
func (l *lexer) readName(start int) {
	l.matchIdentChars()
	word := l.text[start:l.pos]
	switch {
	case word == "yes":
		l.addValue(TokenBool, value.Bool(true))
	case word == "no":
		l.addValue(TokenBool, value.Bool(false))
	case isTypeName(word):
		l.addText(TokenType, word)
	default:
		l.addText(TokenIdentifier, truncateIdent(word))
	}
}

func isTypeName(word string) bool {
	_, ok := value.KindForName(word)
	return ok
}

func truncateIdent(word string) string {
	if runes := []rune(word); len(runes) > value.MaxIdentifierLen {
		return string(runes[:value.MaxIdentifierLen])
	}
	return word
}

func (l *lexer) readFieldVType() {
	l.skipWS()
	start := l.pos
	l.matchIdentChars()
	if start == l.pos {
		l.warn(260, "expected field vtype, got %q", l.peekText(10))
		return
	}
	l.addText(TokenType, truncateIdent(l.text[start:l.pos]))
}

func (l *lexer) matchIdentChars() {
	for !l.atEnd() {
		r, sz := utf8.DecodeRuneInString(l.text[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return
		}
		l.pos += sz
	}
}

func (l *lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.text[l.pos:])
	return r
}

func (l *lexer) peekText(n int) string {
	end := l.pos + n
	if end > len(l.text) {
		end = len(l.text)
	}
	return l.text[l.pos:end]
}

func (l *lexer) getch() rune {
	r, sz := utf8.DecodeRuneInString(l.text[l.pos:])
	l.pos += sz
	return r
}

func (l *lexer) skipWS() {
	for !l.atEnd() {
		c := l.text[l.pos]
		if c == '\n' {
			l.lino++
		} else if c != ' ' && c != '\t' && c != '\r' && c != '\f' && c != '\v' {
			return
		}
		l.pos++
	}
}

// matchTo consumes up to and including target and returns the text before
// it, counting any newlines the text spans. A missing terminator is fatal.
func (l *lexer) matchTo(target, what string) (string, error) {
	i := strings.Index(l.text[l.pos:], target)
	if i == -1 {
		return "", l.fatal(270, "unterminated %s", what)
	}
	text := l.text[l.pos : l.pos+i]
	l.lino += strings.Count(text, "\n")
	l.pos += i + len(target)
	return text, nil
}

func (l *lexer) add(kind TokenKind) {
	l.tokens = append(l.tokens, Token{Kind: kind, Line: l.lino})
}

func (l *lexer) addText(kind TokenKind, text string) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Line: l.lino})
}

func (l *lexer) addValue(kind TokenKind, v value.Value) {
	l.tokens = append(l.tokens, Token{Kind: kind, Value: v, Line: l.lino})
}

func isDecimal(r rune) bool { return r >= '0' && r <= '9' }
