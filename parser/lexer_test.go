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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxflab/uxf/reporter"
	"github.com/uxflab/uxf/value"
)

// collectingReporter records warnings and aborts on the first fatal.
func collectingReporter() (reporter.Reporter, *[]*reporter.Diagnostic) {
	warnings := &[]*reporter.Diagnostic{}
	rep := reporter.NewReporter(nil, func(d *reporter.Diagnostic) {
		*warnings = append(*warnings, d)
	})
	return rep, warnings
}

func warnCodes(warnings []*reporter.Diagnostic) []int {
	codes := make([]int, 0, len(warnings))
	for _, d := range warnings {
		codes = append(codes, d.Code)
	}
	return codes
}

func lex(t *testing.T, text string) []Token {
	t.Helper()
	h := reporter.NewHandler(reporter.Quiet())
	tokens, _, err := Tokenize(text, "-", h)
	require.NoError(t, err)
	return tokens
}

func kinds(tokens []Token) []TokenKind {
	ks := make([]TokenKind, 0, len(tokens))
	for _, tok := range tokens {
		ks = append(ks, tok.Kind)
	}
	return ks
}

func TestLexEmptyList(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n[]\n")
	assert.Equal(t, []TokenKind{TokenListBegin, TokenListEnd, TokenEOF}, kinds(tokens))
}

func TestLexHeaderCustomTag(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(reporter.Quiet())
	_, custom, err := Tokenize("uxf 1.0 Geo Data 2.1\n[]\n", "-", h)
	require.NoError(t, err)
	assert.Equal(t, "Geo Data 2.1", custom)
}

func TestLexHeaderErrors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		text string
		code int
	}{
		{"", 110},
		{"uxf 1.0", 110}, // no newline at all
		{"uxf\n", 120},
		{"xyz 1.0\n[]\n", 130},
	}
	for _, tc := range testCases {
		h := reporter.NewHandler(reporter.Quiet())
		_, _, err := Tokenize(tc.text, "-", h)
		require.Error(t, err, tc.text)
		d, ok := reporter.AsDiagnostic(err)
		require.True(t, ok)
		assert.Equal(t, tc.code, d.Code, tc.text)
	}
}

func TestLexHeaderVersionWarnings(t *testing.T) {
	t.Parallel()
	rep, warnings := collectingReporter()
	h := reporter.NewHandler(rep)
	_, _, err := Tokenize("uxf 99.0\n[]\n", "-", h)
	require.NoError(t, err)
	assert.Equal(t, []int{141}, warnCodes(*warnings))

	rep, warnings = collectingReporter()
	h = reporter.NewHandler(rep)
	_, _, err = Tokenize("uxf abc\n[]\n", "-", h)
	require.NoError(t, err)
	assert.Equal(t, []int{151}, warnCodes(*warnings))
}

func TestLexDocumentComment(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n#<the &lt;doc&gt; comment>\n[]\n")
	require.Equal(t, TokenComment, tokens[0].Kind)
	assert.Equal(t, "the <doc> comment", tokens[0].Text)
}

func TestLexScalars(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n[? yes no -42 3.5 -1.5 <hi &amp; bye> 2023-01-15 2023-01-15T10:11:12]\n")
	want := []TokenKind{
		TokenListBegin, TokenNull, TokenBool, TokenBool, TokenInt, TokenReal,
		TokenReal, TokenStr, TokenDate, TokenDateTime, TokenListEnd, TokenEOF,
	}
	require.Equal(t, want, kinds(tokens))
	assert.Equal(t, value.Bool(true), tokens[2].Value)
	assert.Equal(t, value.Bool(false), tokens[3].Value)
	assert.Equal(t, value.Int(-42), tokens[4].Value)
	assert.Equal(t, value.Real(3.5), tokens[5].Value)
	assert.Equal(t, value.Real(-1.5), tokens[6].Value)
	assert.Equal(t, value.Str("hi & bye"), tokens[7].Value)
	assert.Equal(t, value.NewDate(2023, time.January, 15), tokens[8].Value)
}

func TestLexTypedList(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n[int 1 2 3]\n")
	want := []TokenKind{
		TokenListBegin, TokenType, TokenInt, TokenInt, TokenInt, TokenListEnd, TokenEOF,
	}
	require.Equal(t, want, kinds(tokens))
	assert.Equal(t, "int", tokens[1].Text)
	assert.Equal(t, 2, tokens[0].Line)
}

func TestLexBytes(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n[(:DEADBEEF:) (:DE AD\nBE EF:)]\n")
	require.Equal(t, TokenBytes, tokens[1].Kind)
	require.Equal(t, TokenBytes, tokens[2].Kind)
	assert.Equal(t, value.Bytes{0xDE, 0xAD, 0xBE, 0xEF}, tokens[1].Value)
	assert.Equal(t, value.Bytes{0xDE, 0xAD, 0xBE, 0xEF}, tokens[2].Value)
}

func TestLexBadBytesIsFatal(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(reporter.Quiet())
	_, _, err := Tokenize("uxf 1.0\n[(:XYZ:)]\n", "-", h)
	require.Error(t, err)
	d, ok := reporter.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, 200, d.Code)
}

func TestLexUnterminatedStringIsFatal(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(reporter.Quiet())
	_, _, err := Tokenize("uxf 1.0\n[<no end]\n", "-", h)
	require.Error(t, err)
	d, ok := reporter.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, 270, d.Code)
}

func TestLexTClassTokens(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n=point x:int y:int\n=Tag\n(point 1 2)\n")
	want := []TokenKind{
		TokenTClassBegin, TokenIdentifier, TokenIdentifier, TokenType,
		TokenIdentifier, TokenType,
		TokenTClassEnd, // implicitly closed by the = that follows
		TokenTClassBegin, TokenIdentifier,
		TokenTClassEnd, // implicitly closed by the ( that follows
		TokenTableBegin, TokenIdentifier, TokenInt, TokenInt, TokenTableEnd,
		TokenEOF,
	}
	require.Equal(t, want, kinds(tokens))
	assert.Equal(t, "point", tokens[1].Text)
	assert.Equal(t, "x", tokens[2].Text)
	assert.Equal(t, "int", tokens[3].Text)
}

func TestLexImports(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n!shapes.uxf\n!http://example.com/t.uxf\n[]\n")
	require.Equal(t, TokenImport, tokens[0].Kind)
	require.Equal(t, TokenImport, tokens[1].Kind)
	assert.Equal(t, "shapes.uxf", tokens[0].Text)
	assert.Equal(t, "http://example.com/t.uxf", tokens[1].Text)
}

func TestLexChainedImports(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n!one.uxf\n!two.uxf\n[]\n")
	assert.Equal(t, "one.uxf", tokens[0].Text)
	assert.Equal(t, "two.uxf", tokens[1].Text)
}

func TestLexSelfImportIsFatal(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(reporter.Quiet())
	_, _, err := Tokenize("uxf 1.0\n!a.uxf\n[]\n", "/tmp/uxftest/a.uxf", h)
	require.Error(t, err)
	d, ok := reporter.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, 176, d.Code)
}

func TestLexIdentifierTruncation(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", value.MaxIdentifierLen+10)
	tokens := lex(t, "uxf 1.0\n[<a>]\n=_"+long+" f\n[]\n")
	// find the identifier token
	var ident string
	for _, tok := range tokens {
		if tok.Kind == TokenIdentifier {
			ident = tok.Text
			break
		}
	}
	assert.Len(t, ident, value.MaxIdentifierLen)
}

func TestLexDateTimeTimezoneFallback(t *testing.T) {
	t.Parallel()
	rep, warnings := collectingReporter()
	h := reporter.NewHandler(rep)
	tokens, _, err := Tokenize("uxf 1.0\n[2023-01-15T10:11:12+05:30:00]\n", "-", h)
	require.NoError(t, err)
	assert.Equal(t, []int{231}, warnCodes(*warnings))
	require.Equal(t, TokenDateTime, tokens[1].Kind)
	dt := tokens[1].Value.(value.DateTime)
	assert.False(t, dt.HasOffset())
	assert.Equal(t, 12, dt.Second())
}

func TestLexDateTimeWithOffset(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n[2023-01-15T10:11:12Z]\n")
	require.Equal(t, TokenDateTime, tokens[1].Kind)
	assert.True(t, tokens[1].Value.(value.DateTime).HasOffset())
}

func TestLexInvalidNumberWarns(t *testing.T) {
	t.Parallel()
	rep, warnings := collectingReporter()
	h := reporter.NewHandler(rep)
	_, _, err := Tokenize("uxf 1.0\n[1..2]\n", "-", h)
	require.NoError(t, err)
	assert.Equal(t, []int{220}, warnCodes(*warnings))
}

func TestLexInvalidCharacterWarns(t *testing.T) {
	t.Parallel()
	rep, warnings := collectingReporter()
	h := reporter.NewHandler(rep)
	_, _, err := Tokenize("uxf 1.0\n[1 @ 2]\n", "-", h)
	require.NoError(t, err)
	assert.Equal(t, []int{170}, warnCodes(*warnings))
}

func TestLexMisplacedCommentWarns(t *testing.T) {
	t.Parallel()
	rep, warnings := collectingReporter()
	h := reporter.NewHandler(rep)
	_, _, err := Tokenize("uxf 1.0\n[1 #<late>]\n", "-", h)
	require.NoError(t, err)
	assert.Equal(t, []int{190}, warnCodes(*warnings))
}

func TestLexCommentAfterOpeners(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n[#<note> 1]\n")
	want := []TokenKind{TokenListBegin, TokenComment, TokenInt, TokenListEnd, TokenEOF}
	require.Equal(t, want, kinds(tokens))
	assert.Equal(t, "note", tokens[1].Text)
}

func TestLexLineNumbers(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "uxf 1.0\n[\n  1\n  2\n]\n")
	require.Equal(t, TokenListBegin, tokens[0].Kind)
	assert.Equal(t, 2, tokens[0].Line)
	assert.Equal(t, 3, tokens[1].Line)
	assert.Equal(t, 4, tokens[2].Line)
	assert.Equal(t, 5, tokens[3].Line)
}
