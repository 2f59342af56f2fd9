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

// Package parser converts UXF text into the value model: a rune-level
// lexer produces a flat token stream and a phase-structured parser builds
// the document, resolving imports through a caller-supplied callback.
package parser

import (
	"fmt"

	"github.com/uxflab/uxf/value"
)

// TokenKind discriminates the lexer's output tokens.
type TokenKind int

const (
	TokenImport TokenKind = iota
	TokenTClassBegin
	TokenTClassEnd
	TokenTableBegin
	TokenTableEnd
	TokenListBegin
	TokenListEnd
	TokenMapBegin
	TokenMapEnd
	TokenComment
	TokenNull
	TokenBool
	TokenInt
	TokenReal
	TokenDate
	TokenDateTime
	TokenStr
	TokenBytes
	TokenType
	TokenIdentifier
	TokenEOF
)

var tokenKindNames = map[TokenKind]string{
	TokenImport:      "IMPORT",
	TokenTClassBegin: "TCLASS_BEGIN",
	TokenTClassEnd:   "TCLASS_END",
	TokenTableBegin:  "TABLE_BEGIN",
	TokenTableEnd:    "TABLE_END",
	TokenListBegin:   "LIST_BEGIN",
	TokenListEnd:     "LIST_END",
	TokenMapBegin:    "MAP_BEGIN",
	TokenMapEnd:      "MAP_END",
	TokenComment:     "COMMENT",
	TokenNull:        "NULL",
	TokenBool:        "BOOL",
	TokenInt:         "INT",
	TokenReal:        "REAL",
	TokenDate:        "DATE",
	TokenDateTime:    "DATE_TIME",
	TokenStr:         "STR",
	TokenBytes:       "BYTES",
	TokenType:        "TYPE",
	TokenIdentifier:  "IDENTIFIER",
	TokenEOF:         "EOF",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "INVALID"
}

// IsScalar reports whether the token carries a scalar literal.
func (k TokenKind) IsScalar() bool {
	switch k {
	case TokenNull, TokenBool, TokenInt, TokenReal, TokenDate, TokenDateTime, TokenStr, TokenBytes:
		return true
	}
	return false
}

// Token is one lexeme. Scalar tokens carry their literal in Value; type
// names, identifiers, import targets, and comments carry their text in
// Text.
type Token struct {
	Kind  TokenKind
	Value value.Value
	Text  string
	Line  int
}

func (t Token) String() string {
	switch {
	case t.Text != "":
		return fmt.Sprintf("%d:%s=%s", t.Line, t.Kind, t.Text)
	case t.Kind.IsScalar() && t.Kind != TokenNull:
		return fmt.Sprintf("%d:%s=%s", t.Line, t.Kind, value.ScalarString(t.Value))
	default:
		return fmt.Sprintf("%d:%s", t.Line, t.Kind)
	}
}
