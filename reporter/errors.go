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

package reporter

import (
	"errors"
	"fmt"
)

// ErrInvalidDocument is a sentinel error returned by loading and
// stand-alone steps (lexing, parsing, writing) when one or more fatal
// diagnostics were reported but the configured ErrorReporter always
// returned nil.
var ErrInvalidDocument = errors.New("load failed: invalid UXF document")

// Diagnostic is an error or warning about a UXF document. It carries the
// source filename, the line the problem was detected on, and the numeric
// UXF error code. Codes are partitioned by area: 1xx header/IO, 2xx
// lexical, 3xx data-model construction, 4xx parser type/identifier, 5xx
// import/structural, 6xx writer.
type Diagnostic struct {
	File    string
	Line    int
	Code    int
	Message string

	underlying error
}

// Errorf creates a new Diagnostic whose message is created using the given
// format and arguments (via fmt.Errorf, so %w wrapping is honored).
func Errorf(file string, line, code int, format string, args ...interface{}) *Diagnostic {
	err := fmt.Errorf(format, args...)
	return &Diagnostic{File: file, Line: line, Code: code, Message: err.Error(), underlying: err}
}

// Error implements the error interface using the user-visible format
// uxf:filename:line:#code:message.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("uxf:%s:%d:#%d:%s", d.File, d.Line, d.Code, d.Message)
}

func (d *Diagnostic) Unwrap() error {
	return errors.Unwrap(d.underlying)
}

// AsDiagnostic returns the *Diagnostic in err's chain, if any.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	ok := errors.As(err, &d)
	return d, ok
}
