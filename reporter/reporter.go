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
	"fmt"
	"os"
)

// ErrorReporter is called for fatal diagnostics. Returning a non-nil error
// (usually the diagnostic itself) aborts the operation with that error.
// Returning nil lets the operation attempt best-effort recovery; the final
// result will still be ErrInvalidDocument.
type ErrorReporter func(d *Diagnostic) error

// WarningReporter is called for non-fatal diagnostics. The operation always
// continues after a warning.
type WarningReporter func(d *Diagnostic)

// Reporter is the sink that receives all diagnostics produced while
// loading or writing a UXF document.
type Reporter interface {
	// Error is called when a fatal diagnostic is encountered. If it returns
	// non-nil the operation unwinds immediately with that error.
	Error(d *Diagnostic) error
	// Warning is called for non-fatal diagnostics.
	Warning(d *Diagnostic)
}

// NewReporter creates a Reporter from the given function values. Either
// may be nil: a nil errs fails with the diagnostic itself, a nil warnings
// discards warnings.
func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(d *Diagnostic) error {
	if r.errs == nil {
		return d
	}
	return r.errs(d)
}

func (r reporterFuncs) Warning(d *Diagnostic) {
	if r.warnings != nil {
		r.warnings(d)
	}
}

// Quiet returns a Reporter that never prints anything. Fatal diagnostics
// still abort the operation. Intended for test harnesses.
func Quiet() Reporter {
	return reporterFuncs{}
}

// Stderr returns the default Reporter: warnings are printed to stderr in
// the uxf:filename:line:#code:message format and fatal diagnostics abort.
func Stderr() Reporter {
	return reporterFuncs{
		warnings: func(d *Diagnostic) {
			fmt.Fprintln(os.Stderr, d.Error())
		},
	}
}

// Handler is passed by reference through the lexer, parser, and writer so
// they all report into the same sink. It remembers whether a fatal
// diagnostic was seen so a load can produce a definitive final error.
type Handler struct {
	reporter     Reporter
	err          error
	errsReported bool
}

// NewHandler creates a new Handler for the given reporter. A nil reporter
// behaves like Stderr().
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = Stderr()
	}
	return &Handler{reporter: rep}
}

// HandleFatal reports a fatal diagnostic. The returned error is non-nil
// when the operation must unwind, which is whenever the reporter does not
// deliberately swallow the diagnostic.
func (h *Handler) HandleFatal(d *Diagnostic) error {
	if h.err != nil {
		return h.err
	}
	h.errsReported = true
	err := h.reporter.Error(d)
	if err != nil {
		h.err = err
	}
	return err
}

// HandleFatalf reports a fatal diagnostic built from the given format.
func (h *Handler) HandleFatalf(file string, line, code int, format string, args ...interface{}) error {
	return h.HandleFatal(Errorf(file, line, code, format, args...))
}

// HandleWarning reports a non-fatal diagnostic; the operation continues.
func (h *Handler) HandleWarning(d *Diagnostic) {
	h.reporter.Warning(d)
}

// HandleWarningf reports a non-fatal diagnostic built from the given format.
func (h *Handler) HandleWarningf(file string, line, code int, format string, args ...interface{}) {
	h.HandleWarning(Errorf(file, line, code, format, args...))
}

// ReporterError returns the error the reporter chose to abort with, if any.
// Lexing and parsing loops consult this to stop consuming input early.
func (h *Handler) ReporterError() error {
	return h.err
}

// Err returns the operation's final error: the reporter's abort error, or
// ErrInvalidDocument if fatal diagnostics were reported but swallowed, or
// nil if no fatal diagnostic occurred.
func (h *Handler) Err() error {
	if h.err != nil {
		return h.err
	}
	if h.errsReported {
		return ErrInvalidDocument
	}
	return nil
}
