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
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
)

var (
	gzipMagic = []byte{0x1F, 0x8B}
	utf8Bom   = []byte{0xEF, 0xBB, 0xBF}
)

// ReadText reads UXF text from the named file, or from stdin when filename
// is "-". Gzip input is detected by its magic header and decompressed
// transparently.
func ReadText(filename string) (string, error) {
	if filename == "" || filename == "-" {
		return ReadTextFrom(os.Stdin)
	}
	f, err := os.Open(filename)
	if err != nil {
		return "", errors.Wrap(err, "failed to read UXF text")
	}
	defer f.Close()
	return ReadTextFrom(f)
}

// ReadTextFrom reads UXF text from an open byte stream, transparently
// decompressing gzip input and discarding a UTF-8 byte order marker.
func ReadTextFrom(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && bytes.Equal(magic, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return "", errors.Wrap(err, "failed to read UXF text")
		}
		defer gz.Close()
		return readAll(gz)
	}
	return readAll(br)
}

func readAll(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "failed to read UXF text")
	}
	raw = bytes.TrimPrefix(raw, utf8Bom)
	return string(raw), nil
}

// WriteText writes UXF text to the named file, or to stdout when filename
// is "-". A name ending .gz (case-insensitive) selects gzip compression.
// File output is written atomically: the text lands in a temporary file
// that replaces the target only on success.
func WriteText(filename, text string) error {
	if filename == "" || filename == "-" {
		return WriteTextTo(os.Stdout, text)
	}
	pf, err := renameio.NewPendingFile(filename,
		renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
	if err != nil {
		return errors.Wrap(err, "failed to write UXF text")
	}
	defer pf.Cleanup()
	var w io.Writer = pf
	var gz *gzip.Writer
	if strings.HasSuffix(strings.ToLower(filename), ".gz") {
		gz = gzip.NewWriter(pf)
		w = gz
	}
	if _, err := io.WriteString(w, text); err != nil {
		return errors.Wrap(err, "failed to write UXF text")
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return errors.Wrap(err, "failed to write UXF text")
		}
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return errors.Wrap(err, "failed to write UXF text")
	}
	return nil
}

// WriteTextTo writes UXF text to an open stream without compression.
func WriteTextTo(w io.Writer, text string) error {
	_, err := io.WriteString(w, text)
	return errors.Wrap(err, "failed to write UXF text")
}
