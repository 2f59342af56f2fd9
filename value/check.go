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
	"unicode"

	"github.com/uxflab/uxf/reporter"
)

// MaxIdentifierLen is the maximum length of a ttype or field identifier.
const MaxIdentifierLen = 60

// ReservedWords are the barewords that cannot be used as identifiers: the
// built-in type names, null, and the boolean literals.
var ReservedWords = map[string]bool{
	"bool": true, "bytes": true, "date": true, "datetime": true,
	"int": true, "list": true, "map": true, "real": true, "str": true,
	"table": true, "null": true, "yes": true, "no": true,
}

// IsReservedWord reports whether name is a reserved word.
func IsReservedWord(name string) bool { return ReservedWords[name] }

// CheckName validates a ttype or field identifier: nonempty, begins with a
// letter or underscore, contains only letters, digits, and underscores, is
// at most MaxIdentifierLen characters, and is not a reserved word.
func CheckName(name string) error {
	if name == "" {
		return reporter.Errorf("", 0, 298, "fields and tables must have nonempty names")
	}
	runes := []rune(name)
	if unicode.IsDigit(runes[0]) {
		return reporter.Errorf("", 0, 300,
			"names must start with a letter or underscore, got %s", name)
	}
	if IsReservedWord(name) {
		return reporter.Errorf("", 0, 304,
			"names cannot be the same as built-in type names or constants, got %s", name)
	}
	if len(runes) > MaxIdentifierLen {
		return reporter.Errorf("", 0, 310,
			"names may be at most %d characters long, got %s", MaxIdentifierLen, name)
	}
	for _, c := range runes {
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return reporter.Errorf("", 0, 310,
				"names may only contain letters, digits, or underscores, got %s", name)
		}
	}
	return nil
}
