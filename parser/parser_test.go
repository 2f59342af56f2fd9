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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxflab/uxf/reporter"
	"github.com/uxflab/uxf/value"
)

func parseText(t *testing.T, text string, opts Options) (*value.Document, []*reporter.Diagnostic, error) {
	t.Helper()
	rep, warnings := collectingReporter()
	h := reporter.NewHandler(rep)
	tokens, custom, err := Tokenize(text, "-", h)
	if err != nil {
		return nil, *warnings, err
	}
	doc, err := Parse(tokens, "-", h, opts)
	if err != nil {
		return nil, *warnings, err
	}
	doc.Custom = custom
	return doc, *warnings, nil
}

func mustParse(t *testing.T, text string) *value.Document {
	t.Helper()
	doc, warnings, err := parseText(t, text, Options{})
	require.NoError(t, err)
	require.Empty(t, warnings, "unexpected warnings: %v", warnings)
	return doc
}

func fatalCode(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	d, ok := reporter.AsDiagnostic(err)
	require.True(t, ok, "expected a diagnostic, got %v", err)
	return d.Code
}

func TestParseHeaderOnly(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n[]\n")
	root, ok := doc.Root.(*value.List)
	require.True(t, ok)
	assert.Equal(t, 0, root.Len())
	assert.Empty(t, doc.Custom)
	assert.Empty(t, doc.TClasses())
}

func TestParseTypedList(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n[int 1 2 3]\n")
	root := doc.Root.(*value.List)
	assert.Equal(t, "int", root.VType)
	assert.Equal(t, []value.Value{value.Int(1), value.Int(2), value.Int(3)}, root.Values)
}

func TestParseTypedMap(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n{str int <one> 1 <two> 2}\n")
	root := doc.Root.(*value.Map)
	assert.Equal(t, "str", root.KType)
	assert.Equal(t, "int", root.VType)
	require.Equal(t, 2, root.Len())
	one, ok := root.Get(value.Str("one"))
	require.True(t, ok)
	assert.Equal(t, value.Int(1), one)
	two, ok := root.Get(value.Str("two"))
	require.True(t, ok)
	assert.Equal(t, value.Int(2), two)
}

func TestParseTableWithTClass(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n=point x:int y:int\n(point 1 2 3 4)\n")
	root := doc.Root.(*value.Table)
	assert.Equal(t, "point", root.TType())
	require.Equal(t, 2, root.Len())
	assert.Equal(t, []value.Value{value.Int(1), value.Int(2)}, root.At(0))
	assert.Equal(t, []value.Value{value.Int(3), value.Int(4)}, root.At(1))
}

func TestParseBytesAndDate(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n[(:DEADBEEF:) 2023-01-15]\n")
	root := doc.Root.(*value.List)
	require.Equal(t, 2, root.Len())
	assert.Equal(t, value.Bytes{0xDE, 0xAD, 0xBE, 0xEF}, root.Values[0])
	assert.Equal(t, value.NewDate(2023, time.January, 15), root.Values[1])
}

func TestParseNestedCollections(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n[[1 2] {<k> 3} [?]]\n")
	root := doc.Root.(*value.List)
	require.Equal(t, 3, root.Len())
	assert.Equal(t, value.KindList, value.KindOf(root.Values[0]))
	assert.Equal(t, value.KindMap, value.KindOf(root.Values[1]))
	inner := root.Values[2].(*value.List)
	require.Equal(t, 1, inner.Len())
	assert.Nil(t, inner.Values[0])
}

func TestParseDocumentAndCollectionComments(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n#<about this file>\n[#<about the list> 1]\n")
	assert.Equal(t, "about this file", doc.Comment)
	assert.Equal(t, "about the list", doc.Root.(*value.List).Comment)
}

func TestParseTClassComment(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n=#<planar> point x:int y:int\n(point 1 2)\n")
	tc := doc.TClass("point")
	require.NotNil(t, tc)
	assert.Equal(t, "planar", tc.Comment)
	require.Len(t, tc.Fields, 2)
	assert.Equal(t, "x", tc.Fields[0].Name)
	assert.Equal(t, "int", tc.Fields[0].VType)
}

func TestParseFieldlessTClass(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n=Tag\n(Tag)\n")
	root := doc.Root.(*value.Table)
	assert.Equal(t, "Tag", root.TType())
	assert.Equal(t, 0, root.Len())
	assert.True(t, root.TClass().Fieldless())
}

func TestParseDuplicateTClassMerges(t *testing.T) {
	t.Parallel()
	doc, warnings, err := parseText(t,
		"uxf 1.0\n=point x:int\n=#<later> point x:int\n(point 1)\n", Options{})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, doc.TClasses(), 1)
	assert.Equal(t, "later", doc.TClass("point").Comment)
}

func TestParseConflictingTClassIsFatal(t *testing.T) {
	t.Parallel()
	_, _, err := parseText(t, "uxf 1.0\n=point x:int\n=point x:real\n(point 1)\n", Options{})
	assert.Equal(t, 528, fatalCode(t, err))
}

func TestParseUnknownTableTTypeIsFatal(t *testing.T) {
	t.Parallel()
	_, _, err := parseText(t, "uxf 1.0\n(nosuch 1 2)\n", Options{})
	assert.Equal(t, 450, fatalCode(t, err))
}

func TestParseBadMapKeyIsFatal(t *testing.T) {
	t.Parallel()
	_, _, err := parseText(t, "uxf 1.0\n{yes 1}\n", Options{})
	assert.Equal(t, 294, fatalCode(t, err))
}

func TestParseBadKTypeIsFatal(t *testing.T) {
	t.Parallel()
	_, _, err := parseText(t, "uxf 1.0\n{bool <k> yes}\n", Options{})
	assert.Equal(t, 280, fatalCode(t, err))
}

func TestParseNaturalizesTypedStrings(t *testing.T) {
	t.Parallel()
	doc, warnings, err := parseText(t, "uxf 1.0\n[int <5> 6]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{486}, warnCodes(warnings))
	root := doc.Root.(*value.List)
	assert.Equal(t, []value.Value{value.Int(5), value.Int(6)}, root.Values)
}

func TestParseNaturalizeFailureWarns(t *testing.T) {
	t.Parallel()
	doc, warnings, err := parseText(t, "uxf 1.0\n[int <five> 6]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{400}, warnCodes(warnings))
	root := doc.Root.(*value.List)
	assert.Equal(t, value.Str("five"), root.Values[0], "the original string is kept")
}

func TestParseNumericCoercions(t *testing.T) {
	t.Parallel()
	doc, warnings, err := parseText(t, "uxf 1.0\n[real 1 2.5]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{496}, warnCodes(warnings))
	assert.Equal(t, []value.Value{value.Real(1), value.Real(2.5)},
		doc.Root.(*value.List).Values)

	doc, warnings, err = parseText(t, "uxf 1.0\n[int 2.5 3]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{498}, warnCodes(warnings))
	assert.Equal(t, []value.Value{value.Int(2), value.Int(3)},
		doc.Root.(*value.List).Values)
}

func TestParseTypeMismatchWarns(t *testing.T) {
	t.Parallel()
	_, warnings, err := parseText(t, "uxf 1.0\n[int 1 2023-01-15]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{400}, warnCodes(warnings))
}

func TestParseCollectionMismatchWarns(t *testing.T) {
	t.Parallel()
	_, warnings, err := parseText(t, "uxf 1.0\n[int [1]]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{420}, warnCodes(warnings))
}

func TestParseTrueFalseDiagnosed(t *testing.T) {
	t.Parallel()
	_, warnings, err := parseText(t, "uxf 1.0\n[1 true]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{458}, warnCodes(warnings))

	// an unknown bareword right after [ reads as a bad vtype instead
	_, warnings, err = parseText(t, "uxf 1.0\n[nosuch 1]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{446}, warnCodes(warnings))
}

func TestParseUnusedTTypes(t *testing.T) {
	t.Parallel()
	_, warnings, err := parseText(t, "uxf 1.0\n=point x:int\n[]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{416}, warnCodes(warnings))

	_, warnings, err = parseText(t, "uxf 1.0\n=point x:int\n=size w:int\n[]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{418}, warnCodes(warnings))

	// fieldless tclasses are exempt
	_, warnings, err = parseText(t, "uxf 1.0\n=Tag\n[]\n", Options{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestParseDropUnused(t *testing.T) {
	t.Parallel()
	doc, warnings, err := parseText(t,
		"uxf 1.0\n=point x:int\n=size w:int\n(point 1)\n", Options{DropUnused: true})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, doc.TClasses(), 1)
	assert.Equal(t, "point", doc.TClasses()[0].TType())
}

func TestParseNestedTableVTypeStrict(t *testing.T) {
	t.Parallel()
	// a specific ttype constraint admits only that ttype
	_, warnings, err := parseText(t,
		"uxf 1.0\n=point x:int\n=size w:int\n[point (size 1)]\n", Options{})
	require.NoError(t, err)
	assert.Contains(t, warnCodes(warnings), 456)

	// the table constraint admits any ttype
	_, warnings, err = parseText(t,
		"uxf 1.0\n=point x:int\n[table (point 1)]\n", Options{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestParseListVTypeAsTType(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n=point x:int\n[point (point 1) (point 2)]\n")
	root := doc.Root.(*value.List)
	assert.Equal(t, "point", root.VType)
	assert.Equal(t, 2, root.Len())
}

func TestParseMapVTypeAsTType(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, "uxf 1.0\n=point x:int\n{str point <a> (point 1)}\n")
	root := doc.Root.(*value.Map)
	assert.Equal(t, "str", root.KType)
	assert.Equal(t, "point", root.VType)
}

func TestParseMaxDepthIsFatal(t *testing.T) {
	t.Parallel()
	_, _, err := parseText(t, "uxf 1.0\n[[[[1]]]]\n", Options{MaxDepth: 3})
	assert.Equal(t, 590, fatalCode(t, err))
}

func TestParseImporterMergesTClasses(t *testing.T) {
	t.Parallel()
	shapes := value.NewDocument()
	point, err := value.NewTClass("point",
		&value.Field{Name: "x", VType: "int"}, &value.Field{Name: "y", VType: "int"})
	require.NoError(t, err)
	require.NoError(t, shapes.AddTClass(point))

	var asked []string
	opts := Options{Importer: func(target string, lino int) (*value.Document, error) {
		asked = append(asked, target)
		return shapes, nil
	}}
	doc, warnings, err := parseText(t, "uxf 1.0\n!shapes.uxf\n(point 1 2)\n", opts)
	require.NoError(t, err)
	require.Empty(t, warnings)
	assert.Equal(t, []string{"shapes.uxf"}, asked)
	require.NotNil(t, doc.TClass("point"))
	source, ok := doc.ImportSource("point")
	require.True(t, ok)
	assert.Equal(t, "shapes.uxf", source)
}

func TestParseImportConflictIsFatal(t *testing.T) {
	t.Parallel()
	docFor := func(vtype string) *value.Document {
		doc := value.NewDocument()
		point, err := value.NewTClass("point", &value.Field{Name: "x", VType: vtype})
		require.NoError(t, err)
		require.NoError(t, doc.AddTClass(point))
		return doc
	}
	imports := map[string]*value.Document{
		"a.uxf": docFor("int"),
		"b.uxf": docFor("real"),
	}
	opts := Options{Importer: func(target string, lino int) (*value.Document, error) {
		return imports[target], nil
	}}
	_, _, err := parseText(t, "uxf 1.0\n!a.uxf\n!b.uxf\n(point 1)\n", opts)
	assert.Equal(t, 544, fatalCode(t, err))
}

func TestParseLocalConflictWithImportIsFatal(t *testing.T) {
	t.Parallel()
	other := value.NewDocument()
	point, err := value.NewTClass("point", &value.Field{Name: "x", VType: "real"})
	require.NoError(t, err)
	require.NoError(t, other.AddTClass(point))

	opts := Options{Importer: func(target string, lino int) (*value.Document, error) {
		return other, nil
	}}
	_, _, err = parseText(t, "uxf 1.0\n!other.uxf\n=point x:int\n(point 1)\n", opts)
	assert.Equal(t, 528, fatalCode(t, err))
}

func TestParseReplaceImports(t *testing.T) {
	t.Parallel()
	shapes := value.NewDocument()
	point, err := value.NewTClass("point", &value.Field{Name: "x", VType: "int"})
	require.NoError(t, err)
	size, err := value.NewTClass("size", &value.Field{Name: "w", VType: "int"})
	require.NoError(t, err)
	require.NoError(t, shapes.AddTClass(point))
	require.NoError(t, shapes.AddTClass(size))

	opts := Options{
		ReplaceImports: true,
		Importer: func(target string, lino int) (*value.Document, error) {
			return shapes, nil
		},
	}
	doc, warnings, err := parseText(t, "uxf 1.0\n!shapes.uxf\n(point 1)\n", opts)
	require.NoError(t, err)
	require.Empty(t, warnings)
	assert.Empty(t, doc.ImportSources(), "imports are cleared")
	require.Len(t, doc.TClasses(), 1, "unused imported ttypes are dropped")
	assert.Equal(t, "point", doc.TClasses()[0].TType())
}

func TestParseScalarAtTopLevelWarns(t *testing.T) {
	t.Parallel()
	_, warnings, err := parseText(t, "uxf 1.0\n1\n[]\n", Options{})
	require.NoError(t, err)
	assert.Contains(t, warnCodes(warnings), 402)
}
