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

// Command uxfcompare compares two UXF files for equality.
//
//	uxfcompare [-e|--equiv] file1.uxf file2.uxf
//
// By default the loaded documents must be deeply equal, including the
// custom tag, comments, ttypes, and imports; layout and map item order do
// not matter, and reals compare with a small tolerance.
// With --equiv they are compared for equivalence: unused ttypes are
// dropped and imports are replaced by the ttypes they define before
// comparing.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/uxflab/uxf"
	"github.com/uxflab/uxf/reporter"
	"github.com/uxflab/uxf/value"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("uxfcompare: ")

	var opts struct {
		Equivalent bool `short:"e" long:"equiv" description:"Compare for equivalence rather than equality"`
	}
	parser := flags.NewParser(&opts, flags.PassDoubleDash)
	parser.Usage = "[-e|--equiv] <file1.uxf> <file2.uxf>"
	args, err := parser.Parse()
	if err != nil {
		log.Fatal(err)
	}
	if len(args) != 2 {
		parser.WriteHelp(os.Stderr)
		os.Exit(2)
	}

	loadOpts := &uxf.Options{
		DropUnused:     opts.Equivalent,
		ReplaceImports: opts.Equivalent,
		Reporter:       reporter.Quiet(),
	}
	var docs [2]*value.Document
	var g errgroup.Group
	for i, filename := range args {
		i, filename := i, filename
		g.Go(func() error {
			doc, err := uxf.Load(filename, loadOpts)
			if err != nil {
				return fmt.Errorf("failed on %s: %w", filename, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	op := "!="
	if value.Equal(docs[0], docs[1], value.EqualOptions{}) {
		op = "=="
	}
	fmt.Printf("%s %s %s\n", args[0], op, args[1])
}
