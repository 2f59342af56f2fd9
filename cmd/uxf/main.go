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

// Command uxf lints and reformats UXF files.
//
//	uxf [-l|--lint] [-d|--dropunused] [-r|--replaceimports] [-i|--indent=N]
//	    infile.uxf[.gz] [outfile.uxf[.gz]]
//
// With no outfile the infile is only linted. An outfile of - writes to
// stdout; a .gz suffix gzip-compresses the output. Converting uxf to uxf
// alphabetically orders ttypes while preserving import order.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/uxflab/uxf"
	"github.com/uxflab/uxf/reporter"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("uxf: ")

	var opts struct {
		Lint           bool `short:"l" long:"lint" description:"Show lint warnings"`
		DropUnused     bool `short:"d" long:"dropunused" description:"Drop unused imports and ttypes"`
		ReplaceImports bool `short:"r" long:"replaceimports" description:"Replace imports with their used ttypes"`
		Indent         int  `short:"i" long:"indent" default:"2" description:"Indent in spaces (0-8); out-of-range values become 2"`
		Help           bool `short:"h" long:"help" description:"Show this help"`
	}
	parser := flags.NewParser(&opts, flags.PassDoubleDash)
	parser.Usage = "[option...] <infile.uxf[.gz]> [<outfile.uxf[.gz]>]"
	args, err := parser.Parse()
	if err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if len(args) < 1 || len(args) > 2 {
		parser.WriteHelp(os.Stdout)
		os.Exit(2)
	}
	if opts.Indent < 0 || opts.Indent > 8 {
		opts.Indent = 2 // sanitize rather than complain
	}

	infile := args[0]
	outfile := ""
	if len(args) == 2 {
		outfile = args[1]
	}
	if outfile != "" && outfile != "-" && sameFile(infile, outfile) {
		log.Fatalf("won't overwrite %s", outfile)
	}

	rep := reporter.Quiet()
	if opts.Lint {
		rep = reporter.Stderr()
	}
	loadOpts := &uxf.Options{
		DropUnused:     opts.DropUnused,
		ReplaceImports: opts.ReplaceImports,
		Indent:         opts.Indent,
		Reporter:       rep,
	}
	doc, err := uxf.Load(infile, loadOpts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if outfile != "" {
		if err := uxf.Dump(outfile, doc, loadOpts); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func sameFile(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}
