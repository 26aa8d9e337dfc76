// Copyright 2024 The mmapbloom Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command mmapbloom creates, populates, and inspects persistent
// memory-mapped Bloom filters from the shell.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	sglog "github.com/sourcegraph/log"

	"github.com/sourcegraph/mmapbloom/bloomfile"
)

var version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `usage: mmapbloom <command> [flags]

commands:
  create   create a new filter and its descriptor
  add      add newline-delimited keys from stdin to an existing filter
  contains test newline-delimited keys from stdin against a filter
  stat     report a filter's size and load factor

`)
	flag.PrintDefaults()
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	liblog := sglog.Init(sglog.Resource{Name: "mmapbloom", Version: version})
	defer liblog.Sync()
	logger := sglog.Scoped("mmapbloom", "")

	var err error
	switch os.Args[1] {
	case "create":
		err = runCreate(os.Args[2:], logger)
	case "add":
		err = runAdd(os.Args[2:], logger)
	case "contains":
		err = runContains(os.Args[2:], logger)
	case "stat":
		err = runStat(os.Args[2:], logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("mmapbloom: " + err.Error())
	}
}

func runCreate(args []string, logger sglog.Logger) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	n := fs.Uint64("n", 0, "expected number of elements")
	p := fs.Float64("p", 0.01, "target false-positive probability")
	path := fs.String("path", "", "backing file path")
	ignoreCase := fs.Bool("ignore_case", false, "fold keys to lowercase before add/contains")
	fs.Parse(args)

	if *path == "" || *n == 0 {
		return fmt.Errorf("create requires -path and -n")
	}

	f, err := bloomfile.Writing(*n, *p, *path, *ignoreCase, false)
	if err != nil {
		return err
	}
	defer f.Close()

	logger.Info("created filter",
		sglog.String("path", *path),
		sglog.Int64("n", int64(*n)),
		sglog.String("p", fmt.Sprintf("%.8f", *p)),
	)
	return nil
}

func runAdd(args []string, logger sglog.Logger) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	path := fs.String("path", "", "backing file path")
	fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("add requires -path")
	}

	f, err := bloomfile.Updating(*path, true)
	if err != nil {
		return err
	}
	defer f.Close()

	added := 0
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := f.Add(scanner.Bytes()); err != nil {
			return err
		}
		added++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := f.Core().Sync(); err != nil {
		return err
	}
	logger.Info("added keys", sglog.String("path", *path), sglog.Int("count", added))
	return nil
}

func runContains(args []string, logger sglog.Logger) error {
	fs := flag.NewFlagSet("contains", flag.ExitOnError)
	path := fs.String("path", "", "backing file path")
	fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("contains requires -path")
	}

	f, err := bloomfile.Reading(*path, false)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		present, err := f.Contains(scanner.Bytes())
		if err != nil {
			return err
		}
		if present {
			fmt.Fprintln(w, "true")
		} else {
			fmt.Fprintln(w, "false")
		}
	}
	return scanner.Err()
}

func runStat(args []string, logger sglog.Logger) error {
	fs := flag.NewFlagSet("stat", flag.ExitOnError)
	path := fs.String("path", "", "backing file path")
	fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("stat requires -path")
	}

	f, err := bloomfile.Reading(*path, false)
	if err != nil {
		return err
	}
	defer f.Close()

	d := f.Descriptor()
	bits := f.Core().Len()
	spec := f.Core().Spec()
	setBits := f.Core().CountSetBits()
	load := float64(setBits) / float64(bits)

	fmt.Printf("path:                %s\n", *path)
	fmt.Printf("elements (declared): %s\n", humanize.Comma(int64(d.NumElements)))
	fmt.Printf("false-positive rate: %.8f\n", d.MaxFPProb)
	fmt.Printf("ignore_case:         %v\n", d.IgnoreCase)
	fmt.Printf("buckets/element:     %d\n", spec.BucketsPerElement)
	fmt.Printf("hash functions (K):  %d\n", spec.K)
	fmt.Printf("bit array size:      %s (%s bits)\n", humanize.Bytes((bits+7)/8), humanize.Comma(int64(bits)))
	fmt.Printf("load factor:         %.4f\n", load)
	return nil
}
