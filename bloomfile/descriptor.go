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

// Package bloomfile wraps mmapbloom.BloomFilter with the external
// collaborators the core itself deliberately omits: the sidecar
// descriptor file that records a filter's construction parameters, and
// thin reading/updating/writing constructors that read or write it.
// It depends on mmapbloom; mmapbloom never imports it.
package bloomfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Descriptor records the parameters a Bloom filter was constructed
// with, persisted alongside the bit array so a later opener can
// reconstruct the same (bucketsPerElement, K) derivation without being
// told n and p again. It is exactly the three-line UTF-8 format
// hydra's WritingBloomFilter wrote: num_elements, max_fp_prob (8
// fractional digits), ignore_case (0 or 1).
type Descriptor struct {
	NumElements uint64
	MaxFPProb   float64
	IgnoreCase  bool
}

func descriptorPath(filterPath string) string {
	return filterPath + ".desc"
}

// ReadDescriptor reads the sidecar descriptor for the Bloom filter at
// filterPath (i.e. filterPath + ".desc").
func ReadDescriptor(filterPath string) (Descriptor, error) {
	f, err := os.Open(descriptorPath(filterPath))
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "bloomfile: open descriptor for %s", filterPath)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := make([]string, 0, 3)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return Descriptor{}, errors.Wrapf(err, "bloomfile: read descriptor for %s", filterPath)
	}
	if len(lines) != 3 {
		return Descriptor{}, fmt.Errorf("bloomfile: descriptor for %s has %d lines, want 3", filterPath, len(lines))
	}

	n, err := strconv.ParseUint(lines[0], 10, 64)
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "bloomfile: parse num_elements in descriptor for %s", filterPath)
	}
	p, err := strconv.ParseFloat(lines[1], 64)
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "bloomfile: parse max_fp_prob in descriptor for %s", filterPath)
	}
	ignoreCase, err := strconv.ParseUint(lines[2], 10, 8)
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "bloomfile: parse ignore_case in descriptor for %s", filterPath)
	}

	return Descriptor{NumElements: n, MaxFPProb: p, IgnoreCase: ignoreCase != 0}, nil
}

// WriteTo writes d as the sidecar descriptor for the Bloom filter at
// filterPath, overwriting any existing descriptor.
func (d Descriptor) WriteTo(filterPath string) error {
	f, err := os.Create(descriptorPath(filterPath))
	if err != nil {
		return errors.Wrapf(err, "bloomfile: create descriptor for %s", filterPath)
	}
	defer f.Close()

	ignoreCase := 0
	if d.IgnoreCase {
		ignoreCase = 1
	}
	if _, err := fmt.Fprintf(f, "%d\n%s\n%d\n", d.NumElements, strconv.FormatFloat(d.MaxFPProb, 'f', 8, 64), ignoreCase); err != nil {
		return errors.Wrapf(err, "bloomfile: write descriptor for %s", filterPath)
	}
	return nil
}
