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

package bloomfile

import (
	"bytes"

	"github.com/sourcegraph/mmapbloom"
)

// Filter composes a core mmapbloom.BloomFilter with its descriptor and
// an optional case-folding of keys. A Filter is byte-exact except for
// the IgnoreCase transform applied before every Add/Contains.
type Filter struct {
	core       *mmapbloom.BloomFilter
	descriptor Descriptor
}

func foldCase(ignoreCase bool, key []byte) []byte {
	if !ignoreCase {
		return key
	}
	return bytes.ToLower(key)
}

// Reading opens an existing filter read-only, reconstructing (n, p)
// from its sidecar descriptor.
func Reading(path string, wantLock bool) (*Filter, error) {
	d, err := ReadDescriptor(path)
	if err != nil {
		return nil, err
	}
	core, err := mmapbloom.Open(d.NumElements, d.MaxFPProb, path, true, wantLock)
	if err != nil {
		return nil, err
	}
	return &Filter{core: core, descriptor: d}, nil
}

// Updating opens an existing filter read-write, reconstructing (n, p)
// from its sidecar descriptor.
func Updating(path string, wantLock bool) (*Filter, error) {
	d, err := ReadDescriptor(path)
	if err != nil {
		return nil, err
	}
	core, err := mmapbloom.Open(d.NumElements, d.MaxFPProb, path, false, wantLock)
	if err != nil {
		return nil, err
	}
	return &Filter{core: core, descriptor: d}, nil
}

// Writing creates a new filter sized for (n, p), writing its sidecar
// descriptor alongside path (skipped for an anonymous, path="" filter).
func Writing(n uint64, p float64, path string, ignoreCase bool, wantLock bool) (*Filter, error) {
	d := Descriptor{NumElements: n, MaxFPProb: p, IgnoreCase: ignoreCase}
	if path != "" {
		if err := d.WriteTo(path); err != nil {
			return nil, err
		}
	}
	core, err := mmapbloom.Open(n, p, path, false, wantLock)
	if err != nil {
		return nil, err
	}
	return &Filter{core: core, descriptor: d}, nil
}

// Add inserts key, case-folded first if the filter was opened with
// ignore_case set.
func (f *Filter) Add(key []byte) error {
	return f.core.Add(foldCase(f.descriptor.IgnoreCase, key))
}

// Contains reports membership of key, case-folded first if the filter
// was opened with ignore_case set.
func (f *Filter) Contains(key []byte) (bool, error) {
	return f.core.Contains(foldCase(f.descriptor.IgnoreCase, key))
}

// Descriptor returns the parameters this filter was constructed with.
func (f *Filter) Descriptor() Descriptor {
	return f.descriptor
}

// Core exposes the underlying mmapbloom.BloomFilter for callers that
// need its Len/Spec/Sync/SetMetrics surface directly.
func (f *Filter) Core() *mmapbloom.BloomFilter {
	return f.core
}

// Close releases the underlying filter's resources.
func (f *Filter) Close() error {
	return f.core.Close()
}
