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

package mmapbloom

import "math"

// BloomFilter composes a BloomSpec, a memory-mapped bit field sized for
// n elements at bucketsPerElement bits each, and a hash-function count
// K. It exclusively owns its MMapBitField; closing the filter closes the
// field.
type BloomFilter struct {
	spec    BloomSpec
	bits    *MMapBitField
	metrics *Metrics
}

// feasibleBucketsPerElement returns the largest bucketsPerElement in
// [minBucketsPerElement, maxBucketsPerElement] such that n *
// bucketsPerElement does not overflow the bit index domain. On any
// realistic 64-bit target this is always maxBucketsPerElement; it only
// drops once n exceeds math.MaxUint64/maxBucketsPerElement, which no real
// capacity approaches. If no bucketsPerElement in the range fits,
// minBucketsPerElement is returned anyway.
func feasibleBucketsPerElement(n uint64) int {
	for bpe := maxBucketsPerElement; bpe >= minBucketsPerElement; bpe-- {
		if n == 0 || uint64(bpe) <= math.MaxUint64/n {
			return bpe
		}
	}
	return minBucketsPerElement
}

// Open creates or opens a persistent Bloom filter sized for n elements
// at false-positive probability p. path is the backing file; an empty
// path requests an anonymous, non-persistent mapping. readOnly opens an
// existing filter for membership tests only; wantLock requests an
// advisory whole-file lock held for the filter's lifetime.
//
// The largest feasible bucketsPerElement is chosen first, then the
// smallest (bucketsPerElement, K) meeting p is derived from the
// probability table, and the bit field is sized to n * bucketsPerElement
// bits.
func Open(n uint64, p float64, path string, readOnly bool, wantLock bool) (*BloomFilter, error) {
	bpe := feasibleBucketsPerElement(n)
	spec, err := ComputeBloomSpec2(bpe, p)
	if err != nil {
		return nil, err
	}

	m := n * uint64(spec.BucketsPerElement)
	mode := RW
	if readOnly {
		mode = RO
	}
	bits, err := OpenBitField(path, m, mode, wantLock)
	if err != nil {
		return nil, err
	}

	return &BloomFilter{spec: spec, bits: bits}, nil
}

// SetMetrics attaches an optional metrics collector; passing nil (the
// default after Open) disables instrumentation entirely at no cost.
func (f *BloomFilter) SetMetrics(m *Metrics) {
	f.metrics = m
}

// Spec returns the filter's derived (bucketsPerElement, K).
func (f *BloomFilter) Spec() BloomSpec {
	return f.spec
}

// Len returns the number of addressable bits backing the filter.
func (f *BloomFilter) Len() uint64 {
	return f.bits.Len()
}

// ReadOnly reports whether the filter was opened read-only.
func (f *BloomFilter) ReadOnly() bool {
	return f.bits.ReadOnly()
}

// CountSetBits returns how many of the filter's bits are set, for
// reporting the observed load factor (the `stat` CLI command's
// load-factor line is CountSetBits / Len).
func (f *BloomFilter) CountSetBits() uint64 {
	var n uint64
	f.bits.Iterate()(func(_ uint64, set bool) bool {
		if set {
			n++
		}
		return true
	})
	return n
}

// hashBuckets derives the filter's K bit indices for key.
func (f *BloomFilter) hashBuckets(key []byte) []uint64 {
	return GetHashBuckets(key, f.spec.K, f.bits.Len())
}

// GetHashBuckets exposes the raw double-hashed indices for an arbitrary
// count and modulus, independent of this filter's own K — used by tests
// and callers that want to inspect bucket derivation directly.
func (f *BloomFilter) GetHashBuckets(key []byte, count int, m uint64) []uint64 {
	return GetHashBuckets(key, count, m)
}

// Add inserts key: every one of its K bit positions is set. Adding the
// same key twice is a no-op past the first call (Set is itself
// idempotent per bit).
func (f *BloomFilter) Add(key []byte) error {
	for _, idx := range f.hashBuckets(key) {
		if err := f.bits.Set(idx, true); err != nil {
			return err
		}
	}
	if f.metrics != nil {
		f.metrics.observeAdd()
	}
	return nil
}

// Contains reports whether key's K bit positions are all set. A false
// result is certain; a true result is correct with probability at least
// 1 - p. Evaluation stops at the first cleared bit.
func (f *BloomFilter) Contains(key []byte) (bool, error) {
	present := true
	for _, idx := range f.hashBuckets(key) {
		set, err := f.bits.Get(idx)
		if err != nil {
			return false, err
		}
		if !set {
			present = false
			break
		}
	}
	if f.metrics != nil {
		f.metrics.observeContains(present)
	}
	return present, nil
}

// Sync flushes the underlying bit field to storage.
func (f *BloomFilter) Sync() error {
	return f.bits.Sync()
}

// Close releases the filter's bit field and, if held, its advisory
// lock.
func (f *BloomFilter) Close() error {
	return f.bits.Close()
}
