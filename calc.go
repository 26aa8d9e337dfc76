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

import "fmt"

// BloomSpec is the pair of parameters that fix a Bloom filter's shape:
// how many bits to allot per element, and how many hash functions (bucket
// derivations) to run per add/contains. Everything else — bit array size,
// hash count, expected false-positive rate — follows from (BucketsPerElement,
// K) and the element count.
type BloomSpec struct {
	BucketsPerElement int
	K                 int
}

const (
	minBucketsPerElement = 2
	maxBucketsPerElement = 20
	minK                 = 1
)

// bloomProbabilityTable[bpe] holds the false-positive probability for K =
// 1, 2, 3, ... in order, truncated at the row's local minimum (the point
// past which adding another hash function stops helping). Generated from
// the asymptotic false-positive formula (1 - e^(-k/bpe))^k for bpe in
// [2, 20]; see computeProbabilityTable in calc_gen.go for the generator
// and DESIGN.md for why this table is computed rather than hand-copied.
var bloomProbabilityTable = computeProbabilityTable()

// ProbabilityTable returns the false-positive probability for a
// (bucketsPerElement, k) pair that ComputeBloomSpec1/2 would have
// considered, primarily so callers can display or log the tradeoff a
// BloomSpec represents. ok is false if bucketsPerElement is outside
// [2, 20] or k is outside the row's computed range.
func ProbabilityTable(bucketsPerElement, k int) (p float64, ok bool) {
	row, exists := bloomProbabilityTable[bucketsPerElement]
	if !exists || k < minK || k > len(row) {
		return 0, false
	}
	return row[k-1], true
}

// ComputeBloomSpec1 returns the BloomSpec with the lowest attainable
// false-positive probability for a fixed bucketsPerElement, by scanning
// that row of the probability table for its minimum. It fails with
// ErrUnsupported if bucketsPerElement falls outside [2, 20].
func ComputeBloomSpec1(bucketsPerElement int) (BloomSpec, error) {
	row, ok := bloomProbabilityTable[bucketsPerElement]
	if !ok {
		return BloomSpec{}, fmt.Errorf("%w: bucketsPerElement %d outside [%d, %d]", ErrUnsupported, bucketsPerElement, minBucketsPerElement, maxBucketsPerElement)
	}
	bestK := 1
	bestP := row[0]
	for i, p := range row {
		if p < bestP {
			bestP = p
			bestK = i + 1
		}
	}
	return BloomSpec{BucketsPerElement: bucketsPerElement, K: bestK}, nil
}

// ComputeBloomSpec2 returns the smallest (bucketsPerElement, K) pair —
// smallest by bucketsPerElement first, then by K — with bucketsPerElement
// <= maxBpe whose false-positive probability is at most
// maxFalsePositiveProbability. It fails with ErrUnsupported if no row in
// [2, maxBpe] can meet the target, which happens when
// maxFalsePositiveProbability is smaller than every eligible row's
// minimum.
func ComputeBloomSpec2(maxBpe int, maxFalsePositiveProbability float64) (BloomSpec, error) {
	if maxBpe > maxBucketsPerElement {
		maxBpe = maxBucketsPerElement
	}
	for bpe := minBucketsPerElement; bpe <= maxBpe; bpe++ {
		row := bloomProbabilityTable[bpe]
		for i, p := range row {
			if p <= maxFalsePositiveProbability {
				return BloomSpec{BucketsPerElement: bpe, K: i + 1}, nil
			}
		}
	}
	return BloomSpec{}, fmt.Errorf("%w: no (bucketsPerElement, K) in [%d, %d] attains false-positive probability %g", ErrUnsupported, minBucketsPerElement, maxBpe, maxFalsePositiveProbability)
}
