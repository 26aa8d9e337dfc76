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

// falsePositiveProbability is the standard asymptotic false-positive rate
// of a Bloom filter with bucketsPerElement bits allotted per inserted
// element and k independent hash functions.
func falsePositiveProbability(bucketsPerElement, k int) float64 {
	return math.Pow(1-math.Exp(-float64(k)/float64(bucketsPerElement)), float64(k))
}

// computeProbabilityTable builds bloomProbabilityTable: one row per
// bucketsPerElement in [minBucketsPerElement, maxBucketsPerElement], each
// row holding falsePositiveProbability(bpe, k) for k = 1, 2, ... up to
// (and not past) the k at which the probability stops decreasing. Rows
// are never empty: k=1 is always included regardless of monotonicity.
func computeProbabilityTable() map[int][]float64 {
	table := make(map[int][]float64, maxBucketsPerElement-minBucketsPerElement+1)
	for bpe := minBucketsPerElement; bpe <= maxBucketsPerElement; bpe++ {
		var row []float64
		prev := math.Inf(1)
		for k := minK; ; k++ {
			p := falsePositiveProbability(bpe, k)
			if k > minK && p >= prev {
				break
			}
			row = append(row, p)
			prev = p
		}
		table[bpe] = row
	}
	return table
}
