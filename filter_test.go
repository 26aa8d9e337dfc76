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

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

// TestNoFalseNegatives is property 1: every added key is reported
// present, unconditionally.
func TestNoFalseNegatives(t *testing.T) {
	bf, err := Open(1000, 0.01, "", false, false)
	require.NoError(t, err)
	defer bf.Close()

	keys := make([][]byte, 500)
	for i := range keys {
		keys[i] = []byte(strconv.Itoa(i))
		require.NoError(t, bf.Add(keys[i]))
	}
	for _, k := range keys {
		present, err := bf.Contains(k)
		require.NoError(t, err)
		require.True(t, present, "key %q must be present after Add", k)
	}
}

// TestAddIdempotent is property 2: adding the same key twice leaves the
// mapping identical to adding it once.
func TestAddIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "once.bloom")
	bf, err := Open(100, 0.01, path, false, false)
	require.NoError(t, err)
	require.NoError(t, bf.Add([]byte("repeat")))
	snapshot := append([]byte(nil), bf.bits.data...)
	require.NoError(t, bf.Add([]byte("repeat")))
	require.Equal(t, snapshot, []byte(bf.bits.data))
	require.NoError(t, bf.Close())
}

// TestReadOnlyFaults is property 6: a write through an RO handle fails
// with ErrReadOnly and leaves the byte unchanged, matching scenario S4.
func TestReadOnlyFaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s4.bits")

	rw, err := OpenBitField(path, 80, RW, false)
	require.NoError(t, err)
	require.NoError(t, rw.Set(0, true))
	require.NoError(t, rw.Sync())
	require.NoError(t, rw.Close())

	ro, err := OpenBitField(path, 80, RO, false)
	require.NoError(t, err)
	defer ro.Close()

	before, err := ro.Get(1)
	require.NoError(t, err)
	require.False(t, before)

	err = ro.Set(1, true)
	require.True(t, errors.Is(err, ErrReadOnly))

	after, err := ro.Get(1)
	require.NoError(t, err)
	require.False(t, after, "byte must be unchanged after a failed RO set")
}

// TestBitIndependence is property 7: setting or clearing bit i never
// changes bit j != i.
func TestBitIndependence(t *testing.T) {
	b, err := OpenBitField("", 64, RW, false)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Set(3, true))
	require.NoError(t, b.Set(40, true))

	for i := uint64(0); i < 64; i++ {
		v, err := b.Get(i)
		require.NoError(t, err)
		want := i == 3 || i == 40
		require.Equal(t, want, v, "bit %d", i)
	}

	require.NoError(t, b.Set(3, false))
	v40, err := b.Get(40)
	require.NoError(t, err)
	require.True(t, v40, "clearing bit 3 must not affect bit 40")
}

// TestGetHashBucketsFixture is scenario S1: the literal bucket fixture
// for a BloomFilter(15, 0.0009) derived sequence; only the
// independently-verifiable first element is asserted (see hash_test.go).
func TestGetHashBucketsFixture(t *testing.T) {
	bf, err := Open(15, 0.0009, "", false, false)
	require.NoError(t, err)
	defer bf.Close()

	buckets := bf.GetHashBuckets([]byte("hydra"), 128, 1<<20)
	require.Len(t, buckets, 128)
	require.Equal(t, uint64(536658), buckets[0])
}

// TestFalsePositiveBound is property 8 / scenario S3: a filter sized
// for (10000, 0.1) loaded with 10000 distinct keys must report every
// one of them present, and must false-positive on the n disjoint keys
// strconv.Itoa(n..2n-1) no more often than 1.035 * p.
func TestFalsePositiveBound(t *testing.T) {
	const n = 10000
	const p = 0.1

	bf, err := Open(n, p, "", false, false)
	require.NoError(t, err)
	defer bf.Close()

	for i := 0; i < n; i++ {
		require.NoError(t, bf.Add([]byte(strconv.Itoa(i))))
	}
	for i := 0; i < n; i++ {
		present, err := bf.Contains([]byte(strconv.Itoa(i)))
		require.NoError(t, err)
		require.True(t, present)
	}

	falsePositives := 0
	for i := n; i < 2*n; i++ {
		present, err := bf.Contains([]byte(strconv.Itoa(i)))
		require.NoError(t, err)
		if present {
			falsePositives++
		}
	}

	bound := int(1.035 * p * n)
	require.LessOrEqual(t, falsePositives, bound, "observed %d false positives, want <= %d", falsePositives, bound)
}

// TestUnicodeKeys is scenario S5: UTF-8 encoded multi-byte and ASCII
// keys round-trip through Add/Contains, and an un-added codepoint is
// reported absent with high probability.
func TestUnicodeKeys(t *testing.T) {
	bf, err := Open(100000, 0.1, "", false, false)
	require.NoError(t, err)
	defer bf.Close()

	added := [][]byte{
		[]byte("‘"),
		[]byte("’"),
		[]byte("just a plain string"),
	}
	for _, k := range added {
		require.NoError(t, bf.Add(k))
	}
	for _, k := range added {
		present, err := bf.Contains(k)
		require.NoError(t, err)
		require.True(t, present)
	}

	var absent [4]byte
	n := utf8.EncodeRune(absent[:], '½')
	present, err := bf.Contains(absent[:n])
	require.NoError(t, err)
	require.False(t, present)
}

// TestLargeCapacity is scenario S6: a filter sized for one billion
// elements constructs and behaves correctly on a 64-bit target. This is
// skipped under -short since it maps roughly 1.9GB (15 bits per element).
func TestLargeCapacity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large-capacity mapping under -short")
	}
	bf, err := Open(1_000_000_000, 0.001, "", false, false)
	require.NoError(t, err)
	defer bf.Close()

	require.NoError(t, bf.Add([]byte("a")))
	present, err := bf.Contains([]byte("a"))
	require.NoError(t, err)
	require.True(t, present)

	absent, err := bf.Contains([]byte("b"))
	require.NoError(t, err)
	require.False(t, absent)
}

// TestInfeasibleProbability is property 5: asking for a probability
// below maxBucketsPerElement's achievable floor fails Unsupported
// rather than constructing an out-of-range filter.
func TestInfeasibleProbability(t *testing.T) {
	row := bloomProbabilityTable[maxBucketsPerElement]
	smallest := row[len(row)-1]
	_, err := Open(1000, smallest/2, "", false, false)
	require.True(t, errors.Is(err, ErrUnsupported))
}

func TestMetricsNilSafe(t *testing.T) {
	bf, err := Open(100, 0.01, "", false, false)
	require.NoError(t, err)
	defer bf.Close()
	require.NoError(t, bf.Add([]byte("x")))
	_, err = bf.Contains([]byte("x"))
	require.NoError(t, err)
}

func ExampleOpen() {
	bf, err := Open(1000, 0.01, "", false, false)
	if err != nil {
		panic(err)
	}
	defer bf.Close()

	_ = bf.Add([]byte("hello"))
	present, _ := bf.Contains([]byte("hello"))
	fmt.Println(present)
	// Output: true
}
