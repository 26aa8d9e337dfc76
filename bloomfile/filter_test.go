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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWritingThenReadingRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.bloom")

	w, err := Writing(1000, 0.01, path, false, false)
	require.NoError(t, err)
	require.NoError(t, w.Add([]byte("alice")))
	require.NoError(t, w.Core().Sync())
	require.NoError(t, w.Close())

	r, err := Reading(path, false)
	require.NoError(t, err)
	defer r.Close()

	present, err := r.Contains([]byte("alice"))
	require.NoError(t, err)
	require.True(t, present)

	require.Equal(t, uint64(1000), r.Descriptor().NumElements)
	require.InDelta(t, 0.01, r.Descriptor().MaxFPProb, 1e-9)
}

func TestUpdatingReopensReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counters.bloom")

	w, err := Writing(500, 0.05, path, false, false)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	u, err := Updating(path, false)
	require.NoError(t, err)
	require.NoError(t, u.Add([]byte("second-writer")))
	require.NoError(t, u.Close())

	r, err := Reading(path, false)
	require.NoError(t, err)
	defer r.Close()
	present, err := r.Contains([]byte("second-writer"))
	require.NoError(t, err)
	require.True(t, present)
}

func TestIgnoreCaseFolding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folded.bloom")

	w, err := Writing(100, 0.01, path, true, false)
	require.NoError(t, err)
	require.NoError(t, w.Add([]byte("MixedCase")))
	require.NoError(t, w.Close())

	r, err := Reading(path, false)
	require.NoError(t, err)
	defer r.Close()

	present, err := r.Contains([]byte("mixedcase"))
	require.NoError(t, err)
	require.True(t, present, "ignore_case filters must match regardless of input case")
}

func TestDescriptorRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "desc-only.bloom")

	d := Descriptor{NumElements: 42, MaxFPProb: 0.00123456, IgnoreCase: true}
	require.NoError(t, d.WriteTo(path))

	got, err := ReadDescriptor(path)
	require.NoError(t, err)
	require.Equal(t, d.NumElements, got.NumElements)
	require.InDelta(t, d.MaxFPProb, got.MaxFPProb, 1e-9)
	require.Equal(t, d.IgnoreCase, got.IgnoreCase)
}

func TestAnonymousWritingSkipsDescriptor(t *testing.T) {
	w, err := Writing(100, 0.01, "", false, false)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add([]byte("x")))
	present, err := w.Contains([]byte("x"))
	require.NoError(t, err)
	require.True(t, present)

	_, statErr := os.Stat(descriptorPath(""))
	require.True(t, os.IsNotExist(statErr), "anonymous Writing must not write a descriptor")
}
