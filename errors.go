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

import "errors"

// Sentinel error kinds. Callers should compare with errors.Is; wrapped
// context (file names, indices, the offending probability) is appended
// with fmt.Errorf's %w where these are returned.
var (
	// ErrUnsupported is returned when a requested (bpe, p) pair falls
	// outside the feasible region of the probability table.
	ErrUnsupported = errors.New("mmapbloom: unsupported bucketsPerElement/false-positive-probability pair")

	// ErrOutOfBounds is returned when a bit index is >= the bit field's length.
	ErrOutOfBounds = errors.New("mmapbloom: bit index out of bounds")

	// ErrReadOnly is returned when a mutation is attempted on a bit field
	// opened in read-only mode.
	ErrReadOnly = errors.New("mmapbloom: write attempted on read-only bit field")
)
