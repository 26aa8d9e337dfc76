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

//go:build windows || wasm

package mmapbloom

import "os"

// flockFile is a no-op on platforms without a portable advisory whole-file
// lock in golang.org/x/sys; want_lock degrades to "no coarse-grained
// serialization" rather than failing the open.
func flockFile(f *os.File, exclusive bool) error {
	return nil
}

func funlockFile(f *os.File) error {
	return nil
}
