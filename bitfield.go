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
	"fmt"
	"log"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Mode selects read-only or read-write access for an MMapBitField.
type Mode int

const (
	// RW opens (creating if absent, extending if short) for reading and
	// writing.
	RW Mode = iota
	// RO opens for reading only; Set always fails with ErrReadOnly and the
	// mapping is protected at the OS level so a stray write faults.
	RO
)

// MMapBitField is a file-backed bit vector with O(1) random-access get/set,
// bounds checking, and read-only enforcement. Bit i lives in byte i>>3, bit
// position i&7, LSB-first within the byte; there is no header. A newly
// created backing file is zero-filled; any trailing bits in the last byte
// beyond bitLength-1 are padding and are never set by Set.
//
// MMapBitField exclusively owns its mapping and file handle: Close releases
// both, and a failed Open releases any partial resources before returning.
type MMapBitField struct {
	path      string
	file      *os.File
	data      mmap.MMap
	bitLength uint64
	readOnly  bool
	locked    bool
}

func byteLength(bitLength uint64) int64 {
	return int64((bitLength + 7) / 8)
}

// OpenBitField opens or creates the bit field backing path with room for at
// least bitLength bits. In RW mode the file is created if absent and
// extended (never shrunk) if shorter than required; in RO mode the file
// must already exist and be at least that large. If path is empty, an
// anonymous (non-persistent) backing file is used instead: hydra's original
// WritingBloomFilter(filename=None) permitted an in-memory filter, and this
// preserves that behavior by mapping an unlinked temporary file whose
// lifetime is the handle's.
func OpenBitField(path string, bitLength uint64, mode Mode, wantLock bool) (_ *MMapBitField, err error) {
	want := byteLength(bitLength)

	var f *os.File
	anonymous := path == ""
	if anonymous {
		if mode == RO {
			return nil, errors.New("mmapbloom: anonymous bit field cannot be opened read-only")
		}
		f, err = os.CreateTemp("", "mmapbloom-anon-*")
		if err != nil {
			return nil, errors.Wrap(err, "mmapbloom: create anonymous backing file")
		}
		// The directory entry is removed immediately; the open descriptor
		// keeps the underlying storage alive for the handle's lifetime,
		// the same "unlinked temp file" trick pybloomfiltermmap relied on
		// for its in-process filters.
		if rmErr := os.Remove(f.Name()); rmErr != nil {
			f.Close()
			return nil, errors.Wrap(rmErr, "mmapbloom: unlink anonymous backing file")
		}
	} else if mode == RW {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "mmapbloom: open %s for read-write", path)
		}
	} else {
		f, err = os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "mmapbloom: open %s read-only", path)
		}
	}

	defer func() {
		if err != nil && f != nil {
			f.Close()
		}
	}()

	fi, statErr := f.Stat()
	if statErr != nil {
		return nil, errors.Wrapf(statErr, "mmapbloom: stat %s", f.Name())
	}

	if fi.Size() < want {
		if mode == RO {
			return nil, fmt.Errorf("mmapbloom: %s is %d bytes, need %d for %d bits: %w", path, fi.Size(), want, bitLength, os.ErrInvalid)
		}
		if truncErr := f.Truncate(want); truncErr != nil {
			return nil, errors.Wrapf(truncErr, "mmapbloom: extend %s to %d bytes", f.Name(), want)
		}
	}
	// An existing file larger than the requested byteLength is left
	// untouched; only the first byteLength bytes are mapped.

	mmapMode := mmap.RDWR
	if mode == RO {
		mmapMode = mmap.RDONLY
	}
	data, mmapErr := mmap.MapRegion(f, int(want), mmapMode, 0, 0)
	if mmapErr != nil {
		return nil, errors.Wrapf(mmapErr, "mmapbloom: mmap %s", f.Name())
	}

	locked := false
	if wantLock {
		if lockErr := flockFile(f, mode == RW); lockErr != nil {
			data.Unmap()
			return nil, errors.Wrapf(lockErr, "mmapbloom: lock %s", f.Name())
		}
		locked = true
	}

	return &MMapBitField{
		path:      path,
		file:      f,
		data:      data,
		bitLength: bitLength,
		readOnly:  mode == RO,
		locked:    locked,
	}, nil
}

// Len returns the number of addressable bits.
func (b *MMapBitField) Len() uint64 {
	return b.bitLength
}

// ReadOnly reports whether the field was opened in RO mode.
func (b *MMapBitField) ReadOnly() bool {
	return b.readOnly
}

func (b *MMapBitField) checkBounds(i uint64) error {
	if i >= b.bitLength {
		return fmt.Errorf("%w: index %d, length %d", ErrOutOfBounds, i, b.bitLength)
	}
	return nil
}

// Get returns the value of bit i. It fails with ErrOutOfBounds if
// i >= Len().
func (b *MMapBitField) Get(i uint64) (bool, error) {
	if err := b.checkBounds(i); err != nil {
		return false, err
	}
	return b.data[i>>3]&(1<<(i&7)) != 0, nil
}

// Set sets bit i to v. It fails with ErrOutOfBounds if i >= Len(), and with
// ErrReadOnly if the field was opened RO. Set(i, true) is an unconditional
// OR with 1<<(i&7) on byte i>>3; Set(i, false) is an AND with the
// complement — both are idempotent, observable as a no-op when the bit
// already holds the requested value.
func (b *MMapBitField) Set(i uint64, v bool) error {
	if err := b.checkBounds(i); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("%w: %s", ErrReadOnly, b.path)
	}
	mask := byte(1 << (i & 7))
	if v {
		b.data[i>>3] |= mask
	} else {
		b.data[i>>3] &^= mask
	}
	return nil
}

// Iterate returns a function that, when called with yield, invokes yield(i,
// set) for every bit index in ascending order until yield returns false or
// every bit has been visited. This is the one explicit iterator the bit
// field exposes; there is no implicit range-over-field protocol.
func (b *MMapBitField) Iterate() func(yield func(i uint64, set bool) bool) {
	return func(yield func(i uint64, set bool) bool) {
		for i := uint64(0); i < b.bitLength; i++ {
			set := b.data[i>>3]&(1<<(i&7)) != 0
			if !yield(i, set) {
				return
			}
		}
	}
}

// Sync flushes the mapping to storage.
func (b *MMapBitField) Sync() error {
	if err := b.data.Flush(); err != nil {
		return errors.Wrapf(err, "mmapbloom: sync %s", b.path)
	}
	return nil
}

// Close unmaps the file and releases the file handle, releasing any
// advisory lock held.
func (b *MMapBitField) Close() error {
	var errs []error
	if b.locked {
		if err := funlockFile(b.file); err != nil {
			errs = append(errs, err)
		}
	}
	if err := b.data.Unmap(); err != nil {
		errs = append(errs, errors.Wrap(err, "mmapbloom: unmap"))
	}
	if err := b.file.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "mmapbloom: close file"))
	}
	if len(errs) > 0 {
		log.Printf("mmapbloom: close %s: %v", b.path, errs[0])
		return errs[0]
	}
	return nil
}
