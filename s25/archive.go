package s25

// This file contains the archive container: the file header and the entry
// directory, and random access to entry headers.

import (
	"encoding/binary"
	"hash/crc32"
	"os"
	"sync"

	"github.com/pkg/errors"
)

const (
	magic           = "S25\x00"
	headerSize      = 8    // magic + entry count
	entryHeaderSize = 0x14 // width, height, x, y, flags

	incrementalFlag = 0x80000000

	// MaxDimension is the largest width or height an entry may declare.
	MaxDimension = 1 << 14
)

// Archive is an opened .s25 file.
//
// The whole file is held in memory and never modified, so LoadImage may be
// called from several goroutines at once.
type Archive struct {
	mu   sync.RWMutex
	data []byte // nil once closed

	entries []int32 // file offset of each entry; 0 if absent
	sig     uint32
}

// Metadata is the fixed header of a single entry.
type Metadata struct {
	Width, Height    int
	OffsetX, OffsetY int

	// Incremental entries are recognized but cannot be decoded.
	Incremental bool

	rows int // file offset of the row table
}

// Open reads the file at path and parses its header and entry directory.
//
// Failure to read the file is reported as ErrFileIO; a bad signature or a
// truncated directory as ErrInvalidArchive.
func Open(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &fileError{path: path, err: err}
	}
	return NewArchive(data)
}

// NewArchive parses an archive already loaded into memory. The archive takes
// ownership of data; the caller must not modify it afterwards.
func NewArchive(data []byte) (*Archive, error) {
	if len(data) < headerSize {
		return nil, errors.Wrapf(ErrInvalidArchive, "header truncated: got %d bytes, want at least %d", len(data), headerSize)
	}
	if string(data[:4]) != magic {
		return nil, errors.Wrapf(ErrInvalidArchive, "bad signature %q, want %q", data[:4], magic)
	}

	n := int32(binary.LittleEndian.Uint32(data[4:]))
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidArchive, "negative entry count %d", n)
	}
	dirEnd := int64(headerSize) + 4*int64(n)
	if dirEnd > int64(len(data)) {
		return nil, errors.Wrapf(ErrInvalidArchive, "directory truncated: %d entries need %d bytes, file has %d", n, dirEnd, len(data))
	}

	entries := make([]int32, n)
	for i := range entries {
		entries[i] = int32(binary.LittleEndian.Uint32(data[headerSize+4*i:]))
	}

	return &Archive{
		data:    data,
		entries: entries,
		sig:     crc32.ChecksumIEEE(data[4:dirEnd]),
	}, nil
}

// TotalEntries returns the number of directory slots, present or not.
func (a *Archive) TotalEntries() int {
	return len(a.entries)
}

// TotalLayers returns how many layers the entries are grouped into.
func (a *Archive) TotalLayers() int {
	return TotalLayers(len(a.entries))
}

// HasEntry reports whether entry is in range and present in the directory.
func (a *Archive) HasEntry(entry int) bool {
	return entry >= 0 && entry < len(a.entries) && a.entries[entry] != 0
}

// Signature is a checksum of the entry directory. Archives with different
// directories have, with high probability, different signatures.
func (a *Archive) Signature() uint32 {
	return a.sig
}

// Close releases the archive's backing buffer. Images decoded earlier remain
// valid. Close is idempotent.
func (a *Archive) Close() error {
	a.mu.Lock()
	a.data = nil
	a.mu.Unlock()
	return nil
}

// LoadMetadata returns the header of entry without decoding its pixels.
func (a *Archive) LoadMetadata(entry int) (Metadata, error) {
	data, off, err := a.lookup(entry)
	if err != nil {
		return Metadata{}, err
	}
	return readMetadata(data, off, entry)
}

func (a *Archive) bytes() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.data == nil {
		return nil, ErrClosed
	}
	return a.data, nil
}

// lookup resolves entry to the archive bytes and the entry's offset in them.
func (a *Archive) lookup(entry int) ([]byte, int, error) {
	data, err := a.bytes()
	if err != nil {
		return nil, 0, err
	}
	if entry < 0 || entry >= len(a.entries) {
		return nil, 0, errors.Wrapf(ErrNoEntry, "entry %d, archive has %d", entry, len(a.entries))
	}

	off := a.entries[entry]
	switch {
	case off == 0:
		return nil, 0, errors.Wrapf(ErrAbsentEntry, "entry %d", entry)
	case off < 0 || int64(off)+entryHeaderSize > int64(len(data)):
		return nil, 0, errors.Wrapf(ErrInvalidArchive, "entry %d: header at %#x outside file of %d bytes", entry, off, len(data))
	}
	return data, int(off), nil
}

func readMetadata(data []byte, off, entry int) (Metadata, error) {
	le := binary.LittleEndian
	h := data[off : off+entryHeaderSize]

	md := Metadata{
		Width:       int(int32(le.Uint32(h[0:]))),
		Height:      int(int32(le.Uint32(h[4:]))),
		OffsetX:     int(int32(le.Uint32(h[8:]))),
		OffsetY:     int(int32(le.Uint32(h[12:]))),
		Incremental: le.Uint32(h[16:])&incrementalFlag != 0,
		rows:        off + entryHeaderSize,
	}

	if md.Width < 0 || md.Height < 0 {
		return Metadata{}, errors.Wrapf(ErrInvalidArchive, "entry %d: negative size %dx%d", entry, md.Width, md.Height)
	}
	if md.Width > MaxDimension || md.Height > MaxDimension {
		return Metadata{}, errors.Wrapf(ErrInvalidArchive, "entry %d: size %dx%d exceeds %d", entry, md.Width, md.Height, MaxDimension)
	}
	return md, nil
}
