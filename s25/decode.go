package s25

// This file contains the row-by-row run decoder for entry pixel data.

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Run methods, from the top three bits of a run header.
const (
	runBGR      = 2 // count x (B, G, R)
	runBGRFill  = 3 // one (B, G, R) repeated count times
	runABGR     = 4 // count x (A, B, G, R)
	runABGRFill = 5 // one (A, B, G, R) repeated count times
	// Every other method leaves count pixels transparent.
)

// LoadImage decodes entry into a newly allocated RGBA image.
//
// Out-of-range indices fail with ErrNoEntry, empty directory slots with
// ErrAbsentEntry, incrementally encoded entries with
// ErrUnsupportedFileFormat and inconsistent data with ErrInvalidArchive. A
// failure affects only the requested entry.
func (a *Archive) LoadImage(entry int) (*Image, error) {
	data, off, err := a.lookup(entry)
	if err != nil {
		return nil, err
	}
	md, err := readMetadata(data, off, entry)
	if err != nil {
		return nil, err
	}
	if md.Incremental {
		return nil, errors.Wrapf(ErrUnsupportedFileFormat, "entry %d: incremental encoding", entry)
	}

	// Resolve every row before allocating, so a truncated entry cannot
	// claim a large buffer.
	rows, err := rowTable(data, md)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %d", entry)
	}
	img := newImage(md)
	if err := decodeRows(rows, md.Width, img.rgba.Pix); err != nil {
		return nil, errors.Wrapf(err, "entry %d", entry)
	}
	return img, nil
}

// rowTable returns the run data of each of the entry's rows, checking the
// row table and every row against the file.
func rowTable(data []byte, md Metadata) ([][]byte, error) {
	if md.Height == 0 {
		return nil, nil
	}
	if int64(md.rows)+4*int64(md.Height) > int64(len(data)) {
		return nil, errors.Wrapf(ErrInvalidArchive, "row table of %d rows at %#x truncated", md.Height, md.rows)
	}

	rows := make([][]byte, md.Height)
	for y := range rows {
		rowOff := binary.LittleEndian.Uint32(data[md.rows+4*y:])
		src, err := rowData(data, rowOff)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", y)
		}
		rows[y] = src
	}
	return rows, nil
}

// decodeRows fills pix, which must be width*len(rows)*4 bytes, one row of
// rows at a time. Each row starts at its own line of pix: runs that stop
// short of the width leave the rest of that line transparent rather than
// shifting the following rows.
func decodeRows(rows [][]byte, width int, pix []byte) error {
	stride := width * 4
	for y, src := range rows {
		if err := decodeRow(src, pix[y*stride:(y+1)*stride]); err != nil {
			return errors.Wrapf(err, "row %d", y)
		}
	}
	return nil
}

// rowData returns the run data of the row stored at off.
func rowData(data []byte, off uint32) ([]byte, error) {
	pos := int64(off)
	if pos+2 > int64(len(data)) {
		return nil, errors.Wrapf(ErrInvalidArchive, "row header at %#x outside file of %d bytes", off, len(data))
	}
	n := int64(binary.LittleEndian.Uint16(data[pos:]))
	pos += 2

	// Rows at odd offsets carry a pad byte so the runs start on an even
	// file position.
	if off&1 != 0 {
		pos++
		n &^= 1
	}

	if pos+n > int64(len(data)) {
		return nil, errors.Wrapf(ErrInvalidArchive, "row data of %d bytes at %#x outside file of %d bytes", n, pos, len(data))
	}
	return data[pos : pos+n], nil
}

// decodeRow decodes one row of runs from src into dst, whose length fixes
// the row width. Pixels not covered by a run stay transparent black.
func decodeRow(src, dst []byte) error {
	remaining := len(dst) / 4
	px, i := 0, 0

	for remaining > 0 && i < len(src) {
		// Run headers are 16-bit aligned.
		i += i & 1
		if i+2 > len(src) {
			break
		}
		h := binary.LittleEndian.Uint16(src[i:])
		i += 2

		method := h >> 13
		i += int((h >> 11) & 0x03)

		count := int(h & 0x7ff)
		if count == 0 {
			if i+4 > len(src) {
				return errors.Wrapf(ErrInvalidArchive, "extended run length at byte %d truncated", i)
			}
			ext := int32(binary.LittleEndian.Uint32(src[i:]))
			i += 4
			if ext < 0 {
				return errors.Wrapf(ErrInvalidArchive, "negative run length %d", ext)
			}
			count = int(ext)
		}
		if count > remaining {
			count = remaining
		}
		remaining -= count

		switch method {
		case runBGR:
			if i+3*count > len(src) {
				return errors.Wrapf(ErrInvalidArchive, "%d BGR pixels at byte %d overrun row of %d bytes", count, i, len(src))
			}
			for k := 0; k < count; k++ {
				dst[px+0] = src[i+2]
				dst[px+1] = src[i+1]
				dst[px+2] = src[i+0]
				dst[px+3] = 0xff
				i += 3
				px += 4
			}
		case runBGRFill:
			if i+3 > len(src) {
				return errors.Wrapf(ErrInvalidArchive, "BGR fill at byte %d overruns row of %d bytes", i, len(src))
			}
			b, g, r := src[i], src[i+1], src[i+2]
			i += 3
			px = fill(dst, px, count, r, g, b, 0xff)
		case runABGR:
			if i+4*count > len(src) {
				return errors.Wrapf(ErrInvalidArchive, "%d ABGR pixels at byte %d overrun row of %d bytes", count, i, len(src))
			}
			for k := 0; k < count; k++ {
				dst[px+0] = src[i+3]
				dst[px+1] = src[i+2]
				dst[px+2] = src[i+1]
				dst[px+3] = src[i+0]
				i += 4
				px += 4
			}
		case runABGRFill:
			if i+4 > len(src) {
				return errors.Wrapf(ErrInvalidArchive, "ABGR fill at byte %d overruns row of %d bytes", i, len(src))
			}
			a, b, g, r := src[i], src[i+1], src[i+2], src[i+3]
			i += 4
			px = fill(dst, px, count, r, g, b, a)
		default:
			px += 4 * count
		}
	}
	return nil
}

func fill(dst []byte, px, count int, r, g, b, a uint8) int {
	for k := 0; k < count; k++ {
		dst[px+0] = r
		dst[px+1] = g
		dst[px+2] = b
		dst[px+3] = a
		px += 4
	}
	return px
}
