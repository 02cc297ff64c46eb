package ttesting

// This file assembles synthetic .s25 archives for tests. It only covers what
// tests need and is not a general purpose writer.

import (
	"bytes"
	"encoding/binary"
)

// Run is one run of a row. Count above 0x7ff, or Extended, is stored as a
// 32-bit extended count.
type Run struct {
	Method   uint8
	Count    int
	Skip     int // filler bytes between header and payload, 0-3
	Extended bool
	Data     []byte
}

// Transparent leaves count pixels untouched.
func Transparent(count int) Run {
	return Run{Method: 0, Count: count}
}

// FillRGB repeats one opaque colour count times.
func FillRGB(count int, r, g, b uint8) Run {
	return Run{Method: 3, Count: count, Data: []byte{b, g, r}}
}

// FillRGBA repeats one colour with alpha count times.
func FillRGBA(count int, r, g, b, a uint8) Run {
	return Run{Method: 5, Count: count, Data: []byte{a, b, g, r}}
}

// PixelsRGB stores opaque pixels given as consecutive R, G, B triplets.
func PixelsRGB(rgb ...uint8) Run {
	data := make([]byte, 0, len(rgb))
	for i := 0; i+2 < len(rgb); i += 3 {
		data = append(data, rgb[i+2], rgb[i+1], rgb[i])
	}
	return Run{Method: 2, Count: len(rgb) / 3, Data: data}
}

// PixelsRGBA stores pixels given as consecutive R, G, B, A quadruplets.
func PixelsRGBA(rgba ...uint8) Run {
	data := make([]byte, 0, len(rgba))
	for i := 0; i+3 < len(rgba); i += 4 {
		data = append(data, rgba[i+3], rgba[i+2], rgba[i+1], rgba[i])
	}
	return Run{Method: 4, Count: len(rgba) / 4, Data: data}
}

// Entry describes one image. Rows normally has Height elements.
type Entry struct {
	Width, Height int32
	X, Y          int32
	Flags         uint32
	Rows          [][]Run

	// OddRows places every row at an odd file offset, which the format
	// marks with a pad byte after the row length.
	OddRows bool
}

// SolidEntry is a width x height entry filled with one opaque colour.
func SolidEntry(width, height, x, y int32, r, g, b uint8) *Entry {
	e := &Entry{Width: width, Height: height, X: x, Y: y}
	for i := int32(0); i < height; i++ {
		e.Rows = append(e.Rows, []Run{FillRGB(int(width), r, g, b)})
	}
	return e
}

// ArchiveBuilder collects entries; a nil entry is an absent directory slot.
type ArchiveBuilder struct {
	Entries []*Entry
}

// Add appends e and returns its entry index.
func (b *ArchiveBuilder) Add(e *Entry) int {
	b.Entries = append(b.Entries, e)
	return len(b.Entries) - 1
}

// AddAbsent appends n absent slots.
func (b *ArchiveBuilder) AddAbsent(n int) {
	for i := 0; i < n; i++ {
		b.Entries = append(b.Entries, nil)
	}
}

// Bytes lays out the archive.
func (b *ArchiveBuilder) Bytes() []byte {
	le := binary.LittleEndian
	buf := &bytes.Buffer{}
	buf.WriteString("S25\x00")
	binary.Write(buf, le, int32(len(b.Entries)))
	buf.Write(make([]byte, 4*len(b.Entries)))

	offsets := make([]uint32, len(b.Entries))
	type patch struct{ at, val int }
	var rowPatches []patch

	for i, e := range b.Entries {
		if e == nil {
			continue
		}
		if buf.Len()%2 == 1 {
			buf.WriteByte(0)
		}
		offsets[i] = uint32(buf.Len())
		binary.Write(buf, le, []int32{e.Width, e.Height, e.X, e.Y})
		binary.Write(buf, le, e.Flags)

		table := buf.Len()
		buf.Write(make([]byte, 4*len(e.Rows)))

		for y, row := range e.Rows {
			if (buf.Len()%2 == 1) != e.OddRows {
				buf.WriteByte(0)
			}
			off := buf.Len()
			data := encodeRow(row)
			if off%2 == 1 && len(data)%2 == 1 {
				data = append(data, 0)
			}
			binary.Write(buf, le, uint16(len(data)))
			if off%2 == 1 {
				buf.WriteByte(0)
			}
			buf.Write(data)
			rowPatches = append(rowPatches, patch{table + 4*y, off})
		}
	}

	out := buf.Bytes()
	for i, off := range offsets {
		le.PutUint32(out[8+4*i:], off)
	}
	for _, p := range rowPatches {
		le.PutUint32(out[p.at:], uint32(p.val))
	}
	return out
}

func encodeRow(runs []Run) []byte {
	var data []byte
	for _, r := range runs {
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
		count := r.Count
		extended := r.Extended || count > 0x7ff || count == 0
		if extended {
			count = 0
		}
		h := uint16(r.Method&0x07)<<13 | uint16(r.Skip&0x03)<<11 | uint16(count)
		data = binary.LittleEndian.AppendUint16(data, h)
		data = append(data, make([]byte, r.Skip&0x03)...)
		if extended {
			data = binary.LittleEndian.AppendUint32(data, uint32(int32(r.Count)))
		}
		data = append(data, r.Data...)
	}
	return data
}
