package s25

// This file contains the decoded Image and the image package integration.
// Anything related to an archive holding multiple images lives in archive.go.

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"
)

func init() {
	image.RegisterFormat("s25", magic, Decode, DecodeConfig)
}

// Image is a decoded entry. It owns its pixels and stays valid after the
// archive it came from is closed.
//
// Image implements image.Image with bounds (0, 0)-(Width, Height); the
// placement offset is reported separately by Offset.
type Image struct {
	md   Metadata
	rgba *image.RGBA
}

func newImage(md Metadata) *Image {
	return &Image{
		md:   md,
		rgba: image.NewRGBA(image.Rect(0, 0, md.Width, md.Height)),
	}
}

// Size returns the image's width and height in pixels.
func (m *Image) Size() (width, height int) {
	return m.md.Width, m.md.Height
}

// Offset returns where the image is placed when compositing layers.
func (m *Image) Offset() (x, y int) {
	return m.md.OffsetX, m.md.OffsetY
}

// Metadata returns the entry header the image was decoded from.
func (m *Image) Metadata() Metadata {
	return m.md
}

// Pix returns the pixel buffer: RGBA byte order, row-major, no padding,
// Width*Height*4 bytes. The slice aliases the image.
func (m *Image) Pix() []byte {
	return m.rgba.Pix
}

// RGBA returns the pixels as an *image.RGBA sharing the same buffer.
func (m *Image) RGBA() *image.RGBA {
	return m.rgba
}

func (m *Image) ColorModel() color.Model { return color.RGBAModel }

func (m *Image) Bounds() image.Rectangle { return m.rgba.Rect }

func (m *Image) At(x, y int) color.Color { return m.rgba.At(x, y) }

// Decode returns the first present entry of an archive. It lets image.Decode
// open .s25 files; use Open or NewArchive to reach the other entries.
func Decode(r io.Reader) (image.Image, error) {
	a, entry, err := firstEntry(r)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	img, err := a.LoadImage(entry)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// DecodeConfig returns the size of the first present entry of an archive.
func DecodeConfig(r io.Reader) (image.Config, error) {
	a, entry, err := firstEntry(r)
	if err != nil {
		return image.Config{}, err
	}
	defer a.Close()

	md, err := a.LoadMetadata(entry)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{Width: md.Width, Height: md.Height, ColorModel: color.RGBAModel}, nil
}

func firstEntry(r io.Reader) (*Archive, int, error) {
	buf := bytes.Buffer{}
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, 0, &fileError{path: "<reader>", err: err}
	}
	a, err := NewArchive(buf.Bytes())
	if err != nil {
		return nil, 0, err
	}
	for i := 0; i < a.TotalEntries(); i++ {
		if a.HasEntry(i) {
			return a, i, nil
		}
	}
	return nil, 0, errors.Wrap(ErrAbsentEntry, "archive has no present entries")
}
