package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
)

// EncodeGIF writes frames as a looping animated GIF, delay in 100ths of a
// second per frame. Palette index 0 is transparent.
func EncodeGIF(w io.Writer, frames []image.Image, delay int) error {
	if len(frames) == 0 {
		return errors.New("compositor: no frames to encode")
	}

	g := &gif.GIF{BackgroundIndex: 0}
	var bounds image.Rectangle
	q := quantize.MedianCutQuantizer{}
	for _, fr := range frames {
		b := fr.Bounds()
		bounds = bounds.Union(b)

		// Up to 255 colours plus one slot for transparency.
		pal := q.Quantize(make(color.Palette, 0, 255), fr)
		pm := image.NewPaletted(b, append(color.Palette{color.Transparent}, pal...))
		draw.Draw(pm, b, fr, b.Min, draw.Over)

		g.Image = append(g.Image, pm)
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	g.Config = image.Config{Width: bounds.Max.X, Height: bounds.Max.Y}

	return errors.Wrap(gif.EncodeAll(w, g), "compositor: encoding gif")
}

// DataURL returns img as a PNG data URL.
func DataURL(img image.Image) (string, error) {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return "", errors.Wrap(err, "compositor: encoding png")
	}
	byt, err := dataurl.New(buf.Bytes(), "image/png").MarshalText()
	if err != nil {
		return "", errors.Wrap(err, "compositor: encoding data url")
	}
	return string(byt), nil
}
