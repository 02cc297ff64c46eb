// Package compositor paints decoded layer images into a single portrait.
//
// Images are placed at their own offsets and drawn in layer order, each over
// the ones before it. The canvas covers exactly the union of the placed
// images, so its top-left corner is Bounds(imgs).Min in archive coordinates.
package compositor

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"

	"badc0de.net/pkg/go-s25/layers"
	"badc0de.net/pkg/go-s25/s25"
)

// placement is where m lands in archive coordinates.
func placement(m *s25.Image) image.Rectangle {
	x, y := m.Offset()
	return m.Bounds().Add(image.Pt(x, y))
}

// Bounds returns the union of the placed rectangles of imgs. nil images are
// ignored.
func Bounds(imgs []*s25.Image) image.Rectangle {
	var r image.Rectangle
	for _, m := range imgs {
		if m == nil {
			continue
		}
		r = r.Union(placement(m))
	}
	return r
}

// Composite draws imgs in order onto a new canvas of Bounds(imgs) size.
func Composite(imgs []*s25.Image) *image.RGBA {
	b := Bounds(imgs)
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for _, m := range imgs {
		if m == nil {
			continue
		}
		draw.Draw(canvas, placement(m).Sub(b.Min), m.RGBA(), image.Point{}, draw.Over)
	}
	return canvas
}

// CompositeLayers composites the decoded images of ls.
func CompositeLayers(ls []layers.Layer) *image.RGBA {
	return Composite(layers.Images(ls))
}

// Frames places each image alone on a canvas covering all of them, so the
// results line up as frames of an animation.
func Frames(imgs []*s25.Image) []image.Image {
	b := Bounds(imgs)
	var frames []image.Image
	for _, m := range imgs {
		if m == nil {
			continue
		}
		canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(canvas, placement(m).Sub(b.Min), m.RGBA(), image.Point{}, draw.Src)
		frames = append(frames, canvas)
	}
	return frames
}

// Scale enlarges img by an integer factor without smoothing.
func Scale(img image.Image, factor int) *image.RGBA {
	if factor < 1 {
		factor = 1
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Thumbnail shrinks img to fit maxWidth x maxHeight, keeping the aspect
// ratio. Images that already fit are returned as they are.
func Thumbnail(img image.Image, maxWidth, maxHeight uint) image.Image {
	return resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
}
