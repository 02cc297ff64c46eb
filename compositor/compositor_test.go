package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"badc0de.net/pkg/go-s25/layers"
	"badc0de.net/pkg/go-s25/s25"
	"badc0de.net/pkg/go-s25/ttesting"
)

// testImages decodes a 4x4 opaque base at (10, 20) and a 2x2 half
// transparent overlay at (12, 21).
func testImages(t *testing.T) []*s25.Image {
	t.Helper()
	b := &ttesting.ArchiveBuilder{}
	b.Add(ttesting.SolidEntry(4, 4, 10, 20, 0, 0, 255))
	b.Add(&ttesting.Entry{
		Width: 2, Height: 2, X: 12, Y: 21,
		Rows: [][]ttesting.Run{
			{ttesting.FillRGBA(2, 255, 0, 0, 255)},
			{ttesting.Transparent(1), ttesting.FillRGBA(1, 255, 0, 0, 255)},
		},
	})
	a, err := s25.NewArchive(b.Bytes())
	require.NoError(t, err)

	var imgs []*s25.Image
	for i := 0; i < a.TotalEntries(); i++ {
		img, err := a.LoadImage(i)
		require.NoError(t, err)
		imgs = append(imgs, img)
	}
	return imgs
}

func TestBounds(t *testing.T) {
	imgs := testImages(t)
	assert.Equal(t, image.Rect(10, 20, 14, 24), Bounds(imgs))
	assert.Equal(t, image.Rect(10, 20, 14, 24), Bounds([]*s25.Image{nil, imgs[0], nil}))
	assert.True(t, Bounds(nil).Empty())
}

func TestComposite(t *testing.T) {
	imgs := testImages(t)
	img := Composite(append(imgs, nil))

	require.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	blue := color.RGBA{0, 0, 255, 255}
	red := color.RGBA{255, 0, 0, 255}

	assert.Equal(t, blue, img.RGBAAt(0, 0))
	assert.Equal(t, red, img.RGBAAt(2, 1))
	assert.Equal(t, red, img.RGBAAt(3, 1))
	assert.Equal(t, blue, img.RGBAAt(2, 2), "transparent overlay pixel keeps the base")
	assert.Equal(t, red, img.RGBAAt(3, 2))
	assert.Equal(t, blue, img.RGBAAt(3, 3))
}

func TestCompositeLayers(t *testing.T) {
	imgs := testImages(t)
	ls := []layers.Layer{
		{Index: 0, Image: imgs[1]},
		{Index: 1},
	}
	img := CompositeLayers(ls)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 1))
}

func TestCompositeEmpty(t *testing.T) {
	img := Composite(nil)
	assert.True(t, img.Bounds().Empty())
}

func TestFrames(t *testing.T) {
	frames := Frames(testImages(t))
	require.Len(t, frames, 2)
	for _, fr := range frames {
		assert.Equal(t, image.Rect(0, 0, 4, 4), fr.Bounds())
	}
	_, _, _, a := frames[1].At(0, 0).RGBA()
	assert.Zero(t, a, "second frame only covers the overlay")
}

func TestScaleAndThumbnail(t *testing.T) {
	img := Composite(testImages(t))

	big := Scale(img, 3)
	assert.Equal(t, image.Rect(0, 0, 12, 12), big.Bounds())
	assert.Equal(t, img.RGBAAt(2, 1), big.RGBAAt(7, 4))

	assert.Equal(t, img.Bounds(), Scale(img, 0).Bounds())

	small := Thumbnail(big, 6, 6)
	assert.Equal(t, 6, small.Bounds().Dx())
	assert.Equal(t, 6, small.Bounds().Dy())
}

func TestEncodeGIF(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, EncodeGIF(buf, Frames(testImages(t)), 50))

	g, err := gif.DecodeAll(buf)
	require.NoError(t, err)
	assert.Len(t, g.Image, 2)
	assert.Equal(t, []int{50, 50}, g.Delay)
	assert.Equal(t, 4, g.Config.Width)

	assert.Error(t, EncodeGIF(&bytes.Buffer{}, nil, 10))
}

func TestDataURL(t *testing.T) {
	u, err := DataURL(Composite(testImages(t)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "data:image/png;base64,"), u)
}
