package imageprint

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})
	img.Set(1, 0, color.RGBA{10, 10, 10, 255})
	img.Set(0, 1, color.RGBA{255, 0, 0, 255})
	// (2, 0), (1, 1) and (2, 1) stay transparent.
	return img
}

func TestPrintNoColor(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf, Mode: NoColor}
	require.NoError(t, p.Print(testImage()))

	assert.Equal(t, "##..  \n==    \n", buf.String())
}

func TestPrintNoColorBlanks(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf, Mode: NoColor, Blanks: true}
	require.NoError(t, p.Print(testImage()))

	assert.Equal(t, "      \n      \n", buf.String())
}

func TestPrintTrueColor(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf, Mode: TrueColor}
	require.NoError(t, p.Print(testImage()))

	out := buf.String()
	assert.Contains(t, out, "\x1b[48;2;255;255;255m##\x1b[0m")
	assert.Contains(t, out, "\x1b[48;2;255;0;0m==\x1b[0m")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestPrintITerm(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf, Mode: ITerm}
	require.NoError(t, p.Print(testImage()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\n\033]1337;File=name="), "got %q", out)
	assert.Contains(t, out, ";width=3px;height=2px:")
	assert.True(t, strings.HasSuffix(out, "\a\n"))
}
