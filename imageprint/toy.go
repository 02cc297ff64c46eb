// Package imageprint prints images on a terminal.
//
// It is a debugging aid for looking at decoded entries and composites
// without leaving the shell.
package imageprint

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	ic "image/color"
	"image/png"
	"io"

	"github.com/gookit/color"
)

// Mode selects how pixels are drawn.
type Mode int

const (
	// NoColor draws shades with ASCII characters only.
	NoColor Mode = iota
	// Color256 draws coloured blocks using whatever palette the terminal
	// supports.
	Color256
	// TrueColor draws blocks with 24-bit background escapes.
	TrueColor
	// ITerm sends the image as an inline PNG (iTerm2, WezTerm).
	ITerm
	// RasTerm picks Kitty, iTerm or Sixel graphics depending on the
	// terminal, and prints nothing on terminals without graphics.
	RasTerm
)

// Printer writes images to W.
type Printer struct {
	W    io.Writer
	Mode Mode

	// Blanks prints coloured blanks instead of ASCII shading.
	Blanks bool
}

// Print draws img.
func (p *Printer) Print(img image.Image) error {
	switch p.Mode {
	case ITerm:
		return printITerm(p.W, img, "image.png")
	case RasTerm:
		return printRasTerm(p.W, img)
	}

	w := bufio.NewWriter(p.W)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p.shade(w, img.At(x, y))
		}
		if p.Mode != NoColor {
			fmt.Fprintf(w, "\x1b[0m")
		}
		fmt.Fprintf(w, "\n")
	}
	return w.Flush()
}

func (p *Printer) shade(w io.Writer, col ic.Color) {
	cR, cG, cB, cA := col.RGBA()
	if cA == 0 {
		if p.Mode == NoColor {
			fmt.Fprintf(w, "  ")
		} else {
			fmt.Fprintf(w, "\x1b[0m  ")
		}
		return
	}

	cell := "  "
	if !p.Blanks {
		a := ((cR + cG + cB) / 3) >> 8
		switch {
		case a < 32:
			cell = ".."
		case a < 64:
			cell = "--"
		case a < 128:
			cell = "=="
		default:
			cell = "##"
		}
	}

	switch p.Mode {
	case TrueColor:
		fmt.Fprintf(w, "\x1b[48;2;%d;%d;%dm%s\x1b[0m", uint8(cR>>8), uint8(cG>>8), uint8(cB>>8), cell)
	case Color256:
		fmt.Fprint(w, color.RGB(uint8(cR>>8), uint8(cG>>8), uint8(cB>>8), true).Sprint(cell))
	default:
		fmt.Fprint(w, cell)
	}
}

// printITerm draws an image using iTerm2's escape sequences.
//
// https://www.iterm2.com/documentation-images.html
func printITerm(w io.Writer, i image.Image, fn string) error {
	name := base64.StdEncoding.EncodeToString([]byte(fn))
	b := &bytes.Buffer{}
	bEnc := base64.NewEncoder(base64.StdEncoding, b)
	if err := png.Encode(bEnc, i); err != nil {
		return err
	}
	bEnc.Close()
	_, err := fmt.Fprintf(w, "\n\033]1337;File=name=%s;inline=1;size=%d;width=%dpx;height=%dpx:%s\a\n", name, b.Len(), i.Bounds().Dx(), i.Bounds().Dy(), b.String())
	return err
}
