package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-s25/compositor"
	"badc0de.net/pkg/go-s25/imageprint"
)

func out(img image.Image) error {
	if *scale > 1 {
		img = compositor.Scale(img, *scale)
	}

	if *pngPath != "" {
		return writePNG(img, *pngPath)
	}
	if *asDataURL {
		u, err := compositor.DataURL(img)
		if err != nil {
			return err
		}
		fmt.Println(u)
		return nil
	}

	if *downsize {
		img = fitTerminal(img, *rasterm || *iterm)
	}

	p := &imageprint.Printer{W: os.Stdout, Mode: printMode(), Blanks: *blanks}
	return p.Print(img)
}

func printMode() imageprint.Mode {
	switch {
	case *rasterm:
		return imageprint.RasTerm
	case !*col:
		return imageprint.NoColor
	case *iterm:
		return imageprint.ITerm
	case *col256:
		return imageprint.Color256
	}
	return imageprint.TrueColor
}

// fitTerminal shrinks img to half the terminal. graphics says whether the
// image will be drawn as pixels rather than character cells.
func fitTerminal(img image.Image, graphics bool) image.Image {
	termSize, err := GetTermSize()
	if err != nil {
		return img
	}
	if termSize.WSXPixel != 0 && termSize.WSYPixel != 0 && graphics {
		// Prefer native pixel size when the terminal draws real images.
		return resize.Thumbnail(termSize.WSXPixel/2, termSize.WSYPixel/2, img, resize.Lanczos3)
	}
	// Each cell is two characters wide.
	return resize.Thumbnail(termSize.WSCol/2, termSize.WSRow, img, resize.Lanczos3)
}

func writePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating png")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrap(err, "encoding png")
	}
	return f.Close()
}
