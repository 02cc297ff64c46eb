//go:build !go1.13 || windows
// +build !go1.13 windows

package imageprint

import (
	"fmt"
	"image"
	"io"
)

func printRasTerm(w io.Writer, i image.Image) error {
	_, err := fmt.Fprintf(w, "rasterm not supported below Go 1.13 or on windows\n")
	return err
}
