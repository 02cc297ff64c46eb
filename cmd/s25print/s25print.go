// Command s25print prints entries of an .s25 archive on the terminal, or
// writes them out as PNG, animated GIF or data URL.
//
// Examples:
//
//	s25print -archive face.s25 -list
//	s25print -archive face.s25 -entry 205
//	s25print -archive face.s25 -layers 0:1,2:5 -png out.png
//	s25print -archive face.s25 -gif_layer 2 -gif blink.gif
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/bradfitz/iter"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-s25/compositor"
	"badc0de.net/pkg/go-s25/layers"
	"badc0de.net/pkg/go-s25/paths"
	"badc0de.net/pkg/go-s25/s25"
)

var (
	entry     = flag.Int("entry", -1, "entry to print")
	layerSel  = flag.String("layers", "", "layer:variant pairs to composite and print, such as 0:1,2:5")
	list      = flag.Bool("list", false, "list the archive's entries instead of printing one")
	gifLayer  = flag.Int("gif_layer", -1, "layer whose variants are written as an animated GIF to -gif")
	gifPath   = flag.String("gif", "layer.gif", "where -gif_layer writes to")
	gifDelay  = flag.Int("gif_delay", 50, "delay between -gif_layer frames, in 100ths of a second")
	pngPath   = flag.String("png", "", "write the image to this PNG file instead of printing it")
	asDataURL = flag.Bool("dataurl", false, "print the image as a data URL instead of drawing it")

	col      = flag.Bool("col", true, "whether to use colors")
	col256   = flag.Bool("col256", false, "whether to use 256 col instead of 24 bit")
	iterm    = flag.Bool("iterm", false, "whether to print with iterm escape code instead of 24 bit")
	rasterm  = flag.Bool("rasterm", false, "whether to print with kitty, iterm or sixel graphics, whichever the terminal supports")
	blanks   = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")
	downsize = flag.Bool("downsize", true, "whether to shrink the image to fit the terminal")
	scale    = flag.Int("scale", 1, "integer factor to enlarge the image by before printing")

	archivePath string
)

func main() {
	paths.SetupFilePathFlag("archive.s25", "archive", &archivePath)
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	if err := run(); err != nil {
		glog.Exit(err)
	}
}

func run() error {
	if archivePath == "" {
		return errors.New("no archive found; pass -archive or set " + paths.EnvVar)
	}
	a, err := paths.OpenArchive(archivePath)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer a.Close()
	glog.V(1).Infof("%s: %d entries, %d layers", archivePath, a.TotalEntries(), a.TotalLayers())

	switch {
	case *list:
		return listEntries(os.Stdout, a)
	case *gifLayer >= 0:
		return writeLayerGIF(a, *gifLayer, *gifPath)
	case *entry >= 0:
		img, err := a.LoadImage(*entry)
		if err != nil {
			return err
		}
		return out(img)
	case *layerSel != "":
		img, err := composite(context.Background(), a, *layerSel)
		if err != nil {
			return err
		}
		return out(img)
	}
	return errors.New("nothing to do; pass -list, -entry, -layers or -gif_layer")
}

// listEntries prints one line per present entry.
func listEntries(w io.Writer, a *s25.Archive) error {
	fmt.Fprintf(w, "%d entries, %d layers\n", a.TotalEntries(), a.TotalLayers())
	for i := range iter.N(a.TotalEntries()) {
		if !a.HasEntry(i) {
			continue
		}
		fmt.Fprintf(w, "%6d  layer %3d variant %2d  ", i, i/s25.VariantsPerLayer, i%s25.VariantsPerLayer)
		md, err := a.LoadMetadata(i)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "%dx%d at (%d, %d)", md.Width, md.Height, md.OffsetX, md.OffsetY)
		if md.Incremental {
			fmt.Fprintf(w, " incremental")
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// composite decodes and composites the layers selected by sel. Layers that
// fail to decode are reported and left out.
func composite(ctx context.Context, a *s25.Archive, sel string) (image.Image, error) {
	picks, err := layers.ParseSelection(sel)
	if err != nil {
		return nil, err
	}
	st := layers.New(a)
	if err := st.SetAll(picks); err != nil {
		return nil, err
	}
	ls, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range ls {
		if !l.Valid() {
			glog.Warningf("%v", l.Err)
		}
	}

	img := compositor.CompositeLayers(ls)
	if img.Bounds().Empty() {
		return nil, errors.Errorf("selection %q has no images", sel)
	}
	return img, nil
}

// writeLayerGIF writes every present variant of layer as one animation frame.
func writeLayerGIF(a *s25.Archive, layer int, path string) error {
	var imgs []*s25.Image
	for v := range iter.N(s25.VariantsPerLayer) {
		img, err := a.LoadLayer(layer, s25.VariantOf(v))
		switch {
		case err == nil:
			imgs = append(imgs, img)
		case errors.Is(err, s25.ErrAbsentEntry), errors.Is(err, s25.ErrNoEntry):
		default:
			glog.Warningf("layer %d variant %d: %v", layer, v, err)
		}
	}
	if len(imgs) == 0 {
		return errors.Errorf("layer %d has no decodable variants", layer)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating gif")
	}
	if err := compositor.EncodeGIF(f, compositor.Frames(imgs), *gifDelay); err != nil {
		f.Close()
		return err
	}
	glog.Infof("wrote %d frames to %s", len(imgs), path)
	return f.Close()
}
