// Command s25view is an interactive viewer for layered .s25 archives.
//
// Up and Down pick a layer, Left and Right step through its variants
// (including no selection), Backspace clears the layer and Escape quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"strings"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"badc0de.net/pkg/go-s25/compositor"
	"badc0de.net/pkg/go-s25/layers"
	"badc0de.net/pkg/go-s25/paths"
	"badc0de.net/pkg/go-s25/s25"
)

const (
	ScreenWidth  = 1024
	ScreenHeight = 768
)

var (
	layerSel = flag.String("layers", "", "initial layer:variant pairs; defaults to the first variant of layer 0")
	zoom     = flag.Int("zoom", 2, "integer zoom factor")

	archivePath string
)

var background = color.RGBA{40, 40, 48, 255}

type viewer struct {
	a     *s25.Archive
	st    *layers.Stack
	layer int

	img    *ebiten.Image
	errs   []string
	redraw bool
}

func newViewer(a *s25.Archive, sel map[int]s25.Variant) (*viewer, error) {
	v := &viewer{a: a, st: layers.New(a), redraw: true}
	if len(sel) == 0 && v.st.Len() > 0 {
		sel = map[int]s25.Variant{0: nextVariant(a, 0, s25.NoVariant, 1)}
	}
	if err := v.st.SetAll(sel); err != nil {
		return nil, err
	}
	return v, nil
}

// nextVariant steps from cur to the next present variant of layer in
// direction dir, passing through NoVariant between the last and the first.
func nextVariant(a *s25.Archive, layer int, cur s25.Variant, dir int) s25.Variant {
	choices := []s25.Variant{s25.NoVariant}
	for n := 0; n < s25.VariantsPerLayer; n++ {
		if a.HasEntry(s25.EntryIndex(layer, n)) {
			choices = append(choices, s25.VariantOf(n))
		}
	}
	at := 0
	for i, c := range choices {
		if c == cur {
			at = i
		}
	}
	at = (at + dir + len(choices)) % len(choices)
	return choices[at]
}

func (v *viewer) Update() error {
	n := v.st.Len()
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case n == 0:
		return nil
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		v.layer = (v.layer + n - 1) % n
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		v.layer = (v.layer + 1) % n
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		v.set(nextVariant(v.a, v.layer, v.st.Variant(v.layer), -1))
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		v.set(nextVariant(v.a, v.layer, v.st.Variant(v.layer), 1))
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		v.set(s25.NoVariant)
	}

	if v.redraw {
		v.redraw = false
		return v.compose()
	}
	return nil
}

func (v *viewer) set(variant s25.Variant) {
	if err := v.st.Set(v.layer, variant); err != nil {
		glog.Errorf("%v", err)
		return
	}
	v.redraw = true
}

func (v *viewer) compose() error {
	ls, err := v.st.Load(context.Background())
	if err != nil {
		return err
	}
	v.errs = v.errs[:0]
	for _, l := range ls {
		if !l.Valid() {
			v.errs = append(v.errs, l.Err.Error())
			glog.Warningf("%v", l.Err)
		}
	}

	img := compositor.CompositeLayers(ls)
	if img.Bounds().Empty() {
		v.img = nil
		return nil
	}
	v.img = ebiten.NewImageFromImage(img)
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	if v.img != nil {
		sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
		iw, ih := v.img.Bounds().Dx()*(*zoom), v.img.Bounds().Dy()*(*zoom)

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(float64(*zoom), float64(*zoom))
		op.GeoM.Translate(float64((sw-iw)/2), float64((sh-ih)/2))
		op.Filter = ebiten.FilterNearest
		screen.DrawImage(v.img, op)
	}

	ebitenutil.DebugPrintAt(screen, v.status(), 10, 8)
	if len(v.errs) > 0 {
		ebitenutil.DebugPrintAt(screen, strings.Join(v.errs, "\n"), 10, ScreenHeight-16*(len(v.errs)+1))
	}
}

func (v *viewer) status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d entries, %d layers\n", v.a.TotalEntries(), v.st.Len())
	for l := 0; l < v.st.Len(); l++ {
		cursor := "  "
		if l == v.layer {
			cursor = "> "
		}
		fmt.Fprintf(&b, "%slayer %d: %v\n", cursor, l, v.st.Variant(l))
	}
	return b.String()
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

func main() {
	paths.SetupFilePathFlag("archive.s25", "archive", &archivePath)
	flagutil.Parse()

	if archivePath == "" {
		glog.Exit("no archive found; pass -archive or set " + paths.EnvVar)
	}
	a, err := paths.OpenArchive(archivePath)
	if err != nil {
		glog.Exitf("opening archive: %v", err)
	}
	defer a.Close()

	sel, err := layers.ParseSelection(*layerSel)
	if err != nil {
		glog.Exit(err)
	}
	v, err := newViewer(a, sel)
	if err != nil {
		glog.Exit(err)
	}
	if *zoom < 1 {
		*zoom = 1
	}

	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle("s25view: " + archivePath)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(v); err != nil {
		glog.Exit(err)
	}
}
