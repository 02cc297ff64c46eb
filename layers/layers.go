// Package layers keeps the per-layer variant selection of a portrait and
// decodes the selected images.
//
// Each layer of an archive has at most one selected variant. Layers with no
// selection contribute nothing and are never decoded.
package layers

import (
	"context"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-s25/s25"
)

// Source is what a Stack decodes from; *s25.Archive implements it.
type Source interface {
	TotalEntries() int
	LoadImage(entry int) (*s25.Image, error)
}

// Stack is the selection state for one archive. It is not safe for
// concurrent modification.
type Stack struct {
	src   Source
	picks []s25.Variant
}

// New returns a stack with nothing selected on any layer.
func New(src Source) *Stack {
	return &Stack{
		src:   src,
		picks: make([]s25.Variant, s25.TotalLayers(src.TotalEntries())),
	}
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	return len(s.picks)
}

// Variant returns the selection for layer, or NoVariant if layer is out of
// range.
func (s *Stack) Variant(layer int) s25.Variant {
	if layer < 0 || layer >= len(s.picks) {
		return s25.NoVariant
	}
	return s.picks[layer]
}

// Set selects v on layer.
func (s *Stack) Set(layer int, v s25.Variant) error {
	if layer < 0 || layer >= len(s.picks) {
		return errors.Errorf("layer %d out of range [0, %d)", layer, len(s.picks))
	}
	if !v.Valid() {
		return errors.Errorf("layer %d: variant %v out of range [0, %d)", layer, v, s25.VariantsPerLayer)
	}
	s.picks[layer] = v
	return nil
}

// Clear removes the selection on layer.
func (s *Stack) Clear(layer int) error {
	return s.Set(layer, s25.NoVariant)
}

// SetAll applies every selection in sel, stopping at the first invalid one.
func (s *Stack) SetAll(sel map[int]s25.Variant) error {
	for layer, v := range sel {
		if err := s.Set(layer, v); err != nil {
			return err
		}
	}
	return nil
}

// Layer is the outcome of loading one layer.
type Layer struct {
	Index   int
	Variant s25.Variant
	Entry   int // -1 when nothing is selected

	Image *s25.Image // nil when nothing is selected or loading failed
	Err   error
}

// Valid reports whether the layer is drawable as selected: either an image
// was decoded or nothing was selected.
func (l Layer) Valid() bool {
	return l.Err == nil
}

// Absent reports whether the selected entry is missing from the archive.
func (l Layer) Absent() bool {
	return errors.Is(l.Err, s25.ErrAbsentEntry)
}

// Load decodes the selected variant of every layer, in parallel. A failing
// layer records its error and does not affect the others; the returned error
// is non-nil only if ctx is done first.
func (s *Stack) Load(ctx context.Context) ([]Layer, error) {
	out := make([]Layer, len(s.picks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, v := range s.picks {
		out[i] = Layer{Index: i, Variant: v, Entry: -1}
		n, ok := v.Get()
		if !ok {
			continue
		}
		entry := s25.EntryIndex(i, n)
		out[i].Entry = entry

		l := &out[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l.Image, l.Err = s.src.LoadImage(entry)
			if l.Err != nil {
				l.Err = errors.Wrapf(l.Err, "layer %d variant %d", l.Index, n)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Images returns the decoded image of each layer, nil where there is none.
func Images(ls []Layer) []*s25.Image {
	imgs := make([]*s25.Image, len(ls))
	for i, l := range ls {
		imgs[i] = l.Image
	}
	return imgs
}

// ParseSelection parses a comma separated list of layer:variant pairs, such
// as "0:5,2:1". A variant of -1 clears the layer.
func ParseSelection(s string) (map[int]s25.Variant, error) {
	sel := make(map[int]s25.Variant)
	s = strings.TrimSpace(s)
	if s == "" {
		return sel, nil
	}
	for _, pair := range strings.Split(s, ",") {
		l, v, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, errors.Errorf("selection %q: want layer:variant", pair)
		}
		layer, err := strconv.Atoi(l)
		if err != nil || layer < 0 {
			return nil, errors.Errorf("selection %q: bad layer %q", pair, l)
		}
		variant, err := ParseVariant(v)
		if err != nil {
			return nil, errors.Wrapf(err, "selection %q", pair)
		}
		sel[layer] = variant
	}
	return sel, nil
}

// ParseVariant parses a variant number; "-1" and "" mean no selection.
func ParseVariant(s string) (s25.Variant, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-1" {
		return s25.NoVariant, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return s25.NoVariant, errors.Wrapf(err, "bad variant %q", s)
	}
	v := s25.VariantOf(n)
	if !v.Valid() {
		return s25.NoVariant, errors.Errorf("variant %d out of range [0, %d)", n, s25.VariantsPerLayer)
	}
	return v, nil
}
