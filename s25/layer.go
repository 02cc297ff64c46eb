package s25

import (
	"strconv"

	"github.com/pkg/errors"
)

// VariantsPerLayer is how many entries the format reserves for each layer.
// Entry variant+VariantsPerLayer*layer is variant number variant of layer
// number layer.
const VariantsPerLayer = 100

// TotalLayers returns the number of layers an archive with the given number
// of entries is grouped into.
func TotalLayers(entries int) int {
	return entries/VariantsPerLayer + 1
}

// EntryIndex maps a (layer, variant) pair to a flat entry index.
func EntryIndex(layer, variant int) int {
	return variant + VariantsPerLayer*layer
}

// Variant is an optional variant selection for a layer. The zero value is
// NoVariant, which is distinct from VariantOf(0).
type Variant struct {
	n  int
	ok bool
}

// NoVariant selects nothing for a layer.
var NoVariant = Variant{}

// VariantOf selects variant n.
func VariantOf(n int) Variant {
	return Variant{n: n, ok: true}
}

// Get returns the selected variant and whether there is one.
func (v Variant) Get() (int, bool) {
	return v.n, v.ok
}

// IsSet reports whether a variant is selected.
func (v Variant) IsSet() bool {
	return v.ok
}

// Valid reports whether v is NoVariant or a variant in [0, VariantsPerLayer).
func (v Variant) Valid() bool {
	return !v.ok || (v.n >= 0 && v.n < VariantsPerLayer)
}

func (v Variant) String() string {
	if !v.ok {
		return "none"
	}
	return strconv.Itoa(v.n)
}

// LoadLayer decodes the image selected by v for layer. With NoVariant it
// returns (nil, nil) and decodes nothing.
func (a *Archive) LoadLayer(layer int, v Variant) (*Image, error) {
	n, ok := v.Get()
	if !ok {
		return nil, nil
	}
	if layer < 0 || !v.Valid() {
		return nil, errors.Wrapf(ErrNoEntry, "layer %d variant %d", layer, n)
	}
	return a.LoadImage(EntryIndex(layer, n))
}
