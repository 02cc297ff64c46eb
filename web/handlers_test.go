package web

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"badc0de.net/pkg/go-s25/s25"
	"badc0de.net/pkg/go-s25/ttesting"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

// newTestHandler serves an archive with two layers: layer 0 has variants 0
// (red) and 1 (green), layer 1 has variant 0 (blue), a malformed variant 1
// and an incremental variant 2.
func newTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	b := &ttesting.ArchiveBuilder{}
	b.Add(ttesting.SolidEntry(2, 2, 0, 0, 255, 0, 0))
	b.Add(ttesting.SolidEntry(2, 2, 0, 0, 0, 255, 0))
	b.AddAbsent(98)
	b.Add(ttesting.SolidEntry(1, 1, 1, 1, 0, 0, 255))
	b.Add(&ttesting.Entry{Width: -1, Height: 1})
	b.Add(&ttesting.Entry{Width: 1, Height: 1, Flags: 0x80000000})

	a, err := s25.NewArchive(b.Bytes())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	h := NewHandler(a, "")
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return h, r
}

func get(t *testing.T, srv http.Handler, url string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodePNG(t *testing.T, rec *httptest.ResponseRecorder) image.Image {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestInfo(t *testing.T) {
	h, srv := newTestHandler(t)
	rec := get(t, srv, "/info")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got archiveInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, archiveInfo{
		Entries:   103,
		Signature: fmt.Sprintf("%08x", h.a.Signature()),
		Layers: []layerInfo{
			{Layer: 0, Variants: []int{0, 1}},
			{Layer: 1, Variants: []int{0, 1, 2}},
		},
	}, got)
}

func TestEntry(t *testing.T) {
	_, srv := newTestHandler(t)
	rec := get(t, srv, "/entry/0")
	img := decodePNG(t, rec)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, red, rgbaAt(img, 1, 1))

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = get(t, srv, "/entry/0", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Equal(t, etag, rec.Header().Get("ETag"))

	// Different entries have different tags.
	rec = get(t, srv, "/entry/1")
	decodePNG(t, rec)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestEntryMissingIgnoresETag(t *testing.T) {
	h, srv := newTestHandler(t)
	for _, idx := range []int{5, 1000} {
		etag := fmt.Sprintf(`W/"entry:%d:%08x:%d:%dx%d:image/png"`, generation, h.a.Signature(), idx, 0, 0)
		rec := get(t, srv, fmt.Sprintf("/entry/%d", idx), "If-None-Match", etag)
		assert.Equal(t, http.StatusNotFound, rec.Code, "entry %d", idx)
		assert.Empty(t, rec.Header().Get("ETag"), "entry %d", idx)
	}
}

func TestEntryThumbnail(t *testing.T) {
	_, srv := newTestHandler(t)
	img := decodePNG(t, get(t, srv, "/entry/1?w=1&h=1"))
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())
	assert.Equal(t, green, rgbaAt(img, 0, 0))
}

func TestEntryErrors(t *testing.T) {
	_, srv := newTestHandler(t)
	for url, want := range map[string]int{
		"/entry/5":    http.StatusNotFound,
		"/entry/1000": http.StatusNotFound,
		"/entry/101":  http.StatusUnprocessableEntity,
		"/entry/102":  http.StatusNotImplemented,
		"/entry/x":    http.StatusNotFound, // no route
	} {
		assert.Equal(t, want, get(t, srv, url).Code, url)
	}
}

func TestComposite(t *testing.T) {
	_, srv := newTestHandler(t)
	img := decodePNG(t, get(t, srv, "/composite?layers=0:1,1:0"))
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, green, rgbaAt(img, 0, 0))
	assert.Equal(t, blue, rgbaAt(img, 1, 1))

	// A broken layer is left out of the composite.
	img = decodePNG(t, get(t, srv, "/composite?layers=0:0,1:1"))
	assert.Equal(t, red, rgbaAt(img, 1, 1))
}

func TestCompositeErrors(t *testing.T) {
	_, srv := newTestHandler(t)
	for url, want := range map[string]int{
		"/composite":                http.StatusNotFound,
		"/composite?layers=0:7":     http.StatusNotFound,
		"/composite?layers=junk":    http.StatusBadRequest,
		"/composite?layers=5:0":     http.StatusBadRequest,
		"/composite?layers=0:100":   http.StatusBadRequest,
		"/composite?layers=0:1,1:x": http.StatusBadRequest,
	} {
		assert.Equal(t, want, get(t, srv, url).Code, url)
	}
}

func TestLayerGIF(t *testing.T) {
	_, srv := newTestHandler(t)
	rec := get(t, srv, "/layer/0.gif?delay=10")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))

	g, err := gif.DecodeAll(rec.Body)
	require.NoError(t, err)
	require.Len(t, g.Image, 2)
	assert.Equal(t, []int{10, 10}, g.Delay)
	assert.Equal(t, red, rgbaAt(g.Image[0], 0, 0))
	assert.Equal(t, green, rgbaAt(g.Image[1], 0, 0))

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/layer/2.gif").Code)
}

func TestLoadImageShared(t *testing.T) {
	h, _ := newTestHandler(t)

	var wg sync.WaitGroup
	imgs := make([]*s25.Image, 16)
	errs := make([]error, len(imgs))
	for i := range imgs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			imgs[i], errs[i] = h.LoadImage(100)
		}(i)
	}
	wg.Wait()

	for i := range imgs {
		require.NoError(t, errs[i])
		assert.Equal(t, []byte{0, 0, 255, 255}, imgs[i].Pix())
	}

	_, err := h.LoadImage(50)
	assert.ErrorIs(t, err, s25.ErrAbsentEntry)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(fmt.Errorf("boom")))
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("wrapped: %w", s25.ErrNoEntry)))
}
