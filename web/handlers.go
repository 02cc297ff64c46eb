// Package web serves the entries of an archive over HTTP.
package web

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/net/trace"
	"golang.org/x/sync/singleflight"

	"badc0de.net/pkg/go-s25/compositor"
	"badc0de.net/pkg/go-s25/layers"
	"badc0de.net/pkg/go-s25/s25"
)

const (
	// Bump if the way we generate images changes.
	generation = 1

	cacheFor = "public; max-age=36000" // 36000 = 10h

	defaultGIFDelay = 50 // hundredths of a second
)

type Handler struct {
	a           *s25.Archive
	archivePath string

	decodes singleflight.Group
}

// NewHandler constructs a web handler for the passed archive. archivePath is
// only used for Last-Modified headers and may be empty.
func NewHandler(a *s25.Archive, archivePath string) *Handler {
	return &Handler{
		a:           a,
		archivePath: archivePath,
	}
}

// RegisterRoutes adds the handler's routes to r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/info", h.infoHandler).Methods(http.MethodGet)
	r.HandleFunc("/entry/{idx:[0-9]+}", h.entryHandler).Methods(http.MethodGet)
	r.HandleFunc("/composite", h.compositeHandler).Methods(http.MethodGet)
	r.HandleFunc("/layer/{layer:[0-9]+}.gif", h.layerGIFHandler).Methods(http.MethodGet)
}

// TotalEntries and LoadImage let a layers.Stack decode through the handler,
// sharing decodes with concurrent requests.
func (h *Handler) TotalEntries() int {
	return h.a.TotalEntries()
}

// LoadImage decodes entry. Concurrent calls for the same entry share one
// decode.
func (h *Handler) LoadImage(entry int) (*s25.Image, error) {
	v, err, shared := h.decodes.Do(strconv.Itoa(entry), func() (interface{}, error) {
		return h.a.LoadImage(entry)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		glog.V(2).Infof("entry %d: shared decode", entry)
	}
	return v.(*s25.Image), nil
}

type layerInfo struct {
	Layer    int   `json:"layer"`
	Variants []int `json:"variants"`
}

type archiveInfo struct {
	Entries   int         `json:"entries"`
	Signature string      `json:"signature"`
	Layers    []layerInfo `json:"layers"`
}

func (h *Handler) info() archiveInfo {
	info := archiveInfo{
		Entries:   h.a.TotalEntries(),
		Signature: fmt.Sprintf("%08x", h.a.Signature()),
		Layers:    make([]layerInfo, h.a.TotalLayers()),
	}
	for l := range info.Layers {
		info.Layers[l] = layerInfo{Layer: l, Variants: []int{}}
		for v := 0; v < s25.VariantsPerLayer; v++ {
			if h.a.HasEntry(s25.EntryIndex(l, v)) {
				info.Layers[l].Variants = append(info.Layers[l].Variants, v)
			}
		}
	}
	return info
}

func (h *Handler) infoHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.info", r.URL.Path)
	defer tr.Finish()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.info()); err != nil {
		tr.LazyPrintf("encoding: %v", err)
		tr.SetError()
		glog.Errorf("/info: %v", err)
	}
}

func (h *Handler) entryHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.entry", r.URL.Path)
	defer tr.Finish()

	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil {
		http.Error(w, "idx not a number", http.StatusBadRequest)
		return
	}

	var p struct{ w, h uint }
	if v := r.URL.Query().Get("w"); v != "" {
		n, _ := strconv.ParseUint(v, 10, 16)
		// ignore invalid w
		p.w = uint(n)
	}
	if v := r.URL.Query().Get("h"); v != "" {
		n, _ := strconv.ParseUint(v, 10, 16)
		// ignore invalid h
		p.h = uint(n)
	}

	if !h.a.HasEntry(idx) {
		// Reports ErrNoEntry or ErrAbsentEntry without decoding anything.
		_, err := h.LoadImage(idx)
		h.fail(w, tr, err)
		return
	}

	etag := fmt.Sprintf(`W/"entry:%d:%08x:%d:%dx%d:image/png"`, generation, h.a.Signature(), idx, p.w, p.h)
	if h.notModified(w, r, etag) {
		tr.LazyPrintf("not modified")
		return
	}

	m, err := h.LoadImage(idx)
	if err != nil {
		h.fail(w, tr, err)
		return
	}
	var img image.Image = m
	if p.w > 0 || p.h > 0 {
		// A missing bound does not constrain.
		if p.w == 0 {
			p.w = s25.MaxDimension
		}
		if p.h == 0 {
			p.h = s25.MaxDimension
		}
		img = compositor.Thumbnail(m, p.w, p.h)
	}
	h.writePNG(w, tr, etag, img)
}

func (h *Handler) compositeHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.composite", r.URL.String())
	defer tr.Finish()

	sel, err := layers.ParseSelection(r.URL.Query().Get("layers"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	st := layers.New(h)
	if err := st.SetAll(sel); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	etag := fmt.Sprintf(`W/"composite:%d:%08x:%s:image/png"`, generation, h.a.Signature(), selectionKey(st))
	if h.notModified(w, r, etag) {
		tr.LazyPrintf("not modified")
		return
	}

	ls, err := st.Load(r.Context())
	if err != nil {
		h.fail(w, tr, err)
		return
	}
	for _, l := range ls {
		if !l.Valid() && !l.Absent() {
			tr.LazyPrintf("layer %d: %v", l.Index, l.Err)
			glog.Warningf("composite: layer %d: %v", l.Index, l.Err)
		}
	}

	img := compositor.CompositeLayers(ls)
	if img.Bounds().Empty() {
		http.Error(w, "no images in selection", http.StatusNotFound)
		return
	}
	h.writePNG(w, tr, etag, img)
}

func (h *Handler) layerGIFHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.layer", r.URL.String())
	defer tr.Finish()

	layer, err := strconv.Atoi(mux.Vars(r)["layer"])
	if err != nil {
		http.Error(w, "layer not a number", http.StatusBadRequest)
		return
	}
	if layer >= h.a.TotalLayers() {
		http.Error(w, fmt.Sprintf("layer %d out of range", layer), http.StatusNotFound)
		return
	}
	delay := defaultGIFDelay
	if v := r.URL.Query().Get("delay"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			delay = n
		}
	}

	etag := fmt.Sprintf(`W/"layer:%d:%08x:%d:%d:image/gif"`, generation, h.a.Signature(), layer, delay)
	if h.notModified(w, r, etag) {
		tr.LazyPrintf("not modified")
		return
	}

	var imgs []*s25.Image
	for v := 0; v < s25.VariantsPerLayer; v++ {
		m, err := h.LoadImage(s25.EntryIndex(layer, v))
		switch {
		case err == nil:
			imgs = append(imgs, m)
		case errors.Is(err, s25.ErrAbsentEntry), errors.Is(err, s25.ErrNoEntry):
		default:
			tr.LazyPrintf("variant %d: %v", v, err)
			glog.Warningf("layer %d variant %d: %v", layer, v, err)
		}
	}
	if len(imgs) == 0 {
		http.Error(w, fmt.Sprintf("layer %d has no decodable variants", layer), http.StatusNotFound)
		return
	}
	tr.LazyPrintf("%d frames", len(imgs))

	w.Header().Set("Content-Type", "image/gif")
	h.setCacheHeaders(w, etag)
	w.WriteHeader(http.StatusOK)
	if err := compositor.EncodeGIF(w, compositor.Frames(imgs), delay); err != nil {
		tr.LazyPrintf("encoding: %v", err)
		tr.SetError()
		glog.Errorf("%s: %v", r.URL, err)
	}
}

// selectionKey is a canonical form of a stack's selection.
func selectionKey(st *layers.Stack) string {
	key := ""
	for l := 0; l < st.Len(); l++ {
		if v, ok := st.Variant(l).Get(); ok {
			key += fmt.Sprintf("%d.%d,", l, v)
		}
	}
	return key
}

func (h *Handler) notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	if r.Header.Get("If-None-Match") != etag {
		return false
	}
	w.Header().Set("Cache-Control", cacheFor)
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
	return true
}

func (h *Handler) setCacheHeaders(w http.ResponseWriter, etag string) {
	w.Header().Set("Cache-Control", cacheFor)
	w.Header().Set("ETag", etag)
	if h.archivePath == "" {
		return
	}
	if s, err := os.Stat(h.archivePath); err == nil {
		w.Header().Set("Last-Modified", s.ModTime().Format(http.TimeFormat))
	}
}

func (h *Handler) writePNG(w http.ResponseWriter, tr trace.Trace, etag string, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	h.setCacheHeaders(w, etag)
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, img); err != nil {
		tr.LazyPrintf("encoding: %v", err)
		tr.SetError()
		glog.Errorf("png: %v", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, tr trace.Trace, err error) {
	tr.LazyPrintf("%v", err)
	tr.SetError()

	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		glog.Errorf("%v", err)
	}
	http.Error(w, err.Error(), code)
}

// StatusFor maps a decoding error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, s25.ErrNoEntry), errors.Is(err, s25.ErrAbsentEntry):
		return http.StatusNotFound
	case errors.Is(err, s25.ErrUnsupportedFileFormat):
		return http.StatusNotImplemented
	case errors.Is(err, s25.ErrInvalidArchive):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
