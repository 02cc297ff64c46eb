// Package s25 implements a reader for .s25 layered sprite archives.
//
// An archive is a directory of entries, each a run-length encoded image with
// a placement offset. Entries are grouped into layers of VariantsPerLayer
// variants; a character portrait is composed by picking at most one variant
// per layer and drawing the chosen images at their offsets.
//
// The whole file is read into memory on Open, so decoding is a pure function
// of the archive bytes and the entry index, and an Archive can be shared by
// concurrent readers. Decoded images own their pixels.
//
// Importing this package also registers the "s25" format with the image
// package; image.Decode then yields the first present entry.
package s25
