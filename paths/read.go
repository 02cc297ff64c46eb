package paths

import (
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-s25/s25"
)

const zstdSuffix = ".zst"

// ReadFile reads the named data file, located as with Find unless fileName
// already names an existing file. Files ending in .zst are decompressed.
func ReadFile(fileName string) ([]byte, error) {
	path := resolve(fileName)
	if path == "" {
		return nil, errors.Wrapf(os.ErrNotExist, "paths.ReadFile(%q): not found", fileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "paths.ReadFile(%q)", fileName)
	}
	if !strings.HasSuffix(path, zstdSuffix) {
		return data, nil
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd decoder")
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "paths.ReadFile(%q): decompressing %s", fileName, path)
	}
	return out, nil
}

// OpenArchive opens the named .s25 archive, located as with Find. A missing
// or unreadable file matches s25.ErrFileIO.
func OpenArchive(fileName string) (*s25.Archive, error) {
	path := resolve(fileName)
	if path == "" {
		// Let s25.Open produce the usual not-found error.
		return s25.Open(fileName)
	}
	if !strings.HasSuffix(path, zstdSuffix) {
		return s25.Open(path)
	}

	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := s25.NewArchive(data)
	if err != nil {
		return nil, errors.Wrapf(err, "paths.OpenArchive(%q)", fileName)
	}
	return a, nil
}
