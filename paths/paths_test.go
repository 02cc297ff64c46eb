package paths

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"badc0de.net/pkg/go-s25/s25"
	"badc0de.net/pkg/go-s25/ttesting"
)

func redArchive() []byte {
	b := &ttesting.ArchiveBuilder{}
	b.Add(ttesting.SolidEntry(2, 2, 0, 0, 255, 0, 0))
	return b.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestFindUsesEnvPath(t *testing.T) {
	empty, dir := t.TempDir(), t.TempDir()
	want := writeFile(t, dir, "findme-test.s25", []byte("x"))
	t.Setenv(EnvVar, empty+string(os.PathListSeparator)+dir)

	assert.Equal(t, want, Find("findme-test.s25"))
	assert.Equal(t, "", Find("does-not-exist-anywhere.s25"))
}

func TestFindSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir-test.s25"), 0o755))
	t.Setenv(EnvVar, dir)

	assert.Equal(t, "", Find("subdir-test.s25"))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVar, dir)
	writeFile(t, dir, "plain-test.s25", []byte("plain"))
	writeFile(t, dir, "packed-test.s25.zst", compress(t, []byte("packed")))

	got, err := ReadFile("plain-test.s25")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(got))

	got, err = ReadFile("packed-test.s25.zst")
	require.NoError(t, err)
	assert.Equal(t, "packed", string(got))

	_, err = ReadFile("missing-test.s25")
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestReadFileCorruptZstd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "corrupt.s25.zst", []byte("not zstd at all"))

	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestOpenArchive(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVar, dir)
	writeFile(t, dir, "red-test.s25", redArchive())
	writeFile(t, dir, "red-test.s25.zst", compress(t, redArchive()))

	for _, name := range []string{"red-test.s25", "red-test.s25.zst"} {
		t.Run(name, func(t *testing.T) {
			a, err := OpenArchive(name)
			require.NoError(t, err)
			defer a.Close()

			img, err := a.LoadImage(0)
			require.NoError(t, err)
			assert.Equal(t, []byte{255, 0, 0, 255}, img.Pix()[:4])
		})
	}
}

func TestOpenArchiveErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVar, dir)
	writeFile(t, dir, "junk-test.s25.zst", compress(t, []byte("JUNK")))

	_, err := OpenArchive("missing-test.s25")
	assert.True(t, errors.Is(err, s25.ErrFileIO), "got %v", err)

	_, err = OpenArchive("missing-test.s25.zst")
	assert.True(t, errors.Is(err, s25.ErrFileIO), "got %v", err)

	_, err = OpenArchive("junk-test.s25.zst")
	assert.True(t, errors.Is(err, s25.ErrInvalidArchive), "got %v", err)
}

func TestSetupFilePathFlagSet(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "flagged-test.s25", []byte("x"))
	t.Setenv(EnvVar, dir)

	var got string
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	SetupFilePathFlagSet(set, "flagged-test.s25", "archive", &got)
	assert.Equal(t, want, got)

	require.NoError(t, set.Parse([]string{"-archive", "other.s25"}))
	assert.Equal(t, "other.s25", got)
}
