// Package paths locates data files such as .s25 archives.
package paths

import (
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// EnvVar names the environment variable holding extra data directories,
// separated by os.PathListSeparator.
const EnvVar = "S25_PATH"

// Find locates the passed data file shortname and returns an absolute or
// relative path to find it at, or an empty string if it was not found.
//
// Directories listed in $S25_PATH are searched first, then the working
// directory and its datafiles subdirectory, then the directory holding the
// running binary.
func Find(fileName string) string {
	for _, dir := range possibleDirs() {
		path := filepath.Join(dir, fileName)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			glog.V(2).Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	glog.V(2).Infof("paths.Find(%q): not found", fileName)
	return ""
}

func possibleDirs() []string {
	var dirs []string
	for _, dir := range filepath.SplitList(os.Getenv(EnvVar)) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	dirs = append(dirs, ".", "datafiles")
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe), filepath.Join(filepath.Dir(exe), "datafiles"))
	}
	return dirs
}

// resolve returns fileName itself if it names an existing file, and
// otherwise whatever Find returns for it.
func resolve(fileName string) string {
	if fi, err := os.Stat(fileName); err == nil && !fi.IsDir() {
		return fileName
	}
	return Find(fileName)
}
