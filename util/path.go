package util

import (
	"path/filepath"
	"strings"
)

// PathToURI returns a file:// URI for path, made absolute when possible.
func PathToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "file://" + filepath.ToSlash(path)
	}
	return "file://" + filepath.ToSlash(abs)
}

// Stem is the base name of path without its final extension. A ".graph.json"
// suffix is removed whole.
func Stem(path string) string {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".graph.json") {
		return strings.TrimSuffix(base, ".graph.json")
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Sibling returns the path next to path named <stem><suffix><ext>.
func Sibling(path, suffix, ext string) string {
	return filepath.Join(filepath.Dir(path), Stem(path)+suffix+ext)
}
