package normalisers

import (
	"path/filepath"
	"strings"
)

// TitleFromName turns a file name into a readable title:
// "rose_voyage-1921.md" becomes "rose voyage 1921".
func TitleFromName(name string) string {
	filename := filepath.Base(name)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
