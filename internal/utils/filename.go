package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// NormalizeBase replaces every non-alphanumeric character with an underscore and
// lower-cases the result.
func NormalizeBase(name string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(name, "_"))
}

// StoredFilename derives the on-disk name of an upload: the base name is
// normalized and the original extension is re-appended untouched.
// "My App!.apk" becomes "my_app_.apk".
func StoredFilename(original string) string {
	original = filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	ext := filepath.Ext(original)
	return NormalizeBase(strings.TrimSuffix(original, ext)) + ext
}

// TrimExt returns name without its final extension.
func TrimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
