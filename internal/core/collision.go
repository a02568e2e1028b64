package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FreeName returns dir/name, or dir/stem_N.ext with the smallest N >= 1
// when that entry already exists.
func FreeName(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if !exists(candidate) {
		return candidate
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// ".env" has no stem, the suffix goes at the end.
		stem, ext = name, ""
	}
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

// destination picks where src lands when moved or copied to dst. An
// existing directory receives src under its own name; an occupied file
// name gets a _N suffix.
func destination(src, dst string) string {
	info, err := os.Stat(dst)
	switch {
	case err != nil:
		return dst
	case info.IsDir():
		return FreeName(dst, filepath.Base(src))
	default:
		return FreeName(filepath.Dir(dst), filepath.Base(dst))
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
