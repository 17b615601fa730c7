package utils

import (
	"errors"
	"math/rand/v2"
	"path"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidPath = errors.New("invalid path: path cannot contain '..'")

// GenerateStorageName returns "{unix millis}-{random base36}{ext}". The
// extension is taken from the original file name, lower-cased.
func GenerateStorageName(originalName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(originalName, "\\", "/")))
	if len(ext) > 16 || strings.ContainsAny(ext, " /") {
		ext = ""
	}
	suffix := strconv.FormatUint(rand.Uint64(), 36)
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix + ext
}

// NormalizeFolderPath trims slashes, converts backslashes and collapses
// repeated separators. "" means the root.
func NormalizeFolderPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(p, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return p, nil
}

// ObjectKey joins a folder path and a storage name.
func ObjectKey(folderPath, storageName string) string {
	if folderPath == "" {
		return storageName
	}
	return folderPath + "/" + storageName
}
