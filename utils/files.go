package utils

import (
	"os"
	"path/filepath"
)

// Exists reports whether path exists and whether it is a directory.
func Exists(path string) (isDir bool, exists bool, err error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return info.IsDir(), true, nil
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	isDir, exists, err := Exists(dir)
	if err != nil {
		return err
	}
	if exists && isDir {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
