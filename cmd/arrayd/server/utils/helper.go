package utils

import (
	"os"
	"path"
	"path/filepath"
)

func SelfDir() (string, error) {
	ex, err := os.Executable()
	if err != nil {
		return "", err
	}
	return path.Dir(ex), nil
}

// ResolvePath joins relative paths to the binary directory.
func ResolvePath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	dir, err := SelfDir()
	if err != nil {
		return "", err
	}
	return path.Join(dir, p), nil
}
