package util

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TempPath reserves a unique temp file name with the given extension and
// returns its path. The empty file is left in place so the name stays taken.
func TempPath(dir, pattern, ext string) (string, error) {
	if dir != "" {
		if err := EnsureDir(dir); err != nil {
			return "", err
		}
	}
	f, err := os.CreateTemp(dir, pattern+"*"+ext)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// CleanupFiles removes multiple files, ignoring errors
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		if path != "" {
			_ = os.Remove(path)
		}
	}
}

// MoveFile renames src to dst, copying when they sit on different devices
func MoveFile(src, dst string) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// GetExtension returns the file extension
func GetExtension(path string) string {
	return filepath.Ext(path)
}
