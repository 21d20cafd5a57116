package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileOverwrite writes content to filePath, creating parent directories
// as needed. The content goes to a temporary file in the same directory that
// is then renamed over the target, so readers never see a partial file.
func WriteFileOverwrite(filePath string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", filePath, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to file %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filePath, err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod file %s: %w", filePath, err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to replace file %s: %w", filePath, err)
	}
	return nil
}
