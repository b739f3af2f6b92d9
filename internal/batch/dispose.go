package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Archiver moves a processed PDF into its terminal outcome folder.
type Archiver interface {
	// Archive moves the file into targetDir under a collision-safe
	// name carrying the reason, and returns the destination path
	Archive(path, reason, targetDir string) (string, error)
}

// LocalArchiver implements the Archiver interface on the local
// filesystem.
type LocalArchiver struct{}

// Archive renames the file to "<stem> - <reason><ext>" inside
// targetDir, appending " (n)" while the name is taken. It never
// overwrites an existing file.
func (LocalArchiver) Archive(path, reason, targetDir string) (string, error) {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("creating target directory: %w", err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	base := fmt.Sprintf("%s - %s", stem, reason)

	dest := filepath.Join(targetDir, base+ext)
	for n := 1; fileExists(dest); n++ {
		dest = filepath.Join(targetDir, fmt.Sprintf("%s (%d)%s", base, n, ext))
	}

	if err := moveFile(path, dest); err != nil {
		return "", err
	}

	slog.Info("File archived", "destination", dest)
	return dest, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// moveFile renames src to dest, falling back to copy-and-remove when
// the target directory lives on another filesystem.
func moveFile(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return fmt.Errorf("moving file: %w", err)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading file for move: %w", err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("writing moved file: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing source file: %w", err)
	}
	return nil
}
