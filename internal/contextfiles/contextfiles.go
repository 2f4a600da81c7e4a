// Package contextfiles assembles the contents of a set of files into a single
// block of text that can be placed ahead of a prompt.
package contextfiles

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns the contents of path.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	return string(data), nil
}

// Build concatenates the files at paths, each preceded by a header naming it.
// A file that cannot be read contributes an inline error segment instead, so
// Build never fails. Files are read on every call.
func Build(paths []string) string {
	segments := make([]string, 0, len(paths))
	for _, p := range paths {
		content, err := Read(p)
		if err != nil {
			segments = append(segments, fmt.Sprintf("=== File: %s ===\nError: %s\n", p, err))
			continue
		}
		segments = append(segments, fmt.Sprintf("=== File: %s ===\n%s\n", p, content))
	}
	return strings.Join(segments, "\n")
}

// Header returns the header line Build writes for path.
func Header(path string) string {
	return "=== File: " + path + " ==="
}
