package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CleanPatchPath strips the decoration diff tools put in front of file paths:
// git's a/ and b/ prefixes, a leading ./, and a leading workspace/ segment.
// Old and new paths must be cleaned identically so every write lands inside
// the target tree. /dev/null and empty paths clean to "".
func CleanPatchPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/dev/null" {
		return ""
	}
	p = strings.TrimPrefix(p, "./")
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		p = p[2:]
	}
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "workspace/")
	return p
}

// Resolve joins rel to root and rejects any path that escapes it.
func Resolve(root, rel string) (string, error) {
	full := filepath.Clean(filepath.Join(root, rel))
	r, err := filepath.Rel(filepath.Clean(root), full)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes working tree: %s", rel)
	}
	return full, nil
}

// WriteFileAtomic writes content to a file atomically using temp file +
// rename, creating parent directories as needed. Permissions of an existing
// target are preserved; new files get 0644.
func WriteFileAtomic(fullPath, content string) error {
	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tempFile, err := os.CreateTemp(parentDir, ".apply-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up temp file in case of error

	if _, err := tempFile.WriteString(content); err != nil {
		tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if info, err := os.Stat(fullPath); err == nil {
		_ = os.Chmod(tempPath, info.Mode())
	} else {
		_ = os.Chmod(tempPath, 0644)
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		return fmt.Errorf("atomic rename failed: %w", err)
	}
	return nil
}
