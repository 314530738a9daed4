package services

import (
	"path/filepath"
	"strings"
)

// SafeJoin resolves segments under baseDir and fails with INVALID_PATH if
// the result would escape it, via ".." traversal or absolute-path
// injection. Every artifact and report path in the tool goes through here;
// nothing else concatenates filesystem paths.
func SafeJoin(baseDir string, segments ...string) (string, *ServiceError) {
	resolvedBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", Fail(CodeInvalidPath, "Недопустимый путь.")
	}
	for _, segment := range segments {
		if filepath.IsAbs(segment) {
			return "", Fail(CodeInvalidPath, "Недопустимый путь.")
		}
	}
	target, err := filepath.Abs(filepath.Join(append([]string{baseDir}, segments...)...))
	if err != nil {
		return "", Fail(CodeInvalidPath, "Недопустимый путь.")
	}
	relative, err := filepath.Rel(resolvedBase, target)
	if err != nil || strings.HasPrefix(relative, "..") || filepath.IsAbs(relative) {
		return "", Fail(CodeInvalidPath, "Недопустимый путь.")
	}
	return target, nil
}

// SanitizeStoredPath re-validates a relative path loaded from storage
// before use, returning "" (not an error) if it is empty, traverses out of
// baseDir, or is absolute. Defends against a corrupted or tampered
// database row pointing outside the sandbox.
func SanitizeStoredPath(baseDir, storedPath string) string {
	if storedPath == "" {
		return ""
	}
	normalized := filepath.FromSlash(storedPath)
	if filepath.IsAbs(normalized) {
		return ""
	}
	absolute := filepath.Join(baseDir, normalized)
	relative, err := filepath.Rel(baseDir, absolute)
	if err != nil || strings.HasPrefix(relative, "..") || filepath.IsAbs(relative) {
		return ""
	}
	return filepath.ToSlash(relative)
}
