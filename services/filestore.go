package services

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore writes and removes capture files inside a sandboxed base
// directory. Returned paths are relative to the base directory and
// forward-slash normalized, independent of the host separator, so they are
// portable and representable in the database.
type FileStore struct {
	baseDir string
}

// NewFileStore creates the base directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// BaseDir returns the sandbox root.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

// CaseDir resolves (and creates) the per-case directory for caller-supplied
// saves: <base>/case-<id>.
func (s *FileStore) CaseDir(caseID uint) (string, error) {
	dir, serr := SafeJoin(s.baseDir, fmt.Sprintf("%s%d", CaseDirPrefix, caseID))
	if serr != nil {
		return "", serr
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", Fail(CodeFileError, "Не удалось подготовить хранилище артефактов.")
	}
	return dir, nil
}

// CaptureDir resolves (and creates) the per-capture directory for live
// captures: <base>/<caseID>/<timestamp>, where the timestamp is the ISO
// capture time with ":" and "." replaced so it is filesystem-safe.
func (s *FileStore) CaptureDir(caseID uint, capturedAt string) (string, error) {
	dir, serr := SafeJoin(s.baseDir, fmt.Sprintf("%d", caseID), CaptureFolderName(capturedAt))
	if serr != nil {
		return "", serr
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", Fail(CodeFileError, "Не удалось подготовить хранилище артефактов.")
	}
	return dir, nil
}

// CaptureFolderName makes an ISO timestamp filesystem-safe across platforms.
func CaptureFolderName(isoTimestamp string) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(isoTimestamp)
}

// DecodePayload turns a caller-supplied payload into raw bytes.
func DecodePayload(payload *FilePayload) ([]byte, *ServiceError) {
	if payload.Encoding == "base64" {
		raw, err := base64.StdEncoding.DecodeString(payload.Data)
		if err != nil {
			return nil, Fail(CodeInvalidArgument, "Некорректные данные файла.")
		}
		return raw, nil
	}
	return []byte(payload.Data), nil
}

func checkSize(data []byte, maxBytes int) *ServiceError {
	if len(data) == 0 {
		return Fail(CodeEmptyFile, "Пустые данные файла.")
	}
	if len(data) > maxBytes {
		return Fail(CodeFileTooLarge, "Файл слишком большой.")
	}
	return nil
}

// WriteArtifactFile writes a caller-supplied file into the case directory
// under a unique name <type>-<unixms>-<random>.<ext> and returns the
// base-relative path. Size limits are enforced before touching disk.
func (s *FileStore) WriteArtifactFile(caseDir, fileType string, data []byte, extension string, maxBytes int) (string, error) {
	if serr := checkSize(data, maxBytes); serr != nil {
		return "", serr
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	fileName := fmt.Sprintf("%s-%d-%s.%s", fileType, time.Now().UnixMilli(), suffix, extension)
	absolute, serr := SafeJoin(caseDir, fileName)
	if serr != nil {
		return "", serr
	}
	if err := os.WriteFile(absolute, data, 0644); err != nil {
		return "", Fail(CodeFileError, "Не удалось записать файлы артефактов.")
	}
	return s.relative(absolute)
}

// WriteCaptureFile writes a live-capture file under its fixed name
// (screenshot.png, page.html, page.txt) inside the capture directory.
func (s *FileStore) WriteCaptureFile(captureDir, fileName string, data []byte, maxBytes int) (string, error) {
	if serr := checkSize(data, maxBytes); serr != nil {
		return "", serr
	}
	absolute, serr := SafeJoin(captureDir, fileName)
	if serr != nil {
		return "", serr
	}
	if err := os.WriteFile(absolute, data, 0644); err != nil {
		return "", Fail(CodeFileError, "Не удалось записать файлы артефактов.")
	}
	return s.relative(absolute)
}

func (s *FileStore) relative(absolute string) (string, error) {
	base, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", Fail(CodeFileError, "Не удалось записать файлы артефактов.")
	}
	rel, err := filepath.Rel(base, absolute)
	if err != nil {
		return "", Fail(CodeFileError, "Не удалось записать файлы артефактов.")
	}
	return filepath.ToSlash(rel), nil
}

// Cleanup deletes a set of base-relative paths, best effort: individual
// failures are logged and swallowed. Used to undo partial writes when a
// later capture step fails.
func (s *FileStore) Cleanup(paths []string) {
	for _, relativePath := range paths {
		absolute, serr := SafeJoin(s.baseDir, filepath.FromSlash(relativePath))
		if serr != nil {
			log.Printf("[FS] очистка не удалась: %v", serr)
			continue
		}
		if err := os.Remove(absolute); err != nil && !os.IsNotExist(err) {
			log.Printf("[FS] очистка не удалась: %v", err)
		}
	}
}

// StoredFileSize reports the on-disk size of a stored relative path, or 0
// if the path is empty, invalid or missing.
func (s *FileStore) StoredFileSize(relativePath string) int64 {
	if relativePath == "" {
		return 0
	}
	absolute, serr := SafeJoin(s.baseDir, filepath.FromSlash(relativePath))
	if serr != nil {
		return 0
	}
	info, err := os.Stat(absolute)
	if err != nil || !info.Mode().IsRegular() {
		return 0
	}
	return info.Size()
}

// FileURL returns a file:// URL for a stored relative path, or nil.
func (s *FileStore) FileURL(relativePath string) *string {
	if relativePath == "" {
		return nil
	}
	absolute, serr := SafeJoin(s.baseDir, filepath.FromSlash(relativePath))
	if serr != nil {
		return nil
	}
	url := "file://" + filepath.ToSlash(absolute)
	return &url
}
