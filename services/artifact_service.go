package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"osint_casework_go/models"

	"gorm.io/gorm"
)

// ArtifactService coordinates the capture source, the file store and the
// database. Files are written strictly before the row insert; the insert
// is the sole write that makes an artifact visible, and any failure after
// files hit disk triggers a compensating cleanup, so a failed save never
// leaves orphaned files or a row pointing at missing files.
type ArtifactService struct {
	db      *gorm.DB
	files   *FileStore
	browser CaptureSource
	archive EvidenceArchive
}

func NewArtifactService(db *gorm.DB, files *FileStore, browser CaptureSource, archive EvidenceArchive) *ArtifactService {
	return &ArtifactService{db: db, files: files, browser: browser, archive: archive}
}

// ArtifactFiles carries the caller-supplied bodies for SaveArtifact.
type ArtifactFiles struct {
	Screenshot *FilePayload `json:"screenshot"`
	HTML       *FilePayload `json:"html"`
	Text       *FilePayload `json:"text"`
}

// ArtifactInput is the caller-supplied payload for SaveArtifact.
type ArtifactInput struct {
	SubjectID  *uint         `json:"subjectId"`
	Source     *string       `json:"source"`
	URL        string        `json:"url"`
	Title      *string       `json:"title"`
	CapturedAt string        `json:"capturedAt"`
	Meta       interface{}   `json:"meta"`
	Files      ArtifactFiles `json:"files"`
}

// CaptureResult is the outcome of a live capture. Partial success (some of
// the three extractions failed) is a first-class outcome, not an error:
// Partial is set and Warnings lists what went wrong.
type CaptureResult struct {
	Artifact *models.ArtifactView `json:"artifact"`
	Warnings []string             `json:"warnings"`
	Partial  bool                 `json:"partial"`
}

func contentHash(pageURL, title, source, capturedAt string) string {
	h := sha256.New()
	h.Write([]byte(pageURL))
	h.Write([]byte(title))
	h.Write([]byte(source))
	h.Write([]byte(capturedAt))
	return hex.EncodeToString(h.Sum(nil))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *ArtifactService) mapRow(row *artifactLegalRow) *models.ArtifactView {
	return mapArtifactRow(s.files, row)
}

// mapArtifactRow converts a joined row to the caller-facing view. Stored
// paths are re-validated against the sandbox on every read.
func mapArtifactRow(files *FileStore, row *artifactLegalRow) *models.ArtifactView {
	screenshotPath := SanitizeStoredPath(files.BaseDir(), deref(row.ScreenshotPath))
	htmlPath := SanitizeStoredPath(files.BaseDir(), deref(row.HTMLPath))
	textPath := SanitizeStoredPath(files.BaseDir(), deref(row.TextPath))

	optional := func(p string) *string {
		if p == "" {
			return nil
		}
		return &p
	}

	return &models.ArtifactView{
		ID:                row.ID,
		CaseID:            row.CaseID,
		SubjectID:         row.SubjectID,
		Source:            row.Source,
		URL:               row.URL,
		Title:             row.Title,
		CapturedAt:        row.CapturedAt,
		ScreenshotPath:    optional(screenshotPath),
		HTMLPath:          optional(htmlPath),
		TextPath:          optional(textPath),
		Size:              files.StoredFileSize(screenshotPath) + files.StoredFileSize(htmlPath) + files.StoredFileSize(textPath),
		ScreenshotFileURL: files.FileURL(screenshotPath),
		HTMLFileURL:       files.FileURL(htmlPath),
		TextFileURL:       files.FileURL(textPath),
		LegalMarkID:       row.LegalMarkID,
		LegalMarkLabel:    row.LegalMarkLabel,
		ArticleText:       row.ArticleText,
		LegalComment:      row.LegalComment,
	}
}

// validateCaseAndSubject checks that the case exists and the optional
// subject belongs to it.
func (s *ArtifactService) validateCaseAndSubject(caseID uint, subjectID *uint) error {
	if caseID == 0 {
		return Fail(CodeInvalidArgument, "caseId должен быть положительным целым числом.")
	}
	exists, err := caseExists(s.db, caseID)
	if err != nil {
		log.Printf("[DB] validate case failed: %v", err)
		return Fail(CodeDBError, "Не удалось проверить данные дела.")
	}
	if !exists {
		return Fail(CodeNotFound, "Дело не найдено.")
	}
	if subjectID != nil {
		if *subjectID == 0 {
			return Fail(CodeInvalidArgument, "subjectId должен быть положительным целым числом.")
		}
		ok, err := subjectBelongsToCase(s.db, *subjectID, caseID)
		if err != nil {
			log.Printf("[DB] validate case failed: %v", err)
			return Fail(CodeDBError, "Не удалось проверить данные дела.")
		}
		if !ok {
			return Fail(CodeInvalidArgument, "subjectId не относится к этому делу.")
		}
	}
	return nil
}

// SaveArtifact persists an already-captured artifact supplied by the
// caller. Either every requested file is written and the row inserted, or
// nothing remains on disk and no row exists.
func (s *ArtifactService) SaveArtifact(caseID uint, input ArtifactInput) (*models.ArtifactView, error) {
	pageURL, serr := ValidateRequiredString(input.URL, "url", MaxURLLength)
	if serr != nil {
		return nil, serr
	}
	title, serr := ValidateOptionalString(input.Title, "title", MaxTitleLength)
	if serr != nil {
		return nil, serr
	}
	source, serr := ValidateOptionalString(input.Source, "source", MaxSourceLength)
	if serr != nil {
		return nil, serr
	}
	capturedAt, serr := NormalizeCapturedAt(input.CapturedAt)
	if serr != nil {
		return nil, serr
	}
	metaJSON, serr := NormalizeMetaJSON(input.Meta)
	if serr != nil {
		return nil, serr
	}
	screenshot, serr := NormalizeFilePayload(input.Files.Screenshot, "base64")
	if serr != nil {
		return nil, serr
	}
	if screenshot != nil && screenshot.Encoding != "base64" {
		return nil, Fail(CodeInvalidArgument, "screenshot должен быть в кодировке base64.")
	}
	html, serr := NormalizeFilePayload(input.Files.HTML, "utf8")
	if serr != nil {
		return nil, serr
	}
	text, serr := NormalizeFilePayload(input.Files.Text, "utf8")
	if serr != nil {
		return nil, serr
	}
	if screenshot == nil && html == nil && text == nil {
		return nil, Fail(CodeInvalidArgument, "Артефакт без файлов не сохраняется.")
	}

	if err := s.validateCaseAndSubject(caseID, input.SubjectID); err != nil {
		return nil, err
	}

	caseDir, err := s.files.CaseDir(caseID)
	if err != nil {
		log.Printf("[FS] mkdir failed: %v", err)
		return nil, Fail(CodeFileError, "Не удалось подготовить хранилище артефактов.")
	}

	var createdFiles []string
	var screenshotPath, htmlPath, textPath *string

	writeOne := func(payload *FilePayload, fileType, extension string, maxBytes int) (*string, error) {
		if payload == nil {
			return nil, nil
		}
		data, serr := DecodePayload(payload)
		if serr != nil {
			return nil, serr
		}
		relative, err := s.files.WriteArtifactFile(caseDir, fileType, data, extension, maxBytes)
		if err != nil {
			return nil, err
		}
		createdFiles = append(createdFiles, relative)
		return &relative, nil
	}

	if screenshotPath, err = writeOne(screenshot, "screenshot", "png", MaxScreenshotBytes); err == nil {
		if htmlPath, err = writeOne(html, "page", "html", MaxHTMLBytes); err == nil {
			textPath, err = writeOne(text, "text", "txt", MaxTextBytes)
		}
	}
	if err != nil {
		log.Printf("[FS] write failed: %v", err)
		s.files.Cleanup(createdFiles)
		if se, ok := AsServiceError(err); ok {
			switch se.Code {
			case CodeInvalidArgument, CodeEmptyFile, CodeFileTooLarge:
				return nil, se
			}
		}
		return nil, Fail(CodeFileError, "Не удалось записать файлы артефактов.")
	}

	if capturedAt == "" {
		capturedAt = time.Now().UTC().Format(time.RFC3339)
	}

	artifact := &models.Artifact{
		CaseID:         caseID,
		SubjectID:      input.SubjectID,
		Source:         source,
		URL:            pageURL,
		Title:          title,
		CapturedAt:     capturedAt,
		ScreenshotPath: screenshotPath,
		HTMLPath:       htmlPath,
		TextPath:       textPath,
		ContentHash:    contentHash(pageURL, deref(title), deref(source), capturedAt),
		MetaJSON:       metaJSON,
	}
	if err := insertArtifact(s.db, artifact); err != nil {
		log.Printf("[DB] saveArtifact failed: %v", err)
		s.files.Cleanup(createdFiles)
		return nil, Fail(CodeDBError, "Не удалось сохранить артефакт.")
	}

	s.archiveAsync(artifact.ID, createdFiles)

	row, err := selectArtifactWithLegal(s.db, artifact.ID)
	if err != nil {
		return nil, Fail(CodeDBError, "Не удалось сохранить артефакт.")
	}
	return s.mapRow(row), nil
}

// CaptureArtifact pulls URL, title and page content from the live capture
// source. The three extractions are attempted exactly once each,
// sequentially; individual failures become warnings, and only the case of
// all three failing aborts the capture.
func (s *ArtifactService) CaptureArtifact(ctx context.Context, caseID uint, subjectID *uint) (*CaptureResult, error) {
	if err := s.validateCaseAndSubject(caseID, subjectID); err != nil {
		return nil, err
	}

	if s.browser == nil {
		return nil, Fail(CodeNotReady, "Браузер недоступен.")
	}
	if err := s.browser.Ready(); err != nil {
		if se, ok := AsServiceError(err); ok {
			return nil, se
		}
		return nil, Fail(CodeNotReady, "Браузер недоступен.")
	}

	rawURL, err := s.browser.CurrentURL(ctx)
	if err != nil {
		if se, ok := AsServiceError(err); ok && se.Code == CodeInvalidState {
			return nil, se
		}
		return nil, Fail(CodeInvalidState, "URL страницы недоступен.")
	}
	pageURL, serr := ValidateRequiredString(rawURL, "url", MaxURLLength)
	if serr != nil {
		return nil, Fail(CodeInvalidState, "URL страницы недоступен.")
	}

	var warnings []string

	var title *string
	if rawTitle, err := s.browser.CurrentTitle(ctx); err == nil {
		trimmed := strings.TrimSpace(rawTitle)
		if trimmed != "" {
			if runes := []rune(trimmed); len(runes) > MaxTitleLength {
				warnings = append(warnings, "Заголовок страницы был сокращён.")
				trimmed = string(runes[:MaxTitleLength])
			}
			title = &trimmed
		}
	}

	var source *string
	if parsed, err := url.Parse(pageURL); err == nil && parsed.Hostname() != "" {
		host := parsed.Hostname()
		if runes := []rune(host); len(runes) > MaxSourceLength {
			warnings = append(warnings, "Источник страницы был сокращён.")
			host = string(runes[:MaxSourceLength])
		}
		source = &host
	}

	capturedAt := time.Now().UTC().Format(time.RFC3339)
	captureDir, err := s.files.CaptureDir(caseID, capturedAt)
	if err != nil {
		log.Printf("[FS] mkdir failed: %v", err)
		return nil, Fail(CodeFileError, "Не удалось подготовить хранилище артефактов.")
	}

	var createdFiles []string
	var screenshotPath, htmlPath, textPath *string

	if image, err := s.browser.CapturePageImage(ctx); err != nil {
		log.Printf("[Capture] screenshot failed: %v", err)
		warnings = append(warnings, "Не удалось сохранить скриншот.")
	} else if relative, err := s.files.WriteCaptureFile(captureDir, "screenshot.png", image, MaxScreenshotBytes); err != nil {
		log.Printf("[Capture] screenshot failed: %v", err)
		warnings = append(warnings, "Не удалось сохранить скриншот.")
	} else {
		screenshotPath = &relative
		createdFiles = append(createdFiles, relative)
	}

	if html, err := s.browser.ExtractPageHTML(ctx); err != nil {
		log.Printf("[Capture] html failed: %v", err)
		warnings = append(warnings, "Не удалось извлечь HTML страницы.")
	} else if strings.TrimSpace(html) == "" {
		warnings = append(warnings, "HTML страницы недоступен.")
	} else if len(html) > MaxHTMLBytes {
		warnings = append(warnings, "HTML слишком большой, сохранение пропущено.")
	} else if relative, err := s.files.WriteCaptureFile(captureDir, "page.html", []byte(html), MaxHTMLBytes); err != nil {
		log.Printf("[Capture] html failed: %v", err)
		warnings = append(warnings, "Не удалось извлечь HTML страницы.")
	} else {
		htmlPath = &relative
		createdFiles = append(createdFiles, relative)
	}

	if text, err := s.browser.ExtractPageText(ctx); err != nil {
		log.Printf("[Capture] text failed: %v", err)
		warnings = append(warnings, "Не удалось извлечь текст страницы.")
	} else if strings.TrimSpace(text) == "" {
		warnings = append(warnings, "Текст страницы недоступен.")
	} else if len(text) > MaxTextBytes {
		warnings = append(warnings, "Текст страницы слишком большой, сохранение пропущено.")
	} else if relative, err := s.files.WriteCaptureFile(captureDir, "page.txt", []byte(text), MaxTextBytes); err != nil {
		log.Printf("[Capture] text failed: %v", err)
		warnings = append(warnings, "Не удалось извлечь текст страницы.")
	} else {
		textPath = &relative
		createdFiles = append(createdFiles, relative)
	}

	if screenshotPath == nil && htmlPath == nil && textPath == nil {
		s.files.Cleanup(createdFiles)
		return nil, Fail(CodeCaptureFailed, "Не удалось сохранить артефакт.")
	}

	artifact := &models.Artifact{
		CaseID:         caseID,
		SubjectID:      subjectID,
		Source:         source,
		URL:            pageURL,
		Title:          title,
		CapturedAt:     capturedAt,
		ScreenshotPath: screenshotPath,
		HTMLPath:       htmlPath,
		TextPath:       textPath,
		ContentHash:    contentHash(pageURL, deref(title), deref(source), capturedAt),
	}
	if err := insertArtifact(s.db, artifact); err != nil {
		log.Printf("[DB] captureArtifact failed: %v", err)
		s.files.Cleanup(createdFiles)
		return nil, Fail(CodeDBError, "Не удалось сохранить артефакт.")
	}

	s.archiveAsync(artifact.ID, createdFiles)

	row, err := selectArtifactWithLegal(s.db, artifact.ID)
	if err != nil {
		return nil, Fail(CodeDBError, "Не удалось сохранить артефакт.")
	}
	return &CaptureResult{
		Artifact: s.mapRow(row),
		Warnings: warnings,
		Partial:  len(warnings) > 0,
	}, nil
}

// archiveAsync mirrors freshly persisted capture files off-site when an
// archive is configured. Best effort: failures are logged, never surfaced.
func (s *ArtifactService) archiveAsync(artifactID uint, relativePaths []string) {
	if s.archive == nil || !s.archive.Enabled() {
		return
	}
	paths := append([]string(nil), relativePaths...)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ArchiveTimeout)
		defer cancel()
		s.archive.MirrorArtifactFiles(ctx, s.files, artifactID, paths)
	}()
}

// archiveDeleteAsync removes the mirrored copies after a local delete, so
// deleted evidence does not linger off-machine. Best effort, like the upload.
func (s *ArtifactService) archiveDeleteAsync(artifactID uint, relativePaths []string) {
	if s.archive == nil || !s.archive.Enabled() {
		return
	}
	paths := append([]string(nil), relativePaths...)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ArchiveTimeout)
		defer cancel()
		s.archive.DeleteArtifactFiles(ctx, artifactID, paths)
	}()
}

// ListArtifacts returns the artifacts of one case, with legal annotations.
func (s *ArtifactService) ListArtifacts(caseID uint) ([]*models.ArtifactView, error) {
	if err := s.validateCaseAndSubject(caseID, nil); err != nil {
		return nil, err
	}
	rows, err := listArtifactsByCase(s.db, caseID)
	if err != nil {
		return nil, Fail(CodeDBError, "Не удалось загрузить артефакты.")
	}
	views := make([]*models.ArtifactView, 0, len(rows))
	for i := range rows {
		views = append(views, s.mapRow(&rows[i]))
	}
	return views, nil
}

// GetArtifact fetches one artifact with its legal annotation.
func (s *ArtifactService) GetArtifact(artifactID uint) (*models.ArtifactView, error) {
	if artifactID == 0 {
		return nil, Fail(CodeInvalidArgument, "artifactId должен быть положительным целым числом.")
	}
	row, err := selectArtifactWithLegal(s.db, artifactID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Fail(CodeNotFound, "Артефакт не найден.")
		}
		return nil, Fail(CodeDBError, "Не удалось загрузить артефакт.")
	}
	return s.mapRow(row), nil
}

// DeleteArtifact removes the row first, then the files, best effort: a
// row without files is harmless, files without a row would be orphans.
func (s *ArtifactService) DeleteArtifact(artifactID uint) error {
	if artifactID == 0 {
		return Fail(CodeInvalidArgument, "artifactId должен быть положительным целым числом.")
	}
	artifact, err := deleteArtifactRow(s.db, artifactID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Fail(CodeNotFound, "Артефакт не найден.")
		}
		log.Printf("[DB] deleteArtifact failed: %v", err)
		return Fail(CodeDBError, "Не удалось удалить артефакт.")
	}
	var stale []string
	for _, p := range []*string{artifact.ScreenshotPath, artifact.HTMLPath, artifact.TextPath} {
		if p != nil {
			if clean := SanitizeStoredPath(s.files.BaseDir(), *p); clean != "" {
				stale = append(stale, clean)
			}
		}
	}
	s.files.Cleanup(stale)
	s.archiveDeleteAsync(artifactID, stale)
	return nil
}
