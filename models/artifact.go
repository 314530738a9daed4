package models

import (
	"time"
)

// Artifact is a captured unit of evidence (screenshot/HTML/text) tied to a
// case and URL. At least one of the three file paths is non-null for every
// persisted row; the capture service never inserts an artifact whose file
// writes all failed.
//
// CapturedAt is stored as RFC3339 text rather than a time column: the value
// participates byte-for-byte in ContentHash, so it must survive a
// store-and-reload round trip unchanged.
type Artifact struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CaseID    uint     `gorm:"not null;index" json:"caseId"`
	SubjectID *uint    `gorm:"index" json:"subjectId,omitempty"`
	Subject   *Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:SET NULL" json:"-"`

	Source     *string `json:"source,omitempty"`
	URL        string  `gorm:"not null" json:"url"`
	Title      *string `json:"title,omitempty"`
	CapturedAt string  `gorm:"not null" json:"capturedAt"`

	// Relative to the artifacts base directory, forward-slash normalized.
	ScreenshotPath *string `json:"screenshotPath,omitempty"`
	HTMLPath       *string `gorm:"column:html_path" json:"htmlPath,omitempty"`
	TextPath       *string `json:"textPath,omitempty"`

	// SHA-256 over url, title, source and capturedAt. A metadata
	// fingerprint for dedupe and audit, not a content-integrity hash.
	ContentHash string  `gorm:"index" json:"contentHash"`
	MetaJSON    *string `gorm:"column:meta_json;type:text" json:"metaJson,omitempty"`

	LegalMark *ArtifactLegalMark `gorm:"foreignKey:ArtifactID;constraint:OnDelete:CASCADE" json:"-"`
}

// ArtifactView is the artifact row joined with its legal annotation, as
// returned to callers. File URLs point into the sandbox directory and are
// rebuilt (and re-validated) on every read.
type ArtifactView struct {
	ID         uint    `json:"id"`
	CaseID     uint    `json:"caseId"`
	SubjectID  *uint   `json:"subjectId"`
	Source     *string `json:"source"`
	URL        string  `json:"url"`
	Title      *string `json:"title"`
	CapturedAt string  `json:"capturedAt"`

	ScreenshotPath *string `json:"screenshotPath"`
	HTMLPath       *string `json:"htmlPath"`
	TextPath       *string `json:"textPath"`
	Size           int64   `json:"size"`

	ScreenshotFileURL *string `json:"screenshotFileUrl"`
	HTMLFileURL       *string `json:"htmlFileUrl"`
	TextFileURL       *string `json:"textFileUrl"`

	LegalMarkID    *uint   `json:"legalMarkId"`
	LegalMarkLabel *string `json:"legalMarkLabel"`
	ArticleText    *string `json:"articleText"`
	LegalComment   *string `json:"legalComment"`
}
