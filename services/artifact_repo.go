package services

import (
	"errors"

	"osint_casework_go/models"

	"gorm.io/gorm"
)

// artifactLegalRow is the artifact row outer-joined with its legal
// annotation: an un-annotated artifact still comes back whole, with the
// annotation columns null.
type artifactLegalRow struct {
	ID             uint
	CaseID         uint
	SubjectID      *uint
	Source         *string
	URL            string
	Title          *string
	CapturedAt     string
	ScreenshotPath *string
	HTMLPath       *string `gorm:"column:html_path"`
	TextPath       *string
	ContentHash    string
	MetaJSON       *string `gorm:"column:meta_json"`
	LegalMarkID    *uint
	LegalMarkLabel *string
	ArticleText    *string
	LegalComment   *string
}

const artifactWithLegalSelect = `
SELECT a.id, a.case_id, a.subject_id, a.source, a.url, a.title, a.captured_at,
       a.screenshot_path, a.html_path, a.text_path, a.content_hash, a.meta_json,
       alm.legal_mark_id AS legal_mark_id,
       lm.label AS legal_mark_label,
       alm.article_text AS article_text,
       alm.comment AS legal_comment
FROM artifacts a
LEFT JOIN artifact_legal_marks alm ON alm.artifact_id = a.id
LEFT JOIN legal_marks lm ON lm.id = alm.legal_mark_id`

func caseExists(db *gorm.DB, caseID uint) (bool, error) {
	var count int64
	if err := db.Model(&models.Case{}).Where("id = ?", caseID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func subjectBelongsToCase(db *gorm.DB, subjectID, caseID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Subject{}).
		Where("id = ? AND case_id = ?", subjectID, caseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func insertArtifact(db *gorm.DB, artifact *models.Artifact) error {
	return db.Create(artifact).Error
}

func selectArtifactWithLegal(db *gorm.DB, artifactID uint) (*artifactLegalRow, error) {
	var row artifactLegalRow
	err := db.Raw(artifactWithLegalSelect+" WHERE a.id = ?", artifactID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func listArtifactsByCase(db *gorm.DB, caseID uint) ([]artifactLegalRow, error) {
	var rows []artifactLegalRow
	err := db.Raw(artifactWithLegalSelect+" WHERE a.case_id = ? ORDER BY a.captured_at DESC, a.id DESC", caseID).
		Scan(&rows).Error
	return rows, err
}

// listArtifactIDsByCase is the lightweight existence-check list used to
// validate that a batch of annotation updates only references artifacts
// within the claimed case.
func listArtifactIDsByCase(db *gorm.DB, caseID uint) (map[uint]bool, error) {
	var ids []uint
	err := db.Model(&models.Artifact{}).Where("case_id = ?", caseID).Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func artifactExists(db *gorm.DB, artifactID uint) (bool, error) {
	var count int64
	if err := db.Model(&models.Artifact{}).Where("id = ?", artifactID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func deleteArtifactRow(db *gorm.DB, artifactID uint) (*models.Artifact, error) {
	var artifact models.Artifact
	if err := db.First(&artifact, artifactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	if err := db.Delete(&models.Artifact{}, artifactID).Error; err != nil {
		return nil, err
	}
	return &artifact, nil
}
