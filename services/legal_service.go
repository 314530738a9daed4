package services

import (
	"fmt"
	"log"
	"time"

	"osint_casework_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LegalService manages per-artifact legal annotations: the link rows that
// attach a legal mark plus a point-in-time article text to an artifact.
type LegalService struct {
	db    *gorm.DB
	files *FileStore
}

func NewLegalService(db *gorm.DB, files *FileStore) *LegalService {
	return &LegalService{db: db, files: files}
}

// LegalMarkItem is the reference-list entry shown in annotation pickers.
type LegalMarkItem struct {
	ID          uint    `json:"id"`
	Label       string  `json:"label"`
	Description *string `json:"description"`
}

// ListLegalMarks returns the shared reference list.
func (s *LegalService) ListLegalMarks() ([]LegalMarkItem, error) {
	var marks []models.LegalMark
	if err := s.db.Order("label").Find(&marks).Error; err != nil {
		return nil, Fail(CodeDBError, "Не удалось загрузить список юридических меток.")
	}
	items := make([]LegalMarkItem, 0, len(marks))
	for _, m := range marks {
		items = append(items, LegalMarkItem{ID: m.ID, Label: m.Label, Description: m.Description})
	}
	return items, nil
}

// AnnotationInput attaches one legal mark to an artifact.
type AnnotationInput struct {
	LegalMarkID uint    `json:"legalMarkId"`
	ArticleText string  `json:"articleText"`
	Comment     *string `json:"comment"`
}

func upsertAnnotation(db *gorm.DB, artifactID, legalMarkID uint, articleText string, comment *string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	link := models.ArtifactLegalMark{
		ArtifactID:  artifactID,
		LegalMarkID: legalMarkID,
		ArticleText: articleText,
		Comment:     comment,
		CreatedAt:   now,
		UpdatedAt:   &now,
	}
	// At most one annotation per artifact: re-annotating replaces the
	// prior link via upsert on the artifact_id uniqueness constraint.
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "artifact_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"legal_mark_id", "article_text", "comment", "updated_at",
		}),
	}).Create(&link).Error
}

// SetArtifactLegal upserts the annotation for one artifact.
func (s *LegalService) SetArtifactLegal(artifactID uint, input AnnotationInput) (*models.ArtifactView, error) {
	if artifactID == 0 {
		return nil, Fail(CodeInvalidArgument, "artifactId должен быть положительным целым числом.")
	}
	if input.LegalMarkID == 0 {
		return nil, Fail(CodeInvalidArgument, "legalMarkId обязателен и должен быть положительным целым числом.")
	}
	articleText, serr := ValidateArticleText(input.ArticleText, "articleText", MaxLegalTextLength)
	if serr != nil {
		return nil, serr
	}
	comment, serr := ValidateOptionalString(input.Comment, "comment", MaxCommentLength)
	if serr != nil {
		return nil, serr
	}

	exists, err := artifactExists(s.db, artifactID)
	if err != nil {
		log.Printf("[DB] setArtifactLegal failed: %v", err)
		return nil, Fail(CodeDBError, "Не удалось сохранить юридическую привязку.")
	}
	if !exists {
		return nil, Fail(CodeNotFound, "Артефакт не найден.")
	}
	var mark models.LegalMark
	if err := s.db.First(&mark, input.LegalMarkID).Error; err != nil {
		return nil, Fail(CodeInvalidArgument, "Выбранная юридическая метка отсутствует в справочнике.")
	}

	if err := upsertAnnotation(s.db, artifactID, input.LegalMarkID, articleText, comment); err != nil {
		log.Printf("[DB] setArtifactLegal failed: %v", err)
		return nil, Fail(CodeDBError, "Не удалось сохранить юридическую привязку.")
	}

	row, err := selectArtifactWithLegal(s.db, artifactID)
	if err != nil {
		return nil, Fail(CodeDBError, "Не удалось сохранить юридическую привязку.")
	}
	return mapArtifactRow(s.files, row), nil
}

// CaseMarkInput is one entry of a bulk annotation update. A mark is
// addressed by id, or created on the fly when only a label is supplied.
type CaseMarkInput struct {
	ArtifactID  uint    `json:"artifactId"`
	LegalMarkID *uint   `json:"legalMarkId"`
	Label       *string `json:"label"`
	ArticleText string  `json:"articleText"`
	Comment     *string `json:"comment"`
}

type normalizedMark struct {
	artifactID  uint
	legalMarkID uint
	label       string
	articleText string
	comment     *string
}

// UpdateCaseLegalMarks replaces every annotation of a case in one
// transaction, so a partial failure leaves no orphaned links. All
// referenced artifacts must belong to the claimed case.
func (s *LegalService) UpdateCaseLegalMarks(caseID uint, marks []CaseMarkInput) (int, error) {
	if caseID == 0 {
		return 0, Fail(CodeInvalidArgument, "caseId должен быть положительным целым числом.")
	}
	if len(marks) > MaxMarksPerUpdate {
		return 0, Fail(CodeInvalidArgument, "Список меток слишком большой.")
	}

	normalized := make([]normalizedMark, 0, len(marks))
	for index, mark := range marks {
		if mark.ArtifactID == 0 {
			return 0, Fail(CodeInvalidArgument,
				fmt.Sprintf("marks[%d].artifactId должен быть положительным целым числом.", index))
		}
		var label string
		if mark.LegalMarkID == nil || *mark.LegalMarkID == 0 {
			validated, serr := ValidateRequiredString(deref(mark.Label),
				fmt.Sprintf("marks[%d].label", index), MaxLabelLength)
			if serr != nil {
				return 0, serr
			}
			label = validated
		}
		articleText, serr := ValidateArticleText(mark.ArticleText,
			fmt.Sprintf("marks[%d].articleText", index), MaxLegalTextLength)
		if serr != nil {
			return 0, serr
		}
		comment, serr := ValidateOptionalString(mark.Comment,
			fmt.Sprintf("marks[%d].comment", index), MaxCommentLength)
		if serr != nil {
			return 0, serr
		}
		entry := normalizedMark{
			artifactID:  mark.ArtifactID,
			label:       label,
			articleText: articleText,
			comment:     comment,
		}
		if mark.LegalMarkID != nil {
			entry.legalMarkID = *mark.LegalMarkID
		}
		normalized = append(normalized, entry)
	}

	exists, err := caseExists(s.db, caseID)
	if err != nil {
		log.Printf("[DB] updateLegalMarks failed: %v", err)
		return 0, Fail(CodeDBError, "Не удалось обновить правовые метки.")
	}
	if !exists {
		return 0, Fail(CodeNotFound, "Дело не найдено.")
	}

	artifactIDs, err := listArtifactIDsByCase(s.db, caseID)
	if err != nil {
		log.Printf("[DB] updateLegalMarks failed: %v", err)
		return 0, Fail(CodeDBError, "Не удалось обновить правовые метки.")
	}
	for _, mark := range normalized {
		if !artifactIDs[mark.artifactID] {
			return 0, Fail(CodeInvalidArgument, "marks содержат артефакты вне этого дела.")
		}
	}
	for index, mark := range normalized {
		if mark.legalMarkID != 0 {
			var count int64
			if err := s.db.Model(&models.LegalMark{}).Where("id = ?", mark.legalMarkID).Count(&count).Error; err != nil {
				return 0, Fail(CodeDBError, "Не удалось обновить правовые метки.")
			}
			if count == 0 {
				return 0, Fail(CodeInvalidArgument,
					fmt.Sprintf("marks[%d].legalMarkId не найден.", index))
			}
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("artifact_id IN (SELECT id FROM artifacts WHERE case_id = ?)", caseID).
			Delete(&models.ArtifactLegalMark{}).Error; err != nil {
			return err
		}
		for _, mark := range normalized {
			legalMarkID := mark.legalMarkID
			if legalMarkID == 0 {
				found, err := findOrCreateMark(tx, mark.label)
				if err != nil {
					return err
				}
				legalMarkID = found
			}
			if err := upsertAnnotation(tx, mark.artifactID, legalMarkID, mark.articleText, mark.comment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[DB] updateLegalMarks failed: %v", err)
		return 0, Fail(CodeDBError, "Не удалось обновить правовые метки.")
	}
	return len(normalized), nil
}

func findOrCreateMark(tx *gorm.DB, label string) (uint, error) {
	var mark models.LegalMark
	err := tx.Where("label = ?", label).First(&mark).Error
	if err == nil {
		return mark.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, err
	}
	mark = models.LegalMark{
		Label:     label,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := tx.Create(&mark).Error; err != nil {
		return 0, err
	}
	return mark.ID, nil
}

// LegalForm mirrors the annotation editor state for one artifact.
type LegalForm struct {
	LegalMarkID string `json:"legalMarkId"`
	ArticleText string `json:"articleText"`
	Comment     string `json:"comment"`
}

// BuildLegalFormFromArtifact reproduces the editor form for an artifact's
// current annotation; an unannotated artifact yields an empty form.
func BuildLegalFormFromArtifact(artifact *models.ArtifactView) LegalForm {
	if artifact == nil {
		return LegalForm{}
	}
	form := LegalForm{
		ArticleText: deref(artifact.ArticleText),
		Comment:     deref(artifact.LegalComment),
	}
	if artifact.LegalMarkID != nil && *artifact.LegalMarkID > 0 {
		form.LegalMarkID = fmt.Sprintf("%d", *artifact.LegalMarkID)
	}
	return form
}
