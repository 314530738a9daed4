package services

import (
	"errors"
	"fmt"
	"strings"

	"osint_casework_go/models"

	"gorm.io/gorm"
)

// CaseService owns case and subject CRUD. It is constructed once at
// process start and injected wherever needed.
type CaseService struct {
	db *gorm.DB
}

func NewCaseService(db *gorm.DB) *CaseService {
	return &CaseService{db: db}
}

// CaseInput is the caller-supplied payload for create/update.
type CaseInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assignedTo"`
	Status      string  `json:"status"`
}

func (s *CaseService) validateCaseInput(input CaseInput) (*models.Case, error) {
	title, serr := ValidateRequiredString(input.Title, "title", MaxTitleLength)
	if serr != nil {
		return nil, serr
	}
	description, serr := ValidateOptionalString(input.Description, "description", MaxDescriptionLength)
	if serr != nil {
		return nil, serr
	}
	assignedTo, serr := ValidateOptionalString(input.AssignedTo, "assignedTo", MaxLabelLength)
	if serr != nil {
		return nil, serr
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = models.CaseStatusOpen
	}
	if !models.AllowedCaseStatuses[status] {
		return nil, Fail(CodeInvalidArgument,
			"status должен быть одним из: open, closed, paused, archived.")
	}
	return &models.Case{
		Title:       title,
		Description: description,
		AssignedTo:  assignedTo,
		Status:      status,
	}, nil
}

// ListCases returns all cases, newest first.
func (s *CaseService) ListCases() ([]models.Case, error) {
	var cases []models.Case
	if err := s.db.Order("created_at DESC").Find(&cases).Error; err != nil {
		return nil, Fail(CodeDBError, "Не удалось загрузить дела.")
	}
	return cases, nil
}

// GetCase fetches one case by id.
func (s *CaseService) GetCase(id uint) (*models.Case, error) {
	if id == 0 {
		return nil, Fail(CodeInvalidArgument, "caseId должен быть положительным целым числом.")
	}
	var item models.Case
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Fail(CodeNotFound, "Дело не найдено.")
		}
		return nil, Fail(CodeDBError, "Не удалось загрузить дело.")
	}
	return &item, nil
}

// CreateCase validates and inserts a case.
func (s *CaseService) CreateCase(input CaseInput) (*models.Case, error) {
	item, err := s.validateCaseInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.db.Create(item).Error; err != nil {
		return nil, Fail(CodeDBError, "Не удалось создать дело.")
	}
	return item, nil
}

// UpdateCase validates and rewrites the mutable case fields in place.
func (s *CaseService) UpdateCase(id uint, input CaseInput) (*models.Case, error) {
	current, err := s.GetCase(id)
	if err != nil {
		return nil, err
	}
	validated, err := s.validateCaseInput(input)
	if err != nil {
		return nil, err
	}
	current.Title = validated.Title
	current.Description = validated.Description
	current.AssignedTo = validated.AssignedTo
	current.Status = validated.Status
	if err := s.db.Save(current).Error; err != nil {
		return nil, Fail(CodeDBError, "Не удалось обновить дело.")
	}
	return current, nil
}

// DeleteCase removes a case; subjects and artifacts follow by cascade.
func (s *CaseService) DeleteCase(id uint) error {
	if id == 0 {
		return Fail(CodeInvalidArgument, "caseId должен быть положительным целым числом.")
	}
	result := s.db.Delete(&models.Case{}, id)
	if result.Error != nil {
		return Fail(CodeDBError, "Не удалось удалить дело.")
	}
	if result.RowsAffected == 0 {
		return Fail(CodeNotFound, "Дело не найдено.")
	}
	return nil
}

// SubjectInput is the caller-supplied payload for subjects.
type SubjectInput struct {
	Name     string  `json:"name"`
	Platform *string `json:"platform"`
	Handle   *string `json:"handle"`
	URL      *string `json:"url"`
	Notes    *string `json:"notes"`
}

// ListSubjects returns the subjects of one case.
func (s *CaseService) ListSubjects(caseID uint) ([]models.Subject, error) {
	if _, err := s.GetCase(caseID); err != nil {
		return nil, err
	}
	var subjects []models.Subject
	if err := s.db.Where("case_id = ?", caseID).Order("id").Find(&subjects).Error; err != nil {
		return nil, Fail(CodeDBError, "Не удалось загрузить фигурантов.")
	}
	return subjects, nil
}

// CreateSubject validates and inserts a subject under a case.
func (s *CaseService) CreateSubject(caseID uint, input SubjectInput) (*models.Subject, error) {
	if _, err := s.GetCase(caseID); err != nil {
		return nil, err
	}
	name, serr := ValidateRequiredString(input.Name, "name", MaxLabelLength)
	if serr != nil {
		return nil, serr
	}
	platform, serr := ValidateOptionalString(input.Platform, "platform", MaxLabelLength)
	if serr != nil {
		return nil, serr
	}
	handle, serr := ValidateOptionalString(input.Handle, "handle", MaxLabelLength)
	if serr != nil {
		return nil, serr
	}
	subjectURL, serr := ValidateOptionalString(input.URL, "url", MaxURLLength)
	if serr != nil {
		return nil, serr
	}
	notes, serr := ValidateOptionalString(input.Notes, "notes", MaxDescriptionLength)
	if serr != nil {
		return nil, serr
	}
	subject := &models.Subject{
		CaseID:   caseID,
		Name:     name,
		Platform: platform,
		Handle:   handle,
		URL:      subjectURL,
		Notes:    notes,
	}
	if err := s.db.Create(subject).Error; err != nil {
		return nil, Fail(CodeDBError, "Не удалось создать фигуранта.")
	}
	return subject, nil
}

// DeleteSubject removes one subject from a case. Artifacts referencing it
// keep their rows with subject_id set to null.
func (s *CaseService) DeleteSubject(caseID, subjectID uint) error {
	if caseID == 0 || subjectID == 0 {
		return Fail(CodeInvalidArgument, "caseId и subjectId должны быть положительными целыми числами.")
	}
	result := s.db.Where("case_id = ?", caseID).Delete(&models.Subject{}, subjectID)
	if result.Error != nil {
		return Fail(CodeDBError, "Не удалось удалить фигуранта.")
	}
	if result.RowsAffected == 0 {
		return Fail(CodeNotFound, fmt.Sprintf("Фигурант %d не найден в деле %d.", subjectID, caseID))
	}
	return nil
}
