package services

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"osint_casework_go/config"
	"osint_casework_go/models"

	"gorm.io/gorm"
)

// SettingsService manages the shared legal-mark reference table with
// multi-admin safety: optimistic concurrency on update and rollback, a
// gapless history trail, and a local pending-changes fallback when the
// store itself is unreachable.
type SettingsService struct {
	db          *gorm.DB
	pendingPath string

	rbacEnabled bool
	adminFlag   bool
	adminUsers  []string

	// overridable in tests
	currentUser func() string
	now         func() time.Time
}

func NewSettingsService(db *gorm.DB, cfg *config.Config) *SettingsService {
	return &SettingsService{
		db:          db,
		pendingPath: cfg.PendingSettingsPath(),
		rbacEnabled: cfg.RBACEnabled,
		adminFlag:   cfg.AdminFlag,
		adminUsers:  cfg.AdminUsers,
		currentUser: config.CurrentUser,
		now:         time.Now,
	}
}

// AccessContext tells the UI who the user is and whether edits are allowed.
type AccessContext struct {
	CurrentUser string `json:"currentUser"`
	CanEdit     bool   `json:"canEdit"`
}

// Access derives edit rights from the environment allow-list. RBAC is
// opt-in: when disabled, everyone can edit.
func (s *SettingsService) Access() AccessContext {
	return AccessContext{CurrentUser: s.currentUser(), CanEdit: s.canEdit()}
}

func (s *SettingsService) canEdit() bool {
	if !s.rbacEnabled {
		return true
	}
	if s.adminFlag {
		return true
	}
	if len(s.adminUsers) == 0 {
		return true
	}
	current := s.currentUser()
	for _, allowed := range s.adminUsers {
		if allowed == current {
			return true
		}
	}
	return false
}

func (s *SettingsService) requireEdit() error {
	if !s.canEdit() {
		return Fail(CodeForbidden, "Недостаточно прав для изменения настроек.")
	}
	return nil
}

// LegalSettingItem is one legal mark as shown in the settings editor.
type LegalSettingItem struct {
	ID          uint    `json:"id"`
	Label       string  `json:"label"`
	Description *string `json:"description"`
	ArticleText string  `json:"articleText"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   *string `json:"updatedAt"`
	UpdatedBy   *string `json:"updatedBy"`
}

func mapSettingItem(m *models.LegalMark) *LegalSettingItem {
	return &LegalSettingItem{
		ID:          m.ID,
		Label:       m.Label,
		Description: m.Description,
		ArticleText: m.ArticleText,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		UpdatedBy:   m.UpdatedBy,
	}
}

// SettingsList bundles the item list with the caller's access context.
type SettingsList struct {
	Access AccessContext      `json:"access"`
	Items  []LegalSettingItem `json:"items"`
}

// ListLegalSettings returns all marks plus the access context.
func (s *SettingsService) ListLegalSettings() (*SettingsList, error) {
	var marks []models.LegalMark
	if err := s.db.Order("label").Find(&marks).Error; err != nil {
		log.Printf("[DB] listLegalSettings failed: %v", err)
		return nil, Fail(CodeDBError, "Не удалось загрузить настройки меток.")
	}
	items := make([]LegalSettingItem, 0, len(marks))
	for i := range marks {
		items = append(items, *mapSettingItem(&marks[i]))
	}
	return &SettingsList{Access: s.Access(), Items: items}, nil
}

// SettingResult is the outcome of a mutating settings call. Pending is set
// when the store was unreachable and the change was captured locally
// instead: the investigator's input is not lost, reconciliation is a
// manual step.
type SettingResult struct {
	Item        *LegalSettingItem `json:"item"`
	Pending     bool              `json:"pending,omitempty"`
	PendingPath string            `json:"pendingPath,omitempty"`
}

// CreateSettingInput is the payload for CreateLegalSetting.
type CreateSettingInput struct {
	Label       string  `json:"label"`
	ArticleText string  `json:"articleText"`
	Description *string `json:"description"`
}

// CreateLegalSetting inserts a new mark. A label-uniqueness violation maps
// to DUPLICATE; a store-level failure degrades to the pending file.
func (s *SettingsService) CreateLegalSetting(input CreateSettingInput) (*SettingResult, error) {
	if err := s.requireEdit(); err != nil {
		return nil, err
	}
	label, serr := ValidateRequiredString(input.Label, "label", MaxLabelLength)
	if serr != nil {
		return nil, serr
	}
	articleText, serr := ValidateArticleText(input.ArticleText, "articleText", MaxLegalTextLength)
	if serr != nil {
		return nil, serr
	}
	description, serr := ValidateOptionalString(input.Description, "description", MaxLegalTextLength)
	if serr != nil {
		return nil, serr
	}

	updatedBy := s.currentUser()
	mark := models.LegalMark{
		Label:       label,
		Description: description,
		ArticleText: articleText,
		CreatedAt:   s.timestamp(),
		UpdatedBy:   &updatedBy,
	}
	if err := s.db.Create(&mark).Error; err != nil {
		if strings.Contains(err.Error(), "legal_marks.label") {
			return nil, Fail(CodeDuplicate, "Метка с таким названием уже существует.")
		}
		log.Printf("[DB] createLegalSetting failed: %v", err)
		pendingPath := s.storePendingChange(PendingChange{
			Type:        "create",
			Label:       label,
			Description: description,
			ArticleText: articleText,
			UpdatedBy:   updatedBy,
			SavedAt:     s.timestamp(),
		})
		return &SettingResult{
			Pending:     true,
			PendingPath: pendingPath,
			Item:        &LegalSettingItem{Label: label, ArticleText: articleText, UpdatedBy: &updatedBy},
		}, nil
	}
	return &SettingResult{Item: mapSettingItem(&mark)}, nil
}

var (
	errSettingNotFound = errors.New("setting not found")
	errSettingConflict = errors.New("setting conflict")
	errHistoryNotFound = errors.New("history not found")
)

func sameStamp(a, b *string) bool {
	return deref(a) == deref(b)
}

// mutateWithOCC runs the optimistic-concurrency envelope shared by update
// and rollback: inside one transaction, re-read the row, compare its
// updatedAt with the caller's last-seen value, push the current state to
// history, then apply newText. The history write precedes the update in
// the same transaction, so the trail is gapless.
func (s *SettingsService) mutateWithOCC(id uint, expectedUpdatedAt *string,
	resolveText func(tx *gorm.DB, current *models.LegalMark) (string, error)) (*models.LegalMark, error) {

	updatedBy := s.currentUser()
	var updated models.LegalMark

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.LegalMark
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errSettingNotFound
			}
			return err
		}
		if !sameStamp(current.UpdatedAt, expectedUpdatedAt) {
			return errSettingConflict
		}

		newText, err := resolveText(tx, &current)
		if err != nil {
			return err
		}

		historyStamp := current.CreatedAt
		if current.UpdatedAt != nil {
			historyStamp = *current.UpdatedAt
		}
		history := models.LegalMarkHistory{
			LegalMarkID: current.ID,
			ArticleText: current.ArticleText,
			UpdatedBy:   current.UpdatedBy,
			UpdatedAt:   historyStamp,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		now := s.timestamp()
		result := tx.Model(&models.LegalMark{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"article_text": newText,
				"updated_by":   updatedBy,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errSettingConflict
		}
		return tx.First(&updated, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateLegalSetting rewrites a mark's article text under optimistic
// concurrency: the caller supplies the updatedAt it last observed, and a
// mismatch aborts with CONFLICT without writing anything. A store-level
// failure degrades to the pending file.
func (s *SettingsService) UpdateLegalSetting(id uint, articleText string, expectedUpdatedAt *string) (*SettingResult, error) {
	if err := s.requireEdit(); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, Fail(CodeInvalidArgument, "legalMarkId должен быть числом.")
	}
	validated, serr := ValidateArticleText(articleText, "articleText", MaxLegalTextLength)
	if serr != nil {
		return nil, serr
	}

	updated, err := s.mutateWithOCC(id, expectedUpdatedAt,
		func(tx *gorm.DB, current *models.LegalMark) (string, error) {
			return validated, nil
		})
	switch {
	case err == nil:
		return &SettingResult{Item: mapSettingItem(updated)}, nil
	case errors.Is(err, errSettingNotFound):
		return nil, Fail(CodeNotFound, "Метка не найдена.")
	case errors.Is(err, errSettingConflict):
		return nil, Fail(CodeConflict, "Метка уже обновлена другим администратором. Обновите список.")
	default:
		log.Printf("[DB] updateLegalSetting failed: %v", err)
		pendingPath := s.storePendingChange(PendingChange{
			Type:              "update",
			LegalMarkID:       id,
			ArticleText:       validated,
			ExpectedUpdatedAt: expectedUpdatedAt,
			UpdatedBy:         s.currentUser(),
			SavedAt:           s.timestamp(),
		})
		updatedBy := s.currentUser()
		return &SettingResult{
			Pending:     true,
			PendingPath: pendingPath,
			Item: &LegalSettingItem{
				ID:          id,
				ArticleText: validated,
				UpdatedAt:   expectedUpdatedAt,
				UpdatedBy:   &updatedBy,
			},
		}, nil
	}
}

// RollbackLegalSetting restores a historical article text under the same
// optimistic-concurrency envelope. Rollback is itself a new, audited edit
// attributed to the user performing it, never a silent revert: the current
// state is pushed to history first, so no value in the chain is ever lost.
func (s *SettingsService) RollbackLegalSetting(id, historyID uint, expectedUpdatedAt *string) (*SettingResult, error) {
	if err := s.requireEdit(); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, Fail(CodeInvalidArgument, "legalMarkId должен быть числом.")
	}
	if historyID == 0 {
		return nil, Fail(CodeInvalidArgument, "historyId должен быть числом.")
	}

	updated, err := s.mutateWithOCC(id, expectedUpdatedAt,
		func(tx *gorm.DB, current *models.LegalMark) (string, error) {
			var historyRow models.LegalMarkHistory
			if err := tx.First(&historyRow, historyID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return "", errHistoryNotFound
				}
				return "", err
			}
			if historyRow.LegalMarkID != id {
				return "", errHistoryNotFound
			}
			return historyRow.ArticleText, nil
		})
	switch {
	case err == nil:
		return &SettingResult{Item: mapSettingItem(updated)}, nil
	case errors.Is(err, errSettingNotFound):
		return nil, Fail(CodeNotFound, "Метка не найдена.")
	case errors.Is(err, errHistoryNotFound):
		return nil, Fail(CodeNotFound, "Запись истории не найдена.")
	case errors.Is(err, errSettingConflict):
		return nil, Fail(CodeConflict, "Метка уже обновлена другим администратором. Обновите список.")
	default:
		log.Printf("[DB] rollbackLegalSetting failed: %v", err)
		return nil, Fail(CodeDBError, "Не удалось откатить изменения.")
	}
}

// HistoryItem is one prior state of a legal mark.
type HistoryItem struct {
	ID          uint    `json:"id"`
	LegalMarkID uint    `json:"legalMarkId"`
	ArticleText string  `json:"articleText"`
	UpdatedAt   string  `json:"updatedAt"`
	UpdatedBy   *string `json:"updatedBy"`
}

// ListLegalSettingHistory returns the newest limit history rows of a mark.
func (s *SettingsService) ListLegalSettingHistory(id uint, limit int) ([]HistoryItem, error) {
	if id == 0 {
		return nil, Fail(CodeInvalidArgument, "legalMarkId должен быть числом.")
	}
	if limit <= 0 {
		limit = 20
	}
	var rows []models.LegalMarkHistory
	err := s.db.Where("legal_mark_id = ?", id).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		log.Printf("[DB] listLegalSettingHistory failed: %v", err)
		return nil, Fail(CodeDBError, "Не удалось загрузить историю изменений.")
	}
	items := make([]HistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, HistoryItem{
			ID:          row.ID,
			LegalMarkID: row.LegalMarkID,
			ArticleText: row.ArticleText,
			UpdatedAt:   row.UpdatedAt,
			UpdatedBy:   row.UpdatedBy,
		})
	}
	return items, nil
}

func (s *SettingsService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// PendingChange is one locally captured edit awaiting manual
// reconciliation with the store.
type PendingChange struct {
	Type              string  `json:"type"`
	LegalMarkID       uint    `json:"legalMarkId,omitempty"`
	Label             string  `json:"label,omitempty"`
	Description       *string `json:"description,omitempty"`
	ArticleText       string  `json:"articleText"`
	ExpectedUpdatedAt *string `json:"expectedUpdatedAt,omitempty"`
	UpdatedBy         string  `json:"updatedBy"`
	SavedAt           string  `json:"savedAt"`
}

type pendingFile struct {
	UpdatedAt string          `json:"updatedAt"`
	Changes   []PendingChange `json:"changes"`
}

// storePendingChange appends the change to the local pending file. Losing
// investigator input is worse than temporary inconsistency, so this path
// never fails the caller; its own errors are only logged.
func (s *SettingsService) storePendingChange(change PendingChange) string {
	payload := pendingFile{UpdatedAt: s.timestamp()}
	if raw, err := os.ReadFile(s.pendingPath); err == nil {
		var parsed pendingFile
		if json.Unmarshal(raw, &parsed) == nil && parsed.Changes != nil {
			payload.Changes = parsed.Changes
		}
	}
	payload.Changes = append(payload.Changes, change)

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Printf("[Settings] pending serialize failed: %v", err)
		return s.pendingPath
	}
	if err := os.WriteFile(s.pendingPath, raw, 0644); err != nil {
		log.Printf("[Settings] pending write failed: %v", err)
	}
	return s.pendingPath
}

// ListPendingChanges exposes the locally captured edits read-only; replay
// into the store is deliberately manual.
func (s *SettingsService) ListPendingChanges() ([]PendingChange, error) {
	raw, err := os.ReadFile(s.pendingPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, Fail(CodeFileError, "Не удалось прочитать отложенные изменения.")
	}
	var parsed pendingFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, Fail(CodeFileError, "Не удалось прочитать отложенные изменения.")
	}
	return parsed.Changes, nil
}
