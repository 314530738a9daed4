package services

import (
	"fmt"
	"testing"

	"osint_casework_go/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Each test gets its own shared-cache in-memory database, so pooled
// connections inside one test see the same data while tests stay isolated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:mem_%s?mode=memory&cache=shared&_foreign_keys=on", uuid.New().String())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Case{}, &models.Subject{}, &models.Artifact{},
		&models.LegalMark{}, &models.ArtifactLegalMark{}, &models.LegalMarkHistory{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	files, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	return files
}

func createTestCase(t *testing.T, conn *gorm.DB, title string) *models.Case {
	t.Helper()
	item := &models.Case{Title: title, Status: models.CaseStatusOpen}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("failed to create case: %v", err)
	}
	return item
}

func createTestMark(t *testing.T, conn *gorm.DB, label, articleText string) *models.LegalMark {
	t.Helper()
	mark := &models.LegalMark{
		Label:       label,
		ArticleText: articleText,
		CreatedAt:   "2026-01-10T09:00:00Z",
	}
	if err := conn.Create(mark).Error; err != nil {
		t.Fatalf("failed to create legal mark: %v", err)
	}
	return mark
}

func strPtr(s string) *string {
	return &s
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if got := ErrorCode(err); got != code {
		t.Fatalf("expected code %s, got %s (%v)", code, got, err)
	}
}
