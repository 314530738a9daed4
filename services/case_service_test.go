package services

import (
	"testing"

	"osint_casework_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCase(t *testing.T) {
	svc := NewCaseService(setupTestDB(t))

	created, err := svc.CreateCase(CaseInput{
		Title:       "  Мониторинг форума  ",
		Description: strPtr("описание"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Мониторинг форума", created.Title)
	assert.Equal(t, models.CaseStatusOpen, created.Status)
	assert.NotZero(t, created.ID)

	_, err = svc.CreateCase(CaseInput{Title: ""})
	assertCode(t, err, CodeInvalidArgument)

	_, err = svc.CreateCase(CaseInput{Title: "t", Status: "frozen"})
	assertCode(t, err, CodeInvalidArgument)
}

func TestUpdateCase(t *testing.T) {
	svc := NewCaseService(setupTestDB(t))

	created, err := svc.CreateCase(CaseInput{Title: "до"})
	require.NoError(t, err)

	updated, err := svc.UpdateCase(created.ID, CaseInput{Title: "после", Status: models.CaseStatusClosed})
	require.NoError(t, err)
	assert.Equal(t, "после", updated.Title)
	assert.Equal(t, models.CaseStatusClosed, updated.Status)

	_, err = svc.UpdateCase(9999, CaseInput{Title: "x"})
	assertCode(t, err, CodeNotFound)
}

func TestDeleteCase(t *testing.T) {
	svc := NewCaseService(setupTestDB(t))

	created, err := svc.CreateCase(CaseInput{Title: "удаляемое"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCase(created.ID))
	_, err = svc.GetCase(created.ID)
	assertCode(t, err, CodeNotFound)

	assertCode(t, svc.DeleteCase(created.ID), CodeNotFound)
	assertCode(t, svc.DeleteCase(0), CodeInvalidArgument)
}

func TestDeleteCaseCascades(t *testing.T) {
	conn := setupTestDB(t)
	files := newTestFileStore(t)
	cases := NewCaseService(conn)
	artifacts := NewArtifactService(conn, files, nil, nil)
	legal := NewLegalService(conn, files)

	caseItem := createTestCase(t, conn, "дело")
	_, err := cases.CreateSubject(caseItem.ID, SubjectInput{Name: "Иванов"})
	require.NoError(t, err)
	artifact := saveTextArtifact(t, artifacts, caseItem.ID)
	mark := createTestMark(t, conn, "Дискредитация", "Статья 20.3.3 КоАП РФ")
	_, err = legal.SetArtifactLegal(artifact.ID, AnnotationInput{
		LegalMarkID: mark.ID,
		ArticleText: "Статья 20.3.3 КоАП РФ",
	})
	require.NoError(t, err)

	require.NoError(t, cases.DeleteCase(caseItem.ID))

	var count int64
	require.NoError(t, conn.Model(&models.Subject{}).Where("case_id = ?", caseItem.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, conn.Model(&models.Artifact{}).Where("case_id = ?", caseItem.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, conn.Model(&models.ArtifactLegalMark{}).Where("artifact_id = ?", artifact.ID).Count(&count).Error)
	assert.Zero(t, count)

	// Marks are shared reference data, the cascade must not reach them.
	require.NoError(t, conn.Model(&models.LegalMark{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubjects(t *testing.T) {
	svc := NewCaseService(setupTestDB(t))

	caseA, err := svc.CreateCase(CaseInput{Title: "дело А"})
	require.NoError(t, err)
	caseB, err := svc.CreateCase(CaseInput{Title: "дело Б"})
	require.NoError(t, err)

	subject, err := svc.CreateSubject(caseA.ID, SubjectInput{
		Name:     "target01",
		Platform: strPtr("telegram"),
		Handle:   strPtr("@target01"),
	})
	require.NoError(t, err)
	assert.Equal(t, caseA.ID, subject.CaseID)

	_, err = svc.CreateSubject(caseA.ID, SubjectInput{Name: " "})
	assertCode(t, err, CodeInvalidArgument)

	_, err = svc.CreateSubject(9999, SubjectInput{Name: "x"})
	assertCode(t, err, CodeNotFound)

	subjects, err := svc.ListSubjects(caseA.ID)
	require.NoError(t, err)
	assert.Len(t, subjects, 1)

	// A subject is only deletable through its own case.
	assertCode(t, svc.DeleteSubject(caseB.ID, subject.ID), CodeNotFound)
	require.NoError(t, svc.DeleteSubject(caseA.ID, subject.ID))

	subjects, err = svc.ListSubjects(caseA.ID)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}
