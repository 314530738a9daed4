package services

import (
	"testing"

	"osint_casework_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveTextArtifact(t *testing.T, svc *ArtifactService, caseID uint) *models.ArtifactView {
	t.Helper()
	view, err := svc.SaveArtifact(caseID, ArtifactInput{
		URL:   "https://example.com/post",
		Files: ArtifactFiles{Text: &FilePayload{Data: "текст"}},
	})
	require.NoError(t, err)
	return view
}

func TestSetArtifactLegal(t *testing.T) {
	conn := setupTestDB(t)
	files := newTestFileStore(t)
	artifacts := NewArtifactService(conn, files, nil, nil)
	legal := NewLegalService(conn, files)

	caseItem := createTestCase(t, conn, "дело")
	artifact := saveTextArtifact(t, artifacts, caseItem.ID)
	mark := createTestMark(t, conn, "Дискредитация", "Статья 20.3.3 КоАП РФ")

	view, err := legal.SetArtifactLegal(artifact.ID, AnnotationInput{
		LegalMarkID: mark.ID,
		ArticleText: "Статья 20.3.3 КоАП РФ",
		Comment:     strPtr("первый пост"),
	})
	require.NoError(t, err)
	require.NotNil(t, view.LegalMarkID)
	assert.Equal(t, mark.ID, *view.LegalMarkID)
	assert.Equal(t, "Дискредитация", *view.LegalMarkLabel)
	assert.Equal(t, "Статья 20.3.3 КоАП РФ", *view.ArticleText)
	assert.Equal(t, "первый пост", *view.LegalComment)

	// Re-annotating replaces the link, it does not accumulate rows.
	second := createTestMark(t, conn, "Фейки", "Статья 207.3 УК РФ")
	view, err = legal.SetArtifactLegal(artifact.ID, AnnotationInput{
		LegalMarkID: second.ID,
		ArticleText: "Статья 207.3 УК РФ",
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, *view.LegalMarkID)

	var count int64
	require.NoError(t, conn.Model(&models.ArtifactLegalMark{}).
		Where("artifact_id = ?", artifact.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSetArtifactLegalValidation(t *testing.T) {
	conn := setupTestDB(t)
	files := newTestFileStore(t)
	artifacts := NewArtifactService(conn, files, nil, nil)
	legal := NewLegalService(conn, files)

	caseItem := createTestCase(t, conn, "дело")
	artifact := saveTextArtifact(t, artifacts, caseItem.ID)
	mark := createTestMark(t, conn, "Дискредитация", "Статья 20.3.3 КоАП РФ")

	_, err := legal.SetArtifactLegal(artifact.ID, AnnotationInput{
		LegalMarkID: mark.ID,
		ArticleText: "произвольный текст",
	})
	assertCode(t, err, CodeInvalidArgument)

	_, err = legal.SetArtifactLegal(artifact.ID, AnnotationInput{
		LegalMarkID: 9999,
		ArticleText: "Статья 20.3.3 КоАП РФ",
	})
	assertCode(t, err, CodeInvalidArgument)

	_, err = legal.SetArtifactLegal(9999, AnnotationInput{
		LegalMarkID: mark.ID,
		ArticleText: "Статья 20.3.3 КоАП РФ",
	})
	assertCode(t, err, CodeNotFound)
}

func TestUpdateCaseLegalMarks(t *testing.T) {
	conn := setupTestDB(t)
	files := newTestFileStore(t)
	artifacts := NewArtifactService(conn, files, nil, nil)
	legal := NewLegalService(conn, files)

	caseItem := createTestCase(t, conn, "дело")
	first := saveTextArtifact(t, artifacts, caseItem.ID)
	second := saveTextArtifact(t, artifacts, caseItem.ID)
	mark := createTestMark(t, conn, "Дискредитация", "Статья 20.3.3 КоАП РФ")

	updated, err := legal.UpdateCaseLegalMarks(caseItem.ID, []CaseMarkInput{
		{ArtifactID: first.ID, LegalMarkID: &mark.ID, ArticleText: "Статья 20.3.3 КоАП РФ"},
		{ArtifactID: second.ID, Label: strPtr("Новая метка"), ArticleText: "Статья 13.15 КоАП РФ"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	// The label-only entry created its mark on the fly.
	var created models.LegalMark
	require.NoError(t, conn.Where("label = ?", "Новая метка").First(&created).Error)

	views, err := artifacts.ListArtifacts(caseItem.ID)
	require.NoError(t, err)
	for _, view := range views {
		require.NotNil(t, view.LegalMarkID)
	}

	// The update replaces everything: an empty list clears the case.
	updated, err = legal.UpdateCaseLegalMarks(caseItem.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	var count int64
	require.NoError(t, conn.Model(&models.ArtifactLegalMark{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUpdateCaseLegalMarksRejectsForeignArtifacts(t *testing.T) {
	conn := setupTestDB(t)
	files := newTestFileStore(t)
	artifacts := NewArtifactService(conn, files, nil, nil)
	legal := NewLegalService(conn, files)

	caseA := createTestCase(t, conn, "дело А")
	caseB := createTestCase(t, conn, "дело Б")
	foreign := saveTextArtifact(t, artifacts, caseB.ID)
	mark := createTestMark(t, conn, "Дискредитация", "Статья 20.3.3 КоАП РФ")

	_, err := legal.UpdateCaseLegalMarks(caseA.ID, []CaseMarkInput{
		{ArtifactID: foreign.ID, LegalMarkID: &mark.ID, ArticleText: "Статья 20.3.3 КоАП РФ"},
	})
	assertCode(t, err, CodeInvalidArgument)

	// Nothing was annotated.
	var count int64
	require.NoError(t, conn.Model(&models.ArtifactLegalMark{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestBuildLegalFormFromArtifact(t *testing.T) {
	conn := setupTestDB(t)
	files := newTestFileStore(t)
	artifacts := NewArtifactService(conn, files, nil, nil)
	legal := NewLegalService(conn, files)

	caseItem := createTestCase(t, conn, "дело")
	artifact := saveTextArtifact(t, artifacts, caseItem.ID)
	mark := createTestMark(t, conn, "Дискредитация", "Статья 20.3.3 КоАП РФ")

	// Unannotated artifact yields an empty form.
	assert.Equal(t, LegalForm{}, BuildLegalFormFromArtifact(artifact))
	assert.Equal(t, LegalForm{}, BuildLegalFormFromArtifact(nil))

	annotated, err := legal.SetArtifactLegal(artifact.ID, AnnotationInput{
		LegalMarkID: mark.ID,
		ArticleText: "Статья 20.3.3 КоАП РФ",
		Comment:     strPtr("комментарий"),
	})
	require.NoError(t, err)

	// The form round-trips the stored annotation.
	form := BuildLegalFormFromArtifact(annotated)
	assert.Equal(t, "Статья 20.3.3 КоАП РФ", form.ArticleText)
	assert.Equal(t, "комментарий", form.Comment)
	assert.NotEmpty(t, form.LegalMarkID)
}

func TestLegalMarkDeleteRestrictedWhileReferenced(t *testing.T) {
	conn := setupTestDB(t)
	files := newTestFileStore(t)
	artifacts := NewArtifactService(conn, files, nil, nil)
	legal := NewLegalService(conn, files)

	caseItem := createTestCase(t, conn, "дело")
	artifact := saveTextArtifact(t, artifacts, caseItem.ID)
	mark := createTestMark(t, conn, "Дискредитация", "Статья 20.3.3 КоАП РФ")

	_, err := legal.SetArtifactLegal(artifact.ID, AnnotationInput{
		LegalMarkID: mark.ID,
		ArticleText: "Статья 20.3.3 КоАП РФ",
	})
	require.NoError(t, err)

	// An annotated mark cannot be removed out from under its artifacts.
	require.Error(t, conn.Delete(&models.LegalMark{}, mark.ID).Error)

	require.NoError(t, artifacts.DeleteArtifact(artifact.ID))
	require.NoError(t, conn.Delete(&models.LegalMark{}, mark.ID).Error)
}
