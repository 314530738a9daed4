package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"osint_casework_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegalSettingsConflictSurfacesAs409(t *testing.T) {
	h, _ := setupHandler(t)

	c, rec := setupEcho(http.MethodPost, "/api/settings/legal", jsonBody(t, map[string]interface{}{
		"label":       "Дискредитация",
		"articleText": "Статья 20.3.3 КоАП РФ",
	}))
	require.NoError(t, h.CreateLegalSetting(c))
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	item := created["item"].(map[string]interface{})
	id := fmt.Sprintf("%.0f", item["id"].(float64))

	// First edit with the loaded stamp succeeds.
	c, rec = setupEcho(http.MethodPut, "/api/settings/legal/"+id, jsonBody(t, map[string]interface{}{
		"articleText": "Статья 280 УК РФ",
	}))
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.UpdateLegalSetting(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Second edit with the now-stale stamp is refused with 409.
	c, rec = setupEcho(http.MethodPut, "/api/settings/legal/"+id, jsonBody(t, map[string]interface{}{
		"articleText": "Статья 282 УК РФ",
	}))
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.UpdateLegalSetting(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	parsed := decodeEnvelope(t, rec)
	errBody := parsed["error"].(map[string]interface{})
	assert.Equal(t, "CONFLICT", errBody["code"])
	assert.Equal(t, "Метка уже обновлена другим администратором. Обновите список.", errBody["message"])
}

func TestListPendingChanges(t *testing.T) {
	h, conn := setupHandler(t)

	c, rec := setupEcho(http.MethodPost, "/api/settings/legal", jsonBody(t, map[string]interface{}{
		"label":       "Дискредитация",
		"articleText": "Статья 20.3.3 КоАП РФ",
	}))
	require.NoError(t, h.CreateLegalSetting(c))
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	item := created["item"].(map[string]interface{})
	id := fmt.Sprintf("%.0f", item["id"].(float64))

	// An edit with an unreachable store is parked in the pending file.
	require.NoError(t, conn.Exec("DROP TABLE legal_mark_histories").Error)
	c, rec = setupEcho(http.MethodPut, "/api/settings/legal/"+id, jsonBody(t, map[string]interface{}{
		"articleText": "Статья 280 УК РФ",
	}))
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.UpdateLegalSetting(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeEnvelope(t, rec)["data"].(map[string]interface{})["pending"])

	c, rec = setupEcho(http.MethodGet, "/api/settings/legal/pending", nil)
	require.NoError(t, h.ListPendingChanges(c))
	require.Equal(t, http.StatusOK, rec.Code)

	raw, err := json.Marshal(decodeEnvelope(t, rec)["data"])
	require.NoError(t, err)
	var changes []services.PendingChange
	require.NoError(t, json.Unmarshal(raw, &changes))
	require.Len(t, changes, 1)
	assert.Equal(t, "update", changes[0].Type)
	assert.Equal(t, "Статья 280 УК РФ", changes[0].ArticleText)
}

func TestListLegalSettingsIncludesAccess(t *testing.T) {
	h, _ := setupHandler(t)

	c, rec := setupEcho(http.MethodGet, "/api/settings/legal", nil)
	require.NoError(t, h.ListLegalSettings(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	access := data["access"].(map[string]interface{})
	assert.Equal(t, true, access["canEdit"])
	assert.NotEmpty(t, access["currentUser"])
}
