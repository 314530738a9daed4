package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePositiveInt(t *testing.T) {
	assert.Equal(t, uint(42), ParsePositiveInt("42"))
	assert.Equal(t, uint(7), ParsePositiveInt(" 7 "))
	assert.Equal(t, uint(0), ParsePositiveInt(""))
	assert.Equal(t, uint(0), ParsePositiveInt("0"))
	assert.Equal(t, uint(0), ParsePositiveInt("-3"))
	assert.Equal(t, uint(0), ParsePositiveInt("abc"))
	assert.Equal(t, uint(0), ParsePositiveInt("1.5"))
}

func TestValidateRequiredString(t *testing.T) {
	got, serr := ValidateRequiredString("  заголовок  ", "title", 20)
	assert.Nil(t, serr)
	assert.Equal(t, "заголовок", got)

	_, serr = ValidateRequiredString("   ", "title", 20)
	assert.NotNil(t, serr)
	assert.Equal(t, CodeInvalidArgument, serr.Code)

	// Length is counted in runes, not bytes.
	_, serr = ValidateRequiredString(strings.Repeat("ф", 20), "title", 20)
	assert.Nil(t, serr)
	_, serr = ValidateRequiredString(strings.Repeat("ф", 21), "title", 20)
	assert.NotNil(t, serr)
}

func TestNormalizeCapturedAt(t *testing.T) {
	got, serr := NormalizeCapturedAt("2026-01-10T12:30:00+03:00")
	assert.Nil(t, serr)
	assert.Equal(t, "2026-01-10T09:30:00Z", got)

	got, serr = NormalizeCapturedAt("")
	assert.Nil(t, serr)
	assert.Equal(t, "", got)

	_, serr = NormalizeCapturedAt("не дата")
	assert.NotNil(t, serr)
	assert.Equal(t, CodeInvalidArgument, serr.Code)
}

func TestNormalizeMetaJSON(t *testing.T) {
	got, serr := NormalizeMetaJSON(nil)
	assert.Nil(t, serr)
	assert.Nil(t, got)

	got, serr = NormalizeMetaJSON(`{"note":"x"}`)
	assert.Nil(t, serr)
	assert.Equal(t, `{"note":"x"}`, *got)

	got, serr = NormalizeMetaJSON(map[string]string{"note": "x"})
	assert.Nil(t, serr)
	assert.Equal(t, `{"note":"x"}`, *got)

	_, serr = NormalizeMetaJSON(strings.Repeat("a", MaxMetaLength+1))
	assert.NotNil(t, serr)
}

func TestValidateArticleText(t *testing.T) {
	valid := []string{
		"Статья 13.15 КоАП РФ",
		"статья 20.3.3 КоАП РФ",
		"Статья 12.3 КоАП РФ, Статья 34 УК РФ",
		"Статья 12.3 КоАП РФ; Статья 34 УК РФ",
		"Статья 12.3 КоАП РФ\nСтатья 34 УК РФ",
	}
	for _, text := range valid {
		_, serr := ValidateArticleText(text, "articleText", MaxLegalTextLength)
		assert.Nil(t, serr, "expected %q to be valid", text)
	}

	invalid := []string{
		"",
		"   ",
		"просто текст",
		"Статья КоАП РФ",
		"Статья 13",
		"Статья 13.15 КоАП РФ, мусор",
	}
	for _, text := range invalid {
		_, serr := ValidateArticleText(text, "articleText", MaxLegalTextLength)
		if assert.NotNil(t, serr, "expected %q to be rejected", text) {
			assert.Equal(t, CodeInvalidArgument, serr.Code)
		}
	}
}

func TestNormalizeFilePayload(t *testing.T) {
	got, serr := NormalizeFilePayload(nil, "utf8")
	assert.Nil(t, serr)
	assert.Nil(t, got)

	got, serr = NormalizeFilePayload(&FilePayload{Data: "<html></html>"}, "utf8")
	assert.Nil(t, serr)
	assert.Equal(t, "utf8", got.Encoding)

	_, serr = NormalizeFilePayload(&FilePayload{Data: ""}, "utf8")
	assert.NotNil(t, serr)

	_, serr = NormalizeFilePayload(&FilePayload{Data: "x", Encoding: "hex"}, "utf8")
	assert.NotNil(t, serr)
}
