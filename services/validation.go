package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field validators return (value, *ServiceError) rather than panicking or
// accepting loosely-typed input; callers compose them field by field and
// surface the first failure as INVALID_ARGUMENT.

// ParsePositiveInt accepts a decimal string and returns it as a positive
// integer id, or 0 if it is not one.
func ParsePositiveInt(value string) uint {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	n, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil || n == 0 {
		return 0
	}
	return uint(n)
}

// ValidateRequiredString trims and bounds-checks a mandatory field.
func ValidateRequiredString(value, fieldName string, maxLength int) (string, *ServiceError) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", Fail(CodeInvalidArgument, fmt.Sprintf("%s обязательно.", fieldName))
	}
	if len([]rune(trimmed)) > maxLength {
		return "", Fail(CodeInvalidArgument, fmt.Sprintf("%s превышает максимальную длину.", fieldName))
	}
	return trimmed, nil
}

// ValidateOptionalString trims and bounds-checks an optional field,
// returning nil for absent or blank input.
func ValidateOptionalString(value *string, fieldName string, maxLength int) (*string, *ServiceError) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if len([]rune(trimmed)) > maxLength {
		return nil, Fail(CodeInvalidArgument, fmt.Sprintf("%s превышает максимальную длину.", fieldName))
	}
	return &trimmed, nil
}

// NormalizeCapturedAt parses an optional caller-supplied timestamp and
// re-serializes it as RFC3339 UTC. Empty input means "now decides later".
func NormalizeCapturedAt(value string) (string, *ServiceError) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return "", Fail(CodeInvalidArgument, "capturedAt должно быть корректной строкой даты.")
	}
	return t.UTC().Format(time.RFC3339), nil
}

// NormalizeMetaJSON bounds-checks opaque artifact metadata. Accepts either
// an already-serialized string or any JSON-marshalable value.
func NormalizeMetaJSON(meta interface{}) (*string, *ServiceError) {
	if meta == nil {
		return nil, nil
	}
	if s, ok := meta.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil, nil
		}
		if len(trimmed) > MaxMetaLength {
			return nil, Fail(CodeInvalidArgument, "meta превышает допустимый размер.")
		}
		return &trimmed, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, Fail(CodeInvalidArgument, "meta должно быть сериализуемым в JSON.")
	}
	serialized := string(raw)
	if len(serialized) > MaxMetaLength {
		return nil, Fail(CodeInvalidArgument, "meta превышает допустимый размер.")
	}
	return &serialized, nil
}

// FilePayload is a caller-supplied file body for SaveArtifact.
type FilePayload struct {
	Data     string `json:"data"`
	Encoding string `json:"encoding"` // utf8 | base64
}

// NormalizeFilePayload validates an optional file payload and fills in the
// default encoding for the file type.
func NormalizeFilePayload(file *FilePayload, defaultEncoding string) (*FilePayload, *ServiceError) {
	if file == nil {
		return nil, nil
	}
	if file.Data == "" {
		return nil, Fail(CodeInvalidArgument, "Некорректные данные файла.")
	}
	encoding := file.Encoding
	if encoding == "" {
		encoding = defaultEncoding
	}
	if encoding != "utf8" && encoding != "base64" {
		return nil, Fail(CodeInvalidArgument, "Некорректная кодировка файла.")
	}
	return &FilePayload{Data: file.Data, Encoding: encoding}, nil
}

// Clauses are separated by commas, semicolons or newlines; each one must be
// a citation like "Статья 13.15 КоАП РФ".
var articleClauseRe = regexp.MustCompile(`(?i)^Статья\s+\d+(?:\.\d+)*\s+[^,;\n]+$`)

// ValidateArticleText enforces the citation grammar on every legal-setting
// and legal-annotation write, before anything reaches storage.
func ValidateArticleText(value, fieldName string, maxLength int) (string, *ServiceError) {
	trimmed, serr := ValidateRequiredString(value, fieldName, maxLength)
	if serr != nil {
		return "", serr
	}
	var clauses []string
	for _, part := range regexp.MustCompile(`[,;\n]+`).Split(trimmed, -1) {
		if clause := strings.TrimSpace(part); clause != "" {
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) == 0 {
		return "", Fail(CodeInvalidArgument, fmt.Sprintf("%s обязательно.", fieldName))
	}
	for _, clause := range clauses {
		if !articleClauseRe.MatchString(clause) {
			return "", Fail(CodeInvalidArgument,
				`Неверный формат article_text. Пример: "Статья 12.3 КоАП РФ, Статья 34 УК РФ".`)
		}
	}
	return trimmed, nil
}
