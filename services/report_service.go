package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"osint_casework_go/config"
	"osint_casework_go/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ReportService renders a case with its artifacts and legal annotations
// into evidence reports: an HTML document, optionally printed to PDF, and
// an XLSX artifact register.
type ReportService struct {
	db    *gorm.DB
	files *FileStore
	cfg   *config.Config

	textPolicy *bluemonday.Policy
}

func NewReportService(db *gorm.DB, files *FileStore, cfg *config.Config) *ReportService {
	return &ReportService{
		db:         db,
		files:      files,
		cfg:        cfg,
		textPolicy: bluemonday.StrictPolicy(),
	}
}

// ReportOptions selects the output formats for one export.
type ReportOptions struct {
	PDF      bool `json:"pdf"`
	Register bool `json:"register"`
	Notify   bool `json:"notify"`
}

// ReportResult names the files produced by one export.
type ReportResult struct {
	ReportPath    string  `json:"reportPath"`
	PDFPath       *string `json:"pdfPath,omitempty"`
	RegisterPath  *string `json:"registerPath,omitempty"`
	ArtifactCount int     `json:"artifactCount"`
}

type reportArtifact struct {
	View    *models.ArtifactView
	Hash    string
	Excerpt string
}

type reportData struct {
	Case        *models.Case
	GeneratedAt string
	Artifacts   []reportArtifact
}

const reportTemplate = `<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<title>Отчёт по делу #{{.Case.ID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #1a1a1a; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin-top: 1em; }
th, td { border: 1px solid #bbb; padding: 6px 8px; text-align: left; vertical-align: top; font-size: 0.9em; }
th { background: #f0f0f0; }
.excerpt { white-space: pre-wrap; max-height: 12em; overflow: hidden; color: #444; }
.meta { color: #666; font-size: 0.85em; }
</style>
</head>
<body>
<h1>Отчёт по делу #{{.Case.ID}}: {{.Case.Title}}</h1>
<p class="meta">Статус: {{.Case.Status}}{{if .Case.AssignedTo}} · Исполнитель: {{.Case.AssignedTo}}{{end}} · Сформирован: {{.GeneratedAt}}</p>
{{if .Case.Description}}<p>{{.Case.Description}}</p>{{end}}
<h2>Артефакты ({{len .Artifacts}})</h2>
<table>
<tr><th>#</th><th>URL</th><th>Заголовок</th><th>Источник</th><th>Снят</th><th>Правовая метка</th><th>Фрагмент текста</th></tr>
{{range $i, $a := .Artifacts}}
<tr>
<td>{{$a.View.ID}}</td>
<td>{{$a.View.URL}}</td>
<td>{{if $a.View.Title}}{{$a.View.Title}}{{end}}</td>
<td>{{if $a.View.Source}}{{$a.View.Source}}{{end}}</td>
<td>{{$a.View.CapturedAt}}</td>
<td>{{if $a.View.LegalMarkLabel}}{{$a.View.LegalMarkLabel}}: {{$a.View.ArticleText}}{{end}}</td>
<td class="excerpt">{{$a.Excerpt}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`

const excerptLimit = 2000

// artifactExcerpt reads the stored extracted text and strips any markup
// that survived extraction. Missing or unreadable files yield an empty
// excerpt, not an error.
func (s *ReportService) artifactExcerpt(view *models.ArtifactView) string {
	if view.TextPath == nil || *view.TextPath == "" {
		return ""
	}
	clean := SanitizeStoredPath(s.files.BaseDir(), *view.TextPath)
	if clean == "" {
		return ""
	}
	raw, err := os.ReadFile(filepath.Join(s.files.BaseDir(), filepath.FromSlash(clean)))
	if err != nil {
		return ""
	}
	text := s.textPolicy.Sanitize(string(raw))
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > excerptLimit {
		return string(runes[:excerptLimit]) + "…"
	}
	return string(runes)
}

func (s *ReportService) loadReportData(caseID uint) (*reportData, error) {
	if caseID == 0 {
		return nil, Fail(CodeInvalidArgument, "caseId должен быть числом.")
	}
	var caseRow models.Case
	if err := s.db.First(&caseRow, caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Fail(CodeNotFound, "Дело не найдено.")
		}
		log.Printf("[DB] loadReportData failed: %v", err)
		return nil, Fail(CodeDBError, "Не удалось загрузить дело.")
	}
	rows, err := listArtifactsByCase(s.db, caseID)
	if err != nil {
		log.Printf("[DB] loadReportData artifacts failed: %v", err)
		return nil, Fail(CodeDBError, "Не удалось загрузить артефакты.")
	}
	data := &reportData{
		Case:        &caseRow,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for i := range rows {
		view := mapArtifactRow(s.files, &rows[i])
		data.Artifacts = append(data.Artifacts, reportArtifact{
			View:    view,
			Hash:    rows[i].ContentHash,
			Excerpt: s.artifactExcerpt(view),
		})
	}
	return data, nil
}

func (s *ReportService) reportDir(caseID uint) (string, error) {
	dir, serr := SafeJoin(s.cfg.ReportsDir(), fmt.Sprintf("%s%d", CaseDirPrefix, caseID))
	if serr != nil {
		return "", serr
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", Fail(CodeFileError, "Не удалось создать каталог отчётов.")
	}
	return dir, nil
}

// ExportCaseReport renders the case report. The HTML file is always
// written; PDF and the XLSX register are opt-in. Export reads the store
// only, so a half-finished export never corrupts case data.
func (s *ReportService) ExportCaseReport(ctx context.Context, caseID uint, opts ReportOptions) (*ReportResult, error) {
	data, err := s.loadReportData(caseID)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("case-report").Parse(reportTemplate)
	if err != nil {
		return nil, Fail(CodeInternalError, "Не удалось подготовить шаблон отчёта.")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("[Report] template execute failed: %v", err)
		return nil, Fail(CodeInternalError, "Не удалось сформировать отчёт.")
	}

	dir, err := s.reportDir(caseID)
	if err != nil {
		return nil, err
	}
	stamp := CaptureFolderName(data.GeneratedAt)
	baseName := fmt.Sprintf("case-report-%d-%s", caseID, stamp)

	htmlPath := filepath.Join(dir, baseName+".html")
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0644); err != nil {
		return nil, Fail(CodeFileError, "Не удалось записать файл отчёта.")
	}

	result := &ReportResult{ReportPath: htmlPath, ArtifactCount: len(data.Artifacts)}

	if opts.PDF {
		pdfBytes, err := s.renderPDF(ctx, buf.String())
		if err != nil {
			log.Printf("[Report] PDF render failed: %v", err)
		} else {
			pdfPath := filepath.Join(dir, baseName+".pdf")
			if err := os.WriteFile(pdfPath, pdfBytes, 0644); err != nil {
				log.Printf("[Report] PDF write failed: %v", err)
			} else {
				result.PDFPath = &pdfPath
			}
		}
	}

	if opts.Register {
		registerPath := filepath.Join(dir, baseName+".xlsx")
		if err := s.writeRegister(registerPath, data); err != nil {
			log.Printf("[Report] register write failed: %v", err)
		} else {
			result.RegisterPath = &registerPath
		}
	}

	if opts.Notify {
		if email := BuildReportReadyEmail(s.cfg, caseID, data.Case.Title, htmlPath, len(data.Artifacts)); email != nil {
			SendEmailAsync(s.cfg, email)
		}
	}

	return result, nil
}

// renderPDF prints the report HTML to PDF with headless Chrome.
func (s *ReportService) renderPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if s.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdfBuf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.Sleep(100*time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return pdfBuf, nil
}

// writeRegister produces the XLSX artifact register for the case.
func (s *ReportService) writeRegister(path string, data *reportData) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Артефакты"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "URL", "Заголовок", "Источник", "Снят", "Хэш", "Правовая метка", "Статья", "Комментарий", "Размер, байт"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "J1", headerStyle)

	for i, artifact := range data.Artifacts {
		view := artifact.View
		row := i + 2
		values := []interface{}{
			view.ID,
			view.URL,
			deref(view.Title),
			deref(view.Source),
			view.CapturedAt,
			artifact.Hash,
			deref(view.LegalMarkLabel),
			deref(view.ArticleText),
			deref(view.LegalComment),
			view.Size,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, value)
		}
	}

	return f.SaveAs(path)
}
