package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"fertilizer-service/internal/i18n"
	"fertilizer-service/internal/models"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var ErrUnsupportedFormat = errors.New("unsupported report format")

const (
	reportFileBase   = "krushak_report"
	reportTimeLayout = "January 02, 2006 at 03:04 PM"
)

// ReportArchiver keeps a copy of every generated report.
type ReportArchiver interface {
	ArchiveReport(ctx context.Context, objectName, contentType string, content []byte) error
}

type IReportService interface {
	Generate(ctx context.Context, format models.ReportFormat, req models.ReportRequest) (*models.ReportDocument, error)
}

type ReportService struct {
	texts    i18n.TextResolver
	archiver ReportArchiver
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService builds the renderer. archiver may be nil.
func NewReportService(texts i18n.TextResolver, archiver ReportArchiver, logger *zap.Logger) *ReportService {
	return &ReportService{
		texts:    texts,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ReportService) Generate(ctx context.Context, format models.ReportFormat, req models.ReportRequest) (*models.ReportDocument, error) {
	generatedAt := s.now()

	var (
		content []byte
		err     error
	)
	switch format {
	case models.ReportFormatPDF:
		content, err = s.renderPDF(req, generatedAt)
	case models.ReportFormatExcel:
		content, err = s.renderExcel(req, generatedAt)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	doc := &models.ReportDocument{
		Format:      format,
		FileName:    reportFileBase + "." + format.Extension(),
		Content:     content,
		GeneratedAt: generatedAt,
	}

	if s.archiver != nil {
		objectName := ArchiveObjectName(generatedAt, uuid.New(), format)
		if err := s.archiver.ArchiveReport(ctx, objectName, format.ContentType(), content); err != nil {
			s.logger.Warn("failed to archive report",
				zap.String("op", "ReportService.Generate"),
				zap.String("object", objectName),
				zap.Error(err))
		} else {
			doc.ObjectName = objectName
		}
	}

	s.logger.Info("report generated",
		zap.String("format", string(format)),
		zap.String("language", req.LanguageOrDefault()),
		zap.Int("size", len(content)))
	return doc, nil
}

// ArchiveObjectName is reports/{yyyy}/{mm}/{dd}/{id}.{ext}, dated in UTC.
func ArchiveObjectName(at time.Time, id uuid.UUID, format models.ReportFormat) string {
	return fmt.Sprintf("reports/%s/%s.%s", at.UTC().Format("2006/01/02"), id, format.Extension())
}

// sortedModelNames keeps report rows stable across runs.
func sortedModelNames(predictions models.PredictionResults) []string {
	names := make([]string, 0, len(predictions))
	for name := range predictions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatConfidence(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// A4 portrait in points.
const (
	pageWidth     = 595.0
	pageHeight    = 842.0
	pageMargin    = 56.0
	lineSpacing   = 1.5
	avgGlyphWidth = 0.5
)

const (
	fontRegular = "Helvetica"
	fontBold    = "Helvetica-Bold"
)

type pdfLine struct {
	text   string
	size   float64
	bold   bool
	indent float64
	gap    float64
}

type pdfFont struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFont    `json:"font"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

// pdfLayout is the JSON document understood by pdfcpu's create command.
type pdfLayout struct {
	Paper  string             `json:"paper"`
	Origin string             `json:"origin"`
	Pages  map[string]pdfPage `json:"pages"`
}

func (s *ReportService) renderPDF(req models.ReportRequest, generatedAt time.Time) ([]byte, error) {
	layout := buildPDFLayout(s.pdfLines(req, generatedAt))

	raw, err := json.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pdf layout: %w", err)
	}

	var out bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(raw), &out, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return out.Bytes(), nil
}

// pdfLabel resolves a label for the core PDF fonts. Those only cover
// Latin-1, so labels in other scripts fall back to English.
func (s *ReportService) pdfLabel(id, lang string) string {
	text := s.texts.Resolve(id, lang)
	if isLatin1(text) {
		return text
	}
	return s.texts.Resolve(id, models.DefaultLanguage)
}

func (s *ReportService) pdfLines(req models.ReportRequest, generatedAt time.Time) []pdfLine {
	lang := req.LanguageOrDefault()
	label := func(id string) string { return s.pdfLabel(id, lang) }

	heading := func(id string) pdfLine { return pdfLine{text: label(id), size: 14, bold: true, gap: 12} }
	body := func(text string) pdfLine { return pdfLine{text: latin1Safe(text), size: 10, indent: 12} }

	lines := []pdfLine{
		{text: label("report_title"), size: 20, bold: true},
		{text: fmt.Sprintf("%s %s", label("generated_on"), generatedAt.Format(reportTimeLayout)), size: 9, gap: 4},
		heading("input_parameters"),
	}
	for _, row := range req.InputData.InputRows() {
		lines = append(lines, body(fmt.Sprintf("%s: %s", row[0], row[1])))
	}

	if w := req.WeatherData; w != nil {
		lines = append(lines,
			heading("weather_information"),
			body(fmt.Sprintf("Location: %s, %s", w.City, w.Country)),
			body(fmt.Sprintf("Temperature: %g°C", w.Temperature)),
			body(fmt.Sprintf("Humidity: %g%%", w.Humidity)),
			body(fmt.Sprintf("Description: %s", w.Description)),
			body(fmt.Sprintf("Rainfall (1h): %g mm", w.Rainfall)),
		)
	}

	lines = append(lines, heading("fertilizer_predictions"))
	for _, name := range sortedModelNames(req.Predictions) {
		p := req.Predictions[name]
		lines = append(lines, body(fmt.Sprintf("%s: %s (%s %s)", name, p.Prediction, label("confidence"), formatConfidence(p.MaxProbability()))))
	}

	health := req.SoilHealth
	lines = append(lines,
		heading("soil_health_analysis"),
		body(fmt.Sprintf("%s: %d/100", label("overall_health_score"), health.HealthScore)),
		body(fmt.Sprintf("%s: %s", label("status"), health.OverallStatus)),
		pdfLine{text: label("key_insights"), size: 11, bold: true, gap: 6},
	)
	for _, insight := range health.Insights {
		lines = append(lines, body("- "+insight))
	}
	lines = append(lines, pdfLine{text: label("recommendations"), size: 11, bold: true, gap: 6})
	for _, rec := range health.Recommendations {
		lines = append(lines, body("- "+rec))
	}

	lines = append(lines, pdfLine{text: label("report_footer"), size: 8, gap: 16})
	return lines
}

// buildPDFLayout wraps lines to the printable width and flows them onto as
// many A4 pages as needed.
func buildPDFLayout(lines []pdfLine) pdfLayout {
	layout := pdfLayout{Paper: "A4P", Origin: "UpperLeft", Pages: map[string]pdfPage{}}

	page := 1
	y := pageMargin
	var texts []pdfText
	flush := func() {
		layout.Pages[fmt.Sprint(page)] = pdfPage{Content: pdfContent{Text: texts}}
		page++
		texts = nil
		y = pageMargin
	}

	for _, line := range lines {
		font := pdfFont{Name: fontRegular, Size: line.size}
		if line.bold {
			font.Name = fontBold
		}
		height := line.size * lineSpacing
		width := pageWidth - 2*pageMargin - line.indent

		if len(texts) > 0 {
			y += line.gap
		}
		for _, chunk := range wrapText(line.text, int(width/(line.size*avgGlyphWidth))) {
			if y+height > pageHeight-pageMargin && len(texts) > 0 {
				flush()
			}
			y += height
			texts = append(texts, pdfText{Value: chunk, Pos: [2]float64{pageMargin + line.indent, y}, Font: font})
		}
	}
	flush()
	return layout
}

// wrapText splits text on spaces into chunks of at most width runes. Words
// longer than width are cut.
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var chunks []string
	current := ""
	for _, word := range words {
		for utf8.RuneCountInString(word) > width {
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}
			r := []rune(word)
			chunks = append(chunks, string(r[:width]))
			word = string(r[width:])
		}
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			chunks = append(chunks, current)
			current = word
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func isLatin1(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

// latin1Safe replaces runes the core fonts cannot draw with '?'.
func latin1Safe(s string) string {
	if isLatin1(s) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
}

const (
	maxColumnWidth   = 50
	maxSheetNameLen  = 31
	headerFillColour = "2E7D32"
)

func (s *ReportService) renderExcel(req models.ReportRequest, generatedAt time.Time) ([]byte, error) {
	lang := req.LanguageOrDefault()
	label := func(id string) string { return s.texts.Resolve(id, lang) }

	f := excelize.NewFile()
	defer f.Close()

	wb := &workbook{file: f, used: map[string]bool{}}
	if err := wb.init(); err != nil {
		return nil, err
	}

	// Input Parameters
	inputSheet := wb.addSheet(label("input_parameters"))
	wb.appendRow(inputSheet, "Parameter", "Value")
	for _, row := range req.InputData.InputRows() {
		wb.appendRow(inputSheet, row[0], row[1])
	}
	wb.styleRow(inputSheet, 1, 2, wb.headerStyle)

	// Fertilizer Predictions
	predSheet := wb.addSheet(label("fertilizer_predictions"))
	wb.appendRow(predSheet, "Model", "Predicted Fertilizer", label("confidence"))
	names := sortedModelNames(req.Predictions)
	for _, name := range names {
		p := req.Predictions[name]
		wb.appendRow(predSheet, name, p.Prediction, p.MaxProbability())
	}
	wb.styleRow(predSheet, 1, 3, wb.headerStyle)
	if len(names) > 0 {
		wb.addConfidenceChart(predSheet, len(names), label("model_confidence_comparison"), label("models"), label("confidence"))
	}

	// Soil Health Analysis
	health := req.SoilHealth
	healthSheet := wb.addSheet(label("soil_health_analysis"))
	wb.appendRow(healthSheet, label("soil_health_analysis"))
	wb.appendRow(healthSheet)
	wb.appendRow(healthSheet, label("overall_health_score"), health.HealthScore)
	wb.appendRow(healthSheet, label("status"), health.OverallStatus)
	wb.appendRow(healthSheet)
	insightsRow := wb.appendRow(healthSheet, label("key_insights"))
	for _, insight := range health.Insights {
		wb.appendRow(healthSheet, insight)
	}
	wb.appendRow(healthSheet)
	recsRow := wb.appendRow(healthSheet, label("recommendations"))
	for _, rec := range health.Recommendations {
		wb.appendRow(healthSheet, rec)
	}
	wb.styleRow(healthSheet, 1, 1, wb.titleStyle)
	wb.styleRow(healthSheet, insightsRow, 1, wb.boldStyle)
	wb.styleRow(healthSheet, recsRow, 1, wb.boldStyle)

	// Weather Information
	if w := req.WeatherData; w != nil {
		weatherSheet := wb.addSheet(label("weather_information"))
		wb.appendRow(weatherSheet, label("weather_information"))
		wb.appendRow(weatherSheet)
		wb.appendRow(weatherSheet, "Location", fmt.Sprintf("%s, %s", w.City, w.Country))
		wb.appendRow(weatherSheet, "Temperature (°C)", w.Temperature)
		wb.appendRow(weatherSheet, "Humidity (%)", w.Humidity)
		wb.appendRow(weatherSheet, "Description", w.Description)
		wb.appendRow(weatherSheet, "Rainfall (1h mm)", w.Rainfall)
		wb.styleRow(weatherSheet, 1, 1, wb.titleStyle)
	}

	// Summary
	summarySheet := wb.addSheet(label("summary"))
	wb.appendRow(summarySheet, label("report_title"))
	wb.appendRow(summarySheet, fmt.Sprintf("%s %s", label("generated_on"), generatedAt.Format(reportTimeLayout)))
	wb.appendRow(summarySheet)
	wb.appendRow(summarySheet, label("report_contents"))
	wb.appendRow(summarySheet, fmt.Sprintf("1. %s - %s", label("input_parameters"), label("input_parameters_desc")))
	wb.appendRow(summarySheet, fmt.Sprintf("2. %s - %s", label("fertilizer_predictions"), label("predictions_desc")))
	wb.appendRow(summarySheet, fmt.Sprintf("3. %s - %s", label("soil_health_analysis"), label("soil_health_desc")))
	if req.WeatherData != nil {
		wb.appendRow(summarySheet, fmt.Sprintf("4. %s - %s", label("weather_information"), label("weather_data_desc")))
	}
	wb.appendRow(summarySheet, fmt.Sprintf("5. %s - %s", label("summary"), label("summary_desc")))
	wb.styleRow(summarySheet, 1, 1, wb.titleStyle)
	wb.styleRow(summarySheet, 2, 1, wb.italicStyle)
	wb.styleRow(summarySheet, 4, 1, wb.boldStyle)

	wb.fitColumns()
	if wb.err != nil {
		return nil, fmt.Errorf("failed to build excel report: %w", wb.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel report: %w", err)
	}
	return buf.Bytes(), nil
}

// workbook tracks row cursors and column widths while sheets are filled.
// The first error sticks and later calls become no-ops.
type workbook struct {
	file   *excelize.File
	err    error
	sheets []string
	used   map[string]bool
	rows   map[string]int
	widths map[string][]int

	headerStyle int
	titleStyle  int
	boldStyle   int
	italicStyle int
}

func (wb *workbook) init() error {
	wb.rows = map[string]int{}
	wb.widths = map[string][]int{}

	styles := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&wb.headerStyle, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColour}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&wb.titleStyle, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&wb.boldStyle, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&wb.italicStyle, &excelize.Style{Font: &excelize.Font{Italic: true}}},
	}
	for _, st := range styles {
		id, err := wb.file.NewStyle(st.style)
		if err != nil {
			return fmt.Errorf("failed to create excel style: %w", err)
		}
		*st.dst = id
	}
	return nil
}

// addSheet creates a sheet with a valid, unique name derived from title and
// drops the default sheet once the first real one exists.
func (wb *workbook) addSheet(title string) string {
	if wb.err != nil {
		return ""
	}
	name := uniqueSheetName(sanitizeSheetName(title), wb.used)
	wb.used[name] = true

	if _, err := wb.file.NewSheet(name); err != nil {
		wb.err = err
		return name
	}
	if len(wb.sheets) == 0 && name != "Sheet1" {
		if err := wb.file.DeleteSheet("Sheet1"); err != nil {
			wb.err = err
			return name
		}
		wb.file.SetActiveSheet(0)
	}
	wb.sheets = append(wb.sheets, name)
	return name
}

// appendRow writes values on the next free row and returns its number.
func (wb *workbook) appendRow(sheet string, values ...any) int {
	wb.rows[sheet]++
	row := wb.rows[sheet]
	if wb.err != nil || len(values) == 0 {
		return row
	}

	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := wb.file.SetSheetRow(sheet, cell, &values); err != nil {
		wb.err = err
		return row
	}

	widths := wb.widths[sheet]
	for i, v := range values {
		for len(widths) <= i {
			widths = append(widths, 0)
		}
		if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[i] {
			widths[i] = n
		}
	}
	wb.widths[sheet] = widths
	return row
}

func (wb *workbook) styleRow(sheet string, row, cols, style int) {
	if wb.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(cols, row)
	if err := wb.file.SetCellStyle(sheet, first, last, style); err != nil {
		wb.err = err
	}
}

func (wb *workbook) addConfidenceChart(sheet string, rows int, title, xTitle, yTitle string) {
	if wb.err != nil {
		return
	}
	ref := quoteSheetName(sheet)
	err := wb.file.AddChart(sheet, "E2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$C$1", ref),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", ref, rows+1),
			Values:     fmt.Sprintf("%s!$C$2:$C$%d", ref, rows+1),
		}},
		Title: []excelize.RichTextRun{{Text: title}},
		XAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: xTitle}}},
		YAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: yTitle}}},
	})
	if err != nil {
		wb.err = err
	}
}

// fitColumns sizes each column to its longest value plus padding, capped.
func (wb *workbook) fitColumns() {
	if wb.err != nil {
		return
	}
	for _, sheet := range wb.sheets {
		for i, n := range wb.widths[sheet] {
			col, _ := excelize.ColumnNumberToName(i + 1)
			width := min(n+2, maxColumnWidth)
			if err := wb.file.SetColWidth(sheet, col, col, float64(width)); err != nil {
				wb.err = err
				return
			}
		}
	}
}

// sanitizeSheetName drops characters Excel forbids in sheet names and
// truncates to 31 runes.
func sanitizeSheetName(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, title)
	cleaned = strings.Trim(strings.TrimSpace(cleaned), "'")
	if cleaned == "" {
		cleaned = "Sheet"
	}
	if r := []rune(cleaned); len(r) > maxSheetNameLen {
		cleaned = strings.TrimSpace(string(r[:maxSheetNameLen]))
	}
	return cleaned
}

func uniqueSheetName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetNameLen {
			base = base[:maxSheetNameLen-len(suffix)]
		}
		candidate := string(base) + suffix
		if !used[candidate] {
			return candidate
		}
	}
}

func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
