// Package importer reads lessons from spreadsheet uploads.
//
// Both .xlsx and .csv files use the same column layout, with a header row:
//
//	A title | B content | C type | D link_url | E lesson_date
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

const (
	colTitle = iota
	colContent
	colType
	colLinkURL
	colLessonDate
)

// StartRow is the first data row (1-based); row 1 is the header.
const StartRow = 2

// MaxRows caps a single upload.
const MaxRows = 2000

var ErrUnsupportedFormat = errors.New("unsupported file format: expected .xlsx or .csv")

// Row is one parsed line, ready to be created as a lesson.
type Row struct {
	Line   int
	Lesson models.LessonRequest
}

type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type Result struct {
	Created int        `json:"created"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors"`
}

// Parse reads rows from r. The format is chosen by the file extension. Rows
// with no title are skipped and reported; all other validation happens when
// the lesson is created.
func Parse(r io.Reader, filename string) ([]Row, []RowError, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		records, err = readExcel(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, nil, err
	}

	var (
		rows    []Row
		skipped []RowError
	)
	for i, rec := range records {
		line := i + 1
		if line < StartRow || blank(rec) {
			continue
		}
		if len(rows) >= MaxRows {
			return nil, nil, fmt.Errorf("file has more than %d rows", MaxRows)
		}

		title := cell(rec, colTitle)
		if title == "" {
			skipped = append(skipped, RowError{Line: line, Message: "title: Title is required"})
			continue
		}
		rows = append(rows, Row{
			Line: line,
			Lesson: models.LessonRequest{
				Title:      title,
				Content:    optional(cell(rec, colContent)),
				LessonType: models.LessonType(strings.ToLower(cell(rec, colType))),
				LinkURL:    optional(cell(rec, colLinkURL)),
				LessonDate: normalizeDate(cell(rec, colLessonDate)),
			},
		})
	}
	return rows, skipped, nil
}

func readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	// Raw values keep date cells as serial numbers instead of locale-formatted text.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return records, nil
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// normalizeDate turns an Excel serial date into YYYY-MM-DD. Anything else is
// passed through for the lesson validator to accept or reject.
func normalizeDate(v string) string {
	if v == "" {
		return ""
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return models.DateOf(t).String()
}
