package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

func TestParse_CSV(t *testing.T) {
	data := strings.Join([]string{
		"title,content,type,link_url,lesson_date",
		"React Hooks,,link,https://react.dev/reference/react,2024-02-01",
		"useEffect,Runs after render,WORD,,2024-02-01",
		",,word,,",
		"",
		"Sentence one,\"quoted, with comma\",sentence,,",
	}, "\n")

	rows, skipped, err := Parse(strings.NewReader(data), "lessons.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Line != 2 || rows[0].Lesson.LessonType != models.LessonTypeLink {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[0].Lesson.LinkURL == nil || *rows[0].Lesson.LinkURL != "https://react.dev/reference/react" {
		t.Fatalf("expected link URL, got %v", rows[0].Lesson.LinkURL)
	}
	if rows[1].Lesson.LessonType != models.LessonTypeWord {
		t.Fatalf("expected type to be lowercased, got %q", rows[1].Lesson.LessonType)
	}
	if rows[2].Lesson.Content == nil || *rows[2].Lesson.Content != "quoted, with comma" {
		t.Fatalf("expected quoted content, got %v", rows[2].Lesson.Content)
	}
	if rows[2].Lesson.LessonDate != "" {
		t.Fatalf("expected empty date to stay empty, got %q", rows[2].Lesson.LessonDate)
	}

	if len(skipped) != 1 || skipped[0].Line != 4 {
		t.Fatalf("expected line 4 to be skipped, got %+v", skipped)
	}
}

func TestParse_Excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	f.SetSheetRow(sheet, "A1", &[]interface{}{"title", "content", "type", "link_url", "lesson_date"})
	f.SetSheetRow(sheet, "A2", &[]interface{}{"useEffect", "hook", "word", "", "2024-01-01"})
	f.SetSheetRow(sheet, "A3", &[]interface{}{"Go blog", "", "link", "https://go.dev/blog", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}

	rows, skipped, err := Parse(&buf, "upload.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skipped rows, got %+v", skipped)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Lesson.Title != "useEffect" || rows[0].Lesson.LessonDate != "2024-01-01" {
		t.Fatalf("unexpected first row: %+v", rows[0].Lesson)
	}
	if rows[1].Lesson.LessonDate != "2024-03-05" {
		t.Fatalf("expected date cell to become 2024-03-05, got %q", rows[1].Lesson.LessonDate)
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, _, err := Parse(strings.NewReader("x"), "lessons.pdf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"2024-02-01", "2024-02-01"},
		{"45292", "2024-01-01"},
		{"02/01/2024", "02/01/2024"},
	}

	for _, tc := range tests {
		if got := normalizeDate(tc.input); got != tc.expected {
			t.Errorf("normalizeDate(%q): expected %q, got %q", tc.input, tc.expected, got)
		}
	}
}
