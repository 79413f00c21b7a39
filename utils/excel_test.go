package utils

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestBuildExcelSheet(t *testing.T) {
	headers := []string{"Date", "Hours", "Billable"}
	rows := [][]interface{}{
		{"2026-02-03", 7.5, "yes"},
		{"2026-02-04", 4.0, "no"},
	}

	buf, err := BuildExcelSheet("Time Entries", headers, rows)
	if err != nil {
		t.Fatalf("BuildExcelSheet: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Time Entries" {
		t.Fatalf("expected single sheet %q, got %v", "Time Entries", sheets)
	}

	got, err := f.GetCellValue("Time Entries", "B1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "Hours" {
		t.Fatalf("expected header Hours in B1, got %q", got)
	}

	got, err = f.GetCellValue("Time Entries", "C3")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "no" {
		t.Fatalf("expected no in C3, got %q", got)
	}
}
