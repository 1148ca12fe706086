package ingest

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func headerRow() []interface{} {
	headers := Headers()
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}

func TestParseMapsRowsInSheetOrder(t *testing.T) {
	r := workbookBytes(t, [][]interface{}{
		headerRow(),
		{"23691A3201", "ANENTHA KRISHNAN", "CC", "Male", "9876543210"},
		{"23691A3202", "BHAVANI DEVI", "MGMT", "Female", "9876501234"},
	})

	rows, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0].RollNo != "23691A3201" || rows[1].RollNo != "23691A3202" {
		t.Fatalf("rows out of sheet order: %q, %q", rows[0].RollNo, rows[1].RollNo)
	}
	if rows[0].Name != "ANENTHA KRISHNAN" || rows[0].Quota != "CC" || rows[0].StudentMobile != "9876543210" {
		t.Fatalf("row fields mismapped: %+v", rows[0])
	}
}

func TestParseDropsEmptyAndFooterRows(t *testing.T) {
	r := workbookBytes(t, [][]interface{}{
		headerRow(),
		{"23691A3201", "ANENTHA KRISHNAN"},
		{"", "", "", ""},
		{"", "", "CC"}, // no roll no, no name: footer junk
		{"23691A3204", "DHANUSH R"},
	})

	rows, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows after dropping blanks, got %d", len(rows))
	}
	// Positions reflect the original sheet, not the filtered slice.
	if rows[0].Position != 1 {
		t.Fatalf("first row position = %d, want 1", rows[0].Position)
	}
	if rows[1].Position != 4 {
		t.Fatalf("surviving footer-adjacent row position = %d, want 4", rows[1].Position)
	}
}

func TestParseIgnoresUnknownColumns(t *testing.T) {
	header := headerRow()
	header = append(header, "Bus Route")
	r := workbookBytes(t, [][]interface{}{
		header,
		{"23691A3201", "ANENTHA KRISHNAN", "CC", "Male", "9876543210", "", "", "", "", "", "", "Route 7"},
	})

	rows, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	if rows[0].RollNo != "23691A3201" {
		t.Fatalf("known columns should still map: %+v", rows[0])
	}
}

func TestParseInsufficientData(t *testing.T) {
	r := workbookBytes(t, [][]interface{}{headerRow()})
	if _, err := Parse(r); err != ErrInsufficientData {
		t.Fatalf("header-only sheet: got %v, want ErrInsufficientData", err)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	sheet := [][]interface{}{
		headerRow(),
		{"23691A3201", "ANENTHA KRISHNAN", "CC", "Male", "9876543210"},
		{"23691A3202", "BHAVANI DEVI", "MGMT", "Female", "9876501234"},
	}

	first, err := Parse(workbookBytes(t, sheet))
	if err != nil {
		t.Fatalf("first Parse: %v", err)
	}
	second, err := Parse(workbookBytes(t, sheet))
	if err != nil {
		t.Fatalf("second Parse: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].RollNo != second[i].RollNo || first[i].Position != second[i].Position {
			t.Fatalf("row %d differs between parses", i)
		}
	}
}

func TestPreview(t *testing.T) {
	rows := []Row{{RollNo: "a"}, {RollNo: "b"}, {RollNo: "c"}}
	if got := Preview(rows, 5); len(got) != 3 {
		t.Fatalf("preview larger than set should return all rows, got %d", len(got))
	}
	if got := Preview(rows, 2); len(got) != 2 || got[1].RollNo != "b" {
		t.Fatalf("preview should return the first n rows, got %+v", got)
	}
}
