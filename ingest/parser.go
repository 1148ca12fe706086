package ingest

import (
	"errors"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxUploadBytes caps incoming spreadsheet files.
const MaxUploadBytes int64 = 10 << 20 // 10 MB

// AllowedMimeTypes whitelists upload content types. Anything else is
// rejected before parsing.
var AllowedMimeTypes = map[string]bool{
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

var ErrInsufficientData = errors.New("insufficient data: need a header row and at least one data row")

// Parse reads the first sheet of an uploaded workbook and maps it through
// the fixed header schema. Rows where every cell is empty are dropped
// before mapping; mapped rows lacking both a roll number and a name are
// treated as non-data rows (footers) and dropped too. Surviving rows are
// annotated with their 1-based data-row position for error reporting.
func Parse(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rawRows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rawRows) < 2 {
		return nil, ErrInsufficientData
	}

	// Resolve header columns against the schema. Unknown headers are
	// ignored so templates with extra columns keep importing.
	colSpec := map[int]FieldSpec{}
	for col, header := range rawRows[0] {
		header = strings.TrimSpace(header)
		for _, spec := range Schema {
			if spec.Header == header {
				colSpec[col] = spec
				break
			}
		}
	}

	var out []Row
	for i, cells := range rawRows[1:] {
		if allEmpty(cells) {
			continue
		}
		row := Row{Position: i + 1, Raw: cells}
		for col, spec := range colSpec {
			if col < len(cells) {
				spec.Assign(&row, strings.TrimSpace(cells[col]))
			}
		}
		if row.RollNo == "" && row.Name == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// Preview returns the first n staged rows for the confirmation screen.
func Preview(rows []Row, n int) []Row {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
