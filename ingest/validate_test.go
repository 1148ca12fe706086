package ingest

import (
	"strings"
	"testing"
)

func validRow() Row {
	return Row{
		RollNo:        "23691A3201",
		Name:          "ANENTHA KRISHNAN",
		Quota:         "CC",
		Gender:        "Male",
		StudentMobile: "9876543210",
		ParentMobile:  "9123456780",
		AadharNo:      "123412341234",
		FatherName:    "RAMESH K",
		MotherName:    "LAKSHMI K",
		Address:       "12 Gandhi Street",
		DOB:           "2005-08-14",
		Position:      1,
	}
}

func TestValidateRowAccepts(t *testing.T) {
	if errs := ValidateRow(validRow()); len(errs) != 0 {
		t.Fatalf("valid row rejected: %v", errs)
	}
}

func TestValidateRowRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Row)
		want   string
	}{
		{"missing roll no", func(r *Row) { r.RollNo = "" }, "Roll No"},
		{"roll no with punctuation", func(r *Row) { r.RollNo = "23691A-3201" }, "Roll No"},
		{"missing name", func(r *Row) { r.Name = "" }, "Student Name"},
		{"unknown quota", func(r *Row) { r.Quota = "NRI" }, "Quota"},
		{"unknown gender", func(r *Row) { r.Gender = "M" }, "Gender"},
		{"short student mobile", func(r *Row) { r.StudentMobile = "98765" }, "Student Mobile"},
		{"long parent mobile", func(r *Row) { r.ParentMobile = "91234567801" }, "Parent Mobile"},
		{"aadhar not 12 digits", func(r *Row) { r.AadharNo = "12341234" }, "Aadhar"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := validRow()
			tc.mutate(&row)
			errs := ValidateRow(row)
			if len(errs) == 0 {
				t.Fatalf("expected an error mentioning %q, got none", tc.want)
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected an error mentioning %q, got %v", tc.want, errs)
			}
		})
	}
}

func TestValidateRowReportsEveryFailure(t *testing.T) {
	row := validRow()
	row.RollNo = ""
	row.Quota = "XX"
	row.StudentMobile = "123"

	errs := ValidateRow(row)
	if len(errs) != 3 {
		t.Fatalf("want 3 errors (no short-circuit), got %d: %v", len(errs), errs)
	}
}

func TestValidateMapsErrorsByPosition(t *testing.T) {
	good := validRow()
	bad := validRow()
	bad.Position = 2
	bad.AadharNo = "nope"

	result := Validate([]Row{good, bad})
	if result.TotalErrors != 1 {
		t.Fatalf("want 1 total error, got %d", result.TotalErrors)
	}
	if _, ok := result.Errors[1]; ok {
		t.Fatalf("valid row at position 1 should have no entry")
	}
	if errs := result.Errors[2]; len(errs) != 1 {
		t.Fatalf("want 1 error for position 2, got %v", errs)
	}
}

func TestValidateRowOptionalFieldsMayBeEmpty(t *testing.T) {
	row := validRow()
	row.ParentMobile = ""
	row.AadharNo = ""
	row.FatherName = ""
	row.MotherName = ""
	row.Address = ""
	row.DOB = ""
	if errs := ValidateRow(row); len(errs) != 0 {
		t.Fatalf("optional blanks rejected: %v", errs)
	}
}
