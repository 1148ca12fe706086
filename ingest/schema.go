package ingest

import (
	"regexp"

	"github.com/ch360/campus_backend/utils"
)

// Row is one parsed spreadsheet row. Raw keeps the original cells for
// diagnostics; Position is the 1-based data-row number (header-adjusted).
type Row struct {
	RollNo        string `json:"roll_no"`
	Name          string `json:"name"`
	Quota         string `json:"quota"`
	Gender        string `json:"gender"`
	StudentMobile string `json:"student_mobile"`
	ParentMobile  string `json:"parent_mobile"`
	AadharNo      string `json:"aadhar_no"`
	FatherName    string `json:"father_name"`
	MotherName    string `json:"mother_name"`
	Address       string `json:"address"`
	DOB           string `json:"dob"`

	Position int      `json:"position"`
	Raw      []string `json:"raw,omitempty"`
}

// FieldSpec binds one expected spreadsheet header to a Row field.
// The import form and the validator are both driven by this schema,
// so adding a column is a one-line change here.
type FieldSpec struct {
	Header   string
	Field    string
	Label    string
	Assign   func(r *Row, value string)
	Get      func(r Row) string
	Validate func(value string) string // returns "" when valid
}

var rollNoPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ImportQuotas is the permitted quota set at the bulk-import screen.
// NOTE: the credential screen historically validated against a smaller
// set (credential.SaveQuotas); the two have not been unified on purpose.
var ImportQuotas = []string{"CC", "MG", "COV", "MGMT"}

var Genders = []string{"Male", "Female", "Other"}

func oneOf(allowed []string) func(string) string {
	return func(v string) string {
		if v == "" {
			return ""
		}
		for _, a := range allowed {
			if v == a {
				return ""
			}
		}
		return "must be one of " + joinWith(allowed, "/")
	}
}

func joinWith(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

func exactDigits(n int, label string) func(string) string {
	return func(v string) string {
		if v == "" {
			return ""
		}
		if len(utils.DigitsOnly(v)) != n {
			return label
		}
		return ""
	}
}

// Schema is the fixed header dictionary of the import template.
// Headers not listed here are ignored, which keeps older templates with
// extra columns importable.
var Schema = []FieldSpec{
	{
		Header: "Roll No", Field: "rollNo", Label: "Roll No",
		Assign: func(r *Row, v string) { r.RollNo = v },
		Get:    func(r Row) string { return r.RollNo },
		Validate: func(v string) string {
			if v == "" {
				return "Roll No is required"
			}
			if !rollNoPattern.MatchString(v) {
				return "Roll No must be alphanumeric"
			}
			return ""
		},
	},
	{
		Header: "Student Name", Field: "name", Label: "Student Name",
		Assign: func(r *Row, v string) { r.Name = v },
		Get:    func(r Row) string { return r.Name },
		Validate: func(v string) string {
			if v == "" {
				return "Student Name is required"
			}
			return ""
		},
	},
	{
		Header: "Quota", Field: "quota", Label: "Quota",
		Assign:   func(r *Row, v string) { r.Quota = v },
		Get:      func(r Row) string { return r.Quota },
		Validate: withPrefix("Quota ", oneOf(ImportQuotas)),
	},
	{
		Header: "Gender", Field: "gender", Label: "Gender",
		Assign:   func(r *Row, v string) { r.Gender = v },
		Get:      func(r Row) string { return r.Gender },
		Validate: withPrefix("Gender ", oneOf(Genders)),
	},
	{
		Header: "Student Mobile", Field: "studentMobile", Label: "Student Mobile",
		Assign:   func(r *Row, v string) { r.StudentMobile = v },
		Get:      func(r Row) string { return r.StudentMobile },
		Validate: exactDigits(10, "Student Mobile must be 10 digits"),
	},
	{
		Header: "Parent Mobile", Field: "parentMobile", Label: "Parent Mobile",
		Assign:   func(r *Row, v string) { r.ParentMobile = v },
		Get:      func(r Row) string { return r.ParentMobile },
		Validate: exactDigits(10, "Parent Mobile must be 10 digits"),
	},
	{
		Header: "Aadhar No", Field: "aadharNo", Label: "Aadhar No",
		Assign:   func(r *Row, v string) { r.AadharNo = v },
		Get:      func(r Row) string { return r.AadharNo },
		Validate: exactDigits(12, "Aadhar No must be 12 digits"),
	},
	{
		Header: "Father Name", Field: "fatherName", Label: "Father Name",
		Assign: func(r *Row, v string) { r.FatherName = v },
		Get:    func(r Row) string { return r.FatherName },
	},
	{
		Header: "Mother Name", Field: "motherName", Label: "Mother Name",
		Assign: func(r *Row, v string) { r.MotherName = v },
		Get:    func(r Row) string { return r.MotherName },
	},
	{
		Header: "Address", Field: "address", Label: "Address",
		Assign: func(r *Row, v string) { r.Address = v },
		Get:    func(r Row) string { return r.Address },
	},
	{
		Header: "DOB", Field: "dob", Label: "DOB",
		Assign: func(r *Row, v string) { r.DOB = v },
		Get:    func(r Row) string { return r.DOB },
	},
}

func withPrefix(prefix string, inner func(string) string) func(string) string {
	return func(v string) string {
		if msg := inner(v); msg != "" {
			return prefix + msg
		}
		return ""
	}
}

// Headers returns the template headers in schema order.
func Headers() []string {
	out := make([]string, 0, len(Schema))
	for _, spec := range Schema {
		out = append(out, spec.Header)
	}
	return out
}
