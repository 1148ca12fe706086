package main

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/ingest"
	"github.com/ch360/campus_backend/models"
	"github.com/xuri/excelize/v2"
)

// importTemplateHandler serves a blank roster workbook with the expected
// header row and two example rows, so operators never guess the layout.
func importTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)

		headers := ingest.Headers()
		examples := [][]interface{}{
			{"23691A3201", "ANENTHA KRISHNAN", "CC", "Male", "9876543210", "9123456780", "123412341234", "RAMESH K", "LAKSHMI K", "12 Gandhi Street, Madanapalle", "2005-08-14"},
			{"23691A3202", "BHAVANI DEVI", "MGMT", "Female", "9876501234", "9123409876", "432143214321", "SURESH B", "PADMA B", "4 Nehru Nagar, Tirupati", "2006-01-02"},
		}

		row := make([]interface{}, len(headers))
		for i, h := range headers {
			row[i] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for i, example := range examples {
			cell := fmt.Sprintf("A%d", i+2)
			if err := f.SetSheetRow(sheet, cell, &example); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		// Size columns to their header so the sheet opens readable.
		for i, h := range headers {
			col, _ := excelize.ColumnNumberToName(i + 1)
			width := float64(len(h)) + 6
			_ = f.SetColWidth(sheet, col, col, width)
		}

		c.Header("Content-Disposition", `attachment; filename="student-import-template.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			config.LogError(config.GetLogger(), "exports.go", "importTemplateHandler", "Write", nil, err)
		}
	}
}

func groupFromQuery(c *gin.Context) (string, string, string, bool) {
	departmentCode := strings.TrimSpace(c.Query("department"))
	year := strings.TrimSpace(c.Query("year"))
	section := strings.TrimSpace(c.Query("section"))
	if departmentCode == "" || year == "" || section == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "department, year and section are required"})
		return "", "", "", false
	}
	return departmentCode, year, section, true
}

func listStudentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		departmentCode, year, section, ok := groupFromQuery(c)
		if !ok {
			return
		}
		students, err := models.GetStudentsByGroup(c.Request.Context(), departmentCode, year, section)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, students)
	}
}

var studentExportColumns = []string{
	"Roll No", "Student Name", "Email", "Quota", "Gender",
	"Student Mobile", "Parent Mobile", "Aadhar No",
	"Father Name", "Mother Name", "Address", "DOB",
}

func studentExportRow(s *models.Student) []string {
	return []string{
		s.RollNo, s.Name, s.Email, s.Quota, s.Gender,
		s.StudentMobile, s.ParentMobile, s.AadharNo,
		s.FatherName, s.MotherName, s.Address, s.DOB,
	}
}

// exportStudentsCSVHandler streams the group roster as CSV. Fields are
// always quoted-safe via encoding/csv, so free-text addresses with
// commas survive a round trip.
func exportStudentsCSVHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		departmentCode, year, section, ok := groupFromQuery(c)
		if !ok {
			return
		}
		students, err := models.GetStudentsByGroup(c.Request.Context(), departmentCode, year, section)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		filename := fmt.Sprintf("students-%s-%s-%s.csv", departmentCode, year, section)
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")

		w := csv.NewWriter(c.Writer)
		_ = w.Write(studentExportColumns)
		for _, s := range students {
			_ = w.Write(studentExportRow(s))
		}
		w.Flush()
		if err := w.Error(); err != nil {
			config.LogError(config.GetLogger(), "exports.go", "exportStudentsCSVHandler", "Flush", filename, err)
		}
	}
}

var studentsHTMLTemplate = template.Must(template.New("students").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Students {{.Department}} {{.Year}}-{{.Section}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 24px;">
<h2 style="margin-bottom: 4px;">Student Roster</h2>
<p style="margin-top: 0; color: #555;">{{.Department}} &middot; {{.Year}}-{{.Section}} &middot; {{.Count}} students</p>
<table style="border-collapse: collapse; width: 100%;">
<thead>
<tr>
{{- range .Columns}}
<th style="border: 1px solid #999; padding: 6px 8px; background: #eee; text-align: left;">{{.}}</th>
{{- end}}
</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>
{{- range .}}
<td style="border: 1px solid #999; padding: 6px 8px;">{{.}}</td>
{{- end}}
</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

// exportStudentsHTMLHandler renders a printable roster page. Styles are
// inlined so the page prints the same from any browser.
func exportStudentsHTMLHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		departmentCode, year, section, ok := groupFromQuery(c)
		if !ok {
			return
		}
		students, err := models.GetStudentsByGroup(c.Request.Context(), departmentCode, year, section)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		rows := make([][]string, 0, len(students))
		for _, s := range students {
			rows = append(rows, studentExportRow(s))
		}

		c.Header("Content-Type", "text/html; charset=utf-8")
		err = studentsHTMLTemplate.Execute(c.Writer, gin.H{
			"Department": departmentCode,
			"Year":       year,
			"Section":    section,
			"Count":      len(students),
			"Columns":    studentExportColumns,
			"Rows":       rows,
		})
		if err != nil {
			config.LogError(config.GetLogger(), "exports.go", "exportStudentsHTMLHandler", "Execute", nil, err)
		}
	}
}
