// Package pdfgen renders downloadable PDF documents, currently the
// appointment summary handed to patients after a visit.
package pdfgen

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// AppointmentSummary carries everything the summary document shows.
// Fields are plain strings so the renderer stays decoupled from the
// domain models.
type AppointmentSummary struct {
	AppointmentID string
	PatientName   string
	PatientEmail  string
	PatientPhone  string
	DoctorName    string
	HospitalName  string
	Date          time.Time
	Status        string
	Notes         string
	GeneratedAt   time.Time
}

// FileName returns the suggested download file name for the summary.
func (s AppointmentSummary) FileName() string {
	return fmt.Sprintf("Summary-%s.pdf", s.AppointmentID)
}

// RenderAppointmentSummary writes the summary as a single-page A4 PDF.
func RenderAppointmentSummary(w io.Writer, s AppointmentSummary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Appointment Summary", true)
	pdf.AddPage()

	// Brand header.
	pdf.SetFont("Helvetica", "B", 25)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(0, 12, "MedLink", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 6, "Your Health, Connected.", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "BU", 18)
	pdf.CellFormat(0, 9, "Appointment Summary", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	generated := s.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(0, 6, "Generated: "+generated.Format("02 Jan 2006"), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Patient Details:")
	line(pdf, "Name: "+s.PatientName)
	line(pdf, "Email: "+s.PatientEmail)
	line(pdf, "Phone: "+orNA(s.PatientPhone))
	pdf.Ln(4)

	section(pdf, "Appointment Details:")
	line(pdf, "Date: "+s.Date.Format("02 Jan 2006 15:04"))
	line(pdf, "Doctor: Dr. "+s.DoctorName)
	line(pdf, "Hospital: "+s.HospitalName)
	line(pdf, "Status: "+strings.ToUpper(s.Status))
	pdf.Ln(4)

	if s.Notes != "" {
		section(pdf, "Clinical Notes / Diagnosis:")
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 6, s.Notes, "", "L", false)
		pdf.Ln(4)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 5, "This is a system generated document.", "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
}

func line(pdf *gofpdf.Fpdf, text string) {
	pdf.CellFormat(0, 6, text, "", 1, "L", false, 0, "")
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
