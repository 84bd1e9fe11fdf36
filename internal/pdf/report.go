// Package pdf renders the printable report for a service request. The
// report carries the request metadata, its lots, and the investigation
// findings when one exists. Rendering is synchronous and returns the
// document as a byte slice ready for email attachment.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// ReportRenderer renders request reports with gofpdf. It is stateless and
// safe for concurrent use.
type ReportRenderer struct {
	// Now is the clock used for the "generated at" line; defaults to
	// time.Now when nil. Tests pin it.
	Now func() time.Time
}

// Render produces the PDF report for a request snapshot.
func (r *ReportRenderer) Render(req *domain.Request) ([]byte, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("SAT Report %s", req.Code), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, fmt.Sprintf("SAT Report - %s", req.Code), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, "Generated at: "+now().UTC().Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	sectionTitle(pdf, "Request")
	field(pdf, "Code", req.Code)
	field(pdf, "Status", string(req.Status))
	field(pdf, "Client", req.Client)
	field(pdf, "City", req.City)
	field(pdf, "Product", req.Product)
	field(pdf, "Quantity", fmt.Sprintf("%d", req.Quantity))
	field(pdf, "Lot(s) / Expiry", lotsLine(req.Lots))
	field(pdf, "Contact", req.Contact)
	field(pdf, "Phone", req.Phone)
	field(pdf, "Representative", requesterLine(req))
	if req.Destination != nil {
		field(pdf, "Destination Lab", string(*req.Destination))
	}
	pdf.Ln(2)

	sectionTitle(pdf, "Complaint")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, req.Complaint, "", "L", false)
	pdf.Ln(2)

	if inv := req.Investigation; inv != nil {
		sectionTitle(pdf, "Technical Investigation")
		field(pdf, "Status", string(inv.Status))
		field(pdf, "Lot Under Analysis", inv.Lot)
		if !inv.Date.IsZero() {
			field(pdf, "Date", inv.Date.Format("02/01/2006"))
		}
		field(pdf, "Complaint Upheld", flagLine(inv.ComplaintUpheld))
		field(pdf, "Replacement", flagLine(inv.Replacement))
		field(pdf, "Lot Recall", flagLine(inv.LotRecall))
		if inv.Findings != "" {
			textBlock(pdf, "Findings", inv.Findings)
		}
		if inv.ProbableCause != "" {
			textBlock(pdf, "Probable Cause", inv.ProbableCause)
		}
		if inv.Solution != "" {
			textBlock(pdf, "Proposed Solution", inv.Solution)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report for %s: %w", req.Code, err)
	}
	return buf.Bytes(), nil
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, title, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func field(pdf *gofpdf.Fpdf, label, value string) {
	if value == "" {
		value = "-"
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(50, 6, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, value, "", "L", false)
}

func textBlock(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, label, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, value, "", "L", false)
	pdf.Ln(1)
}

func lotsLine(lots []domain.RequestLot) string {
	if len(lots) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(lots))
	for _, l := range lots {
		parts = append(parts, fmt.Sprintf("%s (exp. %s)", l.Lot, l.Expiry))
	}
	return strings.Join(parts, ", ")
}

func requesterLine(req *domain.Request) string {
	if req.Requester != nil && req.Requester.Name != "" {
		return req.Requester.Name
	}
	if req.Requester != nil {
		return req.Requester.Code
	}
	return fmt.Sprintf("#%d", req.RequesterID)
}

func flagLine(b *bool) string {
	switch {
	case b == nil:
		return "Not assessed"
	case *b:
		return "Yes"
	default:
		return "No"
	}
}
