package services

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"planora-ticketing/internal/models"
)

const (
	headerHeight      = 100.0
	footerHeight      = 80.0
	pageMargin        = 36.0
	descriptionLength = 140
	qrDrawSize        = 180.0

	supportLine  = "Need help? Contact %s"
	validityLine = "This pass is valid for one entry. Photo ID may be required."
)

// TicketDocument is everything printed on a ticket PDF.
type TicketDocument struct {
	Ticket   *models.Ticket
	Event    *models.Event
	Template models.TicketTemplate
	QRPNG    []byte
	Artwork  []byte // JPEG, optional
}

// PDFService renders single page A4 tickets.
type PDFService struct {
	supportEmail string
	compress     bool
	now          func() time.Time
}

// NewPDFService creates a renderer that prints supportEmail in the footer.
func NewPDFService(supportEmail string) *PDFService {
	return &PDFService{supportEmail: supportEmail, compress: true, now: time.Now}
}

// Render draws doc and returns the PDF bytes. The output depends only on doc
// and the render time.
func (s *PDFService) Render(doc TicketDocument) ([]byte, error) {
	if doc.Ticket == nil {
		return nil, fmt.Errorf("ticket is required")
	}
	tpl := doc.Template.WithDefaults()
	primary, accent, dark := hexRGB(tpl.BrandPrimary), hexRGB(tpl.BrandAccent), hexRGB(tpl.BrandDark)

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCompression(s.compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(s.now())
	pdf.SetTitle(tpl.HeaderTitle, true)
	pdf.SetAuthor("Planora", false)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w, h := pdf.GetPageSize()

	// Header band
	pdf.SetFillColor(primary.r, primary.g, primary.b)
	pdf.Rect(0, 0, w, headerHeight, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.Text(pageMargin, 32+26, tr(tpl.HeaderTitle))
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(pageMargin, 32+26+22, "Powered by PLANORA")

	// Event card
	cardY := 120.0
	pdf.SetDrawColor(primary.r, primary.g, primary.b)
	pdf.SetLineWidth(1.5)
	pdf.RoundedRect(pageMargin, cardY, w-2*pageMargin, 160, 12, "1234", "D")

	pdf.SetTextColor(dark.r, dark.g, dark.b)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(pageMargin+16, cardY+30, "Event")

	title, when := "Planora Event", "Date TBA"
	var location, description string
	if doc.Event != nil {
		if doc.Event.Title != "" {
			title = doc.Event.Title
		}
		when = doc.Event.DateLabel()
		location = doc.Event.Location
		description = doc.Event.Description
	}

	textWidth := w - 2*pageMargin - 32
	if len(doc.Artwork) > 0 {
		textWidth -= 136
	}

	pdf.SetTextColor(primary.r, primary.g, primary.b)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Text(pageMargin+16, cardY+60, tr(fitText(pdf, title, textWidth)))

	pdf.SetTextColor(100, 116, 139)
	pdf.SetFont("Helvetica", "", 12)
	subtitle := when
	if location != "" {
		subtitle += " • " + location
	}
	pdf.Text(pageMargin+16, cardY+82, tr(fitText(pdf, subtitle, textWidth)))
	pdf.Text(pageMargin+16, cardY+100, "Ticket ID: "+doc.Ticket.ShortID())

	if description != "" {
		pdf.SetTextColor(107, 114, 128)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(pageMargin+16, cardY+110)
		pdf.MultiCell(textWidth, 13, tr(truncate(description, descriptionLength)), "", "L", false)
	}

	if len(doc.Artwork) > 0 {
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader("artwork", opts, bytes.NewReader(doc.Artwork))
		if pdf.Ok() {
			pdf.ImageOptions("artwork", w-156, cardY+12, 120, 80, false, opts, 0, "")
		} else {
			// A broken artwork file must not cost the attendee their ticket.
			pdf.ClearError()
		}
	}

	// Attendee block
	blockY := 300.0
	rows := []struct{ label, value string }{
		{"Name", doc.Ticket.Name},
		{"Email", doc.Ticket.Email},
		{"Phone", doc.Ticket.Phone},
	}
	for i, row := range rows {
		y := blockY + float64(i)*24
		pdf.SetTextColor(dark.r, dark.g, dark.b)
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(pageMargin, y, row.label)
		pdf.SetTextColor(primary.r, primary.g, primary.b)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Text(pageMargin+80, y, tr(fitText(pdf, valueOrDash(row.value), w-2*pageMargin-80)))
	}

	statusY := blockY + float64(len(rows))*24
	pdf.SetTextColor(dark.r, dark.g, dark.b)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(pageMargin, statusY, "Status")
	badge := statusLabel(doc.Ticket.Status)
	pdf.SetFont("Helvetica", "B", 11)
	badgeWidth := pdf.GetStringWidth(badge) + 16
	if doc.Ticket.Status == models.TicketIssued || doc.Ticket.Status == models.TicketPending {
		pdf.SetFillColor(22, 163, 74)
	} else {
		pdf.SetFillColor(100, 116, 139)
	}
	pdf.RoundedRect(pageMargin+80, statusY-13, badgeWidth, 18, 9, "1234", "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.Text(pageMargin+88, statusY, badge)

	// QR card
	qrY := 420.0
	pdf.SetDrawColor(accent.r, accent.g, accent.b)
	pdf.RoundedRect(pageMargin, qrY, w-2*pageMargin, 220, 12, "1234", "D")
	pdf.SetTextColor(dark.r, dark.g, dark.b)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(pageMargin+16, qrY+24, "Scan at Entry")

	if len(doc.QRPNG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(doc.QRPNG))
		pdf.ImageOptions("qr", (w-qrDrawSize)/2, qrY+32, qrDrawSize, qrDrawSize, false, opts, 0, "")
	}

	pdf.SetTextColor(100, 116, 139)
	pdf.SetFont("Helvetica", "", 10)
	note := "Show this QR at entry. Do not share publicly."
	pdf.Text((w-pdf.GetStringWidth(note))/2, qrY+228, note)

	// Footer band
	pdf.SetFillColor(primary.r, primary.g, primary.b)
	pdf.Rect(0, h-footerHeight, w, footerHeight, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(pageMargin, h-footerHeight+30, fmt.Sprintf(supportLine, s.supportEmail))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(pageMargin, h-footerHeight+50, validityLine)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type rgb struct{ r, g, b int }

// hexRGB parses #RRGGBB. Callers pass colors that went through
// TicketTemplate.WithDefaults.
func hexRGB(hex string) rgb {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return rgb{}
	}
	return rgb{r: int(v >> 16 & 0xff), g: int(v >> 8 & 0xff), b: int(v & 0xff)}
}

func statusLabel(status models.TicketStatus) string {
	switch status {
	case models.TicketIssued, models.TicketPending:
		return "Issued"
	case "":
		return "Unknown"
	}
	s := string(status)
	return strings.ToUpper(s[:1]) + s[1:]
}

func valueOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

// fitText shortens s with an ellipsis until it is narrower than width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 1 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
