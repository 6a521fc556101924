package receipt

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-pdf/fpdf"

	"github.com/yeremiapane/fantasteak-pos/utils"
)

const (
	pdfWidth  = 80.0
	pdfMargin = 5.0
	rowHeight = 5.0
)

// RenderPDF writes the digital receipt as a single 80mm wide page.
func RenderPDF(w io.Writer, r Receipt) error {
	rows := 14 + len(r.Business.Address) + len(r.Business.Closing)
	for _, l := range r.Lines {
		rows++
		if l.Notes != "" {
			rows++
		}
	}
	if r.EventDate != "" {
		rows++
	}
	height := float64(rows)*rowHeight + 2*pdfMargin

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: pdfWidth, Ht: height},
	})
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle("Struk "+r.OrderID, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	inner := pdfWidth - 2*pdfMargin

	center := func(style string, size float64, s string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(inner, rowHeight, tr(s), "", 1, "C", false, 0, "")
	}
	pair := func(style, left, right string) {
		pdf.SetFont("Helvetica", style, 8)
		pdf.CellFormat(inner*0.6, rowHeight, tr(left), "", 0, "L", false, 0, "")
		pdf.CellFormat(inner*0.4, rowHeight, tr(right), "", 1, "R", false, 0, "")
	}
	rule := func() {
		y := pdf.GetY() + 1
		pdf.Line(pdfMargin, y, pdfWidth-pdfMargin, y)
		pdf.Ln(2)
	}

	center("B", 14, r.Business.Name)
	center("I", 7, r.Business.Tagline)
	for _, line := range r.Business.Address {
		center("", 6, line)
	}
	center("", 6, r.Business.Contact)
	rule()

	pair("B", "Pelanggan: "+r.CustomerName, "#"+r.OrderID)
	pair("", "Pesan: "+r.OrderedAtText(), "Meja: "+r.TableNumber)
	pair("", "Tipe: "+r.OrderType, "")
	if r.EventDate != "" {
		pair("B", "Tgl Acara (PO)", r.EventDateText())
	}
	rule()

	for _, l := range r.Lines {
		pair("B", l.ItemText(), l.PriceText())
		if l.Notes != "" {
			pdf.SetFont("Helvetica", "I", 7)
			pdf.CellFormat(inner, rowHeight, tr("* "+l.Notes), "", 1, "L", false, 0, "")
		}
	}
	rule()

	pair("B", "GRAND TOTAL", utils.FormatRupiah(r.Total))
	pdf.Ln(rowHeight)
	for _, line := range r.Business.Closing {
		center("I", 7, line)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "render receipt pdf")
	}
	return nil
}
