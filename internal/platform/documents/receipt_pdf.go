// Package documents renders the PDFs handed to residents.
package documents

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/residential-billing-ledger/internal/domain/receipt"
)

const currencyCode = money.USD

// ReceiptRenderer turns a payment into receipt PDF bytes.
type ReceiptRenderer interface {
	Render(doc *receipt.Document) ([]byte, error)
}

// PDFReceiptRenderer lays out a single A4 page.
type PDFReceiptRenderer struct {
	now func() time.Time
}

func NewPDFReceiptRenderer() *PDFReceiptRenderer {
	return &PDFReceiptRenderer{now: time.Now}
}

var _ ReceiptRenderer = (*PDFReceiptRenderer)(nil)

func (r *PDFReceiptRenderer) Render(doc *receipt.Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payment Receipt %d", doc.EntryID), true)
	pdf.SetCreationDate(r.now())
	pdf.SetMargins(25, 25, 25)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	lineEnd := pageW - right

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Payment Receipt", "", 1, "L", false, 0, "")
	pdf.Ln(8)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 12)
	fields := []struct {
		label string
		value string
	}{
		{"Name:", doc.ResidentName},
		{"Amount Paid:", FormatMoney(doc.AmountPaid)},
		{"Date:", doc.EntryDate.Format(time.DateOnly)},
		{"Balance After Payment:", FormatMoney(doc.BalanceAfter)},
	}
	for _, f := range fields {
		labelW := pdf.GetStringWidth(f.label) + 3
		y := pdf.GetY()
		pdf.CellFormat(labelW, 8, f.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, tr(f.value), "", 1, "L", false, 0, "")
		pdf.Line(left+labelW, y+7, lineEnd, y+7)
		pdf.Ln(4)
	}

	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Receipt ID: %d", doc.EntryID), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatMoney renders an amount in dollars, e.g. $1,234.56 or -$20.00.
func FormatMoney(amount decimal.Decimal) string {
	cur := money.GetCurrency(currencyCode)
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, currencyCode).Display()
}
