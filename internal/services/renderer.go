package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
)

// TextInvoiceRenderer writes a plain-text invoice artifact to disk and
// returns its path. It stands in for the PDF pipeline, which the workflow
// only needs an artifact reference from.
type TextInvoiceRenderer struct {
	dir string
}

// NewTextInvoiceRenderer creates a renderer writing into dir
func NewTextInvoiceRenderer(dir string) (*TextInvoiceRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create invoice directory: %w", err)
	}
	return &TextInvoiceRenderer{dir: dir}, nil
}

// Render produces the invoice artifact for a sale
func (r *TextInvoiceRenderer) Render(sale *models.Sale) (string, error) {
	lines, err := sale.Lines()
	if err != nil {
		return "", fmt.Errorf("failed to decode sale lines: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INVOICE %s\n", sale.InvoiceNo)
	fmt.Fprintf(&b, "Customer: %s\n", sale.CustomerName)
	fmt.Fprintf(&b, "Date: %s\n\n", sale.CreatedAt.Format("02 Jan 2006 15:04"))
	for _, line := range lines {
		fmt.Fprintf(&b, "%-30s %4d x ₹%8.2f = ₹%10.2f\n", line.ItemName, line.Quantity, line.UnitPrice, line.Total())
	}
	fmt.Fprintf(&b, "\nTOTAL: ₹%.2f\n", sale.TotalAmount)

	path := filepath.Join(r.dir, sale.InvoiceNo+".txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write invoice artifact: %w", err)
	}
	return path, nil
}
