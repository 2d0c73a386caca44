package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/angkorcare/hospital-assistant/internal/booking"
	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

// PDFRenderer writes a one-page appointment confirmation PDF into a
// configured output directory and returns the file name.
type PDFRenderer struct {
	outputDir string
	logger    *logging.Logger
}

// NewPDFRenderer creates a renderer writing into outputDir, creating the
// directory if needed.
func NewPDFRenderer(outputDir string, logger *logging.Logger) (*PDFRenderer, error) {
	if strings.TrimSpace(outputDir) == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("render: creating output directory %s: %w", outputDir, err)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PDFRenderer{outputDir: outputDir, logger: logger}, nil
}

// Render writes the confirmation text as an A4 PDF and returns its file name.
func (r *PDFRenderer) Render(ctx context.Context, b booking.Booking, confirmation string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 10, confirmation, "", "L", false)

	name := Filename(b)
	path := filepath.Join(r.outputDir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("render: writing %s: %w", path, err)
	}

	r.logger.Info("confirmation document written", "file", name)
	return name, nil
}

// Filename derives the document name from the booking. Colons in the slot
// label are replaced so the name stays filesystem-safe.
func Filename(b booking.Booking) string {
	slot := strings.ReplaceAll(b.Slot, ":", "-")
	return fmt.Sprintf("appointment_%s_%s_%s_%s.pdf", b.PatientName, b.Provider, b.Date, slot)
}
