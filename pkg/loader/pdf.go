package loader

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const pdfTimeout = 30 * time.Second

// extractPDF converts a PDF with the poppler pdftotext tool. Hosts without
// the binary get a sentinel instead of an error so ingestion keeps going.
func (p *Processor) extractPDF(ctx context.Context, data []byte) (string, string, bool) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return sentinel(".pdf", "extraction unavailable"), "pdftotext", false
	}

	tmpDir, err := os.MkdirTemp("", "pdfextract-")
	if err != nil {
		return sentinel(".pdf", "extraction failed"), "pdftotext", false
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return sentinel(".pdf", "extraction failed"), "pdftotext", false
	}

	ctx, cancel := context.WithTimeout(ctx, pdfTimeout)
	defer cancel()

	cmd := exec.CommandContext(
		ctx,
		"pdftotext",
		"-enc", "UTF-8",
		"-eol", "unix",
		"-nopgbrk",
		"-q",
		pdfPath,
		"-",
	)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return sentinel(".pdf", "extraction timed out"), "pdftotext", false
		}
		return sentinel(".pdf", "extraction failed"), "pdftotext", false
	}

	text := strings.TrimSpace(string(out))
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return text, "pdftotext", true
}

// extractImage is a placeholder for OCR. Images are accepted as a known
// type but their content is reported as unavailable.
func (p *Processor) extractImage(_ context.Context, _ []byte) (string, string, bool) {
	return "[IMAGE: extraction unavailable]", "ocr", false
}
