// ABOUTME: Text extraction from uploaded file bytes before indexing
// ABOUTME: Handles plain text and markdown directly, PDFs via ledongthuc/pdf
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction is returned when no readable text can be produced from an
// upload. Callers treat it as a synchronous bad-request: no indexing job
// is created.
var ErrExtraction = errors.New("extraction failed")

// minTextLength rejects uploads that decode to almost nothing.
const minTextLength = 50

// Text extracts plain text from file bytes based on the filename extension.
func Text(data []byte, filename string) (string, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = pdfText(data)
	case ".txt", ".md", ".markdown", "":
		text, err = plainText(data)
	default:
		return "", fmt.Errorf("unsupported file type %q: %w", filepath.Ext(filename), ErrExtraction)
	}
	if err != nil {
		return "", err
	}

	if len(strings.TrimSpace(text)) < minTextLength {
		return "", fmt.Errorf("document is empty or unreadable: %w", ErrExtraction)
	}

	return text, nil
}

func plainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8 text: %w", ErrExtraction)
	}
	return string(data), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %v: %w", err, ErrExtraction)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %v: %w", err, ErrExtraction)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %v: %w", err, ErrExtraction)
	}

	return buf.String(), nil
}
