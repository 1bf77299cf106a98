package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor turns PDF bytes into plain text.
type TextExtractor interface {
	ExtractText(data []byte, pageCap int) (string, error)
}

// PDFExtractor is the TextExtractor backed by ledongthuc/pdf.
type PDFExtractor struct{}

func (PDFExtractor) ExtractText(data []byte, pageCap int) (string, error) {
	return ExtractText(data, pageCap)
}

// ExtractText returns the text of at most pageCap pages, one "\n" between
// pages. A non-positive pageCap reads every page. Unreadable pages are
// skipped; a document with no readable page is an error.
func ExtractText(data []byte, pageCap int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("document: pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("document: open pdf: %w", err)
	}

	pages := r.NumPage()
	if pageCap > 0 && pages > pageCap {
		pages = pageCap
	}

	var parts []string
	var lastErr error
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil {
			lastErr = err
			continue
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 && lastErr != nil {
		return "", fmt.Errorf("document: extract text: %w", lastErr)
	}
	return strings.Join(parts, "\n"), nil
}
