// Package document downloads candidate benefit documents and turns PDF bytes
// into plain text.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

var (
	ErrNotDocument = errors.New("document: not a PDF or HTML payload")
	ErrTooLarge    = errors.New("document: payload exceeds size cap")
	ErrTooSmall    = errors.New("document: payload below minimum size")
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var pdfMagic = []byte("%PDF-")

// Document is a fetched payload that passed the content gate.
type Document struct {
	URL         string
	FinalURL    string
	ContentType string
	Body        []byte
	// IsHTML marks a landing page rather than a PDF.
	IsHTML      bool
}

// Fetcher retrieves documents over HTTP with size caps.
type Fetcher struct {
	client   *http.Client
	MaxBytes int64
	MinBytes int64
}

// NewFetcher wraps client. A nil client falls back to http.DefaultClient.
func NewFetcher(client *http.Client, maxBytes, minBytes int64) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, MaxBytes: maxBytes, MinBytes: minBytes}
}

// Fetch GETs url and classifies the body. PDFs smaller than MinBytes are
// rejected as corrupt; HTML pages are exempt from the minimum.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("document: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/pdf,text/html;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("document: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("document: get %s: status %d", url, resp.StatusCode)
	}
	if f.MaxBytes > 0 && resp.ContentLength > f.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	reader := io.Reader(resp.Body)
	if f.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("document: read %s: %w", url, err)
	}
	if f.MaxBytes > 0 && int64(len(body)) > f.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.MaxBytes)
	}

	doc := &Document{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}

	switch Classify(doc.ContentType, body) {
	case KindPDF:
		if int64(len(body)) < f.MinBytes {
			return nil, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(body))
		}
	case KindHTML:
		doc.IsHTML = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotDocument, doc.ContentType)
	}
	return doc, nil
}

// Kind is the payload class decided by Classify.
type Kind int

const (
	KindOther Kind = iota
	KindPDF
	KindHTML
)

// Classify applies the content gate: PDF magic bytes win, then the declared
// media type.
func Classify(contentType string, body []byte) Kind {
	if bytes.HasPrefix(body, pdfMagic) {
		return KindPDF
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case mt == "application/pdf", mt == "application/x-pdf",
		mt == "application/octet-stream", strings.HasPrefix(mt, "binary/"):
		return KindPDF
	case mt == "text/html", mt == "application/xhtml+xml":
		return KindHTML
	}
	return KindOther
}
