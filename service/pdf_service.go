package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// Parser extracts per-page text from a document on disk.
type Parser interface {
	ExtractPages(filePath string) ([]string, error)
}

// PDFService extracts per-page plain text from PDF files.
type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// ExtractPages returns the cleaned text of every page, in order. Pages
// whose extraction fails are kept as empty strings so page numbering
// stays aligned with the source document.
func (s *PDFService) ExtractPages(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("failed to extract page text")
			continue
		}
		pages[i-1] = cleanText(text)
	}
	return pages, nil
}

func cleanText(text string) string {
	replacements := map[string]string{
		"\x00":   "",   // Null character
		"\uFFFD": "",   // Unicode replacement character
		"\x1b":   "",   // Escape character
		"\r":     "",   // Carriage return
		"\f":     "\n", // Form feed to newline
		"  ":     " ",  // Multiple spaces to single space
	}
	cleaned := text
	for pattern, replacement := range replacements {
		cleaned = strings.ReplaceAll(cleaned, pattern, replacement)
	}
	return strings.TrimSpace(cleaned)
}
