package docscan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFTextLayer reads the embedded text tokens of every page, joining tokens
// with spaces and pages with newlines. Scanned documents carry no text layer
// and come back empty; the caller falls back to recognition in that case.
func (s *Scanner) PDFTextLayer(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for n := 1; n <= numPages; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			s.logger.Warn("docscan.textlayer.page", "page", n, "error", err)
			continue
		}
		var words []string
		for _, row := range rows {
			for _, word := range row.Content {
				if word.S != "" {
					words = append(words, word.S)
				}
			}
		}
		if len(words) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(words, " "))
	}

	return strings.TrimSpace(b.String()), nil
}
