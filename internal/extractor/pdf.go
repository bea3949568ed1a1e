// Package extractor extracts plain text from binary statement documents.
package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts text from PDF statements page by page, row by row, so each
// statement line comes out as one text line.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

func (e *PDF) ExtractText(content []byte) (_ string, err error) {
	// The pdf library panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}

		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}

			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				sb.WriteString(line)
				sb.WriteByte('\n')
			}
		}
	}

	return sb.String(), nil
}
