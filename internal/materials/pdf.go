package materials

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText pulls the plain text out of a PDF, one page at a time.
// Malformed documents and pages are skipped rather than surfaced; the parser
// can panic on badly corrupted files, so the whole extraction is recovered.
func extractPDFText(path string) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n")
}
