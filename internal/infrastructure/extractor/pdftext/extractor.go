package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

const operation = "extract pdf text"

// Extractor reads the text layer of a PDF page by page.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract concatenates the plain text of every page in page order. Pages
// without content contribute nothing; a page whose text layer cannot be
// decoded is logged and skipped.
func (e *Extractor) Extract(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrDocumentRead, operation, fmt.Errorf("malformed pdf %s: %v", path, r))
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrDocumentRead, operation, err)
	}
	defer f.Close()

	return joinPages(ctx, path, reader.NumPage(), func(num int) (string, error) {
		page := reader.Page(num)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	})
}

// joinPages reads pages 1..numPages through pageText and concatenates them.
func joinPages(ctx context.Context, path string, numPages int, pageText func(num int) (string, error)) (string, error) {
	var buf strings.Builder
	for num := 1; num <= numPages; num++ {
		if err := ctx.Err(); err != nil {
			return "", domain.WrapError(domain.ErrDocumentRead, operation, err)
		}
		text, err := pageText(num)
		if err != nil {
			slog.Warn("pdf_page_text_skipped", "path", path, "page", num, "error", err)
			continue
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}
