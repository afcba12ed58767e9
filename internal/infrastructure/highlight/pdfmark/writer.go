package pdfmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

const writeOperation = "write pdf highlights"

// Yellow highlight colour in DeviceRGB.
var highlightColor = []float64{1, 1, 0}

// Writer adds Highlight annotations to a copy of a PDF with pdfcpu.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// WriteHighlights writes inPath plus one annotation per highlight to outPath.
// outPath is replaced atomically if it already exists.
func (w *Writer) WriteHighlights(ctx context.Context, inPath, outPath string, highlights []domain.PageHighlight) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapError(domain.ErrDocumentRead, writeOperation, err)
	}
	pdfCtx, err := api.ReadContextFile(inPath)
	if err != nil {
		return domain.WrapError(domain.ErrDocumentRead, writeOperation, err)
	}

	for _, highlight := range highlights {
		if err := ctx.Err(); err != nil {
			return domain.WrapError(domain.ErrDocumentWrite, writeOperation, err)
		}
		if highlight.Page < 1 || highlight.Page > pdfCtx.PageCount {
			return domain.WrapError(domain.ErrDocumentWrite, writeOperation, fmt.Errorf("page %d out of range 1..%d", highlight.Page, pdfCtx.PageCount))
		}
		if err := addHighlight(pdfCtx, highlight); err != nil {
			return domain.WrapError(domain.ErrDocumentWrite, writeOperation, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".highlight-*.pdf")
	if err != nil {
		return domain.WrapError(domain.ErrDocumentWrite, writeOperation, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := api.WriteContextFile(pdfCtx, tmpPath); err != nil {
		return domain.WrapError(domain.ErrDocumentWrite, writeOperation, err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return domain.WrapError(domain.ErrDocumentWrite, writeOperation, err)
	}
	return nil
}

func addHighlight(pdfCtx *model.Context, highlight domain.PageHighlight) error {
	pageDict, pageRef, _, err := pdfCtx.PageDict(highlight.Page, false)
	if err != nil {
		return fmt.Errorf("load page %d: %w", highlight.Page, err)
	}
	if pageDict == nil || pageRef == nil {
		return fmt.Errorf("page %d not found", highlight.Page)
	}

	r := highlight.Rect
	annot := types.Dict(map[string]types.Object{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Highlight"),
		"Rect":    types.NewNumberArray(r.LLX, r.LLY, r.URX, r.URY),
		// Upper-left, upper-right, lower-left, lower-right.
		"QuadPoints": types.NewNumberArray(r.LLX, r.URY, r.URX, r.URY, r.LLX, r.LLY, r.URX, r.LLY),
		"C":          types.NewNumberArray(highlightColor...),
		"F":          types.Integer(4),
		"P":          *pageRef,
	})

	annotRef, err := pdfCtx.IndRefForNewObject(annot)
	if err != nil {
		return fmt.Errorf("register annotation: %w", err)
	}

	var annots types.Array
	if obj, found := pageDict.Find("Annots"); found {
		existing, err := pdfCtx.DereferenceArray(obj)
		if err != nil {
			return fmt.Errorf("read page %d annotations: %w", highlight.Page, err)
		}
		annots = existing
	}
	annots = append(annots, *annotRef)

	if obj, found := pageDict.Find("Annots"); found {
		if ref, ok := obj.(types.IndirectRef); ok {
			entry, ok := pdfCtx.FindTableEntryForIndRef(&ref)
			if ok && entry != nil {
				entry.Object = annots
				return nil
			}
		}
	}
	pageDict["Annots"] = annots
	return nil
}
