package pdfmark

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

const locateOperation = "locate pdf phrases"

// glyph is one positioned text run on a page, in PDF user space.
type glyph struct {
	S    string
	X, Y float64
	W    float64
	Size float64
}

// Locator finds phrase bounding boxes from the glyph positions of each page.
type Locator struct{}

func NewLocator() *Locator {
	return &Locator{}
}

func (l *Locator) Locate(ctx context.Context, path string, phrases []string) (out []domain.PageHighlight, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = domain.WrapError(domain.ErrDocumentRead, locateOperation, fmt.Errorf("malformed pdf %s: %v", path, r))
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDocumentRead, locateOperation, err)
	}
	defer f.Close()

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.WrapError(domain.ErrDocumentRead, locateOperation, err)
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		texts := page.Content().Text
		glyphs := make([]glyph, 0, len(texts))
		for _, text := range texts {
			glyphs = append(glyphs, glyph{S: text.S, X: text.X, Y: text.Y, W: text.W, Size: text.FontSize})
		}
		out = append(out, locateOnPage(pageNum, glyphs, phrases)...)
	}
	return out, nil
}

// locateOnPage matches every phrase against the page text rebuilt from glyph
// lines. Line breaks match a single space, and a match spanning several lines
// yields one box per line.
func locateOnPage(pageNum int, glyphs []glyph, phrases []string) []domain.PageHighlight {
	lines := groupLines(glyphs)
	if len(lines) == 0 {
		return nil
	}

	// owner[i] is the glyph behind byte i of text, or -1 for a synthetic line break.
	var text strings.Builder
	var owner []int
	var ordered []glyph
	for lineIdx, line := range lines {
		if lineIdx > 0 {
			text.WriteByte(' ')
			owner = append(owner, -1)
		}
		for _, g := range line {
			ordered = append(ordered, g)
			text.WriteString(g.S)
			for range len(g.S) {
				owner = append(owner, len(ordered)-1)
			}
		}
	}
	pageText := text.String()

	var out []domain.PageHighlight
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		for from := 0; from < len(pageText); {
			idx := strings.Index(pageText[from:], phrase)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(phrase)
			for _, rect := range boxesForRange(ordered, owner[start:end]) {
				out = append(out, domain.PageHighlight{Page: pageNum, Rect: rect})
			}
			from = end
		}
	}
	return out
}

func groupLines(glyphs []glyph) [][]glyph {
	sorted := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines [][]glyph
	for _, g := range sorted {
		if n := len(lines); n > 0 && sameLine(lines[n-1][0], g) {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []glyph{g})
	}
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
	}
	return lines
}

func sameLine(a, b glyph) bool {
	tolerance := math.Max(a.Size, b.Size) * 0.3
	if tolerance < 1 {
		tolerance = 1
	}
	return math.Abs(a.Y-b.Y) <= tolerance
}

// boxesForRange unions the glyph boxes behind a match, one rectangle per line.
func boxesForRange(ordered []glyph, owners []int) []domain.Rect {
	var rects []domain.Rect
	var current *domain.Rect
	seen := -1
	for _, idx := range owners {
		if idx < 0 {
			if current != nil {
				rects = append(rects, *current)
				current = nil
			}
			continue
		}
		if idx == seen {
			continue
		}
		seen = idx
		box := glyphBox(ordered[idx])
		if current == nil {
			current = &box
			continue
		}
		current.LLX = math.Min(current.LLX, box.LLX)
		current.LLY = math.Min(current.LLY, box.LLY)
		current.URX = math.Max(current.URX, box.URX)
		current.URY = math.Max(current.URY, box.URY)
	}
	if current != nil {
		rects = append(rects, *current)
	}
	return rects
}

func glyphBox(g glyph) domain.Rect {
	size := g.Size
	if size <= 0 {
		size = 10
	}
	width := g.W
	if width <= 0 {
		width = size * 0.5 * float64(len([]rune(g.S)))
	}
	return domain.Rect{
		LLX: g.X,
		LLY: g.Y - size*0.25,
		URX: g.X + width,
		URY: g.Y + size*0.9,
	}
}
