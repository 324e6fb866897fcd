package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Renderer produces a single-page PDF carrying the watermark text.
type Renderer interface {
	Render(text string) ([]byte, error)
}

// PageSize is a page size in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// A5 is 148 x 210 mm expressed in points.
var A5 = PageSize{Width: 419.53, Height: 595.28}

// WatermarkOptions configures watermark page rendering
type WatermarkOptions struct {
	FontName  string   `json:"font_name"` // PostScript name, e.g. Helvetica-Bold
	FontSize  float64  `json:"font_size"`
	FillGray  float64  `json:"fill_gray"`  // 0 black .. 1 white
	FillAlpha float64  `json:"fill_alpha"` // 0 transparent .. 1 opaque
	PageSize  PageSize `json:"page_size"`
	TopOffset float64  `json:"top_offset"` // baseline distance from the top edge
}

// DefaultWatermarkOptions returns the options used for order stamps
func DefaultWatermarkOptions() WatermarkOptions {
	return WatermarkOptions{
		FontName:  "Helvetica-Bold",
		FontSize:  8,
		FillGray:  0.5,
		FillAlpha: 0.10,
		PageSize:  A5,
		TopOffset: 30,
	}
}

// HeaderRenderer draws the text horizontally centered near the top of the page.
type HeaderRenderer struct {
	options WatermarkOptions
}

// NewHeaderRenderer creates a renderer for the horizontal top-of-page stamp
func NewHeaderRenderer(options WatermarkOptions) *HeaderRenderer {
	return &HeaderRenderer{options: options}
}

// Render implements Renderer.
func (r *HeaderRenderer) Render(text string) ([]byte, error) {
	page, err := newWatermarkPage(r.options)
	if err != nil {
		return nil, err
	}

	// gofpdf measures y from the top edge, so the baseline sits at TopOffset.
	txt := page.translate(text)
	x := r.options.PageSize.Width/2 - page.pdf.GetStringWidth(txt)/2
	page.pdf.Text(x, r.options.TopOffset, txt)

	return page.bytes()
}

// DiagonalRenderer draws the text rotated 45 degrees around the page center.
// It is an alternative to HeaderRenderer and is selected through configuration.
type DiagonalRenderer struct {
	options WatermarkOptions
	angle   float64
}

// NewDiagonalRenderer creates a renderer for the centered diagonal stamp
func NewDiagonalRenderer(options WatermarkOptions) *DiagonalRenderer {
	return &DiagonalRenderer{options: options, angle: 45}
}

// Render implements Renderer.
func (r *DiagonalRenderer) Render(text string) ([]byte, error) {
	page, err := newWatermarkPage(r.options)
	if err != nil {
		return nil, err
	}

	cx := r.options.PageSize.Width / 2
	cy := r.options.PageSize.Height / 2
	txt := page.translate(text)

	page.pdf.TransformBegin()
	page.pdf.TransformRotate(r.angle, cx, cy)
	page.pdf.Text(cx-page.pdf.GetStringWidth(txt)/2, cy, txt)
	page.pdf.TransformEnd()

	return page.bytes()
}

// watermarkPage is a one-page gofpdf document with font, color and alpha applied.
type watermarkPage struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
}

func newWatermarkPage(options WatermarkOptions) (*watermarkPage, error) {
	if options.PageSize.Width <= 0 || options.PageSize.Height <= 0 {
		return nil, fmt.Errorf("invalid watermark page size %.2fx%.2f", options.PageSize.Width, options.PageSize.Height)
	}
	family, style := splitFontName(options.FontName)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: options.PageSize.Width, Ht: options.PageSize.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont(family, style, options.FontSize)
	gray := grayLevel(options.FillGray)
	pdf.SetTextColor(gray, gray, gray)
	pdf.SetFillColor(gray, gray, gray)
	pdf.SetAlpha(clamp01(options.FillAlpha), "Normal")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to set up watermark page: %w", err)
	}

	return &watermarkPage{
		pdf: pdf,
		// Core fonts are cp1252 encoded; this covers bullets and accented latin letters.
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}, nil
}

func (p *watermarkPage) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render watermark page: %w", err)
	}
	return buf.Bytes(), nil
}

// splitFontName maps a PostScript core font name onto a gofpdf family and style.
func splitFontName(name string) (family, style string) {
	family, variant, found := strings.Cut(name, "-")
	if family == "" {
		family = "Helvetica"
	}
	if !found {
		return family, ""
	}

	variant = strings.ToLower(variant)
	if strings.Contains(variant, "bold") {
		style += "B"
	}
	if strings.Contains(variant, "italic") || strings.Contains(variant, "oblique") {
		style += "I"
	}
	return family, style
}

func grayLevel(gray float64) int {
	return int(math.Round(clamp01(gray) * 255))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
