package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
)

// overlayDesc places the watermark page unscaled at the lower-left corner of the
// target page, on top of the existing content. Transparency comes from the
// watermark page itself.
const overlayDesc = "position:bl, offset:0 0, scalefactor:1 abs, rotation:0, opacity:1"

// Stamped is a composed document with the page counts observed on both sides.
type Stamped struct {
	Data        []byte
	MasterPages int
	OutputPages int
}

// Compositor overlays a rendered watermark page onto the first page of a document.
type Compositor struct {
	renderer Renderer
	logger   *zap.Logger
}

// NewCompositor creates a new compositor using renderer for the watermark page
func NewCompositor(renderer Renderer, logger *zap.Logger) *Compositor {
	return &Compositor{
		renderer: renderer,
		logger:   logger,
	}
}

// Stamp merges a watermark page carrying text onto page 1 of master. Pages 2..N
// are passed through unchanged and in order.
func (c *Compositor) Stamp(ctx context.Context, master []byte, text string) (*Stamped, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	masterPages, err := countPages(master)
	if err != nil {
		return nil, fmt.Errorf("%w: master: %v", ErrMalformedDocument, err)
	}
	if masterPages == 0 {
		return nil, fmt.Errorf("%w: master has no pages", ErrMalformedDocument)
	}

	wmBytes, err := c.renderer.Render(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompositionFailure, err)
	}
	wmPages, err := countPages(wmBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: watermark: %v", ErrMalformedDocument, err)
	}
	if wmPages != 1 {
		return nil, fmt.Errorf("%w: watermark has %d pages, want 1", ErrMalformedDocument, wmPages)
	}

	out, err := c.overlayFirstPage(master, wmBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompositionFailure, err)
	}

	outputPages, err := countPages(out)
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrCompositionFailure, err)
	}

	c.logger.Info("Composed stamped document",
		zap.Int("master_pages", masterPages),
		zap.Int("output_pages", outputPages),
		zap.Int("output_bytes", len(out)))

	if outputPages != masterPages {
		return nil, fmt.Errorf("%w: output has %d pages, master has %d", ErrCompositionFailure, outputPages, masterPages)
	}

	return &Stamped{
		Data:        out,
		MasterPages: masterPages,
		OutputPages: outputPages,
	}, nil
}

func (c *Compositor) overlayFirstPage(master, watermark []byte) (out []byte, err error) {
	defer recoverParse(&err)

	wm, err := api.PDFWatermarkForReadSeeker(bytes.NewReader(watermark), 1, overlayDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermark page: %w", err)
	}

	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(master), &buf, []string{"1"}, wm, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to merge watermark: %w", err)
	}
	return buf.Bytes(), nil
}

// countPages parses and validates data and reports its page count.
func countPages(data []byte) (n int, err error) {
	defer recoverParse(&err)

	ctx, err := api.ReadContext(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return 0, err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// recoverParse turns a pdfcpu panic on damaged input into an error.
func recoverParse(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("pdfcpu: %v", r)
	}
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// Classic xref tables keep the output readable by older tooling.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}
