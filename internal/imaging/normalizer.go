package imaging

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"carepilot/internal/config"
	"carepilot/internal/domain"
)

const defaultPDFScale = 1.5

// Normalizer converts an uploaded file into the single payload sent for
// extraction. Pages are rasterized one at a time.
type Normalizer struct {
	compositor *Compositor
	pdfScale   float64
	logger     zerolog.Logger
}

// NewNormalizer creates a Normalizer from intake settings.
func NewNormalizer(cfg config.IntakeConfig, logger zerolog.Logger) *Normalizer {
	scale := cfg.PDFScale
	if scale <= 0 {
		scale = defaultPDFScale
	}
	return &Normalizer{
		compositor: NewCompositor(cfg),
		pdfScale:   scale,
		logger:     logger.With().Str("component", "imaging.Normalizer").Logger(),
	}
}

// Normalize sniffs data and produces a bounded JPEG. Images are resized;
// PDFs have their first pages rasterized and stitched.
func (n *Normalizer) Normalize(ctx context.Context, data []byte) (domain.CompositePayload, error) {
	format, mediaType, err := DetectFormat(data)
	if err != nil {
		return domain.CompositePayload{}, err
	}

	switch format {
	case domain.FormatImage:
		page, err := RasterizeImage(data)
		if err != nil {
			return domain.CompositePayload{}, err
		}
		return n.compositor.EncodeImage(page)
	case domain.FormatPDF:
		return n.normalizePDF(ctx, data)
	default:
		return domain.CompositePayload{}, domain.UnsupportedFormatError(mediaType)
	}
}

func (n *Normalizer) normalizePDF(ctx context.Context, data []byte) (domain.CompositePayload, error) {
	doc, err := OpenPDF(data)
	if err != nil {
		return domain.CompositePayload{}, err
	}
	defer func() { _ = doc.Close() }()

	total := doc.PageCount()
	count := total
	if count > n.compositor.PageLimit() {
		count = n.compositor.PageLimit()
	}

	pages := make([]RawPage, 0, count)
	var lastErr error
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return domain.CompositePayload{}, domain.TimeoutError("rasterizing PDF", err)
			}
			return domain.CompositePayload{}, err
		}
		page, err := doc.Rasterize(i, n.pdfScale)
		if err != nil {
			n.logger.Warn().Err(err).Int("page", i).Msg("skipping page that failed to rasterize")
			lastErr = err
			continue
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		return domain.CompositePayload{}, domain.CompositionError("no page could be rasterized", lastErr)
	}

	n.logger.Debug().
		Int("pages_total", total).
		Int("pages_used", len(pages)).
		Msg("composing PDF pages")
	return n.compositor.EncodeDocument(pages)
}
