package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"

	"carepilot/internal/config"
	"carepilot/internal/domain"
)

const (
	defaultPageLimit        = 4
	defaultMaxSide          = 1000
	defaultSingleQuality    = 70
	defaultCompositeQuality = 60

	mediaTypeJPEG = "image/jpeg"
)

// Compose stacks the first limit pages top to bottom, left-aligned, on a
// white canvas as wide as the widest page and as tall as all pages together.
// A limit of zero or less keeps every page.
func Compose(pages []RawPage, limit int) (*image.RGBA, error) {
	if limit > 0 && len(pages) > limit {
		pages = pages[:limit]
	}
	if len(pages) == 0 {
		return nil, domain.CompositionError("no pages to compose", nil)
	}

	width, height := 0, 0
	for _, p := range pages {
		if p.Image == nil {
			return nil, domain.CompositionError(fmt.Sprintf("page %d has no image", p.Index), nil)
		}
		if p.Width() > width {
			width = p.Width()
		}
		height += p.Height()
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	y := 0
	for _, p := range pages {
		b := p.Image.Bounds()
		dst := image.Rect(0, y, b.Dx(), y+b.Dy())
		draw.Draw(canvas, dst, p.Image, b.Min, draw.Over)
		y += b.Dy()
	}
	return canvas, nil
}

// Compositor turns rasterized pages into the bounded JPEG payload.
type Compositor struct {
	pageLimit        int
	maxSide          int
	singleQuality    int
	compositeQuality int
}

// NewCompositor builds a compositor from intake settings, filling zero
// values with the defaults.
func NewCompositor(cfg config.IntakeConfig) *Compositor {
	c := &Compositor{
		pageLimit:        cfg.PageLimit,
		maxSide:          cfg.MaxSide,
		singleQuality:    cfg.SingleQuality,
		compositeQuality: cfg.CompositeQuality,
	}
	if c.pageLimit <= 0 {
		c.pageLimit = defaultPageLimit
	}
	if c.maxSide <= 0 {
		c.maxSide = defaultMaxSide
	}
	if c.singleQuality <= 0 {
		c.singleQuality = defaultSingleQuality
	}
	if c.compositeQuality <= 0 {
		c.compositeQuality = defaultCompositeQuality
	}
	return c
}

// PageLimit returns the maximum number of pages composed.
func (c *Compositor) PageLimit() int { return c.pageLimit }

// EncodeImage bounds a single image so its longest side is at most the
// configured maximum and encodes it as JPEG.
func (c *Compositor) EncodeImage(page RawPage) (domain.CompositePayload, error) {
	w, h := page.Width(), page.Height()
	longest := w
	if h > longest {
		longest = h
	}
	tw, th := w, h
	if longest > c.maxSide {
		tw, th = scaleDims(w, h, float64(c.maxSide)/float64(longest))
	}
	return c.encode(flatten(page.Image, tw, th), c.singleQuality, 1)
}

// EncodeDocument composes pages and bounds the composite's width.
func (c *Compositor) EncodeDocument(pages []RawPage) (domain.CompositePayload, error) {
	canvas, err := Compose(pages, c.pageLimit)
	if err != nil {
		return domain.CompositePayload{}, err
	}
	count := len(pages)
	if count > c.pageLimit {
		count = c.pageLimit
	}

	var out image.Image = canvas
	if w := canvas.Bounds().Dx(); w > c.maxSide {
		tw, th := scaleDims(w, canvas.Bounds().Dy(), float64(c.maxSide)/float64(w))
		out = flatten(canvas, tw, th)
	}
	return c.encode(out, c.compositeQuality, count)
}

func (c *Compositor) encode(img image.Image, quality, pages int) (domain.CompositePayload, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return domain.CompositePayload{}, domain.CompositionError("encoding JPEG", err)
	}
	b := img.Bounds()
	return domain.CompositePayload{
		Data:      buf.Bytes(),
		MediaType: mediaTypeJPEG,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Pages:     pages,
	}, nil
}

// flatten draws src scaled to w x h onto an opaque white canvas.
func flatten(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	return dst
}

func scaleDims(w, h int, factor float64) (int, int) {
	tw := int(math.Round(float64(w) * factor))
	th := int(math.Round(float64(h) * factor))
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}
