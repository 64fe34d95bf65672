package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/gen2brain/go-fitz"
	_ "golang.org/x/image/webp" // register WebP decoder

	"carepilot/internal/domain"
)

// pdfBaseDPI is the PDF user-space resolution; scale 1.0 renders at 72 DPI.
const pdfBaseDPI = 72.0

// RawPage is one decoded page, discarded once the payload is built.
type RawPage struct {
	Index int
	Image image.Image
}

// Width returns the page width in pixels.
func (p RawPage) Width() int { return p.Image.Bounds().Dx() }

// Height returns the page height in pixels.
func (p RawPage) Height() int { return p.Image.Bounds().Dy() }

// RasterizeImage decodes a single-image upload.
func RasterizeImage(data []byte) (RawPage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return RawPage{}, domain.DecodeError("decoding image", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return RawPage{}, domain.DecodeError("image has no pixels", nil)
	}
	return RawPage{Index: 0, Image: img}, nil
}

// PDF is an opened, read-only paginated document.
type PDF struct {
	doc *fitz.Document
}

// OpenPDF parses an in-memory PDF.
func OpenPDF(data []byte) (*PDF, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, domain.DecodeError("opening PDF", err)
	}
	return &PDF{doc: doc}, nil
}

// PageCount returns the number of pages in the document.
func (p *PDF) PageCount() int {
	return p.doc.NumPage()
}

// Rasterize renders page index at scale times the PDF base resolution.
func (p *PDF) Rasterize(index int, scale float64) (RawPage, error) {
	if index < 0 || index >= p.doc.NumPage() {
		return RawPage{}, domain.DecodeError(fmt.Sprintf("page %d out of range", index), nil)
	}
	if scale <= 0 {
		scale = 1
	}
	img, err := p.doc.ImageDPI(index, pdfBaseDPI*scale)
	if err != nil {
		return RawPage{}, domain.DecodeError(fmt.Sprintf("rendering page %d", index), err)
	}
	return RawPage{Index: index, Image: img}, nil
}

// Close releases the underlying document.
func (p *PDF) Close() error {
	return p.doc.Close()
}
