package imaging

import (
	"github.com/gabriel-vasile/mimetype"

	"carepilot/internal/domain"
)

// DetectFormat sniffs data and reports how it should be normalized along
// with the detected MIME type.
func DetectFormat(data []byte) (domain.DocumentFormat, string, error) {
	if len(data) == 0 {
		return "", "", domain.DecodeError("document is empty", domain.ErrEmptyDocument)
	}
	mtype := mimetype.Detect(data)
	for contentType, format := range domain.AllowedContentTypes {
		if mtype.Is(contentType) {
			return format, contentType, nil
		}
	}
	return "", mtype.String(), domain.UnsupportedFormatError(mtype.String())
}
