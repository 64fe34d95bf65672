package handler

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carepilot/internal/domain"
	"carepilot/internal/service"
)

// multipart framing allowance on top of the document limit
const formOverhead = 1 << 20

// IntakeHandler handles stateless document intake.
type IntakeHandler struct {
	intakeService service.IntakeService
	maxBytes      int64
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(intakeService service.IntakeService, maxBytes int64) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService, maxBytes: maxBytes}
}

// Process handles POST /api/v1/intake
// @Summary Extract a care plan from a document
// @Description Upload a prescription, lab report or diet chart (PDF or image) as multipart "file" or as a JSON data URI. Returns the normalized care plan and its time-of-day view.
// @Tags intake
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param file formData file false "Document (PDF, JPG, PNG, GIF or WebP)"
// @Param request body IntakeImageRequest false "Document as a data URI"
// @Success 200 {object} Response{data=service.IntakeResult} "Extracted care plan"
// @Failure 400 {object} ErrorResponseBody "Missing document"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 415 {object} ErrorResponseBody "Unsupported document"
// @Failure 422 {object} ErrorResponseBody "Document could not be decoded"
// @Failure 429 {object} ErrorResponseBody "Rate limited"
// @Failure 502 {object} ErrorResponseBody "Extraction failed"
// @Failure 504 {object} ErrorResponseBody "Timed out"
// @Router /intake [post]
func (h *IntakeHandler) Process(c *gin.Context) {
	input, ok := readDocument(c, h.maxBytes)
	if !ok {
		return
	}

	result, err := h.intakeService.Process(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// readDocument reads the upload from a multipart "file" field or a JSON data
// URI. It writes the error response and returns false on failure.
func readDocument(c *gin.Context, maxBytes int64) (service.IntakeInput, bool) {
	ct := c.ContentType()
	if limit := bodyLimit(ct, maxBytes); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var input service.IntakeInput
	var err error
	switch {
	case strings.HasPrefix(ct, "multipart/"):
		input, err = readMultipart(c, maxBytes)
	case ct == "application/json":
		input, err = readDataURI(c)
	default:
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "send a multipart file field or a JSON image data URI")
		return input, false
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = domain.ErrFileTooLarge
		}
		if errors.Is(err, errMissingFile) {
			RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
			return input, false
		}
		HandleError(c, err)
		return input, false
	}
	if len(input.Data) == 0 {
		HandleError(c, domain.ErrEmptyDocument)
		return input, false
	}
	return input, true
}

// bodyLimit bounds the request body for a document of at most maxBytes.
// A JSON data URI carries the document base64 encoded, which is 4/3 larger.
func bodyLimit(contentType string, maxBytes int64) int64 {
	if maxBytes <= 0 {
		return 0
	}
	if contentType == "application/json" {
		return maxBytes*4/3 + formOverhead
	}
	return maxBytes + formOverhead
}

var errMissingFile = errors.New("missing file")

func readMultipart(c *gin.Context, maxBytes int64) (service.IntakeInput, error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.IntakeInput{}, err
		}
		return service.IntakeInput{}, errMissingFile
	}
	defer func() { _ = file.Close() }()

	r := io.Reader(file)
	if maxBytes > 0 {
		r = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return service.IntakeInput{}, domain.DecodeError("reading upload", err)
	}
	return service.IntakeInput{FileName: header.Filename, Data: data}, nil
}

func readDataURI(c *gin.Context) (service.IntakeInput, error) {
	var req IntakeImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.IntakeInput{}, err
		}
		return service.IntakeInput{}, errMissingFile
	}
	data, err := decodeDataURI(req.Image)
	if err != nil {
		return service.IntakeInput{}, err
	}
	return service.IntakeInput{FileName: req.FileName, Data: data}, nil
}

// decodeDataURI accepts "data:<type>;base64,<payload>" or bare base64.
func decodeDataURI(uri string) ([]byte, error) {
	payload := strings.TrimSpace(uri)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, domain.DecodeError("image must be a base64 data URI", nil)
		}
		payload = payload[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.DecodeError("invalid base64 image", err)
	}
	return data, nil
}
