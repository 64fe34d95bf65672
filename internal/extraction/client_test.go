package extraction_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carepilot/internal/domain"
	"carepilot/internal/extraction"
	"carepilot/internal/llm"
	"carepilot/internal/port"
	"carepilot/mocks"
)

const labReportJSON = `{
  "patientName": "Meera Iyer",
  "docType": "Lab Report",
  "summary": "Hemoglobin is low. Cholesterol is high.",
  "medications": [],
  "redFlags": ["Low Hemoglobin: 10 g/dL", "High Cholesterol: 240 mg/dL"],
  "dietaryTips": ["Eat beetroot and spinach", "Avoid fried food"],
  "followUp": "Consult Doctor"
}`

var payload = domain.CompositePayload{Data: []byte{0xff, 0xd8, 0xff}, MediaType: "image/jpeg", Width: 10, Height: 10, Pages: 1}

func newClient(p *mocks.MockProvider) *extraction.Client {
	return extraction.NewClient(p, 0, zerolog.Nop())
}

func TestExtract_SendsContract(t *testing.T) {
	p := new(mocks.MockProvider)
	p.On("Generate", mock.Anything, mock.MatchedBy(func(req port.VisionRequest) bool {
		return req.JSONMode &&
			req.Temperature == 0.1 &&
			req.Image.MediaType == "image/jpeg" &&
			strings.HasSuffix(req.Instruction, "Return ONLY valid JSON.") &&
			strings.Contains(req.Instruction, `"medications" MUST be []`) &&
			strings.Contains(req.Instruction, "Map breakfast to morning, lunch to afternoon and dinner to night")
	})).Return(labReportJSON, nil).Once()

	draft, err := newClient(p).Extract(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", draft.PatientName)
	assert.Equal(t, "Lab Report", draft.DocType)
	assert.Empty(t, draft.Medications)
	assert.Len(t, draft.RedFlags, 2)
	p.AssertExpectations(t)
}

func TestExtract_RecoversFencedJSON(t *testing.T) {
	p := new(mocks.MockProvider)
	p.On("Generate", mock.Anything, mock.Anything).Return("```json\n"+labReportJSON+"\n```", nil).Once()

	draft, err := newClient(p).Extract(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, "Lab Report", draft.DocType)
	// Recovery is local; the model is called exactly once.
	p.AssertNumberOfCalls(t, "Generate", 1)
}

func TestParseResponse_RecoversProseAroundJSON(t *testing.T) {
	draft, err := extraction.ParseResponse("Here is the result:\n" + labReportJSON + "\nLet me know if you need more.")
	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", draft.PatientName)
}

func TestParseResponse_Malformed(t *testing.T) {
	raw := "I'm sorry, I cannot read this document."

	_, err := extraction.ParseResponse(raw)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedExtraction)
	got, ok := domain.RawResponse(err)
	require.True(t, ok)
	assert.Equal(t, raw, got)
}

func TestParseResponse_RejectsNonObjects(t *testing.T) {
	for _, raw := range []string{"null", "[1,2]", `"text"`, "```json\n{\"docType\": \n```"} {
		_, err := extraction.ParseResponse(raw)
		assert.ErrorIs(t, err, domain.ErrMalformedExtraction, raw)
	}
}

func TestParseResponse_Empty(t *testing.T) {
	for _, raw := range []string{"", "   \n\t"} {
		_, err := extraction.ParseResponse(raw)
		assert.ErrorIs(t, err, domain.ErrEmptyResponse)
	}
}

func TestExtract_EmptyResponse(t *testing.T) {
	p := new(mocks.MockProvider)
	p.On("Generate", mock.Anything, mock.Anything).Return("", nil).Once()

	_, err := newClient(p).Extract(context.Background(), payload)
	assert.ErrorIs(t, err, domain.ErrEmptyResponse)
}

func TestExtract_CallErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		assert func(t *testing.T, err error)
	}{
		{
			name: "deadline",
			err:  fmt.Errorf("calling mistral API: %w", context.DeadlineExceeded),
			assert: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrTimeout)
			},
		},
		{
			name: "rate limited",
			err:  llm.NewRateLimitError("mistral", errors.New("429"), 10),
			assert: func(t *testing.T, err error) {
				var rlErr *llm.RateLimitError
				assert.ErrorAs(t, err, &rlErr)
			},
		},
		{
			name: "transport",
			err:  errors.New("connection refused"),
			assert: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrCapabilityUnavailable)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := new(mocks.MockProvider)
			p.On("Generate", mock.Anything, mock.Anything).Return("", tc.err).Once()

			_, err := newClient(p).Extract(context.Background(), payload)
			require.Error(t, err)
			tc.assert(t, err)
		})
	}
}
