package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"carepilot/internal/careplan"
	"carepilot/internal/config"
	"carepilot/internal/domain"
	"carepilot/internal/port"
)

// IntakeInput is one uploaded document.
type IntakeInput struct {
	FileName string
	Data     []byte
}

// IntakeResult is a normalized care plan with its derived views.
type IntakeResult struct {
	CarePlan     *domain.CarePlan         `json:"carePlan"`
	Slots        domain.SlotView          `json:"slots"`
	Unscheduled  []domain.MedicationEntry `json:"unscheduled"`
	Warnings     []careplan.Warning       `json:"warnings"`
	Pages        int                      `json:"pages"`
	PayloadBytes int                      `json:"payload_bytes"`
}

// IntakeService runs the document pipeline: normalize, extract, build plan.
type IntakeService interface {
	Process(ctx context.Context, input IntakeInput) (*IntakeResult, error)
}

type intakeService struct {
	normalizer port.DocumentNormalizer
	extractor  port.PlanExtractor
	maxBytes   int64
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewIntakeService creates a new IntakeService implementation.
func NewIntakeService(
	normalizer port.DocumentNormalizer,
	extractor port.PlanExtractor,
	cfg *config.IntakeConfig,
	logger zerolog.Logger,
) IntakeService {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &intakeService{
		normalizer: normalizer,
		extractor:  extractor,
		maxBytes:   cfg.MaxUploadBytes(),
		timeout:    timeout,
		logger:     logger.With().Str("component", "service.IntakeService").Logger(),
	}
}

func (s *intakeService) Process(ctx context.Context, input IntakeInput) (*IntakeResult, error) {
	if s.maxBytes > 0 && int64(len(input.Data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	payload, err := s.normalizer.Normalize(ctx, input.Data)
	if err != nil {
		return nil, s.fail(ctx, input, "normalize", err)
	}

	draft, err := s.extractor.Extract(ctx, payload)
	if err != nil {
		return nil, s.fail(ctx, input, "extract", err)
	}

	plan, warnings := careplan.Normalize(draft)
	for _, w := range warnings {
		s.logger.Warn().Err(w.Err()).Str("file", input.FileName).Msg("care plan contract violation")
	}
	if warnings == nil {
		warnings = []careplan.Warning{}
	}

	s.logger.Info().
		Str("file", input.FileName).
		Str("doc_type", string(plan.DocType)).
		Int("pages", payload.Pages).
		Int("payload_bytes", len(payload.Data)).
		Int("medications", len(plan.Medications)).
		Dur("elapsed", time.Since(start)).
		Msg("document processed")

	return &IntakeResult{
		CarePlan:     plan,
		Slots:        careplan.BySlot(plan),
		Unscheduled:  careplan.Unscheduled(plan),
		Warnings:     warnings,
		Pages:        payload.Pages,
		PayloadBytes: len(payload.Data),
	}, nil
}

// fail logs a failed step and turns an expired intake deadline into a
// TimeoutError.
func (s *intakeService) fail(ctx context.Context, input IntakeInput, step string, err error) error {
	if !errors.Is(err, domain.ErrTimeout) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = domain.TimeoutError("intake "+step, err)
	}
	s.logger.Warn().Err(err).Str("file", input.FileName).Str("step", step).Msg("intake failed")
	return err
}
