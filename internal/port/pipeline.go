package port

import (
	"context"

	"carepilot/internal/careplan"
	"carepilot/internal/domain"
)

// DocumentNormalizer turns an uploaded file into the bounded image payload.
type DocumentNormalizer interface {
	Normalize(ctx context.Context, data []byte) (domain.CompositePayload, error)
}

// PlanExtractor recovers a care-plan draft from a payload.
type PlanExtractor interface {
	Extract(ctx context.Context, payload domain.CompositePayload) (*careplan.Draft, error)
}

// GroundedResponder answers the newest user turn from a care plan.
type GroundedResponder interface {
	Reply(ctx context.Context, history []domain.ConversationTurn, plan *domain.CarePlan) (string, error)
}
