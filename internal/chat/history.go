package chat

import (
	"fmt"
	"strings"

	"carepilot/internal/domain"
)

// HistoryPolicy bounds how much conversation is forwarded per call. Zero
// values mean unbounded.
type HistoryPolicy struct {
	MaxTurns int
	MaxChars int
}

// Bound keeps the newest turns that fit the policy. The newest turn is
// always kept, even if it alone exceeds MaxChars.
func (p HistoryPolicy) Bound(turns []domain.ConversationTurn) []domain.ConversationTurn {
	if len(turns) == 0 {
		return turns
	}
	start := len(turns) - 1
	chars := len(turns[start].Content)
	for i := start - 1; i >= 0; i-- {
		if p.MaxTurns > 0 && len(turns)-i > p.MaxTurns {
			break
		}
		if p.MaxChars > 0 && chars+len(turns[i].Content) > p.MaxChars {
			break
		}
		chars += len(turns[i].Content)
		start = i
	}
	return turns[start:]
}

// ValidateHistory checks that history is non-empty, uses only the user and
// assistant roles, and ends with a user turn.
func ValidateHistory(turns []domain.ConversationTurn) error {
	if len(turns) == 0 {
		return fmt.Errorf("%w: no turns", domain.ErrInvalidConversation)
	}
	for i, t := range turns {
		if !t.Role.Valid() {
			return fmt.Errorf("%w: turn %d has role %q", domain.ErrInvalidConversation, i, t.Role)
		}
	}
	last := turns[len(turns)-1]
	if last.Role != domain.RoleUser {
		return fmt.Errorf("%w: last turn must be from the user", domain.ErrInvalidConversation)
	}
	if strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: last turn is empty", domain.ErrInvalidConversation)
	}
	return nil
}
