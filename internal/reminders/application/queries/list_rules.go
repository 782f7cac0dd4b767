package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
)

// RuleDTO is the read model of a reminder rule.
type RuleDTO struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	DaysBefore int       `json:"days_before"`
	TimeOfDay  string    `json:"time_of_day"`
	Method     string    `json:"method"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListRulesQuery lists the reminder rules of a user.
type ListRulesQuery struct {
	UserID uuid.UUID
}

// ListRulesHandler handles the ListRulesQuery.
type ListRulesHandler struct {
	ruleRepo domain.RuleRepository
}

// NewListRulesHandler creates a new ListRulesHandler.
func NewListRulesHandler(ruleRepo domain.RuleRepository) *ListRulesHandler {
	return &ListRulesHandler{ruleRepo: ruleRepo}
}

// Handle executes the ListRulesQuery.
func (h *ListRulesHandler) Handle(ctx context.Context, query ListRulesQuery) ([]RuleDTO, error) {
	if query.UserID == uuid.Nil {
		return nil, domain.ErrEmptyUserID
	}

	rules, err := h.ruleRepo.FindByUserID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	dtos := make([]RuleDTO, 0, len(rules))
	for _, r := range rules {
		dtos = append(dtos, RuleDTO{
			ID:         r.ID(),
			Type:       string(r.Type()),
			DaysBefore: r.DaysBefore(),
			TimeOfDay:  r.TimeOfDay().String(),
			Method:     string(r.Method()),
			Enabled:    r.Enabled(),
			CreatedAt:  r.CreatedAt(),
		})
	}
	return dtos, nil
}
