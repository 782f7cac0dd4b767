package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/outbox"
)

// RuleInput is one requested reminder rule. Nil and empty fields take defaults.
type RuleInput struct {
	Type       string
	DaysBefore *int
	TimeOfDay  string
	Method     string
	Enabled    *bool
}

// ReplaceRulesCommand replaces all reminder rules of a user.
type ReplaceRulesCommand struct {
	UserID uuid.UUID
	Rules  []RuleInput
}

// ReplaceRulesResult contains the ids of the stored rules in input order.
type ReplaceRulesResult struct {
	RuleIDs []uuid.UUID
}

// ReplaceRulesHandler handles the ReplaceRulesCommand.
type ReplaceRulesHandler struct {
	ruleRepo   domain.RuleRepository
	outboxRepo outbox.Writer
	uow        database.UnitOfWork
}

// NewReplaceRulesHandler creates a new ReplaceRulesHandler. outboxRepo may be nil.
func NewReplaceRulesHandler(ruleRepo domain.RuleRepository, outboxRepo outbox.Writer, uow database.UnitOfWork) *ReplaceRulesHandler {
	return &ReplaceRulesHandler{
		ruleRepo:   ruleRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle validates every input before anything is written. An empty rule
// list clears the user's rules.
func (h *ReplaceRulesHandler) Handle(ctx context.Context, cmd ReplaceRulesCommand) (*ReplaceRulesResult, error) {
	if cmd.UserID == uuid.Nil {
		return nil, domain.ErrEmptyUserID
	}

	rules := make([]*domain.Rule, 0, len(cmd.Rules))
	for i, in := range cmd.Rules {
		rule, err := buildRule(cmd.UserID, in)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, rule)
	}

	result := &ReplaceRulesResult{RuleIDs: make([]uuid.UUID, 0, len(rules))}
	enabled := 0
	for _, rule := range rules {
		result.RuleIDs = append(result.RuleIDs, rule.ID())
		if rule.Enabled() {
			enabled++
		}
	}

	err := database.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.ruleRepo.ReplaceForUser(txCtx, cmd.UserID, rules); err != nil {
			return err
		}
		event, err := sharedDomain.NewEvent(cmd.UserID, domain.AggregateTypeRule, domain.RoutingKeyRulesReplaced, time.Now(),
			domain.RulesReplaced{UserID: cmd.UserID, RuleIDs: result.RuleIDs, Enabled: enabled})
		if err != nil {
			return err
		}
		return outbox.Record(txCtx, h.outboxRepo, cmd.UserID, event)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func buildRule(userID uuid.UUID, in RuleInput) (*domain.Rule, error) {
	daysBefore := domain.DefaultDaysBefore
	if in.DaysBefore != nil {
		daysBefore = *in.DaysBefore
	}

	timeOfDay := domain.DefaultTimeOfDay
	if in.TimeOfDay != "" {
		parsed, err := domain.ParseTimeOfDay(in.TimeOfDay)
		if err != nil {
			return nil, err
		}
		timeOfDay = parsed
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}

	return domain.NewRule(userID, domain.EventType(in.Type), daysBefore, timeOfDay, domain.Method(in.Method), enabled)
}
