package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/cycles/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/outbox"
)

// LogCycleCommand contains the data needed to log a period start.
type LogCycleCommand struct {
	UserID      uuid.UUID
	StartDate   time.Time
	EndDate     *time.Time
	CycleLength int // zero while the cycle is still running
}

// LogCycleResult contains the result of logging a cycle.
type LogCycleResult struct {
	CycleID uuid.UUID
	// ClosedCycleID is the previous open cycle whose length was recorded.
	ClosedCycleID *uuid.UUID
	ClosedLength  int
}

// LogCycleHandler handles the LogCycleCommand.
type LogCycleHandler struct {
	cycleRepo  domain.Repository
	outboxRepo outbox.Writer
	uow        database.UnitOfWork
	model      domain.PredictorConfig
}

// NewLogCycleHandler creates a new LogCycleHandler. outboxRepo may be nil.
func NewLogCycleHandler(cycleRepo domain.Repository, outboxRepo outbox.Writer, uow database.UnitOfWork) *LogCycleHandler {
	return &LogCycleHandler{
		cycleRepo:  cycleRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		model:      domain.DefaultPredictorConfig(),
	}
}

// Handle records the new cycle. The nearest earlier cycle, when still
// open, is closed with the length up to the new start. The new cycle is
// closed against a later cycle when one exists; otherwise it receives an
// estimated length so forecasts are based on it until the next start is
// logged.
func (h *LogCycleHandler) Handle(ctx context.Context, cmd LogCycleCommand) (*LogCycleResult, error) {
	var result *LogCycleResult

	err := database.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		cycle, err := domain.NewCycle(cmd.UserID, cmd.StartDate, cmd.EndDate, cmd.CycleLength)
		if err != nil {
			return err
		}

		result = &LogCycleResult{CycleID: cycle.ID()}
		var closed *domain.Cycle

		recent, err := h.cycleRepo.FindRecent(txCtx, cmd.UserID, h.model.Lookback)
		if err != nil {
			return fmt.Errorf("failed to load previous cycle: %w", err)
		}
		prev, next := neighbours(recent, cmd.StartDate)

		if prev != nil && !prev.IsCompleted() {
			if err := prev.CloseWith(cmd.StartDate); err != nil {
				return err
			}
			if err := h.cycleRepo.Save(txCtx, prev); err != nil {
				return err
			}
			id := prev.ID()
			result.ClosedCycleID = &id
			result.ClosedLength = prev.CycleLength()
			closed = prev
		}

		switch {
		case cycle.IsCompleted():
		case next != nil:
			if err := cycle.CloseWith(next.StartDate()); err != nil {
				return err
			}
		default:
			estimate := domain.AverageLength(recent, h.model.AverageWindow, h.model.DefaultCycleLength)
			if err := cycle.Estimate(estimate); err != nil {
				return err
			}
		}

		if err := h.cycleRepo.Save(txCtx, cycle); err != nil {
			return err
		}

		event, err := domain.NewCycleLoggedEvent(cycle, closed, time.Now())
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

// neighbours returns the cycles starting nearest before and after start in
// history, which is ordered most recent first.
func neighbours(history []*domain.Cycle, start time.Time) (prev, next *domain.Cycle) {
	for _, c := range history {
		switch {
		case c.StartDate().After(start):
			next = c
		case c.StartDate().Before(start):
			return c, next
		}
	}
	return nil, next
}
