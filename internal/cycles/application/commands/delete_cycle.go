package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/cycles/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/outbox"
)

// DeleteCycleCommand removes a logged cycle.
type DeleteCycleCommand struct {
	UserID  uuid.UUID
	CycleID uuid.UUID
}

// DeleteCycleHandler handles the DeleteCycleCommand.
type DeleteCycleHandler struct {
	cycleRepo  domain.Repository
	outboxRepo outbox.Writer
	uow        database.UnitOfWork
}

// NewDeleteCycleHandler creates a new DeleteCycleHandler.
func NewDeleteCycleHandler(cycleRepo domain.Repository, outboxRepo outbox.Writer, uow database.UnitOfWork) *DeleteCycleHandler {
	return &DeleteCycleHandler{
		cycleRepo:  cycleRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the DeleteCycleCommand.
func (h *DeleteCycleHandler) Handle(ctx context.Context, cmd DeleteCycleCommand) error {
	return database.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.cycleRepo.Delete(txCtx, cmd.UserID, cmd.CycleID); err != nil {
			return err
		}
		event, err := domain.NewCycleDeletedEvent(cmd.UserID, cmd.CycleID, time.Now())
		if err != nil {
			return err
		}
		return outbox.Record(txCtx, h.outboxRepo, cmd.UserID, event)
	})
}
