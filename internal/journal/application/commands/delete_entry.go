package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/journal/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/outbox"
)

// DeleteEntryCommand removes a journal entry.
type DeleteEntryCommand struct {
	UserID  uuid.UUID
	EntryID uuid.UUID
}

// DeleteEntryHandler handles the DeleteEntryCommand.
type DeleteEntryHandler struct {
	entryRepo  domain.Repository
	outboxRepo outbox.Writer
	uow        database.UnitOfWork
}

// NewDeleteEntryHandler creates a new DeleteEntryHandler.
func NewDeleteEntryHandler(entryRepo domain.Repository, outboxRepo outbox.Writer, uow database.UnitOfWork) *DeleteEntryHandler {
	return &DeleteEntryHandler{
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the DeleteEntryCommand.
func (h *DeleteEntryHandler) Handle(ctx context.Context, cmd DeleteEntryCommand) error {
	return database.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.entryRepo.Delete(txCtx, cmd.UserID, cmd.EntryID); err != nil {
			return err
		}
		event, err := domain.NewEntryDeletedEvent(cmd.UserID, cmd.EntryID, time.Now())
		if err != nil {
			return err
		}
		return outbox.Record(txCtx, h.outboxRepo, cmd.UserID, event)
	})
}
