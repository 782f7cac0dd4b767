package commands

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/journal/application/queries"
	"github.com/felixgeelhaar/cyclist/internal/journal/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/outbox"
)

// EditEntryCommand changes an existing entry. A nil Date keeps the date.
type EditEntryCommand struct {
	UserID   uuid.UUID
	EntryID  uuid.UUID
	Date     *time.Time
	Symptoms []string
	Mood     string
	Notes    string
}

// EditEntryHandler handles the EditEntryCommand.
type EditEntryHandler struct {
	entryRepo  domain.Repository
	outboxRepo outbox.Writer
	uow        database.UnitOfWork
}

// NewEditEntryHandler creates a new EditEntryHandler.
func NewEditEntryHandler(entryRepo domain.Repository, outboxRepo outbox.Writer, uow database.UnitOfWork) *EditEntryHandler {
	return &EditEntryHandler{
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the EditEntryCommand. Moving an entry onto a date that
// already has another entry fails with domain.ErrDateAlreadyLogged.
func (h *EditEntryHandler) Handle(ctx context.Context, cmd EditEntryCommand) (*queries.EntryDTO, error) {
	var dto queries.EntryDTO

	err := database.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		entry, err := h.entryRepo.FindByID(txCtx, cmd.UserID, cmd.EntryID)
		if err != nil {
			return err
		}

		if cmd.Date != nil {
			other, err := h.entryRepo.FindByDate(txCtx, cmd.UserID, *cmd.Date)
			switch {
			case err == nil && other.ID() != entry.ID():
				return domain.ErrDateAlreadyLogged
			case err != nil && !errors.Is(err, domain.ErrEntryNotFound):
				return err
			}
			if err := entry.MoveTo(*cmd.Date); err != nil {
				return err
			}
		}

		if err := entry.Update(cmd.Symptoms, cmd.Mood, cmd.Notes); err != nil {
			return err
		}
		if err := h.entryRepo.Save(txCtx, entry); err != nil {
			return err
		}

		event, err := domain.NewEntryRecordedEvent(entry, false, time.Now())
		if err != nil {
			return err
		}
		if err := outbox.Record(txCtx, h.outboxRepo, cmd.UserID, event); err != nil {
			return err
		}

		dto = queries.ToEntryDTO(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto, nil
}
