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

// RecordEntryCommand writes the journal entry for a date, replacing the
// values of an existing entry on that date.
type RecordEntryCommand struct {
	UserID   uuid.UUID
	Date     time.Time
	Symptoms []string
	Mood     string
	Notes    string
}

// RecordEntryResult reports whether a new entry was created.
type RecordEntryResult struct {
	Entry   queries.EntryDTO
	Created bool
}

// RecordEntryHandler handles the RecordEntryCommand.
type RecordEntryHandler struct {
	entryRepo  domain.Repository
	outboxRepo outbox.Writer
	uow        database.UnitOfWork
}

// NewRecordEntryHandler creates a new RecordEntryHandler.
func NewRecordEntryHandler(entryRepo domain.Repository, outboxRepo outbox.Writer, uow database.UnitOfWork) *RecordEntryHandler {
	return &RecordEntryHandler{
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the RecordEntryCommand.
func (h *RecordEntryHandler) Handle(ctx context.Context, cmd RecordEntryCommand) (*RecordEntryResult, error) {
	var result *RecordEntryResult

	err := database.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		entry, err := h.entryRepo.FindByDate(txCtx, cmd.UserID, cmd.Date)
		created := false
		switch {
		case errors.Is(err, domain.ErrEntryNotFound):
			entry, err = domain.NewEntry(cmd.UserID, cmd.Date, cmd.Symptoms, cmd.Mood, cmd.Notes)
			if err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		default:
			if err := entry.Update(cmd.Symptoms, cmd.Mood, cmd.Notes); err != nil {
				return err
			}
		}

		if err := h.entryRepo.Save(txCtx, entry); err != nil {
			return err
		}

		event, err := domain.NewEntryRecordedEvent(entry, created, time.Now())
		if err != nil {
			return err
		}
		if err := outbox.Record(txCtx, h.outboxRepo, cmd.UserID, event); err != nil {
			return err
		}

		result = &RecordEntryResult{Entry: queries.ToEntryDTO(entry), Created: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
