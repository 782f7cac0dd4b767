package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/journal/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// EntryDTO is the read model of a journal entry.
type EntryDTO struct {
	ID       uuid.UUID `json:"id"`
	Date     string    `json:"date"`
	Symptoms []string  `json:"symptoms"`
	Mood     string    `json:"mood,omitempty"`
	Notes    string    `json:"notes,omitempty"`
}

// ToEntryDTO converts a domain entry.
func ToEntryDTO(e *domain.Entry) EntryDTO {
	return EntryDTO{
		ID:       e.ID(),
		Date:     sharedDomain.FormatDate(e.Date()),
		Symptoms: e.Symptoms(),
		Mood:     e.Mood(),
		Notes:    e.Notes(),
	}
}

// ListEntriesQuery selects a user's entries between From and To inclusive.
type ListEntriesQuery struct {
	UserID uuid.UUID
	From   *time.Time
	To     *time.Time
}

// ListEntriesHandler handles the ListEntriesQuery.
type ListEntriesHandler struct {
	entryRepo domain.Repository
}

// NewListEntriesHandler creates a new ListEntriesHandler.
func NewListEntriesHandler(entryRepo domain.Repository) *ListEntriesHandler {
	return &ListEntriesHandler{entryRepo: entryRepo}
}

// Handle returns entries newest first.
func (h *ListEntriesHandler) Handle(ctx context.Context, query ListEntriesQuery) ([]EntryDTO, error) {
	entries, err := h.entryRepo.FindRange(ctx, query.UserID, query.From, query.To)
	if err != nil {
		return nil, err
	}

	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, ToEntryDTO(e))
	}
	return dtos, nil
}
