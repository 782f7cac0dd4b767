package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/internal/journal/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

type stubEntryRepo struct {
	domain.Repository
	entries  []*domain.Entry
	err      error
	from, to *time.Time
}

func (s *stubEntryRepo) FindRange(_ context.Context, _ uuid.UUID, from, to *time.Time) ([]*domain.Entry, error) {
	s.from, s.to = from, to
	return s.entries, s.err
}

func TestListEntriesHandler_Handle(t *testing.T) {
	userID := uuid.New()
	day, err := sharedDomain.ParseDate("2024-04-02", time.UTC)
	require.NoError(t, err)

	entry, err := domain.NewEntry(userID, day, []string{"cramps"}, "low", "note")
	require.NoError(t, err)

	repo := &stubEntryRepo{entries: []*domain.Entry{entry}}
	handler := NewListEntriesHandler(repo)

	dtos, err := handler.Handle(context.Background(), ListEntriesQuery{UserID: userID, From: &day})
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, entry.ID(), dtos[0].ID)
	assert.Equal(t, "2024-04-02", dtos[0].Date)
	assert.Equal(t, []string{"cramps"}, dtos[0].Symptoms)
	assert.Equal(t, "note", dtos[0].Notes)
	assert.Equal(t, &day, repo.from)
	assert.Nil(t, repo.to)
}

func TestListEntriesHandler_EmptyIsNotNil(t *testing.T) {
	handler := NewListEntriesHandler(&stubEntryRepo{})

	dtos, err := handler.Handle(context.Background(), ListEntriesQuery{UserID: uuid.New()})
	require.NoError(t, err)
	assert.NotNil(t, dtos)
	assert.Empty(t, dtos)
}

func TestListEntriesHandler_Error(t *testing.T) {
	handler := NewListEntriesHandler(&stubEntryRepo{err: errors.New("boom")})

	_, err := handler.Handle(context.Background(), ListEntriesQuery{UserID: uuid.New()})
	assert.EqualError(t, err, "boom")
}
