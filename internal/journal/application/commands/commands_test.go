package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/internal/journal/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/outbox"
)

type mockEntryRepo struct {
	mock.Mock
}

func (m *mockEntryRepo) Save(ctx context.Context, entry *domain.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockEntryRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Entry, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *mockEntryRepo) FindByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.Entry, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *mockEntryRepo) FindRange(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*domain.Entry, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Entry), args.Error(1)
}

func (m *mockEntryRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type txKey struct{}

type recordingOutbox struct {
	msgs []*outbox.Message
	err  error
}

func (r *recordingOutbox) SaveBatch(_ context.Context, msgs []*outbox.Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := sharedDomain.ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func decodeRecorded(t *testing.T, msg *outbox.Message) domain.EntryRecorded {
	t.Helper()
	var envelope sharedDomain.Event
	require.NoError(t, json.Unmarshal(msg.Payload, &envelope))
	var payload domain.EntryRecorded
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	return payload
}

func TestRecordEntryHandler_Handle(t *testing.T) {
	userID := uuid.New()
	date := mustDate(t, "2024-04-02")

	t.Run("creates entry for new date", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		box := &recordingOutbox{}
		handler := NewRecordEntryHandler(repo, box, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		repo.On("FindByDate", txCtx, userID, date).Return(nil, domain.ErrEntryNotFound)
		repo.On("Save", txCtx, mock.AnythingOfType("*domain.Entry")).Return(nil)

		result, err := handler.Handle(ctx, RecordEntryCommand{
			UserID:   userID,
			Date:     date,
			Symptoms: []string{"Cramps"},
			Mood:     "low",
			Notes:    "stayed in",
		})

		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.Equal(t, "2024-04-02", result.Entry.Date)
		assert.Equal(t, []string{"cramps"}, result.Entry.Symptoms)

		require.Len(t, box.msgs, 1)
		assert.Equal(t, domain.RoutingKeyEntryRecorded, box.msgs[0].RoutingKey)
		payload := decodeRecorded(t, box.msgs[0])
		assert.True(t, payload.Created)
		assert.NotContains(t, string(box.msgs[0].Payload), "stayed in")
		repo.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("updates entry on same date", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		handler := NewRecordEntryHandler(repo, nil, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		existing, err := domain.NewEntry(userID, date, []string{"headache"}, "", "")
		require.NoError(t, err)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		repo.On("FindByDate", txCtx, userID, date).Return(existing, nil)
		repo.On("Save", txCtx, existing).Return(nil)

		result, err := handler.Handle(ctx, RecordEntryCommand{UserID: userID, Date: date, Mood: "fine"})

		require.NoError(t, err)
		assert.False(t, result.Created)
		assert.Equal(t, existing.ID(), result.Entry.ID)
		assert.Empty(t, existing.Symptoms())
		assert.Equal(t, "fine", existing.Mood())
		repo.AssertExpectations(t)
	})

	t.Run("rolls back on invalid input", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		handler := NewRecordEntryHandler(repo, nil, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		repo.On("FindByDate", txCtx, userID, date).Return(nil, domain.ErrEntryNotFound)

		_, err := handler.Handle(ctx, RecordEntryCommand{
			UserID: userID,
			Date:   date,
			Mood:   "an extraordinarily long description of a mood",
		})

		assert.ErrorIs(t, err, domain.ErrMoodTooLong)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		uow.AssertExpectations(t)
	})

	t.Run("propagates lookup failure", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		handler := NewRecordEntryHandler(repo, nil, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		repo.On("FindByDate", txCtx, userID, date).Return(nil, errors.New("db down"))

		_, err := handler.Handle(ctx, RecordEntryCommand{UserID: userID, Date: date})

		assert.EqualError(t, err, "db down")
	})

	t.Run("rolls back when outbox fails", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		handler := NewRecordEntryHandler(repo, &recordingOutbox{err: errors.New("outbox full")}, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		repo.On("FindByDate", txCtx, userID, date).Return(nil, domain.ErrEntryNotFound)
		repo.On("Save", txCtx, mock.Anything).Return(nil)

		_, err := handler.Handle(ctx, RecordEntryCommand{UserID: userID, Date: date})

		require.Error(t, err)
		uow.AssertExpectations(t)
	})
}

func TestEditEntryHandler_Handle(t *testing.T) {
	userID := uuid.New()

	t.Run("moves entry to free date", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		box := &recordingOutbox{}
		handler := NewEditEntryHandler(repo, box, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		entry, err := domain.NewEntry(userID, mustDate(t, "2024-04-02"), nil, "", "")
		require.NoError(t, err)
		target := mustDate(t, "2024-04-03")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		repo.On("FindByID", txCtx, userID, entry.ID()).Return(entry, nil)
		repo.On("FindByDate", txCtx, userID, target).Return(nil, domain.ErrEntryNotFound)
		repo.On("Save", txCtx, entry).Return(nil)

		dto, err := handler.Handle(ctx, EditEntryCommand{
			UserID:   userID,
			EntryID:  entry.ID(),
			Date:     &target,
			Symptoms: []string{"fatigue"},
		})

		require.NoError(t, err)
		assert.Equal(t, "2024-04-03", dto.Date)
		assert.Equal(t, []string{"fatigue"}, dto.Symptoms)
		require.Len(t, box.msgs, 1)
		assert.False(t, decodeRecorded(t, box.msgs[0]).Created)
		repo.AssertExpectations(t)
	})

	t.Run("rejects date taken by another entry", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		handler := NewEditEntryHandler(repo, nil, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		entry, err := domain.NewEntry(userID, mustDate(t, "2024-04-02"), nil, "", "")
		require.NoError(t, err)
		target := mustDate(t, "2024-04-03")
		other, err := domain.NewEntry(userID, target, nil, "", "")
		require.NoError(t, err)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		repo.On("FindByID", txCtx, userID, entry.ID()).Return(entry, nil)
		repo.On("FindByDate", txCtx, userID, target).Return(other, nil)

		_, err = handler.Handle(ctx, EditEntryCommand{UserID: userID, EntryID: entry.ID(), Date: &target})

		assert.ErrorIs(t, err, domain.ErrDateAlreadyLogged)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("keeps date when omitted", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		handler := NewEditEntryHandler(repo, nil, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		entry, err := domain.NewEntry(userID, mustDate(t, "2024-04-02"), nil, "", "")
		require.NoError(t, err)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		repo.On("FindByID", txCtx, userID, entry.ID()).Return(entry, nil)
		repo.On("Save", txCtx, entry).Return(nil)

		dto, err := handler.Handle(ctx, EditEntryCommand{UserID: userID, EntryID: entry.ID(), Notes: "better"})

		require.NoError(t, err)
		assert.Equal(t, "2024-04-02", dto.Date)
		assert.Equal(t, "better", dto.Notes)
		repo.AssertNotCalled(t, "FindByDate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		handler := NewEditEntryHandler(repo, nil, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)
		id := uuid.New()

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		repo.On("FindByID", txCtx, userID, id).Return(nil, domain.ErrEntryNotFound)

		_, err := handler.Handle(ctx, EditEntryCommand{UserID: userID, EntryID: id})

		assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	})
}

func TestDeleteEntryHandler_Handle(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()

	t.Run("deletes and records event", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		box := &recordingOutbox{}
		handler := NewDeleteEntryHandler(repo, box, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		repo.On("Delete", txCtx, userID, entryID).Return(nil)

		require.NoError(t, handler.Handle(ctx, DeleteEntryCommand{UserID: userID, EntryID: entryID}))
		require.Len(t, box.msgs, 1)
		assert.Equal(t, domain.RoutingKeyEntryDeleted, box.msgs[0].RoutingKey)
		assert.Equal(t, entryID, box.msgs[0].AggregateID)
	})

	t.Run("not found rolls back", func(t *testing.T) {
		repo := new(mockEntryRepo)
		uow := new(mockUnitOfWork)
		box := &recordingOutbox{}
		handler := NewDeleteEntryHandler(repo, box, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, true)

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		repo.On("Delete", txCtx, userID, entryID).Return(domain.ErrEntryNotFound)

		err := handler.Handle(ctx, DeleteEntryCommand{UserID: userID, EntryID: entryID})
		assert.ErrorIs(t, err, domain.ErrEntryNotFound)
		assert.Empty(t, box.msgs)
	})
}
