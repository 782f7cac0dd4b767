package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/internal/cycles/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// mockCycleRepo is a mock implementation of domain.Repository.
type mockCycleRepo struct {
	mock.Mock
}

func (m *mockCycleRepo) Save(ctx context.Context, cycle *domain.Cycle) error {
	args := m.Called(ctx, cycle)
	return args.Error(0)
}

func (m *mockCycleRepo) FindRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Cycle, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Cycle), args.Error(1)
}

func (m *mockCycleRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Cycle, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Cycle), args.Error(1)
}

func (m *mockCycleRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := sharedDomain.ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestGetForecastHandler_Handle(t *testing.T) {
	userID := uuid.New()
	predictor := domain.NewPredictor(domain.DefaultPredictorConfig(), time.UTC)
	clock := sharedDomain.FixedClock{T: time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC)}

	t.Run("returns forecast for history", func(t *testing.T) {
		repo := new(mockCycleRepo)
		metrics := observability.NewInMemoryMetrics()
		handler := NewGetForecastHandler(repo, predictor, clock, metrics)

		end := mustDate(t, "2024-04-06")
		history := []*domain.Cycle{
			domain.RehydrateCycle(uuid.New(), userID, mustDate(t, "2024-04-01"), &end, 28, false, time.Now()),
		}
		repo.On("FindRecent", mock.Anything, userID, 24).Return(history, nil)

		result, err := handler.Handle(context.Background(), GetForecastQuery{UserID: userID})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "2024-04-29", result.NextPeriodStart)
		assert.Equal(t, "2024-04-15", result.OvulationDate)
		assert.Equal(t, "2024-04-10", result.FertileStart)
		assert.Equal(t, "2024-04-16", result.FertileEnd)
		assert.Equal(t, "Follicular", result.Phase)
		assert.Equal(t, 28, result.CycleLength)
		assert.True(t, result.HasData)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricForecastsComputed))
		repo.AssertExpectations(t)
	})

	t.Run("returns nil without history", func(t *testing.T) {
		repo := new(mockCycleRepo)
		handler := NewGetForecastHandler(repo, predictor, clock, nil)

		repo.On("FindRecent", mock.Anything, userID, 24).Return([]*domain.Cycle{}, nil)

		result, err := handler.Handle(context.Background(), GetForecastQuery{UserID: userID})

		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		repo := new(mockCycleRepo)
		handler := NewGetForecastHandler(repo, predictor, clock, nil)

		repo.On("FindRecent", mock.Anything, userID, 24).Return(nil, errors.New("database down"))

		result, err := handler.Handle(context.Background(), GetForecastQuery{UserID: userID})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "database down")
	})

	t.Run("rejects empty user", func(t *testing.T) {
		handler := NewGetForecastHandler(new(mockCycleRepo), predictor, clock, nil)

		_, err := handler.Handle(context.Background(), GetForecastQuery{})
		assert.ErrorIs(t, err, domain.ErrEmptyUserID)
	})
}

func TestGetForecastHandler_ForecastAt(t *testing.T) {
	userID := uuid.New()
	predictor := domain.NewPredictor(domain.DefaultPredictorConfig(), time.UTC)
	repo := new(mockCycleRepo)
	handler := NewGetForecastHandler(repo, predictor, sharedDomain.FixedClock{T: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}, nil)

	end := mustDate(t, "2024-04-06")
	history := []*domain.Cycle{
		domain.RehydrateCycle(uuid.New(), userID, mustDate(t, "2024-04-01"), &end, 28, false, time.Now()),
	}
	repo.On("FindRecent", mock.Anything, userID, 24).Return(history, nil)

	// The explicit instant wins over the handler clock.
	forecast, ok, err := handler.ForecastAt(context.Background(), userID, time.Date(2024, 4, 27, 12, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-04-29", sharedDomain.FormatDate(forecast.NextPeriodStart))
	assert.Equal(t, domain.PhaseLuteal, forecast.Phase)
}

func TestListCyclesHandler_Handle(t *testing.T) {
	userID := uuid.New()
	end := mustDate(t, "2024-03-09")
	cycles := []*domain.Cycle{
		domain.RehydrateCycle(uuid.New(), userID, mustDate(t, "2024-04-01"), nil, 0, false, time.Now()),
		domain.RehydrateCycle(uuid.New(), userID, mustDate(t, "2024-03-04"), &end, 28, false, time.Now()),
	}

	t.Run("lists all cycles", func(t *testing.T) {
		repo := new(mockCycleRepo)
		handler := NewListCyclesHandler(repo)
		repo.On("FindByUserID", mock.Anything, userID).Return(cycles, nil)

		result, err := handler.Handle(context.Background(), ListCyclesQuery{UserID: userID})

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "2024-04-01", result[0].StartDate)
		assert.Empty(t, result[0].EndDate)
		assert.False(t, result[0].Completed)
		assert.Equal(t, "2024-03-09", result[1].EndDate)
		assert.Equal(t, 28, result[1].CycleLength)
		assert.True(t, result[1].Completed)
	})

	t.Run("limits to recent cycles", func(t *testing.T) {
		repo := new(mockCycleRepo)
		handler := NewListCyclesHandler(repo)
		repo.On("FindRecent", mock.Anything, userID, 1).Return(cycles[:1], nil)

		result, err := handler.Handle(context.Background(), ListCyclesQuery{UserID: userID, Limit: 1})

		require.NoError(t, err)
		assert.Len(t, result, 1)
		repo.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
	})
}
