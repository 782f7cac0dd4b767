package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/cycles/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// GetForecastQuery asks for the current forecast of a user.
type GetForecastQuery struct {
	UserID uuid.UUID
}

// GetForecastHandler handles the GetForecastQuery.
type GetForecastHandler struct {
	cycleRepo domain.Repository
	predictor *domain.Predictor
	clock     sharedDomain.Clock
	metrics   observability.Metrics
}

// NewGetForecastHandler creates a new GetForecastHandler.
func NewGetForecastHandler(cycleRepo domain.Repository, predictor *domain.Predictor, clock sharedDomain.Clock, metrics observability.Metrics) *GetForecastHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &GetForecastHandler{
		cycleRepo: cycleRepo,
		predictor: predictor,
		clock:     clock,
		metrics:   metrics,
	}
}

// Handle executes the GetForecastQuery. It returns nil without error when
// the user has no cycle history yet.
func (h *GetForecastHandler) Handle(ctx context.Context, query GetForecastQuery) (*ForecastDTO, error) {
	forecast, ok, err := h.ForecastAt(ctx, query.UserID, h.clock.Now())
	if err != nil || !ok {
		return nil, err
	}
	return ToForecastDTO(forecast), nil
}

// ForecastAt computes the forecast for userID as of now.
func (h *GetForecastHandler) ForecastAt(ctx context.Context, userID uuid.UUID, now time.Time) (domain.Forecast, bool, error) {
	if userID == uuid.Nil {
		return domain.Forecast{}, false, domain.ErrEmptyUserID
	}

	history, err := h.cycleRepo.FindRecent(ctx, userID, h.predictor.Lookback())
	if err != nil {
		return domain.Forecast{}, false, fmt.Errorf("failed to load cycles: %w", err)
	}

	forecast, ok := h.predictor.Predict(history, now)
	if !ok {
		return domain.Forecast{}, false, nil
	}

	h.metrics.Counter(observability.MetricForecastsComputed, 1)
	return forecast, true, nil
}
