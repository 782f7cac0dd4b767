package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/cycles/domain"
)

// ListCyclesQuery contains the parameters for listing cycles.
type ListCyclesQuery struct {
	UserID uuid.UUID
	Limit  int // zero lists everything
}

// ListCyclesHandler handles the ListCyclesQuery.
type ListCyclesHandler struct {
	cycleRepo domain.Repository
}

// NewListCyclesHandler creates a new ListCyclesHandler.
func NewListCyclesHandler(cycleRepo domain.Repository) *ListCyclesHandler {
	return &ListCyclesHandler{cycleRepo: cycleRepo}
}

// Handle returns the user's cycles, most recent first.
func (h *ListCyclesHandler) Handle(ctx context.Context, query ListCyclesQuery) ([]CycleDTO, error) {
	var (
		cycles []*domain.Cycle
		err    error
	)
	if query.Limit > 0 {
		cycles, err = h.cycleRepo.FindRecent(ctx, query.UserID, query.Limit)
	} else {
		cycles, err = h.cycleRepo.FindByUserID(ctx, query.UserID)
	}
	if err != nil {
		return nil, err
	}

	dtos := make([]CycleDTO, 0, len(cycles))
	for _, c := range cycles {
		dtos = append(dtos, toCycleDTO(c))
	}
	return dtos, nil
}
