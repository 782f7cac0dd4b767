package queries

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/cycles/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// CycleDTO is the read model for a logged cycle.
type CycleDTO struct {
	ID          uuid.UUID `json:"id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date,omitempty"`
	CycleLength int       `json:"cycle_length,omitempty"`
	Completed   bool      `json:"completed"`
	Estimated   bool      `json:"length_estimated,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ForecastDTO is the read model for a forecast. Dates are YYYY-MM-DD.
type ForecastDTO struct {
	NextPeriodStart string `json:"next_period_start"`
	PeriodLength    int    `json:"period_length"`
	CycleLength     int    `json:"cycle_length"`
	OvulationDate   string `json:"ovulation_date"`
	FertileStart    string `json:"fertile_start"`
	FertileEnd      string `json:"fertile_end"`
	Phase           string `json:"phase"`
	DayIndex        int    `json:"day_index"`
	HasData         bool   `json:"has_data"`
	FertileToday    bool   `json:"fertile_today"`
}

func toCycleDTO(c *domain.Cycle) CycleDTO {
	dto := CycleDTO{
		ID:          c.ID(),
		StartDate:   sharedDomain.FormatDate(c.StartDate()),
		CycleLength: c.CycleLength(),
		Completed:   c.IsCompleted(),
		Estimated:   c.IsEstimated(),
		CreatedAt:   c.CreatedAt(),
	}
	if end := c.EndDate(); end != nil {
		dto.EndDate = sharedDomain.FormatDate(*end)
	}
	return dto
}

// ToForecastDTO converts a domain forecast to its read model.
func ToForecastDTO(f domain.Forecast) *ForecastDTO {
	return &ForecastDTO{
		NextPeriodStart: sharedDomain.FormatDate(f.NextPeriodStart),
		PeriodLength:    f.PeriodLength,
		CycleLength:     f.CycleLength,
		OvulationDate:   sharedDomain.FormatDate(f.OvulationDate),
		FertileStart:    sharedDomain.FormatDate(f.FertileStart),
		FertileEnd:      sharedDomain.FormatDate(f.FertileEnd),
		Phase:           string(f.Phase),
		DayIndex:        f.DayIndex,
		HasData:         f.HasData,
		FertileToday:    f.FertileToday,
	}
}
