package domain

import "time"

// Phase is the position within the current cycle.
type Phase string

const (
	PhaseMenstrual  Phase = "Menstrual"
	PhaseFollicular Phase = "Follicular"
	PhaseOvulation  Phase = "Ovulation"
	PhaseLuteal     Phase = "Luteal"
	PhaseUnknown    Phase = "Unknown"
)

// Forecast is the derived prediction for a user's next cycle. It is rebuilt
// from the cycle history on every request and never persisted.
type Forecast struct {
	NextPeriodStart time.Time
	PeriodLength    int
	CycleLength     int
	OvulationDate   time.Time
	FertileStart    time.Time
	FertileEnd      time.Time
	Phase           Phase
	DayIndex        int
	HasData         bool
	// FertileToday is InFertileWindow evaluated for the forecast's "today".
	FertileToday bool
}

// InFertileWindow reports whether day falls inside the fertile window, inclusive.
func (f Forecast) InFertileWindow(day time.Time) bool {
	return !day.Before(f.FertileStart) && !day.After(f.FertileEnd)
}
