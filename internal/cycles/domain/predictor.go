package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// PredictorConfig holds the constants of the forecasting model.
type PredictorConfig struct {
	// Lookback bounds how many recent cycles are scanned.
	Lookback int
	// AverageWindow is how many completed cycles feed the average length.
	AverageWindow int
	// DefaultCycleLength applies when no completed cycle exists.
	DefaultCycleLength int
	// PeriodLength is the assumed bleeding span in days.
	PeriodLength int
	// LutealLength is the days from ovulation to the next period.
	LutealLength int
	// FertileBefore and FertileAfter bound the window around ovulation.
	FertileBefore int
	FertileAfter  int
	// FollicularEnd and OvulationEnd are the last day indexes of those phases.
	FollicularEnd int
	OvulationEnd  int
	// StaleFallbackDays moves a projection that is not in the future to today plus this.
	StaleFallbackDays int
}

// DefaultPredictorConfig returns the standard model constants.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		Lookback:           24,
		AverageWindow:      6,
		DefaultCycleLength: 28,
		PeriodLength:       5,
		LutealLength:       14,
		FertileBefore:      5,
		FertileAfter:       1,
		FollicularEnd:      12,
		OvulationEnd:       16,
		StaleFallbackDays:  3,
	}
}

// Predictor turns a cycle history into a Forecast. It holds no state
// between calls.
type Predictor struct {
	config PredictorConfig
	loc    *time.Location
}

// NewPredictor creates a predictor that resolves "today" in loc.
func NewPredictor(config PredictorConfig, loc *time.Location) *Predictor {
	if loc == nil {
		loc = time.Local
	}
	return &Predictor{config: config, loc: loc}
}

// Lookback returns how many cycles the predictor consumes.
func (p *Predictor) Lookback() int {
	return p.config.Lookback
}

// Predict computes the forecast for history, ordered most recent first.
// The projection starts from the most recent cycle carrying a length,
// observed or estimated; the average uses observed lengths only.
// It returns false when history is empty.
func (p *Predictor) Predict(history []*Cycle, now time.Time) (Forecast, bool) {
	if len(history) == 0 {
		return Forecast{}, false
	}
	if p.config.Lookback > 0 && len(history) > p.config.Lookback {
		history = history[:p.config.Lookback]
	}

	completed := 0
	base := history[0]
	baseFound := false
	for _, c := range history {
		if c.IsCompleted() {
			completed++
		}
		if !baseFound && c.HasLength() {
			base = c
			baseFound = true
		}
	}

	avg := AverageLength(history, p.config.AverageWindow, p.config.DefaultCycleLength)

	baseStart := p.dateOf(base.StartDate())
	today := sharedDomain.Day(now, p.loc)

	var next time.Time
	if base.HasLength() && base.EndDate() != nil {
		end := p.dateOf(*base.EndDate())
		daysUsed := sharedDomain.DaysBetween(baseStart, end)
		next = sharedDomain.AddDays(end, 1+avg-daysUsed-1)
	} else {
		next = sharedDomain.AddDays(baseStart, avg)
	}

	if !next.After(today) {
		next = sharedDomain.AddDays(today, p.config.StaleFallbackDays)
	}

	ovulation := sharedDomain.AddDays(next, -p.config.LutealLength)
	dayIndex := sharedDomain.DaysBetween(baseStart, today)

	f := Forecast{
		NextPeriodStart: next,
		PeriodLength:    p.config.PeriodLength,
		CycleLength:     avg,
		OvulationDate:   ovulation,
		FertileStart:    sharedDomain.AddDays(ovulation, -p.config.FertileBefore),
		FertileEnd:      sharedDomain.AddDays(ovulation, p.config.FertileAfter),
		Phase:           p.classify(dayIndex),
		DayIndex:        dayIndex,
		HasData:         completed > 0,
	}
	f.FertileToday = f.InFertileWindow(today)
	return f, true
}

// classify maps a day index to a phase. A negative index matches no band and
// lands on Luteal.
func (p *Predictor) classify(dayIndex int) Phase {
	switch {
	case dayIndex >= 0 && dayIndex <= p.config.PeriodLength:
		return PhaseMenstrual
	case dayIndex > p.config.PeriodLength && dayIndex <= p.config.FollicularEnd:
		return PhaseFollicular
	case dayIndex > p.config.FollicularEnd && dayIndex <= p.config.OvulationEnd:
		return PhaseOvulation
	default:
		return PhaseLuteal
	}
}

// dateOf places the calendar date of t at midnight in the predictor location.
func (p *Predictor) dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.loc)
}
