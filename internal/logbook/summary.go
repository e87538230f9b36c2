package logbook

import (
	"math"

	"hoslog/internal/model"
)

// CycleHoursPlaceholder stands in for the rolling 7/8-day FMCSA cycle
// computation, which is not implemented. Every summary reports this fixed
// figure for cycle hours.
const CycleHoursPlaceholder = 70

// Summary holds the duty-category totals for one day's events. Hour values
// are fractional, rounded to two decimals.
type Summary struct {
	Drive float64 `json:"drive"`
	Break float64 `json:"break"`
	Shift float64 `json:"shift"`
	Cycle float64 `json:"cycle"`

	LastStatus string  `json:"lastStatus"`
	Vehicle    *string `json:"vehicle"`
}

// Summarize computes duty-category totals from a day's events. Each
// consecutive pair of events contributes the gap between them to the bucket
// of the earlier event's status. The interval from the last event to end of
// day is deliberately not counted; the day's totals therefore undercount
// until the next status change closes the final interval.
func Summarize(events []model.DutyEvent) Summary {
	s := Summary{Cycle: CycleHoursPlaceholder, LastStatus: model.StatusOffDuty}
	if len(events) == 0 {
		return s
	}

	sorted := sortEvents(events)

	var drive, brk, shift float64
	for i := 0; i+1 < len(sorted); i++ {
		curr := sorted[i]
		next := sorted[i+1]

		hours := next.EventTime.Sub(curr.EventTime).Hours()
		switch curr.Status {
		case model.StatusDriving:
			drive += hours
		case model.StatusOffDuty, model.StatusSleeper:
			brk += hours
		case model.StatusOnDuty:
			shift += hours
		}
		s.LastStatus = curr.Status
	}

	s.Drive = round2(drive)
	s.Break = round2(brk)
	s.Shift = round2(shift)

	if eld := sorted[len(sorted)-1].EldIdentifier; eld != "" {
		s.Vehicle = &eld
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
