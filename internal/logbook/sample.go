package logbook

import (
	"sort"
	"time"

	"hoslog/internal/model"
)

// statusPrecedence ranks duty statuses for hour-slot collapsing. When more
// than one event covers the same hour, the highest-ranked status wins the
// slot; equal ranks keep the first-seen candidate. Sub-hour transitions are
// intentionally lost in the 24-slot grid.
func statusPrecedence(status string) int {
	switch status {
	case model.StatusDriving:
		return 3
	case model.StatusOnDuty:
		return 2
	case model.StatusOffDuty, model.StatusSleeper:
		return 1
	}
	return 0
}

// sortEvents returns a copy of events ordered ascending by event time, with
// the client event ID (then row ID) as tie-breaker so the order is total and
// the derivations below are deterministic regardless of input order.
func sortEvents(events []model.DutyEvent) []model.DutyEvent {
	sorted := make([]model.DutyEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].EventTime.Equal(sorted[j].EventTime) {
			return sorted[i].EventTime.Before(sorted[j].EventTime)
		}
		if sorted[i].ClientEventID != sorted[j].ClientEventID {
			return sorted[i].ClientEventID < sorted[j].ClientEventID
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// BuildHourlySamples derives the 24-slot occupancy grid for one calendar day.
// Each event covers the interval from its own time to the next event's time
// (the last event runs to end of day), clipped to the day's bounds. Every
// hour slot with positive coverage gets a sample carrying the covering
// event's status and readings, clipped to the slot. Output is ordered by
// hour and depends only on (events, logDate), not on input order.
func BuildHourlySamples(events []model.DutyEvent, logDate time.Time) []model.HourlySample {
	if len(events) == 0 {
		return nil
	}

	sorted := sortEvents(events)

	dayStart := time.Date(logDate.Year(), logDate.Month(), logDate.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	byHour := make(map[int]model.HourlySample, 24)

	for i, ev := range sorted {
		start := ev.EventTime
		end := dayEnd
		if i+1 < len(sorted) {
			end = sorted[i+1].EventTime
		}

		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		if !end.After(start) {
			continue
		}

		for hour := 0; hour < 24; hour++ {
			slotStart := dayStart.Add(time.Duration(hour) * time.Hour)
			slotEnd := slotStart.Add(time.Hour)

			clipStart := start
			if clipStart.Before(slotStart) {
				clipStart = slotStart
			}
			clipEnd := end
			if clipEnd.After(slotEnd) {
				clipEnd = slotEnd
			}
			if !clipEnd.After(clipStart) {
				continue
			}

			candidate := model.HourlySample{
				Hour:        hour,
				StartTime:   clipStart,
				EndTime:     clipEnd,
				Status:      ev.Status,
				EventID:     ev.ID,
				Location:    ev.Location,
				Odometer:    ev.Odometer,
				EngineHours: ev.EngineHours,
			}

			existing, ok := byHour[hour]
			if !ok || statusPrecedence(candidate.Status) > statusPrecedence(existing.Status) {
				byHour[hour] = candidate
			}
		}
	}

	samples := make([]model.HourlySample, 0, len(byHour))
	for hour := 0; hour < 24; hour++ {
		if s, ok := byHour[hour]; ok {
			samples = append(samples, s)
		}
	}
	return samples
}
