// Package schedule maps a job's period/times setting onto concrete run slots.
// All slots start at the top of the hour in local time; the same table drives
// systemd OnCalendar lines and NextRun.
package schedule

import (
	"fmt"
	"time"

	"SwiftBackuper/internal/config"
)

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"

	MaxTimes = 5
)

const runHour = 2

var (
	dayHours     = [][]int{{2}, {2, 14}, {2, 10, 18}, {2, 8, 14, 20}, {2, 6, 12, 18, 22}}
	weekWeekdays = [][]time.Weekday{
		{time.Monday},
		{time.Monday, time.Thursday},
		{time.Monday, time.Wednesday, time.Friday},
		{time.Monday, time.Tuesday, time.Thursday, time.Friday},
		{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	}
	monthDays = [][]int{{1}, {1, 15}, {1, 10, 20}, {1, 8, 15, 22}, {1, 7, 14, 21, 28}}
)

// Slot is one recurring run. Only the field relevant to the period is set.
type Slot struct {
	Period  string
	Hour    int
	Weekday time.Weekday
	Day     int
}

func period(s *config.ScheduleConfig) string {
	if s.Period == "" {
		return PeriodDay
	}
	return s.Period
}

func times(s *config.ScheduleConfig) int {
	switch {
	case s.Times < 1:
		return 1
	case s.Times > MaxTimes:
		return MaxTimes
	}
	return s.Times
}

func Slots(s *config.ScheduleConfig) []Slot {
	if s == nil {
		return nil
	}
	n := times(s)
	var out []Slot
	switch period(s) {
	case PeriodWeek:
		for _, wd := range weekWeekdays[n-1] {
			out = append(out, Slot{Period: PeriodWeek, Hour: runHour, Weekday: wd})
		}
	case PeriodMonth:
		for _, d := range monthDays[n-1] {
			out = append(out, Slot{Period: PeriodMonth, Hour: runHour, Day: d})
		}
	default:
		for _, h := range dayHours[n-1] {
			out = append(out, Slot{Period: PeriodDay, Hour: h})
		}
	}
	return out
}

// OnCalendar renders the slot as a systemd calendar expression.
func (s Slot) OnCalendar() string {
	switch s.Period {
	case PeriodWeek:
		return fmt.Sprintf("%s *-*-* %02d:00:00", s.Weekday.String()[:3], s.Hour)
	case PeriodMonth:
		return fmt.Sprintf("*-*-%02d %02d:00:00", s.Day, s.Hour)
	default:
		return fmt.Sprintf("*-*-* %02d:00:00", s.Hour)
	}
}

func (s Slot) matches(day time.Time) bool {
	switch s.Period {
	case PeriodWeek:
		return day.Weekday() == s.Weekday
	case PeriodMonth:
		return day.Day() == s.Day
	default:
		return true
	}
}

func OnCalendar(s *config.ScheduleConfig) []string {
	slots := Slots(s)
	out := make([]string, len(slots))
	for i, slot := range slots {
		out[i] = slot.OnCalendar()
	}
	return out
}

// Describe returns a short human label such as "daily 2x".
func Describe(s *config.ScheduleConfig) string {
	if s == nil {
		return "no schedule"
	}
	label := map[string]string{PeriodDay: "daily", PeriodWeek: "weekly", PeriodMonth: "monthly"}[period(s)]
	if label == "" {
		label = period(s)
	}
	desc := fmt.Sprintf("%s %dx", label, times(s))
	if s.JitterMinutes > 0 {
		desc += fmt.Sprintf(" (+%dm jitter)", s.JitterMinutes)
	}
	return desc
}

// NextRun returns the earliest slot strictly after now, before jitter.
func NextRun(s *config.ScheduleConfig, now time.Time) (time.Time, bool) {
	slots := Slots(s)
	if len(slots) == 0 {
		return time.Time{}, false
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// Every monthly slot day exists in every month, so two months always hit one.
	for d := 0; d <= 62; d++ {
		day := midnight.AddDate(0, 0, d)
		var best time.Time
		for _, slot := range slots {
			if !slot.matches(day) {
				continue
			}
			cand := time.Date(day.Year(), day.Month(), day.Day(), slot.Hour, 0, 0, 0, now.Location())
			if cand.After(now) && (best.IsZero() || cand.Before(best)) {
				best = cand
			}
		}
		if !best.IsZero() {
			return best, true
		}
	}
	return time.Time{}, false
}
