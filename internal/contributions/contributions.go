// Package contributions turns per-day completion counts into the yearly
// activity grid shown on the dashboard.
package contributions

import (
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

// WindowDays is the number of days in the grid, today included.
const WindowDays = 365

type Day struct {
	Date  models.Date `json:"date"`
	Count int         `json:"count"`
	Level int         `json:"level"` // 0-4
}

type Data struct {
	Contributions      []Day `json:"contributions"`
	TotalContributions int   `json:"total_contributions"`
	CurrentStreak      int   `json:"current_streak"`
	LongestStreak      int   `json:"longest_streak"`
}

// WindowStart returns the first day of the grid ending at today.
func WindowStart(today models.Date) models.Date {
	return today.AddDays(-(WindowDays - 1))
}

func Level(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 1
	case count <= 3:
		return 2
	case count <= 5:
		return 3
	default:
		return 4
	}
}

// Build fills every day of the window ending at today. Counts outside the
// window are ignored for the grid but still added to the total.
func Build(counts []models.DailyCount, today models.Date) Data {
	byDate := make(map[string]int, len(counts))
	total := 0
	for _, c := range counts {
		byDate[c.Date.String()] += c.Count
		total += c.Count
	}

	start := WindowStart(today)
	days := make([]Day, 0, WindowDays)
	for d := start; !d.After(today); d = d.AddDays(1) {
		count := byDate[d.String()]
		days = append(days, Day{Date: d, Count: count, Level: Level(count)})
	}

	current, longest := streaks(days, today)
	return Data{
		Contributions:      days,
		TotalContributions: total,
		CurrentStreak:      current,
		LongestStreak:      longest,
	}
}

// streaks expects days in ascending order with no gaps.
func streaks(days []Day, today models.Date) (current, longest int) {
	run := 0
	for _, d := range days {
		if d.Count > 0 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	check := today
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		if d.Date.After(check) {
			continue
		}
		if !d.Date.Equal(check) || d.Count == 0 {
			break
		}
		current++
		check = check.AddDays(-1)
	}
	return current, longest
}
