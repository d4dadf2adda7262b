package contributions

import (
	"testing"
	"time"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		count    int
		expected int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{5, 3},
		{6, 4},
		{40, 4},
	}

	for _, tc := range tests {
		if got := Level(tc.count); got != tc.expected {
			t.Errorf("Level(%d): expected %d, got %d", tc.count, tc.expected, got)
		}
	}
}

func TestBuild_FillsWindow(t *testing.T) {
	today := models.NewDate(2024, time.March, 1)

	data := Build(nil, today)

	if len(data.Contributions) != WindowDays {
		t.Fatalf("expected %d days, got %d", WindowDays, len(data.Contributions))
	}
	if !data.Contributions[0].Date.Equal(WindowStart(today)) {
		t.Fatalf("expected first day %s, got %s", WindowStart(today), data.Contributions[0].Date)
	}
	if !data.Contributions[WindowDays-1].Date.Equal(today) {
		t.Fatalf("expected last day to be today")
	}
	if data.TotalContributions != 0 || data.CurrentStreak != 0 || data.LongestStreak != 0 {
		t.Fatalf("expected empty stats, got %+v", data)
	}
}

func TestBuild_Streaks(t *testing.T) {
	today := models.NewDate(2024, time.March, 10)
	counts := []models.DailyCount{
		// three-day run ending today
		{Date: today, Count: 2},
		{Date: today.AddDays(-1), Count: 1},
		{Date: today.AddDays(-2), Count: 7},
		// older five-day run
		{Date: today.AddDays(-20), Count: 1},
		{Date: today.AddDays(-21), Count: 1},
		{Date: today.AddDays(-22), Count: 1},
		{Date: today.AddDays(-23), Count: 1},
		{Date: today.AddDays(-24), Count: 1},
	}

	data := Build(counts, today)

	if data.CurrentStreak != 3 {
		t.Fatalf("expected current streak 3, got %d", data.CurrentStreak)
	}
	if data.LongestStreak != 5 {
		t.Fatalf("expected longest streak 5, got %d", data.LongestStreak)
	}
	if data.TotalContributions != 15 {
		t.Fatalf("expected total 15, got %d", data.TotalContributions)
	}
	last := data.Contributions[len(data.Contributions)-1]
	if last.Count != 2 || last.Level != 2 {
		t.Fatalf("unexpected today cell: %+v", last)
	}
}

func TestBuild_NoActivityTodayBreaksCurrentStreak(t *testing.T) {
	today := models.NewDate(2024, time.March, 10)
	counts := []models.DailyCount{
		{Date: today.AddDays(-1), Count: 1},
		{Date: today.AddDays(-2), Count: 1},
	}

	data := Build(counts, today)

	if data.CurrentStreak != 0 {
		t.Fatalf("expected current streak 0 without activity today, got %d", data.CurrentStreak)
	}
	if data.LongestStreak != 2 {
		t.Fatalf("expected longest streak 2, got %d", data.LongestStreak)
	}
}
