package mealplan

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseDay resolves a day word relative to now. It accepts "today",
// "tomorrow", weekday names (the next such day, today included) and
// YYYY-MM-DD dates. The result is midnight in now's location.
func ParseDay(word string, now time.Time) (time.Time, error) {
	today := startOfDay(now)
	w := strings.ToLower(strings.TrimSpace(word))

	switch w {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if wd, ok := weekdays[w]; ok {
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, ahead), nil
	}

	day, err := time.ParseInLocation(dayLayout, w, now.Location())
	if err != nil {
		return time.Time{}, errors.Errorf("unknown day %q, use today, tomorrow, a weekday or YYYY-MM-DD", word)
	}
	return day, nil
}
