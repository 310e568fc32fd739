package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/models"
)

// MarshalEntries encodes week habit entries for a JSON column.
func MarshalEntries(entries []models.WeekHabitEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.WeekHabitEntry{}
	}
	return json.Marshal(entries)
}

// UnmarshalEntries decodes a JSON column into week habit entries.
func UnmarshalEntries(data []byte) ([]models.WeekHabitEntry, error) {
	entries := []models.WeekHabitEntry{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode week habits: %w", err)
	}
	return entries, nil
}

func MarshalDays(days models.Days) ([]byte, error) {
	if days == nil {
		days = models.Days{}
	}
	return json.Marshal(days)
}

func UnmarshalDays(data []byte) (models.Days, error) {
	var days models.Days
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, fmt.Errorf("failed to decode scheduled days: %w", err)
	}
	return days, nil
}

// DateKey formats a civil date the way SQL stores key weeks.
func DateKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseDateKey reverses DateKey.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// OverlapStart is the earliest weekStart whose week can overlap from.
func OverlapStart(from time.Time) time.Time {
	return from.AddDate(0, 0, -6)
}
