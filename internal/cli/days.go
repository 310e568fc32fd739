package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/weeklit/internal/models"
)

var dayAliases = map[string][]models.Weekday{
	"daily":    models.AllWeekdays(),
	"weekdays": {models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday},
	"weekends": {models.Saturday, models.Sunday},
}

// ParseWeekdays turns user input like "mon,wed" or "weekdays" into
// canonical day tokens. Names are matched case-insensitively by their first
// three letters, and 0..6 count from Sunday.
func ParseWeekdays(parts []string) ([]string, error) {
	var days models.Days
	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if alias, ok := dayAliases[part]; ok {
			days = append(days, alias...)
			continue
		}
		if num, err := strconv.Atoi(part); err == nil {
			if num < 0 || num > 6 {
				return nil, fmt.Errorf("invalid weekday: %s", part)
			}
			days = append(days, models.Weekday(num))
			continue
		}
		if len(part) < 3 {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		d, err := models.ParseWeekday(strings.ToUpper(part[:1]) + part[1:3])
		if err != nil || !strings.HasPrefix(strings.ToLower(time.Weekday(d).String()), part) {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("at least one weekday is required")
	}
	return days.Normalize().Strings(), nil
}
