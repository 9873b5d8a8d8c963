package platform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// compactRe matches relative offsets such as "+30m", "2h", "+1d" or "1w".
// Reminders only look forward, so m means minutes and there is no sign.
var compactRe = regexp.MustCompile(`^\+?(\d+)([mhdw])$`)

var absoluteLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var nlp = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseFireTime turns user input into a reminder time relative to now.
// Accepted forms, tried in order: a compact offset ("+45m", "2h", "1d"),
// a bare clock time ("17:30", today), an absolute local date-time
// ("2026-05-01 09:00"), and natural language ("tomorrow at 5pm").
func ParseFireTime(input string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty reminder time")
	}

	if m := compactRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid offset %q: %w", s, err)
		}
		switch m[2] {
		case "m":
			return now.Add(time.Duration(n) * time.Minute), nil
		case "h":
			return now.Add(time.Duration(n) * time.Hour), nil
		case "d":
			return now.AddDate(0, 0, n), nil
		default:
			return now.AddDate(0, 0, 7*n), nil
		}
	}

	if t, err := time.ParseInLocation("15:04", s, now.Location()); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}

	r, err := nlp.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse reminder time %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized reminder time %q", s)
	}
	return r.Time, nil
}
