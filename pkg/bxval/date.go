package bxval

import (
	"regexp"
	"strings"
	"time"
)

// Date layouts used on the Bitrix wire. Deal date fields take ISO dates;
// list date properties take the Russian day-first form.
const (
	ISODateLayout = "2006-01-02"
	RUDateLayout  = "02.01.2006"
)

var (
	ruDateRe  = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)
	isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
)

// NormalizeDate converts a date string in any of the encodings Bitrix emits
// into canonical YYYY-MM-DD form. Recognized, in priority order:
//
//   - DD.MM.YYYY (exact match)
//   - a string starting with YYYY-MM-DD (ISO date or datetime)
//   - an RFC 3339 datetime, whose date part is taken
//
// Anything else yields "". Malformed input is a designed no-value case,
// never an error. Idempotent on its own output.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := ruDateRe.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(ISODateLayout)
	}
	return ""
}

// ParseISODate parses a canonical YYYY-MM-DD string.
func ParseISODate(s string) (time.Time, bool) {
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MinDate returns the earliest of the given canonical dates. Entries that
// fail to parse as YYYY-MM-DD are skipped; "" when none parse. String
// comparison would suffice for the fixed format, but parsing first rejects
// malformed entries instead of letting them win lexicographically.
func MinDate(dates []string) string {
	var (
		best    time.Time
		bestStr string
	)
	for _, d := range dates {
		t, ok := ParseISODate(d)
		if !ok {
			continue
		}
		if bestStr == "" || t.Before(best) {
			best = t
			bestStr = d
		}
	}
	return bestStr
}

// LastDayOfMonth returns the last calendar day of t's month, in t's
// location, truncated to midnight.
func LastDayOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
