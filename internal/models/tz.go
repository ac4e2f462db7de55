package models

import (
	"strings"
	"time"
)

// TZShort returns the short zone name (e.g. "IST", "CET") for an IANA zone at
// a given instant. DST means the abbreviation depends on the timestamp, so the
// flight's scheduled time is passed in; falls back to now when absent.
func TZShort(tz string, at *time.Time) string {
	name := strings.TrimSpace(tz)
	if name == "" {
		return ""
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return ""
	}
	t := time.Now().UTC()
	if at != nil {
		t = *at
	}
	abbr := t.In(loc).Format("MST")
	// Numeric offsets like "+0530" are noise in the UI; keep only real names.
	if strings.HasPrefix(abbr, "+") || strings.HasPrefix(abbr, "-") {
		return ""
	}
	return abbr
}
