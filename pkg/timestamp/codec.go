package timestamp

import (
	"regexp"
	"strings"
	"time"
)

// Layout is the 14-digit form embedded in camera and archive file names
const Layout = "20060102150405"

const (
	// MinYear is the first year accepted as a capture year
	MinYear = 2000
	// MaxYear is the last year accepted as a capture year
	MaxYear = 2099
)

// ArchivedPrefix prefixes every archived file name
const ArchivedPrefix = "archived-"

var (
	digitRun        = regexp.MustCompile(`\d{14}`)
	archivedPattern = regexp.MustCompile(`(?i)^archived-(\d{14})\.[a-z0-9]+$`)
)

// ParseRaw extracts the capture time from a raw camera file name such as
// REO_driveway_20230115120000.mp4. The first run of 14 digits is used.
func ParseRaw(name string) (time.Time, bool) {
	digits := digitRun.FindString(name)
	if digits == "" {
		return time.Time{}, false
	}
	return parseDigits(digits)
}

// ParseArchived extracts the capture time from an archived file name
// (archived-20230115120000.mp4). Matching is case-insensitive.
func ParseArchived(name string) (time.Time, bool) {
	m := archivedPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	return parseDigits(m[1])
}

// Format returns the canonical 14-digit representation of t
func Format(t time.Time) string {
	return t.Format(Layout)
}

// ArchivedName builds the archived file name for t with the given extension
func ArchivedName(t time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "mp4"
	}
	return ArchivedPrefix + Format(t) + "." + ext
}

// parseDigits validates the calendar value of a 14-digit string.
// time.Parse rejects out-of-range fields (month 13, Feb 30) on its own.
// Names are wall-clock labels, so they are read as UTC: a local zone
// would shift times inside a DST gap and Format would no longer return
// the digits of the name.
func parseDigits(digits string) (time.Time, bool) {
	t, err := time.Parse(Layout, digits)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() < MinYear || t.Year() > MaxYear {
		return time.Time{}, false
	}
	return t, true
}
