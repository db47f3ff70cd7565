package transcode

import (
	"regexp"
	"strconv"
	"time"
)

// Matches both the stats line "time=00:00:01.50" and the progress key
// "out_time=00:00:01.500000"
var elapsedRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)

// ParseElapsed extracts the encoder position from one output line
func ParseElapsed(line string) (time.Duration, bool) {
	m := elapsedRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return d, true
}

// Tracker turns elapsed markers into a percentage that never goes
// backwards and never exceeds 100
type Tracker struct {
	duration time.Duration
	last     float64
	reported bool
}

// NewTracker creates a tracker for an input of the given duration.
// A zero duration disables percentages.
func NewTracker(duration time.Duration) *Tracker {
	return &Tracker{duration: duration}
}

// Update returns the new percentage and whether it should be reported
func (t *Tracker) Update(elapsed time.Duration) (float64, bool) {
	if t.duration <= 0 {
		return 0, false
	}

	pct := float64(elapsed) / float64(t.duration) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < t.last {
		pct = t.last
	}

	if t.reported && pct == t.last {
		return pct, false
	}
	t.last = pct
	t.reported = true
	return pct, true
}
