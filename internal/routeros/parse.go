package routeros

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RouterOS reports durations like "1w2d3h4m5s", omitting zero-valued
// units. The status strings are best-effort on the device side, so the
// parsers here never fail; anything unparsable normalizes to 0.

var (
	uptimeWeeks = regexp.MustCompile(`(\d+)w`)
	uptimeDays  = regexp.MustCompile(`(\d+)d`)
	uptimeHours = regexp.MustCompile(`(\d+)h`)
	uptimeMins  = regexp.MustCompile(`(\d+)m`)
	uptimeSecs  = regexp.MustCompile(`(\d+)s`)

	ratePattern = regexp.MustCompile(`(?i)^([\d.]+)([kmg]?)bps$`)
)

// ParseUptime converts a RouterOS uptime string to total seconds.
func ParseUptime(uptime string) int64 {
	if uptime == "" {
		return 0
	}

	var seconds int64
	if m := uptimeWeeks.FindStringSubmatch(uptime); m != nil {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		seconds += n * 7 * 24 * 60 * 60
	}
	if m := uptimeDays.FindStringSubmatch(uptime); m != nil {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		seconds += n * 24 * 60 * 60
	}
	if m := uptimeHours.FindStringSubmatch(uptime); m != nil {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		seconds += n * 60 * 60
	}
	if m := uptimeMins.FindStringSubmatch(uptime); m != nil {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		seconds += n * 60
	}
	if m := uptimeSecs.FindStringSubmatch(uptime); m != nil {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		seconds += n
	}

	return seconds
}

// ParseRate converts a RouterOS rate string (e.g. "10Mbps", "1.5kbps")
// to bits per second.
func ParseRate(rate string) int64 {
	if rate == "" {
		return 0
	}

	m := ratePattern.FindStringSubmatch(rate)
	if m == nil {
		return 0
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}

	switch strings.ToLower(m[2]) {
	case "k":
		value *= 1000
	case "m":
		value *= 1000 * 1000
	case "g":
		value *= 1000 * 1000 * 1000
	}

	return int64(math.Round(value))
}

// ParseBytes converts a RouterOS byte counter to an integer. Counters
// arrive as decimal strings; absent or malformed values count as 0.
func ParseBytes(counter string) int64 {
	if counter == "" {
		return 0
	}
	n, err := strconv.ParseInt(counter, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
