package market

import (
	"math"
	"strconv"
	"strings"
)

// defaultIntervalSeconds is used when a timeframe specifier cannot be parsed.
const defaultIntervalSeconds int64 = 60

// unitSeconds maps a timeframe unit suffix to its length in seconds. Days,
// weeks and years use calendar-free fixed lengths; bucket alignment only
// needs a stable interval, not calendar correctness.
var unitSeconds = map[byte]int64{
	's': 1,
	'm': 60,
	'h': 3600,
	'd': 86400,
	'w': 604800,
	'y': 31536000,
}

// IntervalSeconds parses a timeframe specifier of the form <integer><unit>
// (e.g. "15s", "1m", "4h") into its interval length in seconds. Invalid
// specifiers fall back to one minute.
func IntervalSeconds(timeframe string) int64 {
	tf := strings.TrimSpace(strings.ToLower(timeframe))
	if len(tf) < 2 {
		return defaultIntervalSeconds
	}
	unit, ok := unitSeconds[tf[len(tf)-1]]
	if !ok {
		return defaultIntervalSeconds
	}
	n, err := strconv.ParseInt(tf[:len(tf)-1], 10, 64)
	if err != nil || n <= 0 {
		return defaultIntervalSeconds
	}
	// Reject counts whose product would overflow int64; a wrapped interval
	// would silently misalign or reject every tick.
	if n > math.MaxInt64/unit {
		return defaultIntervalSeconds
	}
	return n * unit
}

// BucketStart aligns a tick timestamp (unix seconds) to the start of its
// bucket for the given interval.
func BucketStart(ts, intervalSeconds int64) int64 {
	if intervalSeconds <= 0 {
		intervalSeconds = defaultIntervalSeconds
	}
	return ts / intervalSeconds * intervalSeconds
}
