package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Off is the duration string that disables a timer.
const Off = "off"

var unitSizes = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

var formatUnits = []struct {
	suffix string
	size   time.Duration
}{
	{"w", 7 * 24 * time.Hour},
	{"d", 24 * time.Hour},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
}

// ParseDuration parses durations like "5s", "10m", "2d", "1w", "1h 30m" or
// "off". "off" returns zero. Anything time.ParseDuration accepts ("500ms",
// "1h30m") is also allowed.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if s == Off {
		return 0, nil
	}

	var total time.Duration
	for _, part := range strings.Fields(s) {
		d, err := parsePart(part)
		if err != nil {
			return 0, err
		}
		if total > math.MaxInt64-d {
			return 0, fmt.Errorf("duration %q is too long", s)
		}
		total += d
	}
	return total, nil
}

func parsePart(part string) (time.Duration, error) {
	if size, ok := unitSizes[part[len(part)-1]]; ok {
		if n, err := strconv.ParseInt(part[:len(part)-1], 10, 64); err == nil {
			if n < 0 {
				return 0, fmt.Errorf("negative duration %q", part)
			}
			if n > math.MaxInt64/int64(size) {
				return 0, fmt.Errorf("duration %q is too long", part)
			}
			return time.Duration(n) * size, nil
		}
	}

	d, err := time.ParseDuration(part)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (use a number followed by s, m, h, d or w, or %q)", part, Off)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", part)
	}
	return d, nil
}

// FormatDuration renders d as "1h 2m 5s". Zero renders as "0s" and
// sub-second values keep their precision.
func FormatDuration(d time.Duration) string {
	if d > 0 && d < time.Second {
		return d.String()
	}

	d = d.Truncate(time.Second)
	if d < 0 {
		d = 0
	}

	var parts []string
	for _, u := range formatUnits {
		if q := d / u.size; q > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", q, u.suffix))
			d -= q * u.size
		}
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

// FormatTimeout renders a timer setting, using "off" for zero.
func FormatTimeout(d time.Duration) string {
	if d <= 0 {
		return Off
	}
	return FormatDuration(d)
}
