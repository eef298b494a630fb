package observability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is the metrics window used when none is given.
const DefaultWindow = "7d"

// ParseSince turns a look-back window such as "7d", "2w", "24h" or "90m"
// into the instant that far before now. An empty window means DefaultWindow.
func ParseSince(window string, now time.Time) (time.Time, error) {
	window = strings.TrimSpace(window)
	if window == "" {
		window = DefaultWindow
	}
	if len(window) < 2 {
		return time.Time{}, fmt.Errorf("invalid window %q (use e.g. 7d, 2w, 24h)", window)
	}

	unit := window[len(window)-1]
	n, err := strconv.Atoi(window[:len(window)-1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid window %q: count must be a whole number", window)
	}
	if n < 0 {
		return time.Time{}, fmt.Errorf("invalid window %q: count must not be negative", window)
	}

	switch unit {
	case 'w':
		return now.AddDate(0, 0, -7*n), nil
	case 'd':
		return now.AddDate(0, 0, -n), nil
	case 'h':
		return now.Add(-time.Duration(n) * time.Hour), nil
	case 'm':
		return now.Add(-time.Duration(n) * time.Minute), nil
	default:
		return time.Time{}, fmt.Errorf("invalid window %q: unit must be w, d, h or m", window)
	}
}
