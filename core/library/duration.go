package library

import (
	"fmt"
	"strconv"
	"strings"
)

// LengthToSeconds converts "hh:mm:ss", "mm:ss" or "ss" into seconds.
// An empty string is zero.
func LengthToSeconds(length string) (int, error) {
	length = strings.TrimSpace(length)
	if length == "" {
		return 0, nil
	}

	parts := strings.Split(length, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: expected hh:mm:ss, received %q", ErrBadLength, length)
	}

	seconds := 0
	unit := 1
	for i := len(parts) - 1; i >= 0; i-- {
		part := strings.TrimSpace(parts[i])
		if part != "" {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("%w: invalid component %q in %q", ErrBadLength, part, length)
			}
			seconds += n * unit
		}
		unit *= 60
	}
	return seconds, nil
}

// SecondsToLength formats seconds as zero-padded "hh:mm:ss".
func SecondsToLength(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
