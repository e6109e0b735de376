// Package timeutil converts between clock-time strings and minute offsets
// and formats countdown displays.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeToMinutes converts an "HH:MM" clock time to minutes since midnight.
func TimeToMinutes(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock time %q out of range", clock)
	}
	return hours*60 + minutes, nil
}

// MinutesToTime converts minutes since midnight to an "HH:MM" clock time.
func MinutesToTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatSeconds formats a second count as "MM:SS" countdown text.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatClock12 renders an "HH:MM" clock time as a 12-hour display label,
// e.g. "13:05" -> "1:05 PM".
func FormatClock12(clock string) string {
	minutes, err := TimeToMinutes(clock)
	if err != nil {
		return clock
	}
	hour := minutes / 60
	min := minutes % 60
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, min, suffix)
}
