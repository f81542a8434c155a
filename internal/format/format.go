// Package format renders durations, timestamps and sizes for log output.
package format

import (
	"fmt"
	"time"
)

// Duration formats a duration as HH:MM:SS or MM:SS.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Seconds formats a timeline position in seconds as MM:SS.mmm.
// Examples: 83.45 -> "01:23.450", 3601.5 -> "60:01.500"
func Seconds(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec * 1000)
	m := total / 60000
	s := (total % 60000) / 1000
	ms := total % 1000
	return fmt.Sprintf("%02d:%02d.%03d", m, s, ms)
}

// Size formats a size in bytes for human display.
// Uses MB for sizes >= 1MB, KB otherwise.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	if bytes >= mb {
		return fmt.Sprintf("%d MB", bytes/mb)
	}
	if bytes >= kb {
		return fmt.Sprintf("%d KB", bytes/kb)
	}
	return fmt.Sprintf("%d bytes", bytes)
}
