// Package format provides shared size, time and string formatting helpers.
package format

import (
	"fmt"
	"strconv"
)

// Decimal byte units. Node operators read disk sizes the way disk vendors
// print them, so sizes use powers of 1000.
const (
	KB uint64 = 1000
	MB        = 1000 * KB
	GB        = 1000 * MB
	TB        = 1000 * GB
)

// Megabytes returns n in whole decimal megabytes, truncated.
func Megabytes(n uint64) uint64 {
	return n / MB
}

// MegabytesString renders n as "<whole MB> Mo", the unit label node
// operators expect in storage summaries.
func MegabytesString(n uint64) string {
	return strconv.FormatUint(Megabytes(n), 10) + " Mo"
}

// Bytes renders n with one decimal in the largest fitting decimal unit:
// "512 B", "1.5 KB", "12.0 GB".
func Bytes(n uint64) string {
	switch {
	case n >= TB:
		return fmt.Sprintf("%.1f TB", float64(n)/float64(TB))
	case n >= GB:
		return fmt.Sprintf("%.1f GB", float64(n)/float64(GB))
	case n >= MB:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(KB))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Percent renders p with one decimal and a percent sign.
func Percent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

// TruncateWithEllipsis truncates a string to maxWidth runes, appending "..."
// if the string exceeds the limit. If maxWidth is less than 4, the string
// is hard-truncated without an ellipsis suffix.
func TruncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxWidth {
		return s
	}

	if maxWidth < 4 {
		return string(runes[:maxWidth])
	}

	return string(runes[:maxWidth-3]) + "..."
}
