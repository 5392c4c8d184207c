package files

import "fmt"

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count in human-readable form. Values below
// 1024 always render as whole bytes with the B unit; larger values use the
// requested decimal precision.
func FormatBytes(n int64, decimals int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	if decimals < 0 {
		decimals = 0
	}

	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}

	return fmt.Sprintf("%.*f %s", decimals, value, byteUnits[unit])
}
