package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatBytes formats bytes to human readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSerial formats a stream serial number as 8 hex digits.
func FormatSerial(serial uint32) string {
	return fmt.Sprintf("%08x", serial)
}

// ParseSerial parses a serial in hex, as printed by FormatSerial. A 0x
// prefix is accepted.
func ParseSerial(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid serial %q: %w", s, err)
	}
	return uint32(v), nil
}

// FormatGranule formats a granule position; -1 (no packet finished) is
// shown as "-".
func FormatGranule(g int64) string {
	if g == -1 {
		return "-"
	}
	return strconv.FormatInt(g, 10)
}

// FormatFlags renders page header flags as e.g. "bos|cont".
func FormatFlags(bos, eos, continued bool) string {
	var parts []string
	if bos {
		parts = append(parts, "bos")
	}
	if eos {
		parts = append(parts, "eos")
	}
	if continued {
		parts = append(parts, "cont")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "|")
}
