// Package humanize formats row counts and byte sizes for CLI progress and
// status output. This is the one stdlib-only concession in this module (see
// DESIGN.md): no repo in the example pack imports dustin/go-humanize or an
// equivalent for this narrow formatting concern, though the Python original
// this module is grounded on (original_source/dbtool) imports the
// `humanize` package for exactly this (intcomma, naturalsize).
package humanize

import (
	"fmt"
	"strconv"
	"strings"
)

// Comma renders n with thousands separators, e.g. 1234567 -> "1,234,567".
func Comma(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var out []byte
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}

	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// Bytes renders n using binary (IEC) units, e.g. 1572864 -> "1.5 MiB".
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
