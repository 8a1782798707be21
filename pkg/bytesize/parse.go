// Package bytesize parses human byte sizes and renders them as archiver
// volume flags.
package bytesize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	kib int64 = 1 << 10
	mib int64 = 1 << 20
	gib int64 = 1 << 30
	tib int64 = 1 << 40
)

// suffixes are tried longest first so "B" never shadows "MB".
var suffixes = []struct {
	unit string
	mult int64
}{
	{"TB", tib}, {"GB", gib}, {"MB", mib}, {"KB", kib},
	{"T", tib}, {"G", gib}, {"M", mib}, {"K", kib},
	{"B", 1},
}

// Parse parses a size such as "500MB", "4g" or "1.5GB" into bytes.
// Units are 1024-based and case-insensitive.
func Parse(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var (
		mult     int64
		valueStr string
	)
	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.unit) {
			mult = sfx.mult
			valueStr = strings.TrimSpace(strings.TrimSuffix(s, sfx.unit))
			break
		}
	}
	if mult == 0 {
		return 0, fmt.Errorf("invalid size %q: missing unit (supported: B, KB, MB, GB, TB)", s)
	}
	if valueStr == "" {
		return 0, fmt.Errorf("invalid size %q: missing numeric value", s)
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q in %q: %w", valueStr, s, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid size %q: not a finite number", s)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid size %q: must be positive", s)
	}

	result := value * float64(mult)
	if result >= math.MaxInt64 {
		return 0, fmt.Errorf("size %q exceeds maximum allowed value", s)
	}
	n := int64(result)
	if n < 1 {
		return 0, fmt.Errorf("invalid size %q: smaller than one byte", s)
	}
	return n, nil
}

// SplitFlag converts a human size into the value of 7z's -v switch, using the
// largest unit that divides the size exactly ("4GB" -> "4g", "1536MB" -> "1536m").
// An empty size yields an empty flag.
func SplitFlag(size string) (string, error) {
	if strings.TrimSpace(size) == "" {
		return "", nil
	}
	n, err := Parse(size)
	if err != nil {
		return "", err
	}
	switch {
	case n%gib == 0:
		return strconv.FormatInt(n/gib, 10) + "g", nil
	case n%mib == 0:
		return strconv.FormatInt(n/mib, 10) + "m", nil
	case n%kib == 0:
		return strconv.FormatInt(n/kib, 10) + "k", nil
	default:
		return strconv.FormatInt(n, 10) + "b", nil
	}
}
