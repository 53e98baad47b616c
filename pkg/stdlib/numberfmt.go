package stdlib

import (
	"strconv"
)

// formatNumber renders a Lua number the way tostring does, with 14
// significant digits (C's %.14g): integral values print without a
// decimal point.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', 14, 64)
}
