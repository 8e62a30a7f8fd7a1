package tools

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// money renders an amount with two decimal places and no separators.
func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// commaMoney renders an amount with two decimal places and thousands
// separators in the integer part.
func commaMoney(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	grouped := groupThousands(intPart)
	if neg {
		return "-" + grouped + "." + frac
	}
	return grouped + "." + frac
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// commaInt renders an integer with thousands separators.
func commaInt(v int64) string {
	return humanize.Comma(v)
}

// signedMoney renders an amount with an explicit sign, e.g. "+1.50".
func signedMoney(v float64) string {
	if v >= 0 {
		return "+" + money(v)
	}
	return money(v)
}

// signedPercent renders a percentage with an explicit sign, e.g. "+1.01%".
func signedPercent(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// billions renders a large amount scaled to billions, e.g. "880.23".
func billions(v float64) string {
	return fmt.Sprintf("%.2f", v/1e9)
}
