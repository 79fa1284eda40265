package tools

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

const notAvailable = "N/A"

func money(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return notAvailable
	}
	return "$" + humanize.FormatFloat("#,###.##", *v)
}

func decimal(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func billions(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return notAvailable
	}
	return fmt.Sprintf("$%.2fB", *v/1e9)
}

// percent renders a fraction (0.0052) as "0.52%".
func percent(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return notAvailable
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func volume(v *int64) string {
	if v == nil {
		return notAvailable
	}
	return humanize.Comma(*v)
}
