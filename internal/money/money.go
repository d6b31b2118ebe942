package money

import (
	"fmt"
	"math"
)

// Amount is a currency amount in minor units (hundredths of a coin).
// Balance math stays on integers; floats appear only at the request and
// display boundary.
type Amount int64

const minorPerMajor = 100

// FromMajor converts a major-unit value (e.g. "12.34" coins) to minor
// units, rounding half away from zero.
func FromMajor(v float64) Amount {
	if v >= 0 {
		return Amount(math.Floor(v*minorPerMajor + 0.5))
	}
	return Amount(math.Ceil(v*minorPerMajor - 0.5))
}

// Major returns the display value in major units.
func (a Amount) Major() float64 { return float64(a) / minorPerMajor }

func (a Amount) String() string {
	n := a
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/minorPerMajor, n%minorPerMajor)
}

// Fee computes max(floor(amount*rate), min). Small transactions never
// escape the minimum fee.
func Fee(amount Amount, rate float64, min Amount) Amount {
	f := Amount(math.Floor(float64(amount) * rate))
	if f < min {
		f = min
	}
	return f
}
