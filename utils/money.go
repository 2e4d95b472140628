package utils

import "math"

// Round rounds to two decimal places.
func Round(value float64) float64 {
	return math.Round(value*100) / 100
}

// MinorToMajor converts a backend amount in minor currency units (cents)
// to major units. The backend contract is minor units everywhere; this is
// the single place the division happens.
func MinorToMajor(amount int64) float64 {
	return Round(float64(amount) / 100)
}
