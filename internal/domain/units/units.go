// Package units holds the numeric and calendar helpers shared by the generator,
// the estimate engines and the contract mapping.
package units

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// ISOLayout is the millisecond-precision UTC layout used on the wire and in the
// attestation canonical form.
const ISOLayout = "2006-01-02T15:04:05.000Z"

const (
	day            = 24 * time.Hour
	averageMonthMs = 1000 * 60 * 60 * 24 * 30.4375
)

// Round2 rounds to two decimals with halves going toward positive infinity.
func Round2(value float64) float64 {
	return math.Floor(value*100+0.5) / 100
}

// Round1 rounds to one decimal with halves going toward positive infinity.
func Round1(value float64) float64 {
	return math.Floor(value*10+0.5) / 10
}

// DaysBetween returns the whole days elapsed from -> to, never negative.
func DaysBetween(from, to time.Time) int {
	diff := to.Sub(from)
	if diff <= 0 {
		return 0
	}
	return int(math.Floor(float64(diff.Milliseconds()) / float64(day.Milliseconds())))
}

// MonthsBetween returns the UTC calendar-month difference, never negative.
func MonthsBetween(from, to time.Time) int {
	from, to = from.UTC(), to.UTC()
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months < 0 {
		return 0
	}
	return months
}

// AverageMonthsBetween divides the elapsed time by an average month length.
// Used for age bucketing where calendar boundaries do not matter.
func AverageMonthsBetween(from, to time.Time) int {
	months := math.Floor(float64(to.Sub(from).Milliseconds()) / averageMonthMs)
	if months < 0 {
		return 0
	}
	return int(months)
}

// SubtractDays moves t back by whole UTC days.
func SubtractDays(t time.Time, days int) time.Time {
	return t.UTC().AddDate(0, 0, -days)
}

// AddDays moves t forward by whole UTC days.
func AddDays(t time.Time, days int) time.Time {
	return t.UTC().AddDate(0, 0, days)
}

// SubtractMonths moves t back by calendar months. Day overflow normalizes
// forward (Mar 31 minus one month is Mar 3 or Mar 2).
func SubtractMonths(t time.Time, months int) time.Time {
	return t.UTC().AddDate(0, -months, 0)
}

// ProofGallons converts wine gallons at a given proof into proof gallons.
func ProofGallons(wineGallons, proof float64) float64 {
	return Round2(wineGallons * (proof / 100))
}

// Clamp bounds value into [lo, hi].
func Clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// ToScaled2 converts a two-decimal quantity into its integer hundredths.
func ToScaled2(value float64) *big.Int {
	return scaled(value, 2)
}

// ToScaled1 converts a one-decimal quantity into its integer tenths.
func ToScaled1(value float64) *big.Int {
	return scaled(value, 1)
}

func scaled(value float64, places int32) *big.Int {
	return decimal.NewFromFloat(value).Shift(places).Round(0).BigInt()
}

// FormatISO renders t as a millisecond UTC timestamp.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseISO accepts RFC 3339 timestamps (with or without fractional seconds) and
// bare dates, normalizing to UTC with millisecond precision.
func ParseISO(value string) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// Unix returns whole seconds since the epoch for contract timestamps.
func Unix(t time.Time) *big.Int {
	return big.NewInt(int64(math.Floor(float64(t.UnixMilli()) / 1000)))
}
