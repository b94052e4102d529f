package utils

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for expiration dates
const DateLayout = "2006-01-02"

// DaysPerYear is the ACT/365 fixed day count
const DaysPerYear = 365.0

// YearsToExpiration converts an expiration date to a year fraction on an
// ACT/365 basis, counting whole calendar days from now's date. Dates on or
// before today give a non-positive result; the pricer rejects those.
func YearsToExpiration(expirationDate string, now time.Time) (float64, error) {
	days, err := DaysToExpiration(expirationDate, now)
	if err != nil {
		return 0, err
	}
	return float64(days) / DaysPerYear, nil
}

// DaysToExpiration returns the calendar days between now's date and the
// expiration date
func DaysToExpiration(expirationDate string, now time.Time) (int, error) {
	expiry, err := time.Parse(DateLayout, expirationDate)
	if err != nil {
		return 0, fmt.Errorf("invalid expiration date %q: %w", expirationDate, err)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiry.Sub(today).Hours() / 24), nil
}

// CalculateNextOptionsExpiration returns the next monthly options expiration
// (third Friday):
// - Third Friday of the current month if we haven't reached the expiration week yet
// - Third Friday of next month if we're in or past the expiration week
func CalculateNextOptionsExpiration(now time.Time) string {
	thirdFriday := thirdFridayOf(now.Year(), now.Month(), now.Location())

	// If current day is in the week of 3rd Friday or past it, use next month's 3rd Friday
	weekStart := thirdFriday.AddDate(0, 0, -7)
	if now.After(weekStart) || now.Equal(weekStart) {
		next := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		return thirdFridayOf(next.Year(), next.Month(), now.Location()).Format(DateLayout)
	}

	return thirdFriday.Format(DateLayout)
}

func thirdFridayOf(year int, month time.Month, loc *time.Location) time.Time {
	firstFriday := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for firstFriday.Weekday() != time.Friday {
		firstFriday = firstFriday.AddDate(0, 0, 1)
	}
	return firstFriday.AddDate(0, 0, 14)
}
