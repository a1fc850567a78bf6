package models

// Season is a coarse calendar season used to group consumption
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

// Seasons lists every season in calendar order starting from winter
var Seasons = []Season{Winter, Spring, Summer, Autumn}

// ValidMonth reports whether month is a calendar month (1-12)
func ValidMonth(month int) bool {
	return month >= 1 && month <= 12
}

// SeasonOf maps a month (1-12) to its meteorological season. Callers check
// ValidMonth first; anything else falls into autumn.
func SeasonOf(month int) Season {
	switch month {
	case 12, 1, 2:
		return Winter
	case 3, 4, 5:
		return Spring
	case 6, 7, 8:
		return Summer
	default:
		return Autumn
	}
}
