package textutil

import "time"

// month tokens exactly as they are rendered by en-US listing pages
var monthTokens = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,

	"Sept": time.September,

	"January":   time.January,
	"February":  time.February,
	"March":     time.March,
	"April":     time.April,
	"June":      time.June,
	"July":      time.July,
	"August":    time.August,
	"September": time.September,
	"October":   time.October,
	"November":  time.November,
	"December":  time.December,
}

// MonthNumber resolves a month token to its month. The lookup is
// case-sensitive, ok is false for anything it does not recognize.
func MonthNumber(token string) (month time.Month, ok bool) {
	month, ok = monthTokens[token]
	return month, ok
}
