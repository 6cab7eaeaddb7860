package domain

import "time"

// Month vocabulary, English and Indonesian, full and abbreviated.
var months = map[string]time.Month{
	"january": time.January, "jan": time.January, "januari": time.January,
	"february": time.February, "feb": time.February, "februari": time.February, "peb": time.February,
	"march": time.March, "mar": time.March, "maret": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May, "mei": time.May,
	"june": time.June, "jun": time.June, "juni": time.June,
	"july": time.July, "jul": time.July, "juli": time.July,
	"august": time.August, "aug": time.August, "agustus": time.August, "agu": time.August, "agt": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October, "oktober": time.October, "okt": time.October,
	"november": time.November, "nov": time.November, "nop": time.November,
	"december": time.December, "dec": time.December, "desember": time.December, "des": time.December,
}

// Weekday vocabulary, English and Indonesian, full and abbreviated.
var weekdays = map[string]Weekday{
	"monday": 0, "mon": 0, "senin": 0,
	"tuesday": 1, "tue": 1, "tues": 1, "selasa": 1,
	"wednesday": 2, "wed": 2, "rabu": 2,
	"thursday": 3, "thu": 3, "thur": 3, "thurs": 3, "kamis": 3,
	"friday": 4, "fri": 4, "jumat": 4, "jum'at": 4, "jum": 4,
	"saturday": 5, "sat": 5, "sabtu": 5,
	"sunday": 6, "sun": 6, "minggu": 6, "ahad": 6,
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// LookupMonth resolves a month word; the match is case-insensitive and
// ignores trailing punctuation.
func LookupMonth(word string) (time.Month, bool) {
	m, ok := months[normalizeWord(word)]
	return m, ok
}

// LookupWeekday resolves a weekday word the same way as LookupMonth.
func LookupWeekday(word string) (Weekday, bool) {
	d, ok := weekdays[normalizeWord(word)]
	return d, ok
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "?"
	}
	return weekdayNames[d]
}
