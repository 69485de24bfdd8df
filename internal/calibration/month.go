package calibration

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidMonth reports a month with no calibrated transition rates.
var ErrInvalidMonth = errors.New("invalid harvest month")

// HarvestMonth is a month of measurement for which transition rates are calibrated.
// Only January through August exist; September to December cannot be represented.
type HarvestMonth int

const (
	January HarvestMonth = iota + 1
	February
	March
	April
	May
	June
	July
	August
)

// HarvestMonths lists every calibrated month in calendar order.
var HarvestMonths = []HarvestMonth{January, February, March, April, May, June, July, August}

// Portuguese names are the keys the field app records samples under.
var monthNames = map[time.Month]string{
	time.January:   "janeiro",
	time.February:  "fevereiro",
	time.March:     "março",
	time.April:     "abril",
	time.May:       "maio",
	time.June:      "junho",
	time.July:      "julho",
	time.August:    "agosto",
	time.September: "setembro",
	time.October:   "outubro",
	time.November:  "novembro",
	time.December:  "dezembro",
}

var monthLookup = buildMonthLookup()

func buildMonthLookup() map[string]time.Month {
	lookup := make(map[string]time.Month, 24)
	for m, name := range monthNames {
		lookup[normalizeName(name)] = m
		lookup[normalizeName(m.String())] = m
	}
	return lookup
}

// normalizeName lower-cases and strips diacritics so "Março", "marco" and "MARÇO" match.
func normalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}

// ParseCalendarMonth resolves any of the twelve month names, Portuguese or English.
func ParseCalendarMonth(name string) (time.Month, error) {
	m, ok := monthLookup[normalizeName(name)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown month name %q", ErrInvalidMonth, name)
	}
	return m, nil
}

// ParseMonth resolves a month name into a calibrated HarvestMonth.
func ParseMonth(name string) (HarvestMonth, error) {
	m, err := ParseCalendarMonth(name)
	if err != nil {
		return 0, err
	}
	return FromTime(m)
}

// FromTime converts a calendar month, failing for months without calibrated rates.
func FromTime(m time.Month) (HarvestMonth, error) {
	if m < time.January || m > time.August {
		return 0, fmt.Errorf("%w: no transition rates calibrated for %s", ErrInvalidMonth, monthNameOf(m))
	}
	return HarvestMonth(m), nil
}

// Month returns the calendar month.
func (h HarvestMonth) Month() time.Month {
	return time.Month(h)
}

func (h HarvestMonth) String() string {
	return monthNameOf(time.Month(h))
}

// MarshalText renders the month under its Portuguese key.
func (h HarvestMonth) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts any name ParseMonth accepts.
func (h *HarvestMonth) UnmarshalText(text []byte) error {
	m, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*h = m
	return nil
}

func monthNameOf(m time.Month) string {
	if name, ok := monthNames[m]; ok {
		return name
	}
	return fmt.Sprintf("month(%d)", int(m))
}
