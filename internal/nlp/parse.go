package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// MenuChoice parses a strictly numeric answer within [min, max].
func MenuChoice(text string, min, max int) (int, bool) {
	t := strings.TrimSpace(text)
	if !digitsRegex.MatchString(t) {
		return 0, false
	}
	n, err := strconv.Atoi(t)
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}

var dateRegex = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})$`)

// ParseDate parses DD/MM/YYYY (also "-" or "." separated) in now's location.
// Impossible calendar dates and days before today are rejected.
func ParseDate(text string, now time.Time) (time.Time, bool) {
	m := dateRegex.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	loc := now.Location()
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if d.Before(today) {
		return time.Time{}, false
	}
	return d, true
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// FormatDateISO renders YYYY-MM-DD.
func FormatDateISO(d time.Time) string {
	return d.Format("2006-01-02")
}

var (
	spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	spanishMonths   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
		"agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// FormatDateES renders a long Spanish date, e.g. "lunes, 16 de marzo de 2026".
func FormatDateES(d time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d",
		spanishWeekdays[d.Weekday()], d.Day(), spanishMonths[d.Month()-1], d.Year())
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail performs the loose address check used during intake.
func IsValidEmail(text string) bool {
	return emailRegex.MatchString(strings.TrimSpace(text))
}

var cedulaRegex = regexp.MustCompile(`\b(\d{3})-?(\d{7})-?(\d)\b`)

// Cedula is a Dominican national ID found inside free text.
type Cedula struct {
	Formatted string // XXX-XXXXXXX-X
	Raw       string // as typed
}

// ExtractCedula finds the first cédula in text.
func ExtractCedula(text string) (Cedula, bool) {
	m := cedulaRegex.FindStringSubmatch(text)
	if m == nil {
		return Cedula{}, false
	}
	return Cedula{Formatted: m[1] + "-" + m[2] + "-" + m[3], Raw: m[0]}, true
}

var (
	nameLetterRegex = regexp.MustCompile(`(?i)[a-záéíóúñü\s]`)
	spacesRegex     = regexp.MustCompile(`\s+`)
)

// NameLetterRatio is the share of characters that can appear in a person's name.
func NameLetterRatio(name string) float64 {
	total := utf8.RuneCountInString(name)
	if total == 0 {
		return 0
	}
	letters := len(nameLetterRegex.FindAllString(name, -1))
	return float64(letters) / float64(total)
}

// CollapseSpaces trims and squeezes internal whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(spacesRegex.ReplaceAllString(s, " "))
}

// IsSkipWord reports whether the contact declined an optional field.
func IsSkipWord(text string) bool {
	switch Normalize(text) {
	case "omitir", "no", "no tengo", "saltar":
		return true
	}
	return false
}
