// Package timecode converts between the MM:SS.ss clock text used by the
// annotation tool and decimal seconds used for media seeking.
//
// The canonical text form is two-digit zero-padded minutes, two-digit
// seconds and two fractional digits, e.g. "05:30.25". Minutes have no upper
// bound, so "123:04.00" is valid. The legacy forms "MM:SS", "M:SS" and a
// single fractional digit are accepted by Parse.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// MaxSeconds is the largest value Format renders exactly. Hundredths of a
// second stay exact in a float64 well past it.
const MaxSeconds = 1e12

// ErrRange is returned by Check for seconds Format cannot render
var ErrRange = errors.New("timecode: seconds out of range")

var grammar = regexp.MustCompile(`^([0-9]+):([0-5][0-9])(\.[0-9]{1,2})?$`)

// FormatError is returned when text is not a clock value
type FormatError struct {
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("timecode: %q: %s", e.Text, e.Reason)
}

// Code is a non-negative duration split into whole minutes and
// seconds in [0, 60)
type Code struct {
	Minutes int
	Seconds float64
}

// FromSeconds splits s into a Code rounded to the hundredth of a second.
// Negative and NaN inputs yield the zero Code; values above MaxSeconds,
// +Inf included, are clamped to it.
func FromSeconds(s float64) Code {
	if math.IsNaN(s) || s <= 0 {
		return Code{}
	}
	if s > MaxSeconds {
		s = MaxSeconds
	}
	cs := int64(math.Round(s * 100))
	return Code{
		Minutes: int(cs / 6000),
		Seconds: float64(cs%6000) / 100,
	}
}

// Total returns the number of seconds c represents
func (c Code) Total() float64 {
	return float64(c.Minutes)*60 + c.Seconds
}

// String renders c in MM:SS.ss form
func (c Code) String() string {
	cs := int64(math.Round(c.Seconds * 100))
	return fmt.Sprintf("%02d:%02d.%02d", c.Minutes, cs/100, cs%100)
}

// ParseCode parses text into its minute and second parts
func ParseCode(text string) (Code, error) {
	if text == "" {
		return Code{}, &FormatError{Text: text, Reason: "empty"}
	}
	m := grammar.FindStringSubmatch(text)
	if m == nil {
		return Code{}, &FormatError{Text: text, Reason: "want MM:SS or MM:SS.ss"}
	}
	min, err := strconv.Atoi(m[1])
	if err != nil {
		return Code{}, &FormatError{Text: text, Reason: "bad minutes"}
	}
	sec, err := strconv.ParseFloat(m[2]+m[3], 64)
	if err != nil {
		return Code{}, &FormatError{Text: text, Reason: "bad seconds"}
	}
	c := Code{Minutes: min, Seconds: sec}
	if c.Total() > MaxSeconds {
		return Code{}, &FormatError{Text: text, Reason: "out of range"}
	}
	return c, nil
}

// Parse returns the number of seconds text represents
func Parse(text string) (float64, error) {
	c, err := ParseCode(text)
	if err != nil {
		return 0, err
	}
	return c.Total(), nil
}

// Format renders seconds in MM:SS.ss form
func Format(seconds float64) string {
	return FromSeconds(seconds).String()
}

// Check returns ErrRange unless seconds is a finite value in [0, MaxSeconds]
func Check(seconds float64) error {
	if math.IsNaN(seconds) || seconds < 0 || seconds > MaxSeconds {
		return fmt.Errorf("%w: %v", ErrRange, seconds)
	}
	return nil
}

// IsValid reports whether text would be accepted by Parse
func IsValid(text string) bool {
	_, err := ParseCode(text)
	return err == nil
}

// Canonical rewrites any accepted form of text into MM:SS.ss
func Canonical(text string) (string, error) {
	s, err := Parse(text)
	if err != nil {
		return "", err
	}
	return Format(s), nil
}
