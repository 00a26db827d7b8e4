// Package dateutil resolves the date printed on a textbook's title block.
//
// A date setting is one of:
//
//	none | ""              no date
//	long | iso | us | ...  a preset, rendered for the compile time
//	auto                   the compile time as YYYY-MM-DD
//	auto:FORMAT            the compile time in FORMAT (a preset or tokens)
//	anything else          printed as written
//
// FORMAT tokens are YYYY, YY, MMMM, MMM, MM, M, DD and D. Text inside
// square brackets is copied literally.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat is returned for malformed auto: formats.
var ErrInvalidDateFormat = errors.New("invalid date format")

// NoDate disables the title-block date.
const NoDate = "none"

const (
	autoKeyword   = "auto"
	autoPrefix    = "auto:"
	defaultFormat = "YYYY-MM-DD"
	maxFormatLen  = 50
	longestToken  = 4
)

// Presets are named formats usable bare or after "auto:".
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

var tokenLayouts = map[string]string{
	"YYYY": "2006",
	"YY":   "06",
	"MMMM": "January",
	"MMM":  "Jan",
	"MM":   "01",
	"M":    "1",
	"DD":   "02",
	"D":    "2",
}

// ResolveTitleDate renders value for the compile time t.
func ResolveTitleDate(value string, t time.Time) (string, error) {
	v := strings.TrimSpace(value)
	lower := strings.ToLower(v)

	switch {
	case v == "" || lower == NoDate:
		return "", nil
	case lower == autoKeyword:
		return format(defaultFormat, t)
	case strings.HasPrefix(lower, autoPrefix):
		f := v[len(autoPrefix):]
		if f == "" {
			return "", fmt.Errorf("%w: nothing after %q", ErrInvalidDateFormat, autoPrefix)
		}
		if p, ok := Presets[strings.ToLower(f)]; ok {
			f = p
		}
		return format(f, t)
	case strings.HasPrefix(lower, autoKeyword):
		return "", fmt.Errorf("%w: %q, use %q or %q", ErrInvalidDateFormat, v, autoKeyword, autoPrefix+"FORMAT")
	}

	if p, ok := Presets[lower]; ok {
		return format(p, t)
	}
	return v, nil
}

func format(f string, t time.Time) (string, error) {
	l, err := Layout(f)
	if err != nil {
		return "", err
	}
	return t.Format(l), nil
}

// Layout translates a token format into a Go time layout. Tokens match
// greedily, so "MMMM" is a full month name and never two "MM".
func Layout(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("%w: empty format", ErrInvalidDateFormat)
	}
	if len(f) > maxFormatLen {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidDateFormat, maxFormatLen)
	}

	var b strings.Builder
	for i := 0; i < len(f); {
		if f[i] == '[' {
			end := strings.IndexByte(f[i+1:], ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed bracket at %d", ErrInvalidDateFormat, i)
			}
			b.WriteString(f[i+1 : i+1+end])
			i += end + 2
			continue
		}
		n, layout := matchToken(f[i:])
		if n == 0 {
			b.WriteByte(f[i])
			i++
			continue
		}
		b.WriteString(layout)
		i += n
	}
	return b.String(), nil
}

func matchToken(s string) (int, string) {
	for n := min(longestToken, len(s)); n > 0; n-- {
		if layout, ok := tokenLayouts[s[:n]]; ok {
			return n, layout
		}
	}
	return 0, ""
}
