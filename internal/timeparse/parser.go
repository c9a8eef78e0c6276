// Package timeparse turns user input such as "+2d", "tomorrow 9am" or
// "2025-03-14" into times for snoozes and due dates.
//
// Parsing is layered, first match wins:
//  1. Compact duration (+6h, -1d, 2w, 3m, 1y)
//  2. Date only (2006-01-02), midnight in now's location
//  3. RFC 3339 timestamp
//  4. Natural language (tomorrow, next monday, in 3 days)
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateLayout is the layout of date-only values such as due dates.
const DateLayout = "2006-01-02"

var ErrUnrecognized = errors.New("unrecognized time expression")

var compactDurationRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

var nlp = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Parse resolves s relative to now.
func Parse(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnrecognized)
	}

	if t, ok := parseCompact(s, now); ok {
		return t, nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	r, err := nlp.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, s)
	}
	return r.Time, nil
}

// ParseDate resolves s and formats it as a YYYY-MM-DD date in now's location.
func ParseDate(s string, now time.Time) (string, error) {
	t, err := Parse(s, now)
	if err != nil {
		return "", err
	}
	return t.In(now.Location()).Format(DateLayout), nil
}

// IsCompactDuration reports whether s uses the +Nh/d/w/m/y syntax.
func IsCompactDuration(s string) bool {
	return compactDurationRe.MatchString(s)
}

func parseCompact(s string, now time.Time) (time.Time, bool) {
	m := compactDurationRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	amount, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	if m[1] == "-" {
		amount = -amount
	}

	switch m[3] {
	case "h":
		return now.Add(time.Duration(amount) * time.Hour), true
	case "d":
		return now.AddDate(0, 0, amount), true
	case "w":
		return now.AddDate(0, 0, amount*7), true
	case "m":
		return now.AddDate(0, amount, 0), true
	case "y":
		return now.AddDate(amount, 0, 0), true
	}
	return time.Time{}, false
}
