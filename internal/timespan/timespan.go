// Package timespan converts free-form plan durations into the compact
// RouterOS time token ("1d2h", "30m", ...) and back into time.Duration.
package timespan

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	tokenRe = regexp.MustCompile(`^(?:\d+d)?(?:\d+h)?(?:\d+m)?(?:\d+s)?$`)
	validRe = regexp.MustCompile(`^[0-9dhms]+$`)

	dayRe    = regexp.MustCompile(`(\d+)\s*d(?:ay)?s?\b`)
	clockRe  = regexp.MustCompile(`(\d+):(\d{2})(?::(\d{2}))?`)
	hourRe   = regexp.MustCompile(`(\d+)\s*h(?:ou)?rs?\b`)
	minuteRe = regexp.MustCompile(`(\d+)\s*m(?:in(?:ute)?s?)?\b`)
	secondRe = regexp.MustCompile(`(\d+)\s*s(?:ec(?:ond)?s?)?\b`)

	segmentRe = regexp.MustCompile(`(\d+)([dhms])`)
)

// Normalize produces the controller token for a duration expressed as text.
// It recognizes a day count, an HH:MM:SS component, and textual hour/minute/
// second counts, taking the first match for each unit class. The empty string
// means "no normalized value"; that is not an error. Already-normalized
// tokens pass through unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	if tokenRe.MatchString(raw) {
		return raw
	}

	var days, hours, minutes, seconds int
	if m := dayRe.FindStringSubmatch(raw); m != nil {
		days, _ = strconv.Atoi(m[1])
	}
	if m := clockRe.FindStringSubmatch(raw); m != nil {
		hours, _ = strconv.Atoi(m[1])
		minutes, _ = strconv.Atoi(m[2])
		if m[3] != "" {
			seconds, _ = strconv.Atoi(m[3])
		}
	} else {
		if m := hourRe.FindStringSubmatch(raw); m != nil {
			hours, _ = strconv.Atoi(m[1])
		}
		if m := minuteRe.FindStringSubmatch(raw); m != nil {
			minutes, _ = strconv.Atoi(m[1])
		}
		if m := secondRe.FindStringSubmatch(raw); m != nil {
			seconds, _ = strconv.Atoi(m[1])
		}
	}

	out := ""
	if days > 0 {
		out += fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		out += fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 {
		out += fmt.Sprintf("%dm", minutes)
	}
	// Sub-minute durations stay representable, but seconds never ride along
	// with a coarser unit.
	if seconds > 0 && out == "" {
		out = fmt.Sprintf("%ds", seconds)
	}
	if out == "" || !validRe.MatchString(out) {
		return ""
	}
	return out
}

// Duration parses a normalized token into a time.Duration. The second return
// is false for empty or malformed tokens.
func Duration(token string) (time.Duration, bool) {
	if token == "" || !tokenRe.MatchString(token) {
		return 0, false
	}
	var total time.Duration
	matched := 0
	for _, m := range segmentRe.FindAllStringSubmatch(token, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		matched += len(m[0])
		switch m[2] {
		case "d":
			total += time.Duration(n) * 24 * time.Hour
		case "h":
			total += time.Duration(n) * time.Hour
		case "m":
			total += time.Duration(n) * time.Minute
		case "s":
			total += time.Duration(n) * time.Second
		}
	}
	if matched != len(token) || total == 0 {
		return 0, false
	}
	return total, true
}
