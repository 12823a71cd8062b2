package leads

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate reports whether s matches YYYY-MM-DD and parses to a real
// calendar date.
func ValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// To24Hour converts a human-entered 12-hour label ("02:30 PM") to 24-hour
// "HH:MM" form, which is string-comparable for ordering checks.
func To24Hour(label string) (string, error) {
	t, err := time.Parse("03:04 PM", strings.ToUpper(strings.TrimSpace(label)))
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM AM/PM", label)
	}
	return t.Format("15:04"), nil
}
