package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var intervalPattern = regexp.MustCompile(`^(\d+)(s|m|h|d)$`)

// ParseInterval parses interval strings like "30s", "5m", "1h", "1d"
func ParseInterval(s string) (time.Duration, error) {
	matches := intervalPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid interval format: %s", s)
	}

	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid interval value: %s", s)
	}

	switch matches[2] {
	case "s":
		return time.Duration(value) * time.Second, nil
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	default:
		return time.Duration(value) * 24 * time.Hour, nil
	}
}

// IntervalFlag adapts a duration to flag.Value using ParseInterval syntax
type IntervalFlag struct {
	D *time.Duration
}

func (f IntervalFlag) String() string {
	if f.D == nil {
		return ""
	}
	return f.D.String()
}

// Set implements flag.Value
func (f IntervalFlag) Set(s string) error {
	d, err := ParseInterval(s)
	if err != nil {
		return err
	}
	*f.D = d
	return nil
}
