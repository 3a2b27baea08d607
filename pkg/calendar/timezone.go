package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/borgmon/adzan-reminder/pkg/models"
)

// ZoneFor returns a fixed zone for the location's GMT offset ("+7", "-3:30",
// "GMT+8"). Locations without a usable offset fall back to local time.
func ZoneFor(loc models.Location) *time.Location {
	offset, err := parseGMTOffset(loc.GMT)
	if err != nil {
		return time.Local
	}

	sign := "+"
	abs := offset
	if offset < 0 {
		sign = "-"
		abs = -offset
	}
	name := fmt.Sprintf("GMT%s%d", sign, abs/3600)
	if rem := abs % 3600; rem != 0 {
		name += fmt.Sprintf(":%02d", rem/60)
	}
	return time.FixedZone(name, offset)
}

// parseGMTOffset returns the offset in seconds east of UTC
func parseGMTOffset(gmt string) (int, error) {
	s := strings.TrimSpace(strings.ToUpper(gmt))
	s = strings.TrimPrefix(s, "GMT")
	s = strings.TrimPrefix(s, "UTC")
	if s == "" {
		return 0, fmt.Errorf("empty offset")
	}

	sign := 1
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}

	hh, mm, hasMinutes := strings.Cut(s, ":")
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 14 {
		return 0, fmt.Errorf("invalid offset %q", gmt)
	}
	minutes := 0
	if hasMinutes {
		minutes, err = strconv.Atoi(mm)
		if err != nil || minutes < 0 || minutes > 59 {
			return 0, fmt.Errorf("invalid offset %q", gmt)
		}
	}

	return sign * (hours*3600 + minutes*60), nil
}
