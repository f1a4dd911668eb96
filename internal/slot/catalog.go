// Package slot holds the studio's fixed daily booking windows.
//
// The catalog is a static table: five two-hour blocks with a lunch gap, identical
// for every artist, service and day.
package slot

import (
	"fmt"
	"strconv"
	"strings"
)

// Slot is one bookable window. Start is the canonical HH:MM value stored on
// bookings, Display the human range shown next to it.
type Slot struct {
	Start   string `json:"value"`
	Display string `json:"display"`
}

// missingDisplay is shown when a booking carries no time at all.
const missingDisplay = "N/A"

var catalog = []Slot{
	{Start: "08:00", Display: "8:00am-10:00am"},
	{Start: "10:00", Display: "10:00am-12:00pm"},
	{Start: "13:00", Display: "1:00pm-3:00pm"},
	{Start: "15:00", Display: "3:00pm-5:00pm"},
	{Start: "17:00", Display: "5:00pm-7:00pm"},
}

var displayByStart = func() map[string]string {
	m := make(map[string]string, len(catalog))
	for _, s := range catalog {
		m[s.Start] = s.Display
	}
	return m
}()

// All returns the catalog in ascending start order. The slice is a copy.
func All() []Slot {
	out := make([]Slot, len(catalog))
	copy(out, catalog)
	return out
}

// DisplayFor maps a start time to its display range. Seconds are ignored and
// unknown starts come back normalized but otherwise unchanged.
func DisplayFor(start string) string {
	if strings.TrimSpace(start) == "" {
		return missingDisplay
	}
	n := Normalize(start)
	if d, ok := displayByStart[n]; ok {
		return d
	}
	return n
}

// IsCatalogStart reports whether start names one of the catalog windows.
func IsCatalogStart(start string) bool {
	_, ok := displayByStart[Normalize(start)]
	return ok
}

// Available returns all minus every slot whose start appears in taken,
// keeping the order of all.
func Available(all []Slot, taken []string) []Slot {
	excluded := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		excluded[Normalize(t)] = struct{}{}
	}

	out := make([]Slot, 0, len(all))
	for _, s := range all {
		if _, ok := excluded[Normalize(s.Start)]; ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Normalize turns "H:MM", "HH:MM" or "HH:MM:SS" into "HH:MM". Anything it
// cannot parse is returned trimmed.
func Normalize(start string) string {
	start = strings.TrimSpace(start)
	h, m, ok := ParseStart(start)
	if !ok {
		return start
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ParseStart extracts hour and minute from a time-of-day string. Every part
// must be plain ASCII digits.
func ParseStart(start string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(start), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, false
	}
	if len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	for _, p := range parts {
		if !isDigits(p) {
			return 0, 0, false
		}
	}

	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	if len(parts) == 3 {
		if len(parts[2]) != 2 {
			return 0, 0, false
		}
		if sec, _ := strconv.Atoi(parts[2]); sec > 59 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
