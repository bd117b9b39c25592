// Package prayer computes the next prayer from the day's five timings and
// fetches those timings from an external provider.
package prayer

import (
	"strconv"
	"strings"
	"time"
)

const (
	Fajr    = "Fajr"
	Dhuhr   = "Dhuhr"
	Asr     = "Asr"
	Maghrib = "Maghrib"
	Isha    = "Isha"
)

// Times holds HH:MM (24h) strings in the provider's own order.
type Times struct {
	Fajr    string `json:"Fajr"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

type Prayer struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// Ordered lists the prayers Fajr through Isha. The values are trusted to
// be ascending within the day.
func (t Times) Ordered() []Prayer {
	return []Prayer{
		{Name: Fajr, Time: t.Fajr},
		{Name: Dhuhr, Time: t.Dhuhr},
		{Name: Asr, Time: t.Asr},
		{Name: Maghrib, Time: t.Maghrib},
		{Name: Isha, Time: t.Isha},
	}
}

// Upcoming returns the first prayer strictly later than now's minute of
// the day. Once Isha has passed it wraps to Fajr, meaning tomorrow's. A nil
// Times is the empty state and yields ok=false.
func Upcoming(times *Times, now time.Time) (Prayer, bool) {
	if times == nil {
		return Prayer{}, false
	}
	current := now.Hour()*60 + now.Minute()
	for _, p := range times.Ordered() {
		m, ok := minuteOfDay(p.Time)
		if ok && m > current {
			return p, true
		}
	}
	return Prayer{Name: Fajr, Time: times.Fajr}, true
}

// minuteOfDay parses "HH:MM", ignoring any trailing zone annotation such as
// "04:51 (PKT)".
func minuteOfDay(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	hh, mm, found := strings.Cut(s, ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Format12h renders "15:45" as "3:45 pm"; unparseable input renders as
// the "--:--" placeholder.
func Format12h(s string) string {
	m, ok := minuteOfDay(s)
	if !ok {
		return "--:--"
	}
	t := time.Date(2000, 1, 1, m/60, m%60, 0, 0, time.UTC)
	return t.Format("3:04 pm")
}
