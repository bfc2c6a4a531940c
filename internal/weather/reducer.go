package weather

import (
	"sort"
	"time"
)

const (
	MaxForecastDays = 5
	DateLayout      = "2006-01-02"

	noon = 12
)

// LocalTime converts a UTC unix timestamp to wall-clock time at a location
// offset seconds from UTC. The result is expressed in time.UTC so that its
// Date and Hour are the local ones.
func LocalTime(ts int64, offset int) time.Time {
	return time.Unix(ts, 0).UTC().Add(time.Duration(offset) * time.Second)
}

// Today returns the local calendar date of now at the given offset.
func Today(now time.Time, offset int) string {
	return LocalTime(now.Unix(), offset).Format(DateLayout)
}

// closerToNoon reports whether candidate is strictly closer to 12:00 than
// current. Equal distances keep current.
func closerToNoon(candidate, current int) bool {
	return distanceFromNoon(candidate) < distanceFromNoon(current)
}

func distanceFromNoon(hour int) int {
	if hour < noon {
		return noon - hour
	}
	return hour - noon
}

type pick struct {
	entry RawEntry
	hour  int
}

// Reduce collapses a 3-hourly forecast into one entry per local date, keeping
// the entry whose local hour is closest to noon. Dates on or before today are
// dropped and at most MaxForecastDays dates are returned in ascending order.
// Entries without a temperature or condition are ignored.
func Reduce(entries []RawEntry, offset int, today string) []DailySummary {
	best := make(map[string]pick)

	for _, e := range entries {
		if !e.usable() {
			continue
		}

		local := LocalTime(e.Dt, offset)
		date := local.Format(DateLayout)

		cur, seen := best[date]
		if !seen || closerToNoon(local.Hour(), cur.hour) {
			best[date] = pick{entry: e, hour: local.Hour()}
		}
	}

	// YYYY-MM-DD sorts lexically in date order.
	dates := make([]string, 0, len(best))
	for date := range best {
		if date > today {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	if len(dates) > MaxForecastDays {
		dates = dates[:MaxForecastDays]
	}

	summaries := make([]DailySummary, 0, len(dates))
	for _, date := range dates {
		e := best[date].entry
		summaries = append(summaries, DailySummary{
			Date: date,
			Temp: *e.Main.Temp,
			Desc: e.Weather[0].Description,
			Icon: e.Weather[0].Icon,
		})
	}

	return summaries
}

// ReduceForecast reduces a forecast payload relative to now. A nil or
// unsuccessful payload yields an empty, non-nil slice.
func ReduceForecast(raw *RawForecast, now time.Time) []DailySummary {
	if raw == nil || (raw.Cod != 0 && !raw.Cod.OK()) {
		return []DailySummary{}
	}

	offset := raw.City.Timezone
	return Reduce(raw.List, offset, Today(now, offset))
}
