package prices

import (
	"fmt"
	"strings"
	"time"
)

// Regions are the Norwegian bidding zones served by the price API.
var Regions = []string{"NO1", "NO2", "NO3", "NO4", "NO5"}

var regionNames = map[string]string{
	"NO1": "Oslo / Øst-Norge",
	"NO2": "Kristiansand / Sør-Norge",
	"NO3": "Trondheim / Midt-Norge",
	"NO4": "Tromsø / Nord-Norge",
	"NO5": "Bergen / Vest-Norge",
}

// Oslo is the zone the price API publishes its days in.
var Oslo = loadOslo()

func loadOslo() *time.Location {
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		return time.FixedZone("CET", 60*60)
	}
	return loc
}

// ParseRegion normalizes and validates a bidding zone code.
func ParseRegion(s string) (string, error) {
	r := strings.ToUpper(strings.TrimSpace(s))
	if _, ok := regionNames[r]; !ok {
		return "", fmt.Errorf("unknown region %q (want one of %s)", s, strings.Join(Regions, ", "))
	}
	return r, nil
}

// RegionName returns a human label for a bidding zone.
func RegionName(region string) string {
	if name, ok := regionNames[region]; ok {
		return name
	}
	return region
}

// ParseDate parses YYYY-MM-DD as a calendar day in Oslo time. "today" and
// "tomorrow" are relative to now; an empty string means today.
func ParseDate(s string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return Today(now), nil
	case "tomorrow":
		return Today(now).AddDate(0, 0, 1), nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, Oslo)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

// Today returns midnight of now's calendar day in Oslo.
func Today(now time.Time) time.Time {
	t := now.In(Oslo)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Oslo)
}
