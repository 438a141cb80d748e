package domain

import (
	"fmt"
	"sort"
)

// BuildTimeline projects data points with a known source timestamp into
// events sorted by date. Equal dates keep insertion order.
func BuildTimeline(points []DataPoint) []TimelineEntry {
	entries := []TimelineEntry{}
	for _, dp := range points {
		if dp.Source.Timestamp.IsZero() {
			continue
		}
		entries = append(entries, TimelineEntry{
			Date:         dp.Source.Timestamp,
			Event:        fmt.Sprintf("%s: %s", dp.Key, ValueString(dp.Value)),
			Source:       dp.Source.ToolName,
			Significance: significanceFor(dp.Confidence),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	return entries
}

func significanceFor(confidence int) Significance {
	switch {
	case confidence > 75:
		return SignificanceHigh
	case confidence > 50:
		return SignificanceMedium
	default:
		return SignificanceLow
	}
}
