package domain

import (
	"strings"
	"time"
)

// DefaultConfidence applies when neither the adapter nor the caller sets one.
const DefaultConfidence = 50

// Defaults are caller-supplied values merged into every draft.
type Defaults struct {
	Confidence *int
	Tags       []string
}

// Normalize turns an adapter draft into a DataPoint with an id, a confidence
// in [0,100], de-duplicated tags and complete provenance.
func Normalize(d Draft, defaults Defaults, now time.Time, newID func() string) DataPoint {
	dp := DataPoint{
		ID:            newID(),
		Type:          d.Type,
		Key:           strings.TrimSpace(d.Key),
		Value:         d.Value,
		Confidence:    ResolveConfidence(d.Confidence, defaults.Confidence),
		Tags:          MergeTags(d.Tags, defaults.Tags),
		Relationships: d.Relationships,
		Enrichment:    d.Enrichment,
		Source:        d.Source,
	}

	if !dp.Type.IsValid() {
		dp.Type = Other
	}
	if s, ok := dp.Value.(string); ok {
		dp.Value = strings.TrimSpace(s)
	}
	if dp.Key == "" {
		dp.Key = string(dp.Type)
	}

	dp.Source.ToolName = strings.TrimSpace(dp.Source.ToolName)
	if dp.Source.ToolName == "" {
		dp.Source.ToolName = DefaultToolName
	}
	if dp.Source.Timestamp.IsZero() {
		dp.Source.Timestamp = now
	}

	return dp
}

// ResolveConfidence picks the first in-range value of draft, fallback, 50.
func ResolveConfidence(draft, fallback *int) int {
	if draft != nil && validConfidence(*draft) {
		return *draft
	}
	if fallback != nil && validConfidence(*fallback) {
		return *fallback
	}
	return DefaultConfidence
}

func validConfidence(c int) bool {
	return c >= 0 && c <= 100
}

// MergeTags unions tag lists, dropping blanks and duplicates while keeping
// first-seen order.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, list := range lists {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			result = append(result, tag)
		}
	}
	return result
}
