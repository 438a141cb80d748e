package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	PatternDuplicate     = "duplicate"
	PatternLowConfidence = "low_confidence"
	PatternCorrelation   = "correlation"
	PatternSocial        = "social"
	PatternTrend         = "trend"
)

const (
	lowConfidenceThreshold  = 50
	highConfidenceThreshold = 80

	emailDomainStrength = 85
	socialStrength      = 70
	trendStrength       = 90
	ipDomainStrength    = 75
)

// DetectPatterns runs every pattern check over a snapshot of data points.
// It is a pure function: identical input always yields identical output.
func DetectPatterns(points []DataPoint) []Pattern {
	patterns := []Pattern{}

	for _, group := range groupByType(points) {
		if p, ok := duplicatePattern(group); ok {
			patterns = append(patterns, p)
		}
		if p, ok := lowConfidencePattern(group); ok {
			patterns = append(patterns, p)
		}
	}

	if p, ok := emailDomainCorrelation(points); ok {
		patterns = append(patterns, p)
	}
	if p, ok := socialPresence(points); ok {
		patterns = append(patterns, p)
	}
	if p, ok := highConfidenceTrend(points); ok {
		patterns = append(patterns, p)
	}
	if p, ok := ipDomainCoPresence(points); ok {
		patterns = append(patterns, p)
	}

	return patterns
}

type typeGroup struct {
	dataType DataPointType
	points   []DataPoint
}

// groupByType buckets points by type, ordered by first appearance.
func groupByType(points []DataPoint) []typeGroup {
	index := make(map[DataPointType]int)
	var groups []typeGroup
	for _, dp := range points {
		i, ok := index[dp.Type]
		if !ok {
			i = len(groups)
			index[dp.Type] = i
			groups = append(groups, typeGroup{dataType: dp.Type})
		}
		groups[i].points = append(groups[i].points, dp)
	}
	return groups
}

func duplicatePattern(g typeGroup) (Pattern, bool) {
	if len(g.points) < 2 {
		return Pattern{}, false
	}

	seen := make(map[string]bool)
	flagged := make(map[string]bool)
	var evidence []string
	duplicates := 0

	for _, dp := range g.points {
		v := ValueString(dp.Value)
		if !seen[v] {
			seen[v] = true
			continue
		}
		duplicates++
		if !flagged[v] {
			flagged[v] = true
			evidence = append(evidence, v)
		}
	}

	if duplicates == 0 {
		return Pattern{}, false
	}

	return Pattern{
		Type:        PatternDuplicate,
		Description: fmt.Sprintf("Duplicate %s values detected", g.dataType),
		Strength:    ratioStrength(duplicates, len(g.points)),
		Evidence:    evidence,
	}, true
}

func lowConfidencePattern(g typeGroup) (Pattern, bool) {
	low := 0
	var evidence []string
	for _, dp := range g.points {
		if dp.Confidence < lowConfidenceThreshold {
			low++
			evidence = append(evidence, ValueString(dp.Value))
		}
	}
	if low == 0 {
		return Pattern{}, false
	}

	return Pattern{
		Type:        PatternLowConfidence,
		Description: fmt.Sprintf("%d low-confidence %s data points", low, g.dataType),
		Strength:    ratioStrength(low, len(g.points)),
		Evidence:    evidence,
	}, true
}

// emailDomainCorrelation links email addresses to collected domains that
// contain the address domain.
func emailDomainCorrelation(points []DataPoint) (Pattern, bool) {
	emails := valuesOfType(points, Email)
	domains := valuesOfType(points, Domain)
	if len(emails) == 0 || len(domains) == 0 {
		return Pattern{}, false
	}

	var emailDomains []string
	for _, e := range emails {
		if d := EmailDomain(e); d != "" {
			emailDomains = append(emailDomains, d)
		}
	}

	var evidence []string
	seen := make(map[string]bool)
	for _, d := range domains {
		lower := strings.ToLower(d)
		for _, ed := range emailDomains {
			if strings.Contains(lower, ed) && !seen[d] {
				seen[d] = true
				evidence = append(evidence, d)
			}
		}
	}

	if len(evidence) == 0 {
		return Pattern{}, false
	}

	return Pattern{
		Type:        PatternCorrelation,
		Description: "Email addresses share domains with collected domain records",
		Strength:    emailDomainStrength,
		Evidence:    evidence,
	}, true
}

func socialPresence(points []DataPoint) (Pattern, bool) {
	profiles := valuesOfType(points, SocialProfile)
	if len(profiles) == 0 {
		return Pattern{}, false
	}
	return Pattern{
		Type:        PatternSocial,
		Description: fmt.Sprintf("Social media presence across %d profiles", len(profiles)),
		Strength:    socialStrength,
		Evidence:    profiles,
	}, true
}

func highConfidenceTrend(points []DataPoint) (Pattern, bool) {
	var evidence []string
	for _, dp := range points {
		if dp.Confidence >= highConfidenceThreshold {
			evidence = append(evidence, fmt.Sprintf("%s: %s", dp.Key, ValueString(dp.Value)))
		}
	}
	if len(evidence) == 0 {
		return Pattern{}, false
	}
	return Pattern{
		Type:        PatternTrend,
		Description: fmt.Sprintf("%d high-confidence data points", len(evidence)),
		Strength:    trendStrength,
		Evidence:    evidence,
	}, true
}

func ipDomainCoPresence(points []DataPoint) (Pattern, bool) {
	ips := valuesOfType(points, IPAddress)
	domains := valuesOfType(points, Domain)
	if len(ips) == 0 || len(domains) == 0 {
		return Pattern{}, false
	}
	return Pattern{
		Type:        PatternCorrelation,
		Description: "IP addresses and domains collected together; infrastructure may be related",
		Strength:    ipDomainStrength,
		Evidence:    []string{fmt.Sprintf("%d ip addresses", len(ips)), fmt.Sprintf("%d domains", len(domains))},
	}, true
}

func valuesOfType(points []DataPoint, t DataPointType) []string {
	var values []string
	for _, dp := range points {
		if dp.Type == t {
			values = append(values, ValueString(dp.Value))
		}
	}
	return values
}

func ratioStrength(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return clampPercent(int(math.Round(float64(part) / float64(whole) * 100)))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
