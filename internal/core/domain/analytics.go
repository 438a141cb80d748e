package domain

import "math"

// Recompute derives the analytics block from the session's data points and
// returns the session with the block replaced wholesale. The input session's
// data point slice is not modified.
func Recompute(s Session) Session {
	points := s.DataPoints

	tools := make(map[string]bool)
	total := 0
	for _, dp := range points {
		tools[dp.Source.ToolName] = true
		total += dp.Confidence
	}

	confidence := 0
	if len(points) > 0 {
		confidence = int(math.Round(float64(total) / float64(len(points))))
	}

	s.Analytics = Analytics{
		TotalDataPoints: len(points),
		ToolsUsed:       len(tools),
		ConfidenceScore: confidence,
		Patterns:        DetectPatterns(points),
		RiskAssessment:  ScoreRisk(points),
		Timeline:        BuildTimeline(points),
		Correlations:    []Correlation{},
		Geolocations:    []GeoPoint{},
		Networks:        []Network{},
	}
	return s
}
