package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"
)

func point(t DataPointType, key string, value any, confidence int) DataPoint {
	return DataPoint{
		ID:         fmt.Sprintf("%s-%v", t, value),
		Type:       t,
		Key:        key,
		Value:      value,
		Confidence: confidence,
		Tags:       []string{},
		Source:     Source{ToolName: "Manual Entry"},
	}
}

func findPattern(patterns []Pattern, typ string, strength int) *Pattern {
	for i := range patterns {
		if patterns[i].Type == typ && patterns[i].Strength == strength {
			return &patterns[i]
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestDetectPatterns_EmailDomainCorrelation(t *testing.T) {
	points := []DataPoint{
		point(Email, "Email", "a@x.com", 90),
		point(Domain, "Domain", "x.com", 95),
	}

	patterns := DetectPatterns(points)

	p := findPattern(patterns, PatternCorrelation, 85)
	if p == nil {
		t.Fatalf("expected correlation pattern with strength 85, got %+v", patterns)
	}
	if !contains(p.Evidence, "x.com") {
		t.Errorf("expected evidence to contain x.com, got %v", p.Evidence)
	}

	risk := ScoreRisk(points)
	for _, f := range risk.Factors {
		if f == FactorBreach || f == FactorCrypto {
			t.Errorf("unexpected factor %q", f)
		}
	}
	if risk.Score != 0 {
		t.Errorf("expected structural risk 0 with two types, got %d", risk.Score)
	}
}

func TestDetectPatterns_Duplicates(t *testing.T) {
	points := []DataPoint{
		point(Domain, "Domain", "a.com", 90),
		point(Domain, "Domain", "a.com", 90),
		point(Domain, "Domain", "b.com", 90),
		point(Domain, "Domain", "a.com", 90),
	}

	patterns := DetectPatterns(points)
	var dup *Pattern
	for i := range patterns {
		if patterns[i].Type == PatternDuplicate {
			dup = &patterns[i]
		}
	}
	if dup == nil {
		t.Fatal("expected duplicate pattern")
	}
	if dup.Strength != 50 {
		t.Errorf("expected strength 50 (2 repeats of 4), got %d", dup.Strength)
	}
	if !reflect.DeepEqual(dup.Evidence, []string{"a.com"}) {
		t.Errorf("expected evidence [a.com], got %v", dup.Evidence)
	}
}

func TestDetectPatterns_SingletonGroupHasNoDuplicates(t *testing.T) {
	patterns := DetectPatterns([]DataPoint{point(Domain, "Domain", "a.com", 60)})
	for _, p := range patterns {
		if p.Type == PatternDuplicate {
			t.Errorf("unexpected duplicate pattern %+v", p)
		}
	}
}

func TestDetectPatterns_LowConfidencePerGroup(t *testing.T) {
	points := []DataPoint{
		point(IPAddress, "IP", "1.1.1.1", 30),
		point(IPAddress, "IP", "2.2.2.2", 60),
		point(IPAddress, "IP", "3.3.3.3", 40),
		point(IPAddress, "IP", "4.4.4.4", 70),
		point(Username, "User", "bob", 10),
	}

	var low []Pattern
	for _, p := range DetectPatterns(points) {
		if p.Type == PatternLowConfidence {
			low = append(low, p)
		}
	}
	if len(low) != 2 {
		t.Fatalf("expected one low-confidence pattern per group, got %d", len(low))
	}
	if low[0].Strength != 50 {
		t.Errorf("expected ip group strength 50, got %d", low[0].Strength)
	}
	if low[1].Strength != 100 {
		t.Errorf("expected username group strength 100, got %d", low[1].Strength)
	}
}

func TestDetectPatterns_FixedStrengthSignals(t *testing.T) {
	points := []DataPoint{
		point(SocialProfile, "Twitter", "https://twitter.com/bob", 60),
		point(IPAddress, "IP", "10.0.0.1", 85),
		point(Domain, "Domain", "corp.io", 70),
	}

	patterns := DetectPatterns(points)

	social := findPattern(patterns, PatternSocial, 70)
	if social == nil || !contains(social.Evidence, "https://twitter.com/bob") {
		t.Errorf("expected social pattern, got %+v", patterns)
	}

	trend := findPattern(patterns, PatternTrend, 90)
	if trend == nil || !reflect.DeepEqual(trend.Evidence, []string{"IP: 10.0.0.1"}) {
		t.Errorf("expected trend pattern with key: value evidence, got %+v", trend)
	}

	if findPattern(patterns, PatternCorrelation, 75) == nil {
		t.Errorf("expected ip+domain co-presence pattern, got %+v", patterns)
	}
	if findPattern(patterns, PatternCorrelation, 85) != nil {
		t.Errorf("no email present, email-domain correlation should not fire")
	}
}

func TestDetectPatterns_Empty(t *testing.T) {
	patterns := DetectPatterns(nil)
	if patterns == nil || len(patterns) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", patterns)
	}
}

func riskPoints(n int, t DataPointType, confidence int) []DataPoint {
	var points []DataPoint
	for i := 0; i < n; i++ {
		points = append(points, point(t, "Note", fmt.Sprintf("v%d", i), confidence))
	}
	return points
}

func TestScoreRisk_LevelBoundaries(t *testing.T) {
	withEnrichment := func(score float64) []DataPoint {
		dp := point(Text, "Note", "n", 60)
		dp.Enrichment = &Enrichment{RiskScore: &score}
		return []DataPoint{dp}
	}

	tests := []struct {
		score int
		level RiskLevel
	}{
		{76, RiskCritical},
		{75, RiskHigh},
		{51, RiskHigh},
		{50, RiskMedium},
		{26, RiskMedium},
		{25, RiskLow},
		{0, RiskLow},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score_%d", tt.score), func(t *testing.T) {
			risk := ScoreRisk(withEnrichment(float64(tt.score)))
			if risk.Score != tt.score {
				t.Fatalf("expected score %d, got %d", tt.score, risk.Score)
			}
			if risk.Level != tt.level {
				t.Errorf("expected level %s, got %s", tt.level, risk.Level)
			}
		})
	}
}

func TestScoreRisk_Factors(t *testing.T) {
	points := []DataPoint{
		point(BreachData, "Breach", "Adobe", 90),
		point(Hash, "Password Hash", "5f4dcc3b5aa765d61d8327deb882cf99", 90),
		point(CryptocurrencyAddress, "BTC", "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", 80),
		point(Email, "Email", "someone@gmail.com", 80),
	}

	risk := ScoreRisk(points)

	// 20 breach + 15 password + 10 crypto + 3 free email + 8 diversity
	if risk.Score != 56 {
		t.Errorf("expected score 56, got %d", risk.Score)
	}
	if risk.Level != RiskHigh {
		t.Errorf("expected high, got %s", risk.Level)
	}
	want := []string{FactorBreach, FactorPassword, FactorCrypto, FactorCommonEmail, FactorDiversity}
	if !reflect.DeepEqual(risk.Factors, want) {
		t.Errorf("expected factors %v, got %v", want, risk.Factors)
	}
}

func TestScoreRisk_LowConfidenceAddsPerPointFactorOnce(t *testing.T) {
	risk := ScoreRisk(riskPoints(3, Text, 20))

	if risk.Score != 15 {
		t.Errorf("expected +5 per low-confidence point (15), got %d", risk.Score)
	}
	count := 0
	for _, f := range risk.Factors {
		if f == FactorLowConfidence {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected factor %q exactly once, got %d", FactorLowConfidence, count)
	}
}

func TestScoreRisk_LongNumericAndClamp(t *testing.T) {
	risk := ScoreRisk([]DataPoint{point(Phone, "Phone", "12345678901", 90)})
	if risk.Score != 5 || !contains(risk.Factors, FactorLongNumeric) {
		t.Errorf("expected long numeric +5, got %+v", risk)
	}

	risk = ScoreRisk([]DataPoint{point(Phone, "Phone", "1234567890", 90)})
	if risk.Score != 0 {
		t.Errorf("10 digits is not long, got %d", risk.Score)
	}

	risk = ScoreRisk(riskPoints(40, Text, 10))
	if risk.Score != 100 || risk.Level != RiskCritical {
		t.Errorf("expected clamp to 100 critical, got %+v", risk)
	}
}

func TestScoreRisk_EnrichmentRiskScoreBounded(t *testing.T) {
	enriched := func(scores ...float64) []DataPoint {
		var points []DataPoint
		for i, r := range scores {
			r := r
			dp := point(Text, "Note", fmt.Sprintf("note-%d", i), 90)
			dp.Enrichment = &Enrichment{RiskScore: &r}
			points = append(points, dp)
		}
		return points
	}

	tests := []struct {
		name   string
		scores []float64
		want   int
	}{
		{"huge score clamps to 100", []float64{1e300}, 100},
		{"sum beyond int range clamps to 100", []float64{9.2e18, 9.2e18}, 100},
		{"huge negative clamps to 0", []float64{-1e300}, 0},
		{"NaN is ignored", []float64{math.NaN()}, 0},
		{"infinity is ignored", []float64{math.Inf(1), 30}, 30},
		{"ordinary scores add up", []float64{12.4, 20}, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := ScoreRisk(enriched(tt.scores...))
			if risk.Score != tt.want {
				t.Errorf("expected score %d, got %d", tt.want, risk.Score)
			}
			if risk.Level != RiskLevelFor(tt.want) {
				t.Errorf("expected level %s, got %s", RiskLevelFor(tt.want), risk.Level)
			}
		})
	}
}

func TestAnalysesArePure(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []DataPoint{
		point(Email, "Email", "a@x.com", 90),
		point(Domain, "Domain", "x.com", 40),
		point(Domain, "Domain", "x.com", 95),
		point(BreachData, "Breach", "LinkedIn", 90),
		point(SocialProfile, "GitHub", "https://github.com/a", 60),
	}
	for i := range points {
		points[i].Source.Timestamp = base.Add(time.Duration(len(points)-i) * time.Hour)
	}

	first, _ := json.Marshal([]any{DetectPatterns(points), ScoreRisk(points), BuildTimeline(points)})
	second, _ := json.Marshal([]any{DetectPatterns(points), ScoreRisk(points), BuildTimeline(points)})
	if string(first) != string(second) {
		t.Errorf("analyses are not deterministic:\n%s\n%s", first, second)
	}
}

func TestBuildTimeline_SortedAndStable(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := []DataPoint{
		point(Domain, "late", "c.com", 90),
		point(Domain, "tie-first", "a.com", 60),
		point(Domain, "no-time", "z.com", 60),
		point(Domain, "tie-second", "b.com", 30),
		point(Domain, "early", "d.com", 76),
	}
	points[0].Source.Timestamp = t0.Add(48 * time.Hour)
	points[1].Source.Timestamp = t0.Add(24 * time.Hour)
	points[3].Source.Timestamp = t0.Add(24 * time.Hour)
	points[4].Source.Timestamp = t0

	timeline := BuildTimeline(points)

	var events []string
	for _, e := range timeline {
		events = append(events, e.Event)
	}
	want := []string{"early: d.com", "tie-first: a.com", "tie-second: b.com", "late: c.com"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("expected %v, got %v", want, events)
	}

	if timeline[0].Significance != SignificanceHigh ||
		timeline[1].Significance != SignificanceMedium ||
		timeline[2].Significance != SignificanceLow {
		t.Errorf("unexpected significance mapping: %+v", timeline)
	}
	if timeline[0].Source != "Manual Entry" {
		t.Errorf("expected tool name as source, got %q", timeline[0].Source)
	}
}

func TestRecompute_Invariants(t *testing.T) {
	s := Recompute(Session{ID: "s1"})
	if s.Analytics.TotalDataPoints != 0 || s.Analytics.ConfidenceScore != 0 || s.Analytics.ToolsUsed != 0 {
		t.Errorf("empty session should have zeroed analytics, got %+v", s.Analytics)
	}
	if s.Analytics.RiskAssessment.Level != RiskLow {
		t.Errorf("empty session risk should be low, got %s", s.Analytics.RiskAssessment.Level)
	}

	a := point(Email, "Email", "a@x.com", 90)
	b := point(Domain, "Domain", "x.com", 95)
	b.Source.ToolName = "WHOIS"
	c := point(Domain, "Domain", "y.com", 50)
	c.Source.ToolName = "WHOIS"

	s.DataPoints = []DataPoint{a, b, c}
	s = Recompute(s)

	if s.Analytics.TotalDataPoints != 3 {
		t.Errorf("expected 3 data points, got %d", s.Analytics.TotalDataPoints)
	}
	if s.Analytics.ToolsUsed != 2 {
		t.Errorf("expected 2 tools, got %d", s.Analytics.ToolsUsed)
	}
	// mean of 90, 95, 50 = 78.33
	if s.Analytics.ConfidenceScore != 78 {
		t.Errorf("expected confidence 78, got %d", s.Analytics.ConfidenceScore)
	}
	if s.Analytics.Correlations == nil || s.Analytics.Geolocations == nil || s.Analytics.Networks == nil {
		t.Error("extension points should be empty, not nil")
	}
}
