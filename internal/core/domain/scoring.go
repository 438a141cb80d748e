package domain

import (
	"math"
	"strings"
)

const (
	FactorBreach        = "Data breach involvement"
	FactorPassword      = "Password-related data"
	FactorCrypto        = "Cryptocurrency involvement"
	FactorLowConfidence = "Low confidence data"
	FactorCommonEmail   = "Common email pattern detected"
	FactorLongNumeric   = "Long numeric identifier"
	FactorDiversity     = "Multiple data types collected"
)

// Well-known free mail providers; addresses on these domains are cheap to
// create and commonly reused across accounts.
var FreeEmailProviders = []string{
	"gmail.com",
	"googlemail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"live.com",
	"aol.com",
	"icloud.com",
	"mail.com",
	"protonmail.com",
	"proton.me",
	"gmx.com",
	"yandex.com",
}

// ScoreRisk computes a heuristic risk assessment for a snapshot of data
// points. It is a pure function of its input.
//
// Per-occurrence rules (low confidence, free-provider email, long numeric
// identifier) add their points once per qualifying data point, but record
// their factor text only once.
func ScoreRisk(points []DataPoint) RiskAssessment {
	score := 0
	enriched := 0.0
	var factors []string
	addFactor := func(f string) {
		for _, existing := range factors {
			if existing == f {
				return
			}
		}
		factors = append(factors, f)
	}

	var hasBreach, hasPassword, hasCrypto bool
	types := make(map[DataPointType]bool)

	for _, dp := range points {
		types[dp.Type] = true

		if dp.Enrichment != nil && dp.Enrichment.RiskScore != nil {
			if r := *dp.Enrichment.RiskScore; !math.IsNaN(r) && !math.IsInf(r, 0) {
				enriched += r
			}
		}

		switch dp.Type {
		case BreachData:
			hasBreach = true
		case CryptocurrencyAddress:
			hasCrypto = true
		}

		key := strings.ToLower(dp.Key)
		if strings.Contains(key, "password") || strings.Contains(key, "hash") {
			hasPassword = true
		}
	}

	if hasBreach {
		score += 20
		addFactor(FactorBreach)
	}
	if hasPassword {
		score += 15
		addFactor(FactorPassword)
	}
	if hasCrypto {
		score += 10
		addFactor(FactorCrypto)
	}

	for _, dp := range points {
		if dp.Confidence < lowConfidenceThreshold {
			score += 5
			addFactor(FactorLowConfidence)
		}
	}

	for _, dp := range points {
		if dp.Type == Email && isFreeProvider(ValueString(dp.Value)) {
			score += 3
			addFactor(FactorCommonEmail)
		}
	}

	for _, dp := range points {
		if isLongNumeric(ValueString(dp.Value)) {
			score += 5
			addFactor(FactorLongNumeric)
		}
	}

	if len(types) > 3 {
		score += 8
		addFactor(FactorDiversity)
	}

	score = clampScore(enriched + float64(score))
	if factors == nil {
		factors = []string{}
	}

	return RiskAssessment{
		Level:   RiskLevelFor(score),
		Score:   score,
		Factors: factors,
	}
}

// RiskLevelFor maps a 0-100 score onto a level. Thresholds are exclusive:
// 76 is critical, 75 is high.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score > 75:
		return RiskCritical
	case score > 50:
		return RiskHigh
	case score > 25:
		return RiskMedium
	default:
		return RiskLow
	}
}

// clampScore bounds a summed score to [0,100] before converting it, so huge
// enrichment scores cannot overflow int.
func clampScore(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 100 {
		return 100
	}
	return int(math.Round(v))
}

func isFreeProvider(email string) bool {
	d := EmailDomain(email)
	if d == "" {
		return false
	}
	for _, provider := range FreeEmailProviders {
		if d == provider {
			return true
		}
	}
	return false
}

func isLongNumeric(value string) bool {
	if len(value) <= 10 {
		return false
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
