package exporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/fusion/internal/core/domain"
)

// STIXExporter renders a session as a STIX 2.1 bundle: one indicator per
// observable data point plus a report object that references them.
type STIXExporter struct {
	now func() time.Time
}

func NewSTIXExporter() *STIXExporter {
	return &STIXExporter{now: func() time.Time { return time.Now().UTC() }}
}

func (e *STIXExporter) Export(session domain.Session) (string, error) {
	now := e.now().Format(time.RFC3339)

	bundle := STIXBundle{
		Type:    "bundle",
		ID:      fmt.Sprintf("bundle--%s", uuid.New().String()),
		Objects: []STIXObject{},
	}

	var refs []string
	for _, dp := range session.DataPoints {
		pattern, ok := buildPattern(dp)
		if !ok {
			continue
		}
		indicator := STIXObject{
			Type:           "indicator",
			SpecVersion:    "2.1",
			ID:             fmt.Sprintf("indicator--%s", uuid.New().String()),
			Created:        now,
			Modified:       now,
			Name:           fmt.Sprintf("%s: %s", dp.Key, domain.ValueString(dp.Value)),
			Pattern:        pattern,
			PatternType:    "stix",
			ValidFrom:      dp.Source.Timestamp.UTC().Format(time.RFC3339),
			IndicatorTypes: indicatorTypes(dp),
			Confidence:     dp.Confidence,
			Labels:         dp.Tags,
			ExternalReferences: []ExternalReference{
				{SourceName: dp.Source.ToolName},
			},
		}
		refs = append(refs, indicator.ID)
		bundle.Objects = append(bundle.Objects, indicator)
	}

	risk := session.Analytics.RiskAssessment
	report := STIXObject{
		Type:        "report",
		SpecVersion: "2.1",
		ID:          fmt.Sprintf("report--%s", uuid.New().String()),
		Created:     session.CreatedAt.UTC().Format(time.RFC3339),
		Modified:    now,
		Name:        session.Title,
		Description: fmt.Sprintf("Risk %s (%d/100). Factors: %s", risk.Level, risk.Score, strings.Join(risk.Factors, "; ")),
		Published:   now,
		ReportTypes: []string{"threat-report"},
		Confidence:  session.Analytics.ConfidenceScore,
		Labels:      session.Tags,
		ObjectRefs:  refs,
	}
	if len(report.ObjectRefs) == 0 {
		// object_refs must not be empty
		report.ObjectRefs = []string{bundle.ID}
	}
	bundle.Objects = append(bundle.Objects, report)

	jsonData, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal STIX bundle: %w", err)
	}

	return string(jsonData), nil
}

// buildPattern returns a STIX pattern for observable types only.
func buildPattern(dp domain.DataPoint) (string, bool) {
	value := escapePattern(domain.ValueString(dp.Value))
	switch dp.Type {
	case domain.IPAddress:
		if strings.Contains(value, ":") {
			return fmt.Sprintf("[ipv6-addr:value = '%s']", value), true
		}
		return fmt.Sprintf("[ipv4-addr:value = '%s']", value), true
	case domain.Domain:
		return fmt.Sprintf("[domain-name:value = '%s']", value), true
	case domain.URL:
		return fmt.Sprintf("[url:value = '%s']", value), true
	case domain.Email:
		return fmt.Sprintf("[email-addr:value = '%s']", value), true
	case domain.Hash:
		return fmt.Sprintf("[file:hashes.'%s' = '%s']", detectHashType(value), value), true
	case domain.CryptocurrencyAddress:
		return fmt.Sprintf("[x-cryptocurrency-address:value = '%s']", value), true
	case domain.Username, domain.SocialProfile:
		return fmt.Sprintf("[user-account:account_login = '%s']", value), true
	}
	return "", false
}

func indicatorTypes(dp domain.DataPoint) []string {
	if dp.Type == domain.BreachData || dp.HasTag("breach") {
		return []string{"compromised"}
	}
	if dp.Enrichment != nil && dp.Enrichment.RiskScore != nil && *dp.Enrichment.RiskScore > 50 {
		return []string{"malicious-activity"}
	}
	return []string{"unknown"}
}

func escapePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func detectHashType(hash string) string {
	switch len(hash) {
	case 32:
		return "MD5"
	case 40:
		return "SHA-1"
	case 128:
		return "SHA-512"
	default:
		return "SHA-256"
	}
}

// STIX 2.1 data structures

type STIXBundle struct {
	Type    string       `json:"type"`
	ID      string       `json:"id"`
	Objects []STIXObject `json:"objects"`
}

type STIXObject struct {
	Type               string              `json:"type"`
	SpecVersion        string              `json:"spec_version"`
	ID                 string              `json:"id"`
	Created            string              `json:"created"`
	Modified           string              `json:"modified"`
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	Pattern            string              `json:"pattern,omitempty"`
	PatternType        string              `json:"pattern_type,omitempty"`
	ValidFrom          string              `json:"valid_from,omitempty"`
	IndicatorTypes     []string            `json:"indicator_types,omitempty"`
	Published          string              `json:"published,omitempty"`
	ReportTypes        []string            `json:"report_types,omitempty"`
	ObjectRefs         []string            `json:"object_refs,omitempty"`
	Confidence         int                 `json:"confidence"`
	Labels             []string            `json:"labels,omitempty"`
	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
}

type ExternalReference struct {
	SourceName string `json:"source_name"`
	URL        string `json:"url,omitempty"`
}
