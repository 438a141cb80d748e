package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type DataPointType string

const (
	Email                 DataPointType = "email"
	Domain                DataPointType = "domain"
	IPAddress             DataPointType = "ip"
	Username              DataPointType = "username"
	Phone                 DataPointType = "phone"
	Name                  DataPointType = "name"
	Company               DataPointType = "company"
	Hash                  DataPointType = "hash"
	URL                   DataPointType = "url"
	Image                 DataPointType = "image"
	Coordinates           DataPointType = "coordinates"
	SocialProfile         DataPointType = "social-profile"
	CryptocurrencyAddress DataPointType = "cryptocurrency-address"
	File                  DataPointType = "file"
	Text                  DataPointType = "text"
	BreachData            DataPointType = "breach-data"
	NetworkData           DataPointType = "network-data"
	Metadata              DataPointType = "metadata"
	Geolocation           DataPointType = "geolocation"
	Temporal              DataPointType = "temporal"
	Other                 DataPointType = "other"
)

var AllDataPointTypes = []DataPointType{
	Email, Domain, IPAddress, Username, Phone, Name, Company, Hash, URL, Image,
	Coordinates, SocialProfile, CryptocurrencyAddress, File, Text, BreachData,
	NetworkData, Metadata, Geolocation, Temporal, Other,
}

func (t DataPointType) IsValid() bool {
	for _, valid := range AllDataPointTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// Qualitative reliability levels. Numeric reliabilities are kept as their
// decimal text (e.g. "0.8").
const (
	ReliabilityLow    = "low"
	ReliabilityMedium = "medium"
	ReliabilityHigh   = "high"
)

// DefaultToolName is recorded when a data point arrives without provenance.
const DefaultToolName = "Manual Entry"

// DataPoint is one atomic intelligence fact attached to a session.
type DataPoint struct {
	ID            string         `json:"id"`
	Type          DataPointType  `json:"type"`
	Key           string         `json:"key"`
	Value         any            `json:"value"`
	Confidence    int            `json:"confidence"`
	Tags          []string       `json:"tags"`
	Relationships []Relationship `json:"relationships,omitempty"`
	Enrichment    *Enrichment    `json:"enrichment,omitempty"`
	Source        Source         `json:"source"`
}

type Relationship struct {
	RelatedTo        string  `json:"relatedTo"`
	RelationshipType string  `json:"relationshipType"`
	Strength         float64 `json:"strength"`
}

type Enrichment struct {
	Verified           bool      `json:"verified"`
	VerificationSource string    `json:"verificationSource,omitempty"`
	AdditionalContext  string    `json:"additionalContext,omitempty"`
	RiskScore          *float64  `json:"riskScore,omitempty"`
	LastUpdated        time.Time `json:"lastUpdated,omitempty"`
}

type Source struct {
	ToolName    string    `json:"toolName"`
	Category    string    `json:"category,omitempty"`
	Reliability string    `json:"reliability,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Draft is what a source adapter produces before normalization.
// A nil Confidence means the adapter did not set one.
type Draft struct {
	Type          DataPointType
	Key           string
	Value         any
	Confidence    *int
	Tags          []string
	Relationships []Relationship
	Enrichment    *Enrichment
	Source        Source
}

// ValueString renders an opaque value as text. Strings are returned as-is,
// everything else is JSON encoded.
func ValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// HasTag reports whether the data point carries tag (case-sensitive).
func (dp DataPoint) HasTag(tag string) bool {
	for _, t := range dp.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Matches reports whether query appears in the key or value, ignoring case.
func (dp DataPoint) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(dp.Key), q) ||
		strings.Contains(strings.ToLower(ValueString(dp.Value)), q)
}

// IntPtr is a convenience for adapters setting explicit confidences.
func IntPtr(v int) *int {
	return &v
}

// Clone copies the data point's slices and enrichment. Value is opaque and
// shared.
func (dp DataPoint) Clone() DataPoint {
	dp.Tags = append(make([]string, 0, len(dp.Tags)), dp.Tags...)
	if dp.Relationships != nil {
		dp.Relationships = append([]Relationship(nil), dp.Relationships...)
	}
	if dp.Enrichment != nil {
		e := *dp.Enrichment
		if e.RiskScore != nil {
			score := *e.RiskScore
			e.RiskScore = &score
		}
		dp.Enrichment = &e
	}
	return dp
}
