package domain

import "time"

type TargetType string

const (
	TargetPerson        TargetType = "person"
	TargetOrganization  TargetType = "organization"
	TargetDomain        TargetType = "domain"
	TargetIP            TargetType = "ip"
	TargetIncident      TargetType = "incident"
	TargetInvestigation TargetType = "investigation"
	TargetThreat        TargetType = "threat"
	TargetOther         TargetType = "other"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
	StatusSuspended Status = "suspended"
)

// Session is the aggregation root of an investigation. Analytics is derived
// from DataPoints by Recompute and is never edited by hand.
type Session struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	TargetType  TargetType  `json:"targetType"`
	Target      string      `json:"target,omitempty"`
	Priority    Priority    `json:"priority"`
	Status      Status      `json:"status"`
	Tags        []string    `json:"tags"`
	DataPoints  []DataPoint `json:"dataPoints"`
	Analytics   Analytics   `json:"analytics"`
	Version     int64       `json:"version"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type Analytics struct {
	TotalDataPoints int             `json:"totalDataPoints"`
	ToolsUsed       int             `json:"toolsUsed"`
	ConfidenceScore int             `json:"confidenceScore"`
	Patterns        []Pattern       `json:"patterns"`
	RiskAssessment  RiskAssessment  `json:"riskAssessment"`
	Timeline        []TimelineEntry `json:"timeline"`
	Correlations    []Correlation   `json:"correlations"`
	Geolocations    []GeoPoint      `json:"geolocations"`
	Networks        []Network       `json:"networks"`
}

type Pattern struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Strength    int      `json:"strength"`
	Evidence    []string `json:"evidence"`
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type RiskAssessment struct {
	Level   RiskLevel `json:"level"`
	Score   int       `json:"score"`
	Factors []string  `json:"factors"`
}

type Significance string

const (
	SignificanceLow    Significance = "low"
	SignificanceMedium Significance = "medium"
	SignificanceHigh   Significance = "high"
)

type TimelineEntry struct {
	Date         time.Time    `json:"date"`
	Event        string       `json:"event"`
	Source       string       `json:"source"`
	Significance Significance `json:"significance"`
}

// Extension points; the engine does not compute these yet.
type Correlation struct {
	Entities []string `json:"entities"`
	Type     string   `json:"type"`
	Strength int      `json:"strength"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
}

type Network struct {
	Name  string   `json:"name"`
	Nodes []string `json:"nodes"`
}

func (t TargetType) IsValid() bool {
	switch t {
	case TargetPerson, TargetOrganization, TargetDomain, TargetIP,
		TargetIncident, TargetInvestigation, TargetThreat, TargetOther:
		return true
	}
	return false
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusArchived, StatusSuspended:
		return true
	}
	return false
}

// IndexOf returns the position of the data point with the given id, or -1.
func (s *Session) IndexOf(id string) int {
	for i := range s.DataPoints {
		if s.DataPoints[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of s that shares no mutable data point state with it.
// Analytics is shared: it is only ever replaced, never edited in place.
func (s Session) Clone() Session {
	s.Tags = append(make([]string, 0, len(s.Tags)), s.Tags...)
	if s.DataPoints != nil {
		points := make([]DataPoint, len(s.DataPoints))
		for i, dp := range s.DataPoints {
			points[i] = dp.Clone()
		}
		s.DataPoints = points
	}
	return s
}
