package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/hive-corporation/fusion/internal/adapter/provider"
	"github.com/hive-corporation/fusion/internal/adapter/reader"
	"github.com/hive-corporation/fusion/internal/core/domain"
	"github.com/hive-corporation/fusion/internal/core/service"
)

// Request bodies shared by the REST and gRPC surfaces.

type createSessionRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=4000"`
	TargetType  string   `json:"targetType" validate:"omitempty,oneof=person organization domain ip incident investigation threat other"`
	Target      string   `json:"target" validate:"max=500"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Tags        []string `json:"tags" validate:"max=50,dive,max=64"`
}

func (r createSessionRequest) input() service.CreateSessionInput {
	return service.CreateSessionInput{
		Title:       r.Title,
		Description: r.Description,
		TargetType:  domain.TargetType(r.TargetType),
		Target:      r.Target,
		Priority:    domain.Priority(r.Priority),
		Tags:        r.Tags,
	}
}

type updateSessionRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=4000"`
	TargetType  *string  `json:"targetType" validate:"omitempty,oneof=person organization domain ip incident investigation threat other"`
	Target      *string  `json:"target" validate:"omitempty,max=500"`
	Priority    *string  `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Status      *string  `json:"status" validate:"omitempty,oneof=active completed archived suspended"`
	Tags        []string `json:"tags" validate:"omitempty,max=50,dive,max=64"`
}

func (r updateSessionRequest) patch() service.SessionPatch {
	p := service.SessionPatch{
		Title:       r.Title,
		Description: r.Description,
		Target:      r.Target,
		Tags:        r.Tags,
	}
	if r.TargetType != nil {
		t := domain.TargetType(*r.TargetType)
		p.TargetType = &t
	}
	if r.Priority != nil {
		pr := domain.Priority(*r.Priority)
		p.Priority = &pr
	}
	if r.Status != nil {
		s := domain.Status(*r.Status)
		p.Status = &s
	}
	return p
}

type sourceRequest struct {
	ToolName    string     `json:"toolName" validate:"max=100"`
	Category    string     `json:"category" validate:"max=100"`
	Reliability string     `json:"reliability" validate:"max=20"`
	Timestamp   *time.Time `json:"timestamp"`
}

type dataPointRequest struct {
	Type          string                `json:"type" validate:"required"`
	Key           string                `json:"key" validate:"max=200"`
	Value         any                   `json:"value"`
	Confidence    *int                  `json:"confidence"`
	Tags          []string              `json:"tags" validate:"max=50,dive,max=64"`
	Relationships []domain.Relationship `json:"relationships"`
	Enrichment    *enrichmentRequest    `json:"enrichment"`
	Source        sourceRequest         `json:"source"`
}

func (r dataPointRequest) draft() domain.Draft {
	d := domain.Draft{
		Type:          domain.DataPointType(strings.ToLower(strings.TrimSpace(r.Type))),
		Key:           r.Key,
		Value:         r.Value,
		Confidence:    r.Confidence,
		Tags:          r.Tags,
		Relationships: r.Relationships,
		Enrichment:    r.Enrichment.enrichment(),
		Source: domain.Source{
			ToolName:    r.Source.ToolName,
			Category:    r.Source.Category,
			Reliability: r.Source.Reliability,
		},
	}
	if r.Source.Timestamp != nil {
		d.Source.Timestamp = r.Source.Timestamp.UTC()
	}
	return d
}

type enrichmentRequest struct {
	Verified           bool       `json:"verified"`
	VerificationSource string     `json:"verificationSource" validate:"max=200"`
	AdditionalContext  string     `json:"additionalContext" validate:"max=4000"`
	RiskScore          *float64   `json:"riskScore" validate:"omitempty,min=0,max=100"`
	LastUpdated        *time.Time `json:"lastUpdated"`
}

func (r *enrichmentRequest) enrichment() *domain.Enrichment {
	if r == nil {
		return nil
	}
	e := &domain.Enrichment{
		Verified:           r.Verified,
		VerificationSource: r.VerificationSource,
		AdditionalContext:  r.AdditionalContext,
		RiskScore:          r.RiskScore,
	}
	if r.LastUpdated != nil {
		e.LastUpdated = r.LastUpdated.UTC()
	}
	return e
}

type patchDataPointRequest struct {
	Key        *string            `json:"key" validate:"omitempty,max=200"`
	Value      json.RawMessage    `json:"value"`
	Confidence *int               `json:"confidence" validate:"omitempty,min=0,max=100"`
	Tags       []string           `json:"tags" validate:"omitempty,max=50,dive,max=64"`
	Enrichment *enrichmentRequest `json:"enrichment"`
}

func (r patchDataPointRequest) patch() (service.DataPointPatch, error) {
	p := service.DataPointPatch{
		Key:        r.Key,
		Confidence: r.Confidence,
		Tags:       r.Tags,
		Enrichment: r.Enrichment.enrichment(),
	}
	if len(r.Value) > 0 {
		if err := json.Unmarshal(r.Value, &p.Value); err != nil {
			return p, fmt.Errorf("value: %w", domain.ErrInvalidPatch)
		}
		p.SetValue = true
	}
	return p, nil
}

type importItemRequest struct {
	Name     string `json:"name" validate:"max=255"`
	Format   string `json:"format" validate:"required,oneof=structured-record delimited-table markup-tree line-list"`
	Source   string `json:"source" validate:"max=64"`
	Label    string `json:"label" validate:"max=100"`
	Data     string `json:"data"`
	Encoding string `json:"encoding" validate:"omitempty,oneof=text base64"`
}

type importRequest struct {
	Items []importItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

func (r importRequest) items() ([]service.ImportItem, error) {
	items := make([]service.ImportItem, 0, len(r.Items))
	for i, it := range r.Items {
		data := []byte(it.Data)
		if it.Encoding == "base64" {
			decoded, err := base64.StdEncoding.DecodeString(it.Data)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: invalid base64 data", i)
			}
			data = decoded
		}
		items = append(items, service.ImportItem{
			Name:   it.Name,
			Data:   data,
			Format: reader.Format(it.Format),
			Source: provider.ParseSourceKind(it.Source),
			Label:  it.Label,
		})
	}
	return items, nil
}

type bulkRequest struct {
	Kind              string   `json:"kind" validate:"required,oneof=domain ip email url hash"`
	Data              string   `json:"data" validate:"required"`
	AutoConfidence    bool     `json:"autoConfidence"`
	DefaultConfidence *int     `json:"defaultConfidence" validate:"omitempty,min=0,max=100"`
	Tags              []string `json:"tags" validate:"max=50,dive,max=64"`
}

func (r bulkRequest) request() service.BulkRequest {
	return service.BulkRequest{
		Kind:              domain.BulkKind(r.Kind),
		Data:              r.Data,
		AutoConfidence:    r.AutoConfidence,
		DefaultConfidence: r.DefaultConfidence,
		Tags:              r.Tags,
	}
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
