package provider

import (
	"strings"

	"github.com/hive-corporation/fusion/internal/core/domain"
)

var maltegoEntityTypes = map[string]domain.DataPointType{
	"emailaddress":   domain.Email,
	"domain":         domain.Domain,
	"dnsname":        domain.Domain,
	"website":        domain.Domain,
	"mxrecord":       domain.Domain,
	"nsrecord":       domain.Domain,
	"ipv4address":    domain.IPAddress,
	"ipv6address":    domain.IPAddress,
	"netblock":       domain.NetworkData,
	"as":             domain.NetworkData,
	"person":         domain.Name,
	"organization":   domain.Company,
	"company":        domain.Company,
	"phonenumber":    domain.Phone,
	"url":            domain.URL,
	"alias":          domain.Username,
	"hash":           domain.Hash,
	"location":       domain.Geolocation,
	"document":       domain.File,
	"image":          domain.Image,
	"phrase":         domain.Text,
	"bitcoinaddress": domain.CryptocurrencyAddress,
}

// AdaptLinkAnalysis maps Maltego entity exports onto drafts. Rows come from a
// delimited table or a structured list and carry at least Type and Value.
func AdaptLinkAnalysis(parsed any, label string) []domain.Draft {
	rows := asSlice(parsed)
	if m, ok := asMap(parsed); ok {
		v, found := field(m, "entities")
		if !found {
			return nil
		}
		rows = asSlice(v)
	}

	source := domain.Source{
		ToolName:    "Maltego",
		Category:    "link-analysis",
		Reliability: domain.ReliabilityMedium,
	}

	var drafts []domain.Draft
	for _, r := range rows {
		row, ok := asMap(r)
		if !ok {
			continue
		}
		value := fieldString(row, "Value", "Entity Value", "entity_value")
		if value == "" {
			continue
		}
		entity := fieldString(row, "Type", "Entity Type", "entity_type")

		t := maltegoType(entity)
		if t == "" {
			t = detectType(value)
		}

		tags := labelTags(label, "maltego")
		if w := fieldString(row, "Weight"); w != "" {
			tags = append(tags, "weight:"+w)
		}

		key := entity
		if key == "" {
			key = "Entity"
		}

		drafts = append(drafts, domain.Draft{
			Type:       t,
			Key:        key,
			Value:      domain.NormalizeValue(value, t),
			Confidence: domain.IntPtr(75),
			Tags:       tags,
			Source:     source,
		})
	}
	return drafts
}

// maltegoType resolves "maltego.EmailAddress" style names, with or without
// the namespace. Social affiliations map to social profiles.
func maltegoType(entity string) domain.DataPointType {
	name := strings.ToLower(strings.TrimSpace(entity))
	if strings.HasPrefix(name, "maltego.affiliation") {
		return domain.SocialProfile
	}
	name = strings.TrimPrefix(name, "maltego.")
	return maltegoEntityTypes[name]
}

// detectType guesses a data point type from the value's shape.
func detectType(value string) domain.DataPointType {
	switch {
	case strings.HasPrefix(value, "http://"), strings.HasPrefix(value, "https://"):
		return domain.URL
	case domain.IsValidIPv4(value):
		return domain.IPAddress
	case domain.IsValidEmail(value):
		return domain.Email
	case domain.IsValidValue(domain.BulkHash, value):
		return domain.Hash
	case domain.IsValidDomain(strings.ToLower(value)):
		return domain.Domain
	}
	return domain.Text
}
