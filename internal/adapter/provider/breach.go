package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/hive-corporation/fusion/internal/core/domain"
)

// AdaptBreach maps breach-lookup reports (HaveIBeenPwned style breaches and
// pastes) and threat-feed indicator lists onto drafts.
//
// Accepted shapes: a top-level array of breaches, or an object with any of
// "breaches", "pastes", "indicators" and an optional "email"/"account".
func AdaptBreach(parsed any, label string) []domain.Draft {
	source := domain.Source{
		ToolName:    "HaveIBeenPwned",
		Category:    "breach",
		Reliability: domain.ReliabilityHigh,
	}
	tags := labelTags(label, "breach")

	if list, ok := parsed.([]any); ok {
		return adaptBreaches(list, tags, source)
	}

	m, ok := asMap(parsed)
	if !ok {
		return nil
	}

	var drafts []domain.Draft

	if account := fieldString(m, "email", "account"); account != "" {
		drafts = append(drafts, domain.Draft{
			Type:       domain.Email,
			Key:        "Breached Account",
			Value:      domain.NormalizeValue(account, domain.Email),
			Confidence: domain.IntPtr(90),
			Tags:       tags,
			Source:     source,
		})
	}

	if v, ok := field(m, "breaches", "Breaches"); ok {
		drafts = append(drafts, adaptBreaches(asSlice(v), tags, source)...)
	}
	if v, ok := field(m, "pastes", "Pastes"); ok {
		drafts = append(drafts, adaptPastes(asSlice(v), tags, source)...)
	}
	if v, ok := field(m, "indicators", "Indicators"); ok {
		feed := source
		feed.ToolName = "Threat Feed"
		if name := fieldString(m, "name", "source"); name != "" {
			feed.ToolName = name
		}
		feed.Category = "threat"
		drafts = append(drafts, adaptIndicators(asSlice(v), labelTags(label, "threat-feed"), feed)...)
	}

	return drafts
}

func adaptBreaches(list []any, tags []string, source domain.Source) []domain.Draft {
	var drafts []domain.Draft
	for _, item := range list {
		b, ok := asMap(item)
		if !ok {
			continue
		}
		name := fieldString(b, "Name", "Title")
		if name == "" {
			continue
		}

		src := source
		if date, err := time.Parse("2006-01-02", fieldString(b, "BreachDate")); err == nil {
			src.Timestamp = date.UTC()
		}

		classes := fieldStrings(b, "DataClasses")
		breachTags := append([]string{}, tags...)
		for _, c := range classes {
			breachTags = append(breachTags, "data:"+strings.ToLower(strings.ReplaceAll(c, " ", "-")))
		}

		var context []string
		if d := fieldString(b, "Domain"); d != "" {
			context = append(context, "Domain: "+d)
		}
		if len(classes) > 0 {
			context = append(context, "Data classes: "+strings.Join(classes, ", "))
		}
		if count := fieldString(b, "PwnCount"); count != "" {
			context = append(context, "Accounts: "+count)
		}

		drafts = append(drafts, domain.Draft{
			Type:       domain.BreachData,
			Key:        "Breach: " + name,
			Value:      name,
			Confidence: domain.IntPtr(90),
			Tags:       breachTags,
			Enrichment: &domain.Enrichment{
				Verified:           fieldString(b, "IsVerified") == "true",
				VerificationSource: source.ToolName,
				AdditionalContext:  strings.Join(context, "; "),
			},
			Source: src,
		})

		if d := fieldString(b, "Domain"); d != "" {
			drafts = append(drafts, domain.Draft{
				Type:          domain.Domain,
				Key:           "Breached Service",
				Value:         domain.NormalizeValue(d, domain.Domain),
				Confidence:    domain.IntPtr(90),
				Tags:          tags,
				Relationships: relatedTo(name, "breached-service"),
				Source:        src,
			})
		}
	}
	return drafts
}

func adaptPastes(list []any, tags []string, source domain.Source) []domain.Draft {
	var drafts []domain.Draft
	for _, item := range list {
		p, ok := asMap(item)
		if !ok {
			continue
		}
		site := fieldString(p, "Source")
		id := fieldString(p, "Id")
		if site == "" && id == "" {
			continue
		}

		src := source
		if date, err := time.Parse(time.RFC3339, fieldString(p, "Date")); err == nil {
			src.Timestamp = date.UTC()
		}

		drafts = append(drafts, domain.Draft{
			Type:       domain.BreachData,
			Key:        fmt.Sprintf("Paste: %s", site),
			Value:      strings.TrimPrefix(site+"/"+id, "/"),
			Confidence: domain.IntPtr(90),
			Tags:       append(append([]string{}, tags...), "paste"),
			Enrichment: &domain.Enrichment{
				VerificationSource: source.ToolName,
				AdditionalContext:  fieldString(p, "Title"),
			},
			Source: src,
		})
	}
	return drafts
}

func adaptIndicators(list []any, tags []string, source domain.Source) []domain.Draft {
	var drafts []domain.Draft
	for _, item := range list {
		ind, ok := asMap(item)
		if !ok {
			continue
		}
		value := fieldString(ind, "indicator", "value")
		t := mapIndicatorType(fieldString(ind, "type"))
		if value == "" || t == "" {
			continue
		}

		src := source
		if created, err := time.Parse(time.RFC3339, fieldString(ind, "created")); err == nil {
			src.Timestamp = created.UTC()
		}

		drafts = append(drafts, domain.Draft{
			Type:       t,
			Key:        "Indicator (" + fieldString(ind, "type") + ")",
			Value:      domain.NormalizeValue(value, t),
			Confidence: domain.IntPtr(90),
			Tags:       append(append([]string{}, tags...), fieldStrings(ind, "tags")...),
			Source:     src,
		})
	}
	return drafts
}

// mapIndicatorType converts OTX-style indicator types into data point types.
func mapIndicatorType(indicatorType string) domain.DataPointType {
	switch strings.ToLower(indicatorType) {
	case "ipv4", "ipv6", "ip":
		return domain.IPAddress
	case "domain", "hostname":
		return domain.Domain
	case "url", "uri":
		return domain.URL
	case "email":
		return domain.Email
	case "filehash-md5", "filehash-sha1", "filehash-sha256", "hash":
		return domain.Hash
	case "bitcoinaddress", "cryptocurrency":
		return domain.CryptocurrencyAddress
	default:
		return ""
	}
}
