package provider

import (
	"github.com/hive-corporation/fusion/internal/core/domain"
)

type registrationField struct {
	keys  []string
	label string
	typ   domain.DataPointType
}

var registrationFields = []registrationField{
	{[]string{"registrar"}, "Registrar", domain.Company},
	{[]string{"creation_date", "created"}, "Creation Date", domain.Temporal},
	{[]string{"expiration_date", "expires"}, "Expiration Date", domain.Temporal},
	{[]string{"updated_date", "updated"}, "Updated Date", domain.Temporal},
	{[]string{"registrant_name", "name"}, "Registrant", domain.Name},
	{[]string{"registrant_organization", "org", "organization"}, "Registrant Organization", domain.Company},
	{[]string{"registrant_country", "country"}, "Registrant Country", domain.Geolocation},
	{[]string{"emails", "registrant_email", "email"}, "Contact Email", domain.Email},
	{[]string{"name_servers", "nameservers"}, "Name Server", domain.Domain},
}

// AdaptRegistration maps a WHOIS lookup record onto drafts. Multi-valued
// fields (emails, name servers, repeated dates) yield one draft per value.
func AdaptRegistration(parsed any, label string) []domain.Draft {
	m, ok := asMap(parsed)
	if !ok {
		if list := asSlice(parsed); len(list) == 1 {
			m, ok = asMap(list[0])
		}
		if !ok {
			return nil
		}
	}

	source := domain.Source{
		ToolName:    "WHOIS",
		Category:    "registration",
		Reliability: domain.ReliabilityHigh,
	}
	tags := labelTags(label, "whois")

	registered := fieldString(m, "domain_name", "domain")
	if names := fieldStrings(m, "domain_name", "domain"); len(names) > 0 {
		registered = domain.NormalizeValue(names[0], domain.Domain)
	}

	var drafts []domain.Draft
	if registered != "" {
		drafts = append(drafts, domain.Draft{
			Type:       domain.Domain,
			Key:        "Registered Domain",
			Value:      registered,
			Confidence: domain.IntPtr(95),
			Tags:       tags,
			Source:     source,
		})
	}

	for _, f := range registrationFields {
		seen := make(map[string]bool)
		for _, value := range fieldStrings(m, f.keys...) {
			value = domain.NormalizeValue(value, f.typ)
			if seen[value] {
				continue
			}
			seen[value] = true
			drafts = append(drafts, domain.Draft{
				Type:          f.typ,
				Key:           f.label,
				Value:         value,
				Confidence:    domain.IntPtr(95),
				Tags:          tags,
				Relationships: relatedTo(registered, "registration-of"),
				Source:        source,
			})
		}
	}

	return drafts
}
