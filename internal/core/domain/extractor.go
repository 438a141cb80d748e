package domain

import (
	"net"
	"net/url"
	"strings"
)

// ExtractURLComponents expands a URL draft into the draft itself plus a
// draft for its host. For example, "http://198.0.2.12/malware.sh" produces:
// - the URL draft
// - an ip draft for 198.0.2.12
// A hostname that is not an IP produces a domain draft instead.
func ExtractURLComponents(base Draft) []Draft {
	components := []Draft{base}

	value := ValueString(base.Value)
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return components
	}

	u, err := url.Parse(value)
	if err != nil {
		return components
	}

	host := u.Hostname()
	if host == "" || host == value {
		return components
	}

	derived := Draft{
		Type:       Domain,
		Key:        "Host",
		Value:      strings.ToLower(host),
		Confidence: base.Confidence,
		Tags:       append([]string{"extracted-from-url"}, base.Tags...),
		Source:     base.Source,
	}
	if net.ParseIP(host) != nil {
		derived.Type = IPAddress
		derived.Key = "IP Address"
		derived.Value = host
	}

	return append(components, derived)
}

// NormalizeValue canonicalizes values for matching.
func NormalizeValue(value string, t DataPointType) string {
	value = strings.TrimSpace(value)
	switch t {
	case URL:
		return strings.TrimSuffix(strings.ToLower(value), "/")
	case Domain, Email:
		return strings.TrimSuffix(strings.ToLower(value), ".")
	case Hash:
		return strings.ToLower(value)
	default:
		return value
	}
}
