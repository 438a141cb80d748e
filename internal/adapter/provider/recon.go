package provider

import (
	"strings"

	"github.com/hive-corporation/fusion/internal/core/domain"
)

// AdaptRecon maps theHarvester JSON output onto drafts. Hosts reported as
// "name:ip" produce both a domain and an ip draft; interesting URLs are
// expanded into their host components.
func AdaptRecon(parsed any, label string) []domain.Draft {
	m, ok := asMap(parsed)
	if !ok {
		return nil
	}

	source := domain.Source{
		ToolName:    "theHarvester",
		Category:    "automated-recon",
		Reliability: domain.ReliabilityMedium,
	}
	tags := labelTags(label, "recon")

	draft := func(t domain.DataPointType, key, value string, confidence int) domain.Draft {
		return domain.Draft{
			Type:       t,
			Key:        key,
			Value:      domain.NormalizeValue(value, t),
			Confidence: domain.IntPtr(confidence),
			Tags:       tags,
			Source:     source,
		}
	}

	var drafts []domain.Draft

	for _, host := range fieldStrings(m, "hosts") {
		name, ip, _ := strings.Cut(host, ":")
		if name != "" {
			d := draft(domain.Domain, "Host", name, 70)
			if domain.IsValidIPv4(ip) {
				d.Relationships = relatedTo(ip, "resolves-to")
			}
			drafts = append(drafts, d)
		}
		if domain.IsValidIPv4(ip) {
			drafts = append(drafts, draft(domain.IPAddress, "Resolved IP", ip, 70))
		}
	}
	for _, email := range fieldStrings(m, "emails") {
		drafts = append(drafts, draft(domain.Email, "Email", email, 70))
	}
	for _, ip := range fieldStrings(m, "ips") {
		drafts = append(drafts, draft(domain.IPAddress, "IP Address", ip, 70))
	}
	for _, u := range fieldStrings(m, "interesting_urls", "urls") {
		drafts = append(drafts, domain.ExtractURLComponents(draft(domain.URL, "URL", u, 65))...)
	}
	for _, asn := range fieldStrings(m, "asns") {
		drafts = append(drafts, draft(domain.NetworkData, "ASN", asn, 60))
	}
	for _, person := range fieldStrings(m, "linkedin_people") {
		drafts = append(drafts, draft(domain.Name, "LinkedIn Person", person, 60))
	}
	for _, handle := range fieldStrings(m, "twitter_people") {
		drafts = append(drafts, draft(domain.SocialProfile, "Twitter Profile", handle, 65))
	}

	return drafts
}
