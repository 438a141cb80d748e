package provider

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hive-corporation/fusion/internal/core/domain"
)

// AdaptNetworkScan maps an Nmap XML report (nmaprun/host/...) onto ip,
// hostname, port and OS drafts.
func AdaptNetworkScan(parsed any, label string) []domain.Draft {
	m, ok := asMap(parsed)
	if !ok {
		return nil
	}
	root := m
	if inner, ok := asMap(m["nmaprun"]); ok {
		root = inner
	}

	scanTime := unixAttr(root, "@start")

	var drafts []domain.Draft
	for _, h := range asSlice(root["host"]) {
		host, ok := asMap(h)
		if !ok {
			continue
		}
		drafts = append(drafts, adaptScanHost(host, label, scanTime)...)
	}
	return drafts
}

func adaptScanHost(host map[string]any, label string, scanTime time.Time) []domain.Draft {
	source := domain.Source{
		ToolName:    "Nmap",
		Category:    "network",
		Reliability: domain.ReliabilityHigh,
		Timestamp:   scanTime,
	}
	if t := unixAttr(host, "@starttime"); !t.IsZero() {
		source.Timestamp = t
	}

	tags := labelTags(label, "nmap")
	if status, ok := asMap(host["status"]); ok {
		if state := asString(status["@state"]); state != "" {
			tags = append(tags, "host-"+state)
		}
	}

	var drafts []domain.Draft
	var primary string

	for _, a := range asSlice(host["address"]) {
		addr, ok := asMap(a)
		if !ok {
			continue
		}
		value := asString(addr["@addr"])
		if value == "" {
			continue
		}
		switch asString(addr["@addrtype"]) {
		case "mac":
			drafts = append(drafts, domain.Draft{
				Type:       domain.NetworkData,
				Key:        "MAC Address",
				Value:      value,
				Confidence: domain.IntPtr(90),
				Tags:       withVendor(tags, asString(addr["@vendor"])),
				Source:     source,
			})
		default:
			if primary == "" {
				primary = value
			}
			drafts = append(drafts, domain.Draft{
				Type:       domain.IPAddress,
				Key:        "IP Address",
				Value:      value,
				Confidence: domain.IntPtr(95),
				Tags:       tags,
				Source:     source,
			})
		}
	}

	if hostnames, ok := asMap(host["hostnames"]); ok {
		for _, hn := range asSlice(hostnames["hostname"]) {
			entry, ok := asMap(hn)
			if !ok {
				continue
			}
			name := asString(entry["@name"])
			if name == "" {
				continue
			}
			drafts = append(drafts, domain.Draft{
				Type:          domain.Domain,
				Key:           "Hostname",
				Value:         domain.NormalizeValue(name, domain.Domain),
				Confidence:    domain.IntPtr(90),
				Tags:          tags,
				Relationships: relatedTo(primary, "resolves-to"),
				Source:        source,
			})
		}
	}

	if ports, ok := asMap(host["ports"]); ok {
		for _, p := range asSlice(ports["port"]) {
			port, ok := asMap(p)
			if !ok {
				continue
			}
			if d, ok := adaptScanPort(port, primary, tags, source); ok {
				drafts = append(drafts, d)
			}
		}
	}

	if osBlock, ok := asMap(host["os"]); ok {
		matches := asSlice(osBlock["osmatch"])
		if len(matches) > 0 {
			if match, ok := asMap(matches[0]); ok && asString(match["@name"]) != "" {
				drafts = append(drafts, domain.Draft{
					Type:          domain.Metadata,
					Key:           "Operating System",
					Value:         asString(match["@name"]),
					Confidence:    domain.IntPtr(85),
					Tags:          append(append([]string{}, tags...), "os-accuracy-"+asString(match["@accuracy"])),
					Relationships: relatedTo(primary, "runs-on"),
					Source:        source,
				})
			}
		}
	}

	return drafts
}

func adaptScanPort(port map[string]any, host string, tags []string, source domain.Source) (domain.Draft, bool) {
	portID := asString(port["@portid"])
	if portID == "" {
		return domain.Draft{}, false
	}
	protocol := asString(port["@protocol"])

	parts := []string{}
	if state, ok := asMap(port["state"]); ok {
		if s := asString(state["@state"]); s != "" {
			parts = append(parts, s)
		}
	}
	if service, ok := asMap(port["service"]); ok {
		for _, attr := range []string{"@name", "@product", "@version"} {
			if s := asString(service[attr]); s != "" {
				parts = append(parts, s)
			}
		}
	}

	return domain.Draft{
		Type:          domain.NetworkData,
		Key:           fmt.Sprintf("Port %s/%s", portID, protocol),
		Value:         strings.Join(parts, " "),
		Confidence:    domain.IntPtr(85),
		Tags:          tags,
		Relationships: relatedTo(host, "port-of"),
		Source:        source,
	}, true
}

func unixAttr(m map[string]any, key string) time.Time {
	sec, err := strconv.ParseInt(asString(m[key]), 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func relatedTo(id, relationship string) []domain.Relationship {
	if id == "" {
		return nil
	}
	return []domain.Relationship{{RelatedTo: id, RelationshipType: relationship, Strength: 1}}
}

func withVendor(tags []string, vendor string) []string {
	out := append([]string{}, tags...)
	if vendor != "" {
		out = append(out, "vendor:"+vendor)
	}
	return out
}
