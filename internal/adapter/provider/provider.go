// Package provider maps parsed tool output onto data point drafts. Each
// supported tool family has one adapter; anything unrecognized goes through
// the generic adapter so no data is dropped.
package provider

import (
	"strings"

	"github.com/hive-corporation/fusion/internal/core/domain"
)

// SourceKind selects the adapter for an upload.
type SourceKind string

const (
	NetworkScan  SourceKind = "network-scan"
	Breach       SourceKind = "breach"
	Registration SourceKind = "registration"
	LinkAnalysis SourceKind = "link-analysis"
	Recon        SourceKind = "recon"
	Lines        SourceKind = "line-list"
	Generic      SourceKind = "generic"
)

// Adapter converts a parsed value into drafts. It never fails: shapes it
// does not recognize produce no drafts.
type Adapter func(parsed any, label string) []domain.Draft

var adapters = map[SourceKind]Adapter{
	NetworkScan:  AdaptNetworkScan,
	Breach:       AdaptBreach,
	Registration: AdaptRegistration,
	LinkAnalysis: AdaptLinkAnalysis,
	Recon:        AdaptRecon,
	Lines:        AdaptLineList,
	Generic:      AdaptGeneric,
}

// ParseSourceKind normalizes a selector. Unknown selectors resolve to Generic.
func ParseSourceKind(s string) SourceKind {
	kind := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := adapters[kind]; ok {
		return kind
	}
	return Generic
}

// Lookup returns the adapter bound to kind, or the generic adapter.
func Lookup(kind SourceKind) Adapter {
	if a, ok := adapters[kind]; ok {
		return a
	}
	return AdaptGeneric
}

// Adapt runs the adapter for kind. A recognized adapter that yields nothing
// for non-empty input falls back to the generic adapter.
func Adapt(kind SourceKind, parsed any, label string) []domain.Draft {
	drafts := Lookup(kind)(parsed, label)
	if len(drafts) == 0 && kind != Generic && !isEmpty(parsed) {
		return AdaptGeneric(parsed, label)
	}
	return drafts
}

func labelTags(label string, extra ...string) []string {
	tags := make([]string, 0, len(extra)+1)
	if label = strings.TrimSpace(label); label != "" {
		tags = append(tags, label)
	}
	return append(tags, extra...)
}
