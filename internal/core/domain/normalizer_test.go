package domain

import (
	"reflect"
	"testing"
	"time"
)

func fixedID() string { return "dp-1" }

func TestNormalize_ConfidenceInRangeUnchanged(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for c := 0; c <= 100; c++ {
		dp := Normalize(Draft{Type: Email, Value: "a@x.com", Confidence: IntPtr(c)}, Defaults{Confidence: IntPtr(10)}, now, fixedID)
		if dp.Confidence != c {
			t.Fatalf("confidence %d: got %d", c, dp.Confidence)
		}
	}
}

func TestNormalize_ConfidenceFallbacks(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		draft    *int
		fallback *int
		want     int
	}{
		{"missing uses default", nil, IntPtr(70), 70},
		{"above range uses default", IntPtr(101), IntPtr(70), 70},
		{"below range uses default", IntPtr(-1), IntPtr(70), 70},
		{"missing without default", nil, nil, 50},
		{"invalid default falls to 50", IntPtr(500), IntPtr(200), 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp := Normalize(Draft{Type: Domain, Value: "x.com", Confidence: tt.draft}, Defaults{Confidence: tt.fallback}, now, fixedID)
			if dp.Confidence != tt.want {
				t.Errorf("expected %d, got %d", tt.want, dp.Confidence)
			}
		})
	}
}

func TestNormalize_TagsMergedAndDeduplicated(t *testing.T) {
	dp := Normalize(Draft{
		Type:  Domain,
		Value: "x.com",
		Tags:  []string{"nmap", "scan", "nmap", " "},
	}, Defaults{Tags: []string{"scan", "case-42", "Scan"}}, time.Now(), fixedID)

	want := []string{"nmap", "scan", "case-42", "Scan"}
	if !reflect.DeepEqual(dp.Tags, want) {
		t.Errorf("expected tags %v, got %v", want, dp.Tags)
	}
}

func TestNormalize_SourceCompletion(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	dp := Normalize(Draft{Type: Text, Key: "  note ", Value: " hello "}, Defaults{}, now, fixedID)

	if dp.Source.ToolName != DefaultToolName {
		t.Errorf("expected tool name %q, got %q", DefaultToolName, dp.Source.ToolName)
	}
	if !dp.Source.Timestamp.Equal(now) {
		t.Errorf("expected timestamp %v, got %v", now, dp.Source.Timestamp)
	}
	if dp.Key != "note" {
		t.Errorf("expected trimmed key, got %q", dp.Key)
	}
	if dp.Value != "hello" {
		t.Errorf("expected trimmed value, got %q", dp.Value)
	}
	if dp.ID != "dp-1" {
		t.Errorf("expected generated id, got %q", dp.ID)
	}

	supplied := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	dp = Normalize(Draft{Type: Text, Value: "x", Source: Source{ToolName: "Nmap", Timestamp: supplied}}, Defaults{}, now, fixedID)
	if dp.Source.ToolName != "Nmap" || !dp.Source.Timestamp.Equal(supplied) {
		t.Errorf("supplied source should be kept, got %+v", dp.Source)
	}
}

func TestNormalize_UnknownTypeBecomesOther(t *testing.T) {
	dp := Normalize(Draft{Type: "satellite", Value: "x"}, Defaults{}, time.Now(), fixedID)
	if dp.Type != Other {
		t.Errorf("expected type %q, got %q", Other, dp.Type)
	}
}

func TestValidityConfidence(t *testing.T) {
	tests := []struct {
		kind  BulkKind
		value string
		valid bool
	}{
		{BulkDomain, "a.com", true},
		{BulkDomain, "b.org", true},
		{BulkDomain, "sub.example.co.uk", true},
		{BulkDomain, "not a domain!", false},
		{BulkDomain, "localhost", false},
		{BulkIP, "192.168.1.1", true},
		{BulkIP, "256.1.1.1", false},
		{BulkIP, "1.2.3", false},
		{BulkEmail, "a@x.com", true},
		{BulkEmail, "a@x", false},
		{BulkURL, "https://example.com/path", true},
		{BulkURL, "example.com", false},
		{BulkHash, "d41d8cd98f00b204e9800998ecf8427e", true},
		{BulkHash, "xyz", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"_"+tt.value, func(t *testing.T) {
			c, valid := ValidityConfidence(tt.kind, tt.value)
			if valid != tt.valid {
				t.Fatalf("expected valid=%v, got %v", tt.valid, valid)
			}
			if tt.valid && (c < 75 || c > 90) {
				t.Errorf("valid value should score in [75,90], got %d", c)
			}
			if !tt.valid && (c < 20 || c > 35) {
				t.Errorf("invalid value should score in [20,35], got %d", c)
			}
		})
	}
}

func TestExtractURLComponents(t *testing.T) {
	base := Draft{Type: URL, Key: "URL", Value: "http://198.0.2.12/malware.sh", Tags: []string{"recon"}}
	got := ExtractURLComponents(base)
	if len(got) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(got))
	}
	if got[1].Type != IPAddress || got[1].Value != "198.0.2.12" {
		t.Errorf("expected ip component, got %+v", got[1])
	}

	got = ExtractURLComponents(Draft{Type: URL, Value: "https://Evil.Example.com/login"})
	if len(got) != 2 || got[1].Type != Domain || got[1].Value != "evil.example.com" {
		t.Errorf("expected domain component, got %+v", got)
	}

	got = ExtractURLComponents(Draft{Type: URL, Value: "not-a-url"})
	if len(got) != 1 {
		t.Errorf("plain value should not be expanded, got %d drafts", len(got))
	}
}
