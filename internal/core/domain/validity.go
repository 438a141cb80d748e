package domain

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// BulkKind is the item type accepted by line-oriented bulk imports.
type BulkKind string

const (
	BulkDomain BulkKind = "domain"
	BulkIP     BulkKind = "ip"
	BulkEmail  BulkKind = "email"
	BulkURL    BulkKind = "url"
	BulkHash   BulkKind = "hash"
)

func (k BulkKind) IsValid() bool {
	switch k {
	case BulkDomain, BulkIP, BulkEmail, BulkURL, BulkHash:
		return true
	}
	return false
}

// DataPointType maps a bulk kind onto the data point enum.
func (k BulkKind) DataPointType() DataPointType {
	switch k {
	case BulkDomain:
		return Domain
	case BulkIP:
		return IPAddress
	case BulkEmail:
		return Email
	case BulkURL:
		return URL
	case BulkHash:
		return Hash
	}
	return Other
}

var (
	domainPattern = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	hashPattern   = regexp.MustCompile(`^[a-fA-F0-9]{32}$|^[a-fA-F0-9]{40}$|^[a-fA-F0-9]{64}$|^[a-fA-F0-9]{128}$`)
)

// confidence bands used by ValidityConfidence: {valid, invalid}
var validityBands = map[BulkKind][2]int{
	BulkDomain: {85, 30},
	BulkIP:     {90, 20},
	BulkEmail:  {85, 25},
	BulkURL:    {80, 35},
	BulkHash:   {90, 25},
}

// ValidityConfidence scores value by syntactic validity for its kind. It
// never rejects anything; it only returns a confidence in the valid band
// (75-90) or the invalid band (20-35).
func ValidityConfidence(kind BulkKind, value string) (int, bool) {
	bands, ok := validityBands[kind]
	if !ok {
		return DefaultConfidence, false
	}
	if IsValidValue(kind, value) {
		return bands[0], true
	}
	return bands[1], false
}

// IsValidValue reports whether value is syntactically valid for kind.
func IsValidValue(kind BulkKind, value string) bool {
	value = strings.TrimSpace(value)
	switch kind {
	case BulkDomain:
		return IsValidDomain(value)
	case BulkIP:
		return IsValidIPv4(value)
	case BulkEmail:
		return IsValidEmail(value)
	case BulkURL:
		return IsValidURL(value)
	case BulkHash:
		return hashPattern.MatchString(value)
	}
	return false
}

func IsValidDomain(value string) bool {
	return len(value) <= 253 && domainPattern.MatchString(strings.ToLower(value))
}

// IsValidIPv4 accepts four dot-separated decimal octets, each at most 255.
func IsValidIPv4(value string) bool {
	parts := strings.Split(value, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if len(part) == 0 || len(part) > 3 {
			return false
		}
		for _, c := range part {
			if c < '0' || c > '9' {
				return false
			}
		}
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

func IsValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}

func IsValidURL(value string) bool {
	u, err := url.ParseRequestURI(value)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// EmailDomain returns the part after the last '@', lowercased.
func EmailDomain(email string) string {
	idx := strings.LastIndex(email, "@")
	if idx == -1 || idx == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[idx+1:])
}
