package provider

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hive-corporation/fusion/internal/core/domain"
)

var bulkSource = domain.Source{
	ToolName:    "Bulk Import",
	Category:    "manual",
	Reliability: domain.ReliabilityMedium,
}

// AdaptLineList maps a plain list of values onto drafts, guessing each type
// from the value's shape.
func AdaptLineList(parsed any, label string) []domain.Draft {
	list, ok := parsed.([]any)
	if !ok {
		return nil
	}

	var drafts []domain.Draft
	for _, item := range list {
		value := asString(item)
		if value == "" {
			continue
		}
		t := detectType(value)
		drafts = append(drafts, domain.Draft{
			Type:       t,
			Key:        string(t),
			Value:      domain.NormalizeValue(value, t),
			Confidence: domain.IntPtr(domain.DefaultConfidence),
			Tags:       labelTags(label, "line-list"),
			Source:     bulkSource,
		})
	}
	return drafts
}

// BulkOptions control line-oriented imports of a single declared kind.
type BulkOptions struct {
	Kind              domain.BulkKind
	AutoConfidence    bool
	DefaultConfidence *int
	Tags              []string
	MaxLineLength     int
}

// BulkItem is the outcome for one non-blank input line. Exactly one of
// Draft and Err is meaningful.
type BulkItem struct {
	Line  int
	Draft domain.Draft
	Err   error
}

// AdaptLines turns each non-blank line into a draft of opts.Kind. With
// AutoConfidence the confidence comes from the kind's validity heuristic,
// otherwise from opts.DefaultConfidence. Invalid values are never rejected.
func AdaptLines(lines []string, opts BulkOptions) []BulkItem {
	t := opts.Kind.DataPointType()
	tags := append([]string{"bulk-import"}, opts.Tags...)

	var items []BulkItem
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		n := i + 1

		if opts.MaxLineLength > 0 && utf8.RuneCountInString(line) > opts.MaxLineLength {
			items = append(items, BulkItem{
				Line: n,
				Err:  fmt.Errorf("line %d: exceeds %d characters", n, opts.MaxLineLength),
			})
			continue
		}

		value := domain.NormalizeValue(line, t)
		d := domain.Draft{
			Type:       t,
			Key:        string(t),
			Value:      value,
			Confidence: opts.DefaultConfidence,
			Tags:       tags,
			Source:     bulkSource,
		}
		if opts.AutoConfidence {
			c, valid := domain.ValidityConfidence(opts.Kind, value)
			d.Confidence = domain.IntPtr(c)
			if !valid {
				d.Tags = append(append([]string{}, tags...), "invalid-format")
			}
		}

		items = append(items, BulkItem{Line: n, Draft: d})
	}
	return items
}

// SplitLines splits a newline-delimited body, accepting CRLF endings.
func SplitLines(body string) []string {
	return strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
}
