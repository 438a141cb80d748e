package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hive-corporation/fusion/internal/core/domain"
)

// UnknownTool names the source of generic drafts that arrive without a label.
const UnknownTool = "Unknown Tool"

// AdaptGeneric emits every scalar leaf of parsed as a text draft keyed by its
// path ("hosts[0].name"). Empty containers and nulls become other drafts so
// nothing is dropped. Map keys are visited in sorted order.
func AdaptGeneric(parsed any, label string) []domain.Draft {
	tool := strings.TrimSpace(label)
	if tool == "" {
		tool = UnknownTool
	}
	w := genericWalker{
		tags: labelTags(label, "generic"),
		source: domain.Source{
			ToolName:    tool,
			Category:    "generic",
			Reliability: domain.ReliabilityLow,
		},
	}
	w.walk("", parsed)
	return w.drafts
}

type genericWalker struct {
	tags   []string
	source domain.Source
	drafts []domain.Draft
}

func (w *genericWalker) walk(path string, v any) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			w.emit(domain.Other, path, "{}")
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.walk(joinPath(path, k), val[k])
		}
	case []any:
		if len(val) == 0 {
			w.emit(domain.Other, path, "[]")
			return
		}
		for i, item := range val {
			w.walk(fmt.Sprintf("%s[%d]", path, i), item)
		}
	case nil:
		w.emit(domain.Other, path, nil)
	default:
		w.emit(domain.Text, path, val)
	}
}

func (w *genericWalker) emit(t domain.DataPointType, path string, value any) {
	if path == "" {
		path = "value"
	}
	w.drafts = append(w.drafts, domain.Draft{
		Type:       t,
		Key:        path,
		Value:      value,
		Confidence: domain.IntPtr(domain.DefaultConfidence),
		Tags:       w.tags,
		Source:     w.source,
	})
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
