package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatFromExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"scan.xml", "markup-tree"},
		{"harvest.JSON", "structured-record"},
		{"export.csv", "delimited-table"},
		{"targets.txt", "line-list"},
		{"noext", "line-list"},
	}

	for _, tt := range tests {
		if got := formatFromExtension(tt.path); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.path, tt.want, got)
		}
	}
}

func TestPrintBatch(t *testing.T) {
	var buf bytes.Buffer
	err := printBatch(&buf, map[string]interface{}{
		"total": float64(2), "successful": float64(1), "failed": float64(1), "added": float64(3),
		"errors": []interface{}{"broken.json: malformed"},
	})
	if err != nil {
		t.Fatalf("partial success should not fail: %v", err)
	}
	if !strings.Contains(buf.String(), "1/2 items imported") || !strings.Contains(buf.String(), "broken.json") {
		t.Errorf("unexpected output %q", buf.String())
	}

	err = printBatch(&buf, map[string]interface{}{"total": float64(1), "successful": float64(0), "failed": float64(1)})
	if err == nil {
		t.Error("expected an error when nothing was imported")
	}
}
