package exporter

import (
	"fmt"
	"strings"

	"github.com/hive-corporation/fusion/internal/core/domain"
)

// CEFExporter renders a session's data points as Common Event Format lines
type CEFExporter struct{}

func NewCEFExporter() *CEFExporter {
	return &CEFExporter{}
}

// Export writes one line per data point.
// Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func (e *CEFExporter) Export(session domain.Session) string {
	var output strings.Builder
	for _, dp := range session.DataPoints {
		output.WriteString(e.formatCEF(session, dp))
		output.WriteString("\n")
	}
	return output.String()
}

func (e *CEFExporter) formatCEF(session domain.Session, dp domain.DataPoint) string {
	vendor := "Hive"
	product := "Fusion"
	version := "1.0"
	signatureID := string(dp.Type)
	name := fmt.Sprintf("%s data point", strings.ToUpper(string(dp.Type)))
	severity := calculateSeverity(dp.Confidence)

	extensions := []string{
		fmt.Sprintf("msg=%s", escapeExtension(dp.Key)),
		fmt.Sprintf("cs1Label=Value cs1=%s", escapeExtension(domain.ValueString(dp.Value))),
		fmt.Sprintf("cs2Label=Session cs2=%s", escapeExtension(session.ID)),
		fmt.Sprintf("cs3Label=Tool cs3=%s", escapeExtension(dp.Source.ToolName)),
		fmt.Sprintf("cs4Label=Tags cs4=%s", escapeExtension(strings.Join(dp.Tags, ","))),
		fmt.Sprintf("cn1Label=ConfidenceScore cn1=%d", dp.Confidence),
		fmt.Sprintf("rt=%d", dp.Source.Timestamp.UnixMilli()),
	}

	return fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
		vendor, product, version, escapeHeader(signatureID), escapeHeader(name), severity, strings.Join(extensions, " "))
}

// calculateSeverity maps confidence (0-100) to CEF severity (0-10)
func calculateSeverity(confidence int) int {
	switch {
	case confidence >= 90:
		return 10
	case confidence >= 80:
		return 8
	case confidence >= 70:
		return 6
	case confidence >= 60:
		return 4
	}
	return 2
}

func escapeHeader(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "|", `\|`)
}

func escapeExtension(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "=", `\=`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return strings.ReplaceAll(s, "\r", `\r`)
}
