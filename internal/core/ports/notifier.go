package ports

// Notifier defines the interface for sending notifications to external systems
type Notifier interface {
	// NotifyCriticalRisk is sent when a session's risk level becomes critical
	NotifyCriticalRisk(alert RiskAlert) error
}

type RiskAlert struct {
	SessionID       string
	Title           string
	Target          string
	Score           int
	Level           string
	Factors         []string
	TotalDataPoints int
	ToolsUsed       int
}
