package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hive-corporation/fusion/internal/core/ports"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

type SlackNotifier struct {
	botToken    string
	channel     string
	mentionTeam string
	apiURL      string
	httpClient  *ResilientClient
}

func NewSlackNotifier(botToken, channel, mentionTeam string, config ResilientClientConfig) *SlackNotifier {
	return &SlackNotifier{
		botToken:    botToken,
		channel:     channel,
		mentionTeam: mentionTeam,
		apiURL:      slackPostMessageURL,
		httpClient:  NewResilientClient("slack-api", 10*time.Second, config),
	}
}

// WithAPIURL points the notifier at a different chat.postMessage endpoint.
func (s *SlackNotifier) WithAPIURL(url string) *SlackNotifier {
	s.apiURL = url
	return s
}

// NotifyCriticalRisk sends the risk assessment of a session that just
// crossed into the critical level.
func (s *SlackNotifier) NotifyCriticalRisk(alert ports.RiskAlert) error {
	payload := SlackMessage{
		Channel: s.channel,
		Blocks:  s.buildCriticalRiskBlocks(alert),
		Text:    fmt.Sprintf("🔴 Critical risk on session %s (%d/100)", alert.Title, alert.Score),
	}

	return s.sendMessage(payload)
}

func (s *SlackNotifier) buildCriticalRiskBlocks(alert ports.RiskAlert) []SlackBlock {
	target := alert.Target
	if target == "" {
		target = "n/a"
	}

	factors := "_none_"
	if len(alert.Factors) > 0 {
		factors = "• " + strings.Join(alert.Factors, "\n• ")
	}

	blocks := []SlackBlock{
		{
			Type: "header",
			Text: &SlackText{
				Type: "plain_text",
				Text: "🔴 Critical Risk Assessment",
			},
		},
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Session*\n%s", alert.Title)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Target*\n`%s`", target)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Risk Score*\n%d/100", alert.Score)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Data Points*\n%d from %d tools", alert.TotalDataPoints, alert.ToolsUsed)},
			},
		},
		{Type: "divider"},
		{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: "*📊 Risk Factors*\n" + factors,
			},
		},
		{
			Type: "context",
			Elements: []SlackText{
				{Type: "mrkdwn", Text: "Session ID: " + alert.SessionID},
			},
		},
	}

	if s.mentionTeam != "" {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("🔔 %s", s.mentionTeam),
			},
		})
	}

	return blocks
}

func (s *SlackNotifier) sendMessage(msg SlackMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode Slack response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("slack API error: %s", result.Error)
	}

	return nil
}

// Slack API structures

type SlackMessage struct {
	Channel string       `json:"channel"`
	Blocks  []SlackBlock `json:"blocks"`
	Text    string       `json:"text"` // Fallback text
}

type SlackBlock struct {
	Type     string      `json:"type"`
	Text     *SlackText  `json:"text,omitempty"`
	Fields   []SlackText `json:"fields,omitempty"`
	Elements []SlackText `json:"elements,omitempty"`
}

type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
