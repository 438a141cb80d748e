package app

import (
	"context"
	"testing"

	"github.com/hive-corporation/fusion/internal/config"
	"github.com/hive-corporation/fusion/internal/core/service"
)

func TestNew_MemoryBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()

	s, err := a.Sessions.CreateSession(context.Background(), service.CreateSessionInput{Title: "wired"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := a.Sessions.GetSession(context.Background(), s.ID); err != nil {
		t.Errorf("session should be readable back: %v", err)
	}
}

func TestNewNotifier(t *testing.T) {
	cfg := config.Default()
	if n := newNotifier(cfg); n != nil {
		t.Errorf("expected no notifier without a token, got %T", n)
	}

	cfg.Slack.BotToken = "xoxb-test"
	if n := newNotifier(cfg); n == nil {
		t.Error("expected a Slack notifier when a token is set")
	}
}
