package email

import (
	"testing"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/config"
)

func TestNewFromConfig_UnconfiguredFallsBackToNoOp(t *testing.T) {
	p := NewFromConfig(config.Config{})
	if _, ok := p.(*NoOpProvider); !ok {
		t.Fatalf("expected no-op provider, got %T", p)
	}
}

func TestNewFromConfig_UsesSMTPWhenHostSet(t *testing.T) {
	cfg := config.Config{}
	cfg.Email.SMTPHost = "smtp.example.com"
	cfg.Email.SMTPPort = 587

	p := NewFromConfig(cfg)
	if _, ok := p.(*SMTPProvider); !ok {
		t.Fatalf("expected smtp provider, got %T", p)
	}
}
