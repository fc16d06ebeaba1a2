package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Provider interface {
	SendMessage(ctx context.Context, phone string, message string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) SendMessage(ctx context.Context, phone string, message string) error {
	return nil
}

type Config struct {
	APIURL    string
	AuthToken string
	SenderID  string
}

// HTTPProvider posts messages to a WhatsApp Business API gateway.
type HTTPProvider struct {
	cfg    Config
	client *http.Client
}

func NewHTTP(cfg Config) *HTTPProvider {
	return &HTTPProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) SendMessage(ctx context.Context, phone string, message string) error {
	if phone == "" {
		return fmt.Errorf("whatsapp: recipient phone is empty")
	}

	payload, err := json.Marshal(map[string]string{
		"from": p.cfg.SenderID,
		"to":   phone,
		"body": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.AuthToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("whatsapp: gateway returned %d", resp.StatusCode)
	}
	return nil
}
