package whatsapp

import (
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.whatsapp",
	fx.Provide(NewFromConfig),
)

// NewFromConfig falls back to a no-op provider when the gateway is not
// configured, so deployments without WhatsApp keep working.
func NewFromConfig(cfg config.Config) Provider {
	if cfg.WhatsApp.APIURL == "" {
		return &NoOpProvider{}
	}
	return NewHTTP(Config{
		APIURL:    cfg.WhatsApp.APIURL,
		AuthToken: cfg.WhatsApp.AuthToken,
		SenderID:  cfg.WhatsApp.SenderID,
	})
}
