package config

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"wanwatch/models"
)

var (
	Gateway                    = &gateway{}
	ErrorNoProvidersConfigured = fmt.Errorf("no providers configured")
	defaultGatewayFilePath     = "gateway.yaml"
)

// GatewayConfig binds logical providers to gateway adapters, and names the
// hardware devices whose client tables are polled.
type GatewayConfig struct {
	// Providers maps a provider ID to the adapter carrying its traffic.
	Providers map[models.ProviderID]models.AdapterID `yaml:"providers"`
	// Hardware maps a hardware device ID to the URL serving its client
	// table.
	Hardware map[models.HardwareID]string `yaml:"hardware"`
}

type gateway struct {
	mu sync.Mutex
}

// GetConfig parses the gateway YAML file.
func (g *gateway) GetConfig(logger *zap.SugaredLogger) (GatewayConfig, error) {
	cfg, err := GetConfig[GatewayConfig](&g.mu, defaultGatewayFilePath, func() GatewayConfig { return GatewayConfig{} })
	if err != nil {
		return GatewayConfig{}, err
	}
	for p, a := range cfg.Providers {
		if p == "" || a == "" {
			logger.Warnf("Dropping gateway provider binding with empty field: %q -> %q", p, a)
			delete(cfg.Providers, p)
		}
	}
	if len(cfg.Providers) == 0 {
		return cfg, ErrorNoProvidersConfigured
	}
	return cfg, nil
}

// SetConfig saves the gateway config to disk.
func (g *gateway) SetConfig(cfg GatewayConfig) error {
	return SetConfig[GatewayConfig](
		&g.mu,
		defaultGatewayFilePath,
		func(v GatewayConfig) error {
			if len(v.Providers) == 0 {
				return ErrorNoProvidersConfigured
			}
			return nil
		},
		nil,
		cfg,
	)
}
