package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gep-platform/assignd/core/assign"
	"github.com/gep-platform/assignd/core/metrics"
	"github.com/gep-platform/assignd/infra/monitoring"
	"github.com/gep-platform/assignd/infra/mqtt"
)

type Config struct {
	MQTT    mqtt.Config       `json:"mqtt"`
	Engine  assign.Config     `json:"engine"`
	Weights assign.Weights    `json:"weights"`
	Metrics metrics.Config    `json:"metrics"`
	Audit   AuditConfig       `json:"audit"`
	Store   StoreConfig       `json:"store"`
	API     APIConfig         `json:"api"`
	Sentry  monitoring.Config `json:"sentry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("ASSIGND_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "assignd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Engine.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.MQTT.SetDefaults()
	if zeroWeights(cfg.Weights) {
		cfg.Weights = assign.DefaultWeights()
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func zeroWeights(w assign.Weights) bool {
	return w.Location == 0 && w.Availability == 0 && w.Cost == 0 && w.Specialty == 0
}
