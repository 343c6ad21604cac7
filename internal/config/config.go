package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"optimap/internal/chaos"
	"optimap/internal/logger"
	"optimap/internal/scenario"

	"gopkg.in/yaml.v3"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	LogLevel string         `yaml:"log_level" json:"log_level"`
	Scenario ScenarioConfig `yaml:"scenario" json:"scenario"`
}

// ScenarioConfig はシナリオ設定
type ScenarioConfig struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Duration    string `yaml:"duration" json:"duration"`

	Tree   TreeConfig   `yaml:"tree" json:"tree"`
	Client ClientConfig `yaml:"client" json:"client"`
	Chaos  ChaosConfig  `yaml:"chaos" json:"chaos"`
	Audit  AuditConfig  `yaml:"audit" json:"audit"`
}

// TreeConfig はツリー設定
type TreeConfig struct {
	MaxRetries *int `yaml:"max_retries" json:"max_retries"` // 未指定でデフォルト、0で無制限
}

// ClientConfig はクライアント設定
type ClientConfig struct {
	Workers           int     `yaml:"workers" json:"workers"`
	WriteRatio        float64 `yaml:"write_ratio" json:"write_ratio"`
	RemoveRatio       float64 `yaml:"remove_ratio" json:"remove_ratio"`
	ClearRatio        float64 `yaml:"clear_ratio" json:"clear_ratio"`
	ScanRatio         float64 `yaml:"scan_ratio" json:"scan_ratio"`
	KeyRange          int     `yaml:"key_range" json:"key_range"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
}

// ChaosConfig はカオス設定
type ChaosConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	Interval         string   `yaml:"interval" json:"interval"`
	AttackTypes      []string `yaml:"attack_types" json:"attack_types"`
	ClearConcurrency int      `yaml:"clear_concurrency" json:"clear_concurrency"`
	BurstSize        int      `yaml:"burst_size" json:"burst_size"`
}

// AuditConfig は監査設定
type AuditConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Interval string `yaml:"interval" json:"interval"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// Level はログレベルを返す。未指定ならok=false
func (f *FileConfig) Level() (logger.Level, bool, error) {
	if f.LogLevel == "" {
		return 0, false, nil
	}
	level, err := logger.ParseLevel(f.LogLevel)
	if err != nil {
		return 0, false, err
	}
	return level, true, nil
}

// ToScenarioConfig はFileConfigをscenario.Configに変換する
func (f *FileConfig) ToScenarioConfig() (scenario.Config, error) {
	sc := f.Scenario

	config := scenario.DefaultConfig()

	if sc.Name != "" {
		config.Name = sc.Name
	}
	if sc.Description != "" {
		config.Description = sc.Description
	}
	if sc.Duration != "" {
		d, err := time.ParseDuration(sc.Duration)
		if err != nil {
			return config, fmt.Errorf("invalid duration: %w", err)
		}
		config.Duration = d
	}

	// Tree設定
	if sc.Tree.MaxRetries != nil {
		config.MaxRetries = *sc.Tree.MaxRetries
	}

	// Client設定
	if sc.Client.Workers > 0 {
		config.ClientWorkers = sc.Client.Workers
	}
	if sc.Client.WriteRatio > 0 {
		config.WriteRatio = sc.Client.WriteRatio
	}
	config.RemoveRatio = sc.Client.RemoveRatio
	config.ClearRatio = sc.Client.ClearRatio
	if sc.Client.ScanRatio > 0 {
		config.ScanRatio = sc.Client.ScanRatio
	}
	if sc.Client.KeyRange > 0 {
		config.KeyRange = sc.Client.KeyRange
	}
	config.RequestsPerSecond = sc.Client.RequestsPerSecond

	// Chaos設定
	config.EnableChaos = sc.Chaos.Enabled
	if sc.Chaos.Interval != "" {
		d, err := time.ParseDuration(sc.Chaos.Interval)
		if err != nil {
			return config, fmt.Errorf("invalid chaos interval: %w", err)
		}
		config.ChaosInterval = d
	}
	if len(sc.Chaos.AttackTypes) > 0 {
		attacks, err := parseAttackTypes(sc.Chaos.AttackTypes)
		if err != nil {
			return config, err
		}
		config.AttackTypes = attacks
	}
	if sc.Chaos.ClearConcurrency > 0 {
		config.ClearConcurrency = sc.Chaos.ClearConcurrency
	}
	if sc.Chaos.BurstSize > 0 {
		config.BurstSize = sc.Chaos.BurstSize
	}

	// Audit設定
	config.EnableAudit = sc.Audit.Enabled
	if sc.Audit.Interval != "" {
		d, err := time.ParseDuration(sc.Audit.Interval)
		if err != nil {
			return config, fmt.Errorf("invalid audit interval: %w", err)
		}
		config.AuditInterval = d
	}

	return config, nil
}

// parseAttackTypes は文字列の攻撃タイプをパースする
func parseAttackTypes(types []string) ([]chaos.AttackType, error) {
	var attacks []chaos.AttackType

	for _, t := range types {
		attack, ok := chaos.ParseAttackType(strings.ToLower(t))
		if !ok {
			return nil, fmt.Errorf("unknown attack type: %s", t)
		}
		attacks = append(attacks, attack)
	}

	return attacks, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	sc := f.Scenario

	if _, _, err := f.Level(); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if sc.Tree.MaxRetries != nil && *sc.Tree.MaxRetries < 0 {
		return fmt.Errorf("tree.max_retries must be non-negative")
	}

	if sc.Client.Workers < 0 {
		return fmt.Errorf("client.workers must be non-negative")
	}

	ratios := map[string]float64{
		"write_ratio":  sc.Client.WriteRatio,
		"remove_ratio": sc.Client.RemoveRatio,
		"clear_ratio":  sc.Client.ClearRatio,
		"scan_ratio":   sc.Client.ScanRatio,
	}
	total := 0.0
	for name, r := range ratios {
		if r < 0 || r > 1 {
			return fmt.Errorf("client.%s must be between 0 and 1", name)
		}
		total += r
	}
	if total > 1 {
		return fmt.Errorf("client ratios must not add up to more than 1 (got %.2f)", total)
	}

	if sc.Client.KeyRange < 0 {
		return fmt.Errorf("client.key_range must be non-negative")
	}

	if sc.Client.RequestsPerSecond < 0 {
		return fmt.Errorf("client.requests_per_second must be non-negative")
	}

	if sc.Chaos.ClearConcurrency < 0 {
		return fmt.Errorf("chaos.clear_concurrency must be non-negative")
	}

	if sc.Chaos.BurstSize < 0 {
		return fmt.Errorf("chaos.burst_size must be non-negative")
	}

	return nil
}
