// Package config handles loading and validation of frostlake settings.
//
// Settings come from an optional frostlake.yaml plus environment variable
// overrides; Lambda deployments typically use the environment alone.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds the handles frostlake needs to reach its external stores.
type Settings struct {
	Region          string `yaml:"region"`
	DataBucket      string `yaml:"dataBucket"`
	GlueDatabase    string `yaml:"glueDatabase"`
	AthenaWorkgroup string `yaml:"athenaWorkgroup"`
	AthenaOutput    string `yaml:"athenaOutput"`
	LedgerTable     string `yaml:"ledgerTable"`
	StateMachineARN string `yaml:"stateMachineArn"`
	EventBus        string `yaml:"eventBus"`

	// Polling policy for the bounded query primitive.
	PollInterval time.Duration `yaml:"pollInterval"`
	MaxAttempts  int           `yaml:"maxAttempts"`

	// Endpoint overrides for local stores (DynamoDB Local etc.).
	DynamoEndpoint string `yaml:"dynamoEndpoint"`
}

// Defaults for the polling bound: 2s interval, 60 attempts, a 120s deadline.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 60
)

// Load reads frostlake.yaml from dir (if present), applies environment
// overrides, and validates the result.
func Load(dir string) (*Settings, error) {
	var cfg Settings

	path := filepath.Join(dir, "frostlake.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// FromEnv builds settings from environment variables only.
func FromEnv() (*Settings, error) {
	var cfg Settings
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Settings) applyEnv() {
	setIfEnv(&c.Region, "AWS_REGION")
	setIfEnv(&c.DataBucket, "DATA_BUCKET")
	setIfEnv(&c.GlueDatabase, "GLUE_DATABASE")
	setIfEnv(&c.AthenaWorkgroup, "ATHENA_WORKGROUP")
	setIfEnv(&c.AthenaOutput, "ATHENA_OUTPUT")
	setIfEnv(&c.LedgerTable, "LEDGER_TABLE")
	setIfEnv(&c.StateMachineARN, "STATE_MACHINE_ARN")
	setIfEnv(&c.EventBus, "EVENT_BUS")
	setIfEnv(&c.DynamoEndpoint, "DYNAMO_ENDPOINT")
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.PollInterval = d
		}
	}
}

func (c *Settings) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
}

func validate(cfg *Settings) error {
	if cfg.DataBucket == "" {
		return fmt.Errorf("dataBucket is required")
	}
	if cfg.GlueDatabase == "" {
		return fmt.Errorf("glueDatabase is required")
	}
	if cfg.AthenaWorkgroup == "" {
		return fmt.Errorf("athenaWorkgroup is required")
	}
	if cfg.LedgerTable == "" {
		return fmt.Errorf("ledgerTable is required")
	}
	return nil
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
