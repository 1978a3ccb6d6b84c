/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend names a storage backend.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendDynamoDB Backend = "dynamodb"
	BackendPostgres Backend = "postgres"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCANSTORE_"

// Config is the complete scanstore configuration.
type Config struct {
	Backend      Backend            `yaml:"backend" validate:"required,oneof=memory dynamodb postgres"`
	DynamoDB     DynamoDBConfig     `yaml:"dynamodb"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	Partitioning PartitioningConfig `yaml:"partitioning"`
	Paging       PagingConfig       `yaml:"paging"`
	Retry        RetryConfig        `yaml:"retry"`
	Breaker      BreakerConfig      `yaml:"breaker"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Log          LogConfig          `yaml:"log"`
}

// DynamoDBConfig configures the DynamoDB backend.
type DynamoDBConfig struct {
	Region          string `yaml:"region"`
	Table           string `yaml:"table"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`

	PartitionKeyAttribute string `yaml:"partitionKeyAttribute" validate:"required"`
	SortKeyAttribute      string `yaml:"sortKeyAttribute" validate:"required,nefield=PartitionKeyAttribute"`
}

// PostgresConfig configures the Postgres backend.
type PostgresConfig struct {
	ConnString   string `yaml:"connString"`
	Table        string `yaml:"table" validate:"required"`
	EnsureSchema bool   `yaml:"ensureSchema"`
}

// PartitioningConfig configures partition key derivation.
type PartitioningConfig struct {
	BucketCount int `yaml:"bucketCount" validate:"min=1"`
}

// PagingConfig configures query paging.
type PagingConfig struct {
	// MaxItemCount is a per-page hint; zero leaves the page size to the backend.
	MaxItemCount int32 `yaml:"maxItemCount" validate:"min=0"`
}

// RetryConfig configures retries of transient page failures.
type RetryConfig struct {
	MaxRetries    int           `yaml:"maxRetries" validate:"min=0,max=10"`
	InitialDelay  time.Duration `yaml:"initialDelay" validate:"min=0"`
	MaxDelay      time.Duration `yaml:"maxDelay" validate:"gtefield=InitialDelay"`
	BackoffFactor float64       `yaml:"backoffFactor" validate:"gte=1"`
	JitterFactor  float64       `yaml:"jitterFactor" validate:"gte=0,lte=1"`
}

// BreakerConfig configures the circuit breaker in front of the backend.
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Name             string        `yaml:"name" validate:"required_if=Enabled true"`
	MaxRequests      uint32        `yaml:"maxRequests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failureThreshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `yaml:"minRequests"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" validate:"required"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

var validate = validator.New()

// Default returns a configuration for the in-memory backend.
func Default() *Config {
	return &Config{
		Backend: BackendMemory,
		DynamoDB: DynamoDBConfig{
			PartitionKeyAttribute: "PK",
			SortKeyAttribute:      "SK",
		},
		Postgres: PostgresConfig{
			Table: "documents",
		},
		Partitioning: PartitioningConfig{
			BucketCount: 1000,
		},
		Retry: RetryConfig{
			MaxRetries:    3,
			InitialDelay:  100 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		},
		Breaker: BreakerConfig{
			Name:             "scanstore",
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		Metrics: MetricsConfig{
			Namespace: "scanstore",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing priority. A .env file in the working directory is
// loaded first when present. The result is validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := cfg.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnvironment(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Decode overlays YAML from r onto cfg. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnvironment overlays SCANSTORE_* variables found through lookup.
func (c *Config) ApplyEnvironment(lookup func(string) (string, bool)) error {
	env := func(name string) (string, bool) {
		val, ok := lookup(EnvPrefix + name)
		return val, ok && val != ""
	}

	if val, ok := env("BACKEND"); ok {
		c.Backend = Backend(strings.ToLower(val))
	}

	// DynamoDB
	if val, ok := env("DDB_REGION"); ok {
		c.DynamoDB.Region = val
	}
	if val, ok := env("DDB_TABLE"); ok {
		c.DynamoDB.Table = val
	}
	if val, ok := env("DDB_ENDPOINT"); ok {
		c.DynamoDB.Endpoint = val
	}
	if val, ok := env("DDB_ACCESS_KEY"); ok {
		c.DynamoDB.AccessKeyID = val
	}
	if val, ok := env("DDB_SECRET_KEY"); ok {
		c.DynamoDB.SecretAccessKey = val
	}

	// Postgres
	if val, ok := env("PG_CONN"); ok {
		c.Postgres.ConnString = val
	}
	if val, ok := env("PG_TABLE"); ok {
		c.Postgres.Table = val
	}

	if val, ok := env("BUCKET_COUNT"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %sBUCKET_COUNT %q: %w", EnvPrefix, val, err)
		}
		c.Partitioning.BucketCount = n
	}
	if val, ok := env("MAX_ITEM_COUNT"); ok {
		n, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_ITEM_COUNT %q: %w", EnvPrefix, val, err)
		}
		c.Paging.MaxItemCount = int32(n)
	}
	if val, ok := env("MAX_RETRIES"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_RETRIES %q: %w", EnvPrefix, val, err)
		}
		c.Retry.MaxRetries = n
	}
	if val, ok := env("BREAKER_ENABLED"); ok {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %sBREAKER_ENABLED %q: %w", EnvPrefix, val, err)
		}
		c.Breaker.Enabled = enabled
	}

	if val, ok := env("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(val)
	}
	if val, ok := env("LOG_DEVELOPMENT"); ok {
		development, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %sLOG_DEVELOPMENT %q: %w", EnvPrefix, val, err)
		}
		c.Log.Development = development
	}

	return nil
}

// Validate checks field constraints and the settings the selected backend needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	switch c.Backend {
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return errors.New("dynamodb.table is required for the dynamodb backend")
		}
		if c.DynamoDB.Region == "" && c.DynamoDB.Endpoint == "" {
			return errors.New("dynamodb.region or dynamodb.endpoint is required for the dynamodb backend")
		}
		if (c.DynamoDB.AccessKeyID == "") != (c.DynamoDB.SecretAccessKey == "") {
			return errors.New("dynamodb.accessKeyId and dynamodb.secretAccessKey must be set together")
		}
	case BackendPostgres:
		if c.Postgres.ConnString == "" {
			return errors.New("postgres.connString is required for the postgres backend")
		}
	}

	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}
	return errors.New(strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	// Drop the leading "Config." so messages name the YAML path.
	field := strings.TrimPrefix(e.Namespace(), "Config.")

	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", field, e.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
