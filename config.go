package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jinzhu/configor"
)

const (
	providerCOS   = "cos"
	providerAWS   = "aws"
	providerGCS   = "gcs"
	providerAzure = "azure"
	providerMinio = "minio"
)

// AppConfig is read from an optional config file and the environment. The
// env names match the inputs of the GitHub Action this tool replaces.
type AppConfig struct {
	Provider         string       `yaml:"provider" default:"cos" env:"INPUT_PROVIDER"`
	Bucket           string       `yaml:"bucket" required:"true" env:"INPUT_BUCKET"`
	Region           string       `yaml:"region" env:"INPUT_REGION"`
	LocalPath        string       `yaml:"local_path" required:"true" env:"INPUT_LOCAL_PATH"`
	RemotePath       string       `yaml:"remote_path" env:"INPUT_REMOTE_PATH"`
	Clean            bool         `yaml:"clean" env:"INPUT_CLEAN"`
	Accelerate       bool         `yaml:"accelerate" env:"INPUT_ACCELERATE"`
	AccessKey        string       `yaml:"access_key" env:"INPUT_ACCESS_KEY"`
	SecretKey        string       `yaml:"secret_key" env:"INPUT_SECRET_KEY"`
	Endpoint         string       `yaml:"endpoint" env:"INPUT_ENDPOINT"`
	IAMProfile       string       `yaml:"iam_profile" env:"INPUT_IAM_PROFILE"`
	Exclude          string       `yaml:"exclude" env:"INPUT_EXCLUDE"`
	Concurrency      int          `yaml:"concurrency" default:"1" env:"INPUT_CONCURRENCY"`
	OperationTimeout string       `yaml:"operation_timeout" env:"INPUT_OPERATION_TIMEOUT"`
	StorageClass     string       `yaml:"storage_class" default:"STANDARD" env:"INPUT_STORAGE_CLASS"`
	PageSize         int32        `yaml:"page_size" default:"1000" env:"INPUT_PAGE_SIZE"`
	Schedule         string       `yaml:"schedule" env:"INPUT_SCHEDULE"`
	LogLevel         string       `yaml:"log_level" default:"info" env:"INPUT_LOG_LEVEL"`
	LogFormat        string       `yaml:"log_format" default:"text" env:"INPUT_LOG_FORMAT"`
	GCSCredentials   string       `yaml:"gcs_credentials" env:"INPUT_GCS_CREDENTIALS"`
	Azure            AzureConfig  `yaml:"azure"`
	Notify           NotifyConfig `yaml:"notify"`
}

type AzureConfig struct {
	Account  string `yaml:"account" env:"INPUT_AZURE_ACCOUNT"`
	Key      string `yaml:"key" env:"INPUT_AZURE_KEY"`
	SASToken string `yaml:"sas_token" env:"INPUT_AZURE_SAS_TOKEN"`
}

type NotifyConfig struct {
	Topic   string `yaml:"topic" env:"INPUT_SNS_TOPIC"`
	Region  string `yaml:"region" env:"INPUT_SNS_REGION"`
	Profile string `yaml:"profile" env:"INPUT_SNS_PROFILE"`
}

// SyncConfig is the validated, immutable input of one sync run.
type SyncConfig struct {
	Bucket           string
	Region           string
	LocalPath        string
	RemotePath       string
	Clean            bool
	Exclude          []string
	Concurrency      int
	OperationTimeout time.Duration
	StorageClass     string
	PageSize         int32
}

// loadConfig reads configFilePath (if any) and the environment.
func loadConfig(configFilePath string) (AppConfig, error) {
	var appConfig AppConfig
	files := make([]string, 0, 1)
	if configFilePath != "" {
		files = append(files, configFilePath)
	}

	loader := configor.New(&configor.Config{ENVPrefix: "INPUT", Silent: true})
	if loadErr := loader.Load(&appConfig, files...); loadErr != nil {
		return appConfig, &ConfigError{Field: "config", Reason: "load failed", Err: loadErr}
	}
	if validateErr := appConfig.Validate(); validateErr != nil {
		return appConfig, validateErr
	}

	return appConfig, nil
}

func (c AppConfig) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case providerCOS:
		if c.Region == "" {
			return &ConfigError{Field: "region", Reason: "required for provider cos"}
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return &ConfigError{Field: "access_key", Reason: "access_key and secret_key are required for provider cos"}
		}
	case providerAWS:
		if c.Region == "" {
			return &ConfigError{Field: "region", Reason: "required for provider aws"}
		}
	case providerMinio:
		if c.Endpoint == "" {
			return &ConfigError{Field: "endpoint", Reason: "required for provider minio"}
		}
	case providerAzure:
		if c.Azure.Account == "" {
			return &ConfigError{Field: "azure.account", Reason: "required for provider azure"}
		}
	case providerGCS:
	default:
		return &ConfigError{Field: "provider", Reason: fmt.Sprintf("unknown cloud provider: %q", c.Provider)}
	}

	if c.Bucket == "" {
		return &ConfigError{Field: "bucket", Reason: "required"}
	}
	if c.LocalPath == "" {
		return &ConfigError{Field: "local_path", Reason: "required"}
	}
	if c.Concurrency < 1 {
		return &ConfigError{Field: "concurrency", Reason: "must be at least 1"}
	}
	if c.PageSize < 1 || c.PageSize > 1000 {
		return &ConfigError{Field: "page_size", Reason: "must be between 1 and 1000"}
	}
	for _, pattern := range c.excludePatterns() {
		if !doublestar.ValidatePattern(pattern) {
			return &ConfigError{Field: "exclude", Reason: fmt.Sprintf("bad pattern %q", pattern)}
		}
	}
	if _, err := c.operationTimeout(); err != nil {
		return err
	}

	return nil
}

func (c AppConfig) operationTimeout() (time.Duration, error) {
	if c.OperationTimeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(c.OperationTimeout)
	if err != nil {
		return 0, &ConfigError{Field: "operation_timeout", Reason: "not a duration", Err: err}
	}
	if timeout < 0 {
		return 0, &ConfigError{Field: "operation_timeout", Reason: "must not be negative"}
	}
	return timeout, nil
}

// excludePatterns splits the exclude input on commas and newlines, the two
// ways a GitHub Action input carries a list.
func (c AppConfig) excludePatterns() []string {
	fields := strings.FieldsFunc(c.Exclude, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	patterns := make([]string, 0, len(fields))
	for _, field := range fields {
		if pattern := strings.TrimSpace(field); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}

// SyncConfig builds the run configuration; call Validate first.
func (c AppConfig) SyncConfig() (SyncConfig, error) {
	timeout, err := c.operationTimeout()
	if err != nil {
		return SyncConfig{}, err
	}

	return SyncConfig{
		Bucket:           c.Bucket,
		Region:           c.Region,
		LocalPath:        c.LocalPath,
		RemotePath:       c.RemotePath,
		Clean:            c.Clean,
		Exclude:          c.excludePatterns(),
		Concurrency:      c.Concurrency,
		OperationTimeout: timeout,
		StorageClass:     c.StorageClass,
		PageSize:         c.PageSize,
	}, nil
}

func (c AppConfig) ClientFromConfig(ctx context.Context) (BucketClient, error) {
	var bucketClient BucketClient
	var err error

	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case providerCOS:
		bucketClient, err = NewCOSBucketClient(ctx, c)
	case providerAWS:
		bucketClient, err = NewS3BucketClient(ctx, c)
	case providerGCS:
		bucketClient, err = NewGCSBucketClient(ctx, c)
	case providerAzure:
		bucketClient, err = NewAzureBucketClient(c)
	case providerMinio:
		bucketClient, err = NewMinioBucketClient(c)
	default:
		return nil, &ConfigError{Field: "provider", Reason: fmt.Sprintf("unknown cloud provider: %q", c.Provider)}
	}
	if err != nil {
		var configErr *ConfigError
		if errors.As(err, &configErr) {
			return nil, err
		}
		return nil, fmt.Errorf("creating %s client: %w", c.Provider, err)
	}

	return bucketClient, nil
}

// ConfigStringArray renders the non-secret settings for the startup log.
func (c AppConfig) ConfigStringArray() []string {
	configStrArr := make([]string, 0)
	configStrArr = append(configStrArr, fmt.Sprintf("  - Provider: %s", c.Provider))
	configStrArr = append(configStrArr, fmt.Sprintf("  - Bucket: %s", c.Bucket))
	if c.Region != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Region: %s", c.Region))
	}
	if c.Endpoint != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Endpoint: %s", c.Endpoint))
	}
	configStrArr = append(configStrArr, fmt.Sprintf("  - LocalPath: %s", c.LocalPath))
	configStrArr = append(configStrArr, fmt.Sprintf("  - RemotePath: %s", c.RemotePath))
	configStrArr = append(configStrArr, fmt.Sprintf("  - Clean: %t", c.Clean))
	configStrArr = append(configStrArr, fmt.Sprintf("  - Accelerate: %t", c.Accelerate))
	configStrArr = append(configStrArr, fmt.Sprintf("  - Concurrent Operations: %d", c.Concurrency))

	if patterns := c.excludePatterns(); len(patterns) > 0 {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Exclude: %s", strings.Join(patterns, ", ")))
	}
	if c.Schedule != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Schedule: %s", c.Schedule))
	}
	if c.Notify.Topic != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - SNSTopic: %s", c.Notify.Topic))
	}

	return configStrArr
}
