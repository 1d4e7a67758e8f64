// Package config defines the global configuration for the appeal
// notification engine. Configuration is loaded once at process
// initialization and is immutable thereafter; values come from the OS
// environment with an optional dotenv file for local runs. Any missing
// required value or invalid format causes the application to fail
// immediately on startup.
package config

import (
	"time"

	"appealnotify/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific config subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"appeal-notifications"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server         ServerConfig
	Database       DatabaseConfig
	AWS            AWSConfig
	Auth           AuthConfig
	Notify         NotifyConfig
	Documents      DocumentsConfig
	Templates      TemplatesConfig
	OutOfHours     OutOfHoursConfig
	Retry          RetryConfig
	Correspondence CorrespondenceConfig
	Observability  ObservabilityConfig
}

// ServerConfig holds HTTP server configuration for the callback API.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// DatabaseConfig holds job-store connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout  time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region   string `envconfig:"AWS_REGION" default:"eu-west-2"`
	JobQueue string `envconfig:"SQS_JOB_QUEUE" validate:"required,url"`

	// LocalStack support (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// AuthConfig holds the service-to-service token verification endpoint used
// to authenticate inbound case callbacks.
type AuthConfig struct {
	BaseURL string        `envconfig:"AUTH_BASE_URL" validate:"required,url"`
	Timeout time.Duration `envconfig:"AUTH_TIMEOUT" default:"5s"`
}

// NotifyConfig holds the outbound notification provider credentials.
type NotifyConfig struct {
	BaseURL string        `envconfig:"NOTIFY_BASE_URL" validate:"required,url"`
	APIKey  SecretString  `envconfig:"NOTIFY_API_KEY"`
	Timeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
}

// DocumentsConfig holds the document-store and PDF-rendering service
// endpoints used by the bundled letter composer.
type DocumentsConfig struct {
	StoreBaseURL  string        `envconfig:"DOC_STORE_BASE_URL" validate:"required,url"`
	RenderBaseURL string        `envconfig:"PDF_RENDER_BASE_URL" validate:"required,url"`
	RenderAPIKey  SecretString  `envconfig:"PDF_RENDER_API_KEY"`
	Timeout       time.Duration `envconfig:"DOC_TIMEOUT" default:"30s"`
}

// TemplatesConfig locates the template-content dataset file. The dataset is
// owned by the template content team; an empty path is only valid in local
// mode, where a stub registry is substituted.
type TemplatesConfig struct {
	Path string `envconfig:"TEMPLATES_PATH"`
}

// OutOfHoursConfig holds the business-hours dispatch window. The window is
// half-open [StartHour, EndHour) and is evaluated in the fixed reference
// zone, not UTC, so daylight-saving transitions are handled correctly.
type OutOfHoursConfig struct {
	StartHour int    `envconfig:"OOH_START_HOUR" default:"8" validate:"min=0,max=23"`
	EndHour   int    `envconfig:"OOH_END_HOUR" default:"17" validate:"min=1,max=24"`
	Timezone  string `envconfig:"OOH_TIMEZONE" default:"Europe/London"`
}

// RetryConfig holds the dispatch retry ceiling.
type RetryConfig struct {
	MaxRetries int `envconfig:"DISPATCH_MAX_RETRIES" default:"3" validate:"min=0"`
}

// CorrespondenceConfig tunes the async post-dispatch persistence path.
type CorrespondenceConfig struct {
	StoreBaseURL string        `envconfig:"CORRESPONDENCE_BASE_URL" validate:"required,url"`
	MaxAttempts  int           `envconfig:"CORRESPONDENCE_MAX_ATTEMPTS" default:"5" validate:"min=1"`
	BaseDelay    time.Duration `envconfig:"CORRESPONDENCE_BASE_DELAY" default:"2s"`
	MaxInFlight  int           `envconfig:"CORRESPONDENCE_MAX_IN_FLIGHT" default:"4" validate:"min=1"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"AppealNotifications"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}
