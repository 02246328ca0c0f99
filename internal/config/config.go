package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"LISTEN_HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"8501" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"15s" validate:"gt=0"`
	RenderTimeout   time.Duration `yaml:"render_timeout" envconfig:"RENDER_TIMEOUT" default:"45s" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"10" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"20" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/dashboard.log"`
}

// DatasetConfig describes the input table and the derivation knobs applied to it.
type DatasetConfig struct {
	Path             string `yaml:"path" envconfig:"FILE" default:"WA_Fn-UseC_-Telco-Customer-Churn.csv" validate:"required"`
	Delimiter        string `yaml:"delimiter" envconfig:"DELIMITER" validate:"max=2"`
	BlankPlaceholder string `yaml:"blank_placeholder" envconfig:"BLANK_PLACEHOLDER" default:" " validate:"required"`
	ChargeBins       int    `yaml:"charge_bins" envconfig:"CHARGE_BINS" default:"10" validate:"min=1,max=100"`
	PreviewRows      int    `yaml:"preview_rows" envconfig:"PREVIEW_ROWS" default:"10" validate:"min=0,max=1000"`
	// StrictChurnLabels fails the run on a Churn value outside Yes/No
	// instead of leaving the flag undefined.
	StrictChurnLabels bool `yaml:"strict_churn_labels" envconfig:"STRICT_CHURN_LABELS" default:"false"`
	// MalformedCharges is "fail" or "skip".
	MalformedCharges string `yaml:"malformed_charges" envconfig:"MALFORMED_CHARGES" default:"fail" validate:"oneof=fail skip"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"churn-dashboard" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0" validate:"gte=0,lte=1"`
}

// Load loads configuration from environment variables and an optional YAML
// file. An empty path searches the usual locations; environment variables
// that are explicitly set take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		fileConfig, keys, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, keys, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileKeys holds the dotted YAML paths present in a config file, such as
// "security.rate_limit.enabled".
type fileKeys map[string]bool

// loadFromFile loads configuration from YAML file along with the set of keys
// the file actually sets.
func loadFromFile(filePath string) (*Config, fileKeys, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, err
	}

	var raw map[interface{}]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}
	keys := fileKeys{}
	keys.collect("", raw)

	return &cfg, keys, nil
}

func (k fileKeys) collect(prefix string, node map[interface{}]interface{}) {
	for name, value := range node {
		key := fmt.Sprint(name)
		if prefix != "" {
			key = prefix + "." + key
		}
		k[key] = true
		if child, ok := value.(map[interface{}]interface{}); ok {
			k.collect(key, child)
		}
	}
}

// mergeConfigs merges file config with env config. A value set explicitly in
// the environment wins, then any value present in the file (zero and false
// included), then the env default.
func mergeConfigs(fileConfig Config, keys fileKeys, envConfig Config) Config {
	c := envConfig

	c.Server.Host = pick(keys, "server.host", "SERVER_LISTEN_HOST", c.Server.Host, fileConfig.Server.Host)
	c.Server.Port = pick(keys, "server.port", "SERVER_PORT", c.Server.Port, fileConfig.Server.Port)
	c.Server.ReadTimeout = pick(keys, "server.read_timeout", "SERVER_READ_TIMEOUT", c.Server.ReadTimeout, fileConfig.Server.ReadTimeout)
	c.Server.WriteTimeout = pick(keys, "server.write_timeout", "SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout, fileConfig.Server.WriteTimeout)
	c.Server.IdleTimeout = pick(keys, "server.idle_timeout", "SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout, fileConfig.Server.IdleTimeout)
	c.Server.ShutdownTimeout = pick(keys, "server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout)
	c.Server.RenderTimeout = pick(keys, "server.render_timeout", "SERVER_RENDER_TIMEOUT", c.Server.RenderTimeout, fileConfig.Server.RenderTimeout)

	c.Security.RateLimit.Enabled = pick(keys, "security.rate_limit.enabled", "SECURITY_RATE_LIMIT_ENABLED", c.Security.RateLimit.Enabled, fileConfig.Security.RateLimit.Enabled)
	c.Security.RateLimit.RPS = pick(keys, "security.rate_limit.rps", "SECURITY_RATE_LIMIT_RPS", c.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS)
	c.Security.RateLimit.Burst = pick(keys, "security.rate_limit.burst", "SECURITY_RATE_LIMIT_BURST", c.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst)

	c.Logging.Level = pick(keys, "logging.level", "LOGGING_LEVEL", c.Logging.Level, fileConfig.Logging.Level)
	c.Logging.Output = pick(keys, "logging.output", "LOGGING_OUTPUT", c.Logging.Output, fileConfig.Logging.Output)
	c.Logging.FilePath = pick(keys, "logging.file_path", "LOGGING_FILE_PATH", c.Logging.FilePath, fileConfig.Logging.FilePath)

	c.Dataset.Path = pick(keys, "dataset.path", "DATASET_FILE", c.Dataset.Path, fileConfig.Dataset.Path)
	c.Dataset.Delimiter = pick(keys, "dataset.delimiter", "DATASET_DELIMITER", c.Dataset.Delimiter, fileConfig.Dataset.Delimiter)
	c.Dataset.BlankPlaceholder = pick(keys, "dataset.blank_placeholder", "DATASET_BLANK_PLACEHOLDER", c.Dataset.BlankPlaceholder, fileConfig.Dataset.BlankPlaceholder)
	c.Dataset.ChargeBins = pick(keys, "dataset.charge_bins", "DATASET_CHARGE_BINS", c.Dataset.ChargeBins, fileConfig.Dataset.ChargeBins)
	c.Dataset.PreviewRows = pick(keys, "dataset.preview_rows", "DATASET_PREVIEW_ROWS", c.Dataset.PreviewRows, fileConfig.Dataset.PreviewRows)
	c.Dataset.StrictChurnLabels = pick(keys, "dataset.strict_churn_labels", "DATASET_STRICT_CHURN_LABELS", c.Dataset.StrictChurnLabels, fileConfig.Dataset.StrictChurnLabels)
	c.Dataset.MalformedCharges = pick(keys, "dataset.malformed_charges", "DATASET_MALFORMED_CHARGES", c.Dataset.MalformedCharges, fileConfig.Dataset.MalformedCharges)

	c.Telemetry.ServiceName = pick(keys, "telemetry.service_name", "TELEMETRY_SERVICE_NAME", c.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName)
	c.Telemetry.Environment = pick(keys, "telemetry.environment", "TELEMETRY_ENVIRONMENT", c.Telemetry.Environment, fileConfig.Telemetry.Environment)
	c.Telemetry.TraceExporter = pick(keys, "telemetry.trace_exporter", "TELEMETRY_TRACE_EXPORTER", c.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter)
	c.Telemetry.MetricExporter = pick(keys, "telemetry.metric_exporter", "TELEMETRY_METRIC_EXPORTER", c.Telemetry.MetricExporter, fileConfig.Telemetry.MetricExporter)
	c.Telemetry.SampleRatio = pick(keys, "telemetry.sample_ratio", "TELEMETRY_SAMPLE_RATIO", c.Telemetry.SampleRatio, fileConfig.Telemetry.SampleRatio)

	return c
}

func pick[T any](keys fileKeys, fileKey, envKey string, envValue, fileValue T) T {
	if _, ok := os.LookupEnv(EnvPrefix + "_" + envKey); ok {
		return envValue
	}
	if keys[fileKey] {
		return fileValue
	}
	return envValue
}

// validate validates the configuration
func (c *Config) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: %q fails %q", strings.TrimPrefix(fe.Namespace(), "Config."), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return err
	}
	return nil
}

// DelimiterRune returns the configured field delimiter, or 0 to sniff it.
func (d DatasetConfig) DelimiterRune() rune {
	switch d.Delimiter {
	case "":
		return 0
	case `\t`:
		return '\t'
	}
	return []rune(d.Delimiter)[0]
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8501,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RenderTimeout:   45 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/dashboard.log",
		},
		Dataset: DatasetConfig{
			Path:             DefaultDatasetFile,
			BlankPlaceholder: " ",
			ChargeBins:       10,
			PreviewRows:      10,
			MalformedCharges: "fail",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "churn-dashboard",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
