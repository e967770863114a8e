package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// RequestTimeout bounds one page load, including the spreadsheet fetch.
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SourceConfig selects and locates the spreadsheet the survey is read from
type SourceConfig struct {
	Kind string `yaml:"kind" envconfig:"KIND" validate:"oneof=google xlsx csv"`
	// CredentialsFile is the service-account JSON used by the google source.
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE" validate:"required_if=Kind google"`
	// Spreadsheet is a full spreadsheet URL or a bare spreadsheet ID.
	Spreadsheet string `yaml:"spreadsheet" envconfig:"SPREADSHEET" validate:"required_if=Kind google"`
	// Tab is the worksheet title. Empty selects the first sheet of an xlsx file.
	Tab       string        `yaml:"tab" envconfig:"TAB"`
	FilePath  string        `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_if=Kind xlsx,required_if=Kind csv"`
	Delimiter string        `yaml:"delimiter" envconfig:"DELIMITER" validate:"omitempty,len=1"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// DashboardConfig describes the page and the charts drawn on it
type DashboardConfig struct {
	Title            string `yaml:"title" envconfig:"TITLE" validate:"required"`
	Subtitle         string `yaml:"subtitle" envconfig:"SUBTITLE"`
	DecimalSeparator string `yaml:"decimal_separator" envconfig:"DECIMAL_SEPARATOR" validate:"len=1"`
	ShowTable        bool   `yaml:"show_table" envconfig:"SHOW_TABLE"`
	// Charts can only be set from the config file.
	Charts []ChartConfig `yaml:"charts" ignored:"true" validate:"required,min=1,unique=ID,dive"`
}

// ChartConfig is one parameterised run of the aggregation pipeline
type ChartConfig struct {
	ID     string `yaml:"id" validate:"required,chartid"`
	Title  string `yaml:"title" validate:"required"`
	Kind   string `yaml:"kind" validate:"oneof=bar pie"`
	Column string `yaml:"column" validate:"required"`
	// Labels fixes both the categories counted and their display order.
	Labels     []string `yaml:"labels" validate:"required,min=1,unique,dive,required"`
	XAxisLabel string   `yaml:"x_axis_label"`
	// Colors are hex colours; bars use the first, pie slices cycle through all.
	Colors []string `yaml:"colors" validate:"omitempty,dive,hexcolor"`
	// StripFromTicks lists characters removed from labels on the axis.
	StripFromTicks string `yaml:"strip_from_ticks"`
	Decimals       int    `yaml:"decimals" validate:"min=0,max=4"`
	Width          int    `yaml:"width" validate:"omitempty,min=200,max=4000"`
	Height         int    `yaml:"height" validate:"omitempty,min=150,max=4000"`
}

// TelemetryConfig contains OpenTelemetry exporter selection
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path searches the
// usual locations; SURVEYDASH_CONFIG overrides the search.
func Load(path string) (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	// Sequences in the file replace the defaults; charts are never merged by index.
	return yaml.UnmarshalStrict(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"surveydash.yaml",
		"config.yaml",
		"configs/surveydash.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Chart returns the chart with the given id
func (c *Config) Chart(id string) (ChartConfig, bool) {
	for _, ch := range c.Dashboard.Charts {
		if ch.ID == id {
			return ch, true
		}
	}
	return ChartConfig{}, false
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  45 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/surveydash.log",
		},
		Source: SourceConfig{
			Kind:            SourceGoogle,
			CredentialsFile: DefaultCredentialsFile,
			Spreadsheet:     DefaultSpreadsheetURL,
			Tab:             DefaultTab,
			Delimiter:       ",",
			Timeout:         DefaultFetchTimeout,
		},
		Dashboard: DashboardConfig{
			Title:            "Agrônomos 2024",
			Subtitle:         "Estatística do Mercado de Trabalho Agrônomico",
			DecimalSeparator: ",",
			ShowTable:        true,
			Charts:           DefaultCharts(),
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}

// DefaultCharts returns the salary and graduation-year charts of the
// agronomists survey.
func DefaultCharts() []ChartConfig {
	return []ChartConfig{
		{
			ID:     "salario",
			Title:  "Distribuição Percentual dos Salários",
			Kind:   ChartBar,
			Column: SalaryColumn,
			Labels: []string{
				"R$1.000 - R$2.000",
				"R$2.000 - R$3.000",
				"R$3.000 - R$4.000",
				"R$4.000 - R$5.000",
			},
			XAxisLabel:     "Faixa Salarial (R$)",
			Colors:         []string{"#000000"},
			StripFromTicks: "R$",
			Decimals:       1,
			Width:          800,
			Height:         600,
		},
		{
			ID:         "formatura",
			Title:      "Ano de Formatura",
			Kind:       ChartPie,
			Column:     GraduationColumn,
			Labels:     []string{"2018", "2019", "2020", "2021", "2022", "2023"},
			XAxisLabel: "Ano",
			Colors:     []string{"#1b5e20", "#2e7d32", "#43a047", "#66bb6a", "#a5d6a7", "#c8e6c9"},
			Decimals:   1,
			Width:      600,
			Height:     600,
		},
	}
}
