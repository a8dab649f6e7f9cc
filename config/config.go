package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"weblog-stats/models"
	"weblog-stats/services"
	"weblog-stats/utils"
)

var ErrMissingSource = errors.New("config: an input source is required (-url or ACCESS_LOG_URL)")

// Config holds all application configuration. Values come from the
// environment (optionally via a .env file) and may be overridden by flags.
type Config struct {
	Source    string `env:"ACCESS_LOG_URL"`
	ShowHours bool   `env:"SHOW_HOURS"`
	Peek      int    `env:"PEEK"`

	ParseMode       string `env:"PARSE_MODE" envDefault:"tolerant"`
	Delimiter       string `env:"DELIMITER" envDefault:"auto"`
	SniffSampleSize int    `env:"SNIFF_SAMPLE_SIZE" envDefault:"4096"`

	FetchTimeout     time.Duration `env:"FETCH_TIMEOUT" envDefault:"0s"`
	FetchMaxAttempts int           `env:"FETCH_MAX_ATTEMPTS" envDefault:"1"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`

	ExportCSVPath  string `env:"EXPORT_CSV_PATH"`
	ExportPostgres bool   `env:"EXPORT_POSTGRES"`

	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	S3       S3Config
}

type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"weblog"`
	Password string `env:"PASSWORD"`
	DB       string `env:"DB" envDefault:"weblog_stats"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

type S3Config struct {
	Region         string `env:"AWS_REGION"`
	Endpoint       string `env:"S3_ENDPOINT"`
	AccessKeyID    string `env:"AWS_ACCESS_KEY_ID"`
	SecretKey      string `env:"AWS_SECRET_ACCESS_KEY"`
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE"`
}

// flagEnv maps each flag to the environment variable it overrides.
var flagEnv = map[string]string{
	"url":        "ACCESS_LOG_URL",
	"hours":      "SHOW_HOURS",
	"peek":       "PEEK",
	"mode":       "PARSE_MODE",
	"strict":     "PARSE_MODE",
	"delimiter":  "DELIMITER",
	"log-level":  "LOG_LEVEL",
	"export-csv": "EXPORT_CSV_PATH",
	"export-pg":  "EXPORT_POSTGRES",
}

// Load reads the .env file, if any, and parses the environment. Variables
// whose flag is present in args are left out, so a malformed value that
// the command line replaces does not fail the run.
func Load(args []string) (*Config, error) {
	// A missing .env file is normal; system env vars are used instead.
	_ = godotenv.Load()

	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		environ[k] = v
	}
	for _, name := range flagsSet(args) {
		delete(environ, flagEnv[name])
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}

// flagsSet returns the names of the flags given in args. Parse errors are
// ignored here; they are reported when the real flag set parses args.
func flagsSet(args []string) []string {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	(&Config{}).BindFlags(fs)
	fs.Bool("version", false, "")
	_ = fs.Parse(args)

	var names []string
	fs.Visit(func(f *flag.Flag) { names = append(names, f.Name) })
	return names
}

// BindFlags registers command-line overrides on fs, using the current
// values as defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Source, "url", c.Source, "CSV source: http(s)://, file://, s3:// URI or local path")
	fs.BoolVar(&c.ShowHours, "hours", c.ShowHours, "print hits per hour when timestamps parse")
	fs.IntVar(&c.Peek, "peek", c.Peek, "print the first N parsed records for debugging")
	fs.StringVar(&c.ParseMode, "mode", c.ParseMode, "row acceptance: tolerant or strict")
	fs.BoolFunc("strict", "shorthand for -mode strict", func(string) error {
		c.ParseMode = string(models.ModeStrict)
		return nil
	})
	fs.StringVar(&c.Delimiter, "delimiter", c.Delimiter, "field separator: auto, comma, semicolon, tab or pipe")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&c.ExportCSVPath, "export-csv", c.ExportCSVPath, "also write normalized records to this CSV file")
	fs.BoolVar(&c.ExportPostgres, "export-pg", c.ExportPostgres, "also store the run summary in PostgreSQL")
}

// Validate checks the combined configuration.
func (c *Config) Validate() error {
	if c.Source == "" {
		return ErrMissingSource
	}
	if c.Peek < 0 {
		return fmt.Errorf("config: peek must not be negative, got %d", c.Peek)
	}
	if c.SniffSampleSize <= 0 {
		return fmt.Errorf("config: SNIFF_SAMPLE_SIZE must be positive, got %d", c.SniffSampleSize)
	}
	if c.FetchMaxAttempts < 1 {
		return fmt.Errorf("config: FETCH_MAX_ATTEMPTS must be at least 1, got %d", c.FetchMaxAttempts)
	}
	if _, err := c.Mode(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Delim(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) Mode() (models.ParseMode, error) {
	return models.LookupParseMode(c.ParseMode)
}

func (c *Config) Delim() (models.Delimiter, error) {
	return models.ParseDelimiter(c.Delimiter)
}

func (c *Config) Level() (utils.Level, error) {
	return utils.ParseLevel(c.LogLevel)
}

// ParserOptions converts the parsing settings. Call Validate first.
func (c *Config) ParserOptions() services.ParserOptions {
	mode, _ := c.Mode()
	delim, _ := c.Delim()
	return services.ParserOptions{Mode: mode, Delimiter: delim, SampleSize: c.SniffSampleSize}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	p := c.Postgres
	return "host=" + p.Host +
		" port=" + p.Port +
		" user=" + p.User +
		" password=" + p.Password +
		" dbname=" + p.DB +
		" sslmode=" + p.SSLMode
}
