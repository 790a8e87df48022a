package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	S3        S3Config
	Render    RenderConfig
	OCR       OCRConfig
	Pipeline  PipelineConfig
	Reconcile ReconcileConfig
	Solver    SolverConfig
	CORS      CORSConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// FetchConfig holds document download settings.
type FetchConfig struct {
	TimeoutSecs  int   `mapstructure:"timeout_secs"`
	MaxDocSizeMB int64 `mapstructure:"max_doc_size_mb"`
}

// S3Config holds AWS S3 settings for s3:// document URLs.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Enabled   bool   `mapstructure:"enabled"`
}

// RenderConfig holds page rendering settings.
type RenderConfig struct {
	Binary   string `mapstructure:"binary"`
	DPI      int    `mapstructure:"dpi"`
	MaxPages int    `mapstructure:"max_pages"`
}

// OCRConfig holds recognition settings.
type OCRConfig struct {
	Languages     []string `mapstructure:"languages"`
	MinConfidence float64  `mapstructure:"min_confidence"`
}

// PipelineConfig holds per-page extraction settings.
type PipelineConfig struct {
	Aggressive           bool    `mapstructure:"aggressive"`
	MinTableArea         int     `mapstructure:"min_table_area"`
	MinRowHeight         int     `mapstructure:"min_row_height"`
	MinColWidth          int     `mapstructure:"min_col_width"`
	Concurrency          int     `mapstructure:"concurrency"`
	DocumentTimeoutSecs  int     `mapstructure:"document_timeout_secs"`
	SimilarityThreshold  int     `mapstructure:"similarity_threshold"`
	StripFraction        float64 `mapstructure:"strip_fraction"`
	CorrelationThreshold float64 `mapstructure:"correlation_threshold"`
}

// ReconcileConfig holds reconciliation settings.
type ReconcileConfig struct {
	DeviationPenalty float64 `mapstructure:"deviation_penalty"`
	SolveTimeoutSecs int     `mapstructure:"solve_timeout_secs"`
}

// SolverConfig holds external MIP solver settings.
type SolverConfig struct {
	Binary string `mapstructure:"binary"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the BILLSCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILLSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	// Writes stay open for the full extraction, so the write timeout must
	// exceed the per-document extraction timeout.
	v.SetDefault("server.write_timeout", "360s")
	v.SetDefault("server.environment", "development")

	// Fetch defaults
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_doc_size_mb", 50)

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")

	// Render defaults
	v.SetDefault("render.binary", "pdftoppm")
	v.SetDefault("render.dpi", 300)
	v.SetDefault("render.max_pages", 50)

	// OCR defaults
	v.SetDefault("ocr.languages", "eng")
	v.SetDefault("ocr.min_confidence", 0)

	// Pipeline defaults
	v.SetDefault("pipeline.aggressive", false)
	v.SetDefault("pipeline.min_table_area", 3000)
	v.SetDefault("pipeline.min_row_height", 12)
	v.SetDefault("pipeline.min_col_width", 10)
	v.SetDefault("pipeline.concurrency", 0)
	v.SetDefault("pipeline.document_timeout_secs", 300)
	v.SetDefault("pipeline.similarity_threshold", 88)
	v.SetDefault("pipeline.strip_fraction", 0.15)
	v.SetDefault("pipeline.correlation_threshold", 0.75)

	// Reconcile defaults
	v.SetDefault("reconcile.deviation_penalty", 10)
	v.SetDefault("reconcile.solve_timeout_secs", 20)

	// Solver defaults
	v.SetDefault("solver.binary", "cbc")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "BILLSCAN_SERVER_PORT",
		"server.read_timeout":            "BILLSCAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "BILLSCAN_SERVER_WRITE_TIMEOUT",
		"server.environment":             "BILLSCAN_SERVER_ENVIRONMENT",
		"fetch.timeout_secs":             "BILLSCAN_FETCH_TIMEOUT_SECS",
		"fetch.max_doc_size_mb":          "BILLSCAN_FETCH_MAX_DOC_SIZE_MB",
		"s3.enabled":                     "BILLSCAN_S3_ENABLED",
		"s3.region":                      "BILLSCAN_S3_REGION",
		"s3.endpoint":                    "BILLSCAN_S3_ENDPOINT",
		"s3.access_key":                  "BILLSCAN_S3_ACCESS_KEY",
		"s3.secret_key":                  "BILLSCAN_S3_SECRET_KEY",
		"render.binary":                  "BILLSCAN_RENDER_BINARY",
		"render.dpi":                     "BILLSCAN_RENDER_DPI",
		"render.max_pages":               "BILLSCAN_RENDER_MAX_PAGES",
		"ocr.languages":                  "BILLSCAN_OCR_LANGUAGES",
		"ocr.min_confidence":             "BILLSCAN_OCR_MIN_CONFIDENCE",
		"pipeline.aggressive":            "BILLSCAN_PIPELINE_AGGRESSIVE",
		"pipeline.min_table_area":        "BILLSCAN_PIPELINE_MIN_TABLE_AREA",
		"pipeline.min_row_height":        "BILLSCAN_PIPELINE_MIN_ROW_HEIGHT",
		"pipeline.min_col_width":         "BILLSCAN_PIPELINE_MIN_COL_WIDTH",
		"pipeline.concurrency":           "BILLSCAN_PIPELINE_CONCURRENCY",
		"pipeline.document_timeout_secs": "BILLSCAN_PIPELINE_DOCUMENT_TIMEOUT_SECS",
		"pipeline.similarity_threshold":  "BILLSCAN_PIPELINE_SIMILARITY_THRESHOLD",
		"pipeline.strip_fraction":        "BILLSCAN_PIPELINE_STRIP_FRACTION",
		"pipeline.correlation_threshold": "BILLSCAN_PIPELINE_CORRELATION_THRESHOLD",
		"reconcile.deviation_penalty":    "BILLSCAN_RECONCILE_DEVIATION_PENALTY",
		"reconcile.solve_timeout_secs":   "BILLSCAN_RECONCILE_SOLVE_TIMEOUT_SECS",
		"solver.binary":                  "BILLSCAN_SOLVER_BINARY",
		"log.level":                      "BILLSCAN_LOG_LEVEL",
		"log.format":                     "BILLSCAN_LOG_FORMAT",
		"cors.allowed_origins":           "BILLSCAN_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if BILLSCAN_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("BILLSCAN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Fetch = FetchConfig{
		TimeoutSecs:  v.GetInt("fetch.timeout_secs"),
		MaxDocSizeMB: v.GetInt64("fetch.max_doc_size_mb"),
	}
	cfg.S3 = S3Config{
		Enabled:   v.GetBool("s3.enabled"),
		Region:    v.GetString("s3.region"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Render = RenderConfig{
		Binary:   v.GetString("render.binary"),
		DPI:      v.GetInt("render.dpi"),
		MaxPages: v.GetInt("render.max_pages"),
	}
	cfg.OCR = OCRConfig{
		Languages:     splitList(v.GetString("ocr.languages")),
		MinConfidence: v.GetFloat64("ocr.min_confidence"),
	}
	cfg.Pipeline = PipelineConfig{
		Aggressive:           v.GetBool("pipeline.aggressive"),
		MinTableArea:         v.GetInt("pipeline.min_table_area"),
		MinRowHeight:         v.GetInt("pipeline.min_row_height"),
		MinColWidth:          v.GetInt("pipeline.min_col_width"),
		Concurrency:          v.GetInt("pipeline.concurrency"),
		DocumentTimeoutSecs:  v.GetInt("pipeline.document_timeout_secs"),
		SimilarityThreshold:  v.GetInt("pipeline.similarity_threshold"),
		StripFraction:        v.GetFloat64("pipeline.strip_fraction"),
		CorrelationThreshold: v.GetFloat64("pipeline.correlation_threshold"),
	}
	cfg.Reconcile = ReconcileConfig{
		DeviationPenalty: v.GetFloat64("reconcile.deviation_penalty"),
		SolveTimeoutSecs: v.GetInt("reconcile.solve_timeout_secs"),
	}
	cfg.Solver = SolverConfig{
		Binary: v.GetString("solver.binary"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	return cfg, nil
}

// splitList parses a comma-separated env value into its non-empty elements.
func splitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
