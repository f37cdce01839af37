package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Request  RequestConfig  `yaml:"request"`
	Log      LogConfig      `yaml:"log"`
	DB       DBConfig       `yaml:"db"`
	Wikidata WikidataConfig `yaml:"wikidata"`
	Wiki     WikiConfig     `yaml:"wiki"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Output   OutputConfig   `yaml:"output"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries   int           `yaml:"retries"`
	Timeout   Duration      `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Backoff   BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// FileLogConfig holds settings for one log sink.
type FileLogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   FileLogConfig `yaml:"server"`
	Requests FileLogConfig `yaml:"requests"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path     string   `yaml:"path"`
	CacheTTL Duration `yaml:"cache_ttl"`
}

// WikidataConfig holds Wikidata endpoint settings.
type WikidataConfig struct {
	SPARQLEndpoint     string   `yaml:"sparql_endpoint"`
	APIEndpoint        string   `yaml:"api_endpoint"`
	EntityDataEndpoint string   `yaml:"entity_data_endpoint"`
	Language           string   `yaml:"language"`
	CacheEntities      bool     `yaml:"cache_entities"`
	WalkLimit          int      `yaml:"walk_limit"`
	WalkProperties     []string `yaml:"walk_properties"`
}

// WikiConfig holds MediaWiki site and bot account settings.
type WikiConfig struct {
	APIEndpoint string `yaml:"api_endpoint"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DryRun      bool   `yaml:"dry_run"`
	UploadLog   string `yaml:"upload_log"`
}

// SheetsConfig holds Google Sheets access settings.
type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	ReadRange       string `yaml:"read_range"`
}

// OutputConfig holds paths for generated artifacts.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Retries:   3,
			Timeout:   Duration(30 * time.Second),
			UserAgent: "",
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(60 * time.Second),
			},
		},
		Log: LogConfig{
			Server:   FileLogConfig{Path: "logs/wikiutils.log", Level: "INFO"},
			Requests: FileLogConfig{Path: "logs/requests.log", Level: "INFO"},
		},
		DB: DBConfig{
			Path:     "data/wikiutils.db",
			CacheTTL: Duration(30 * 24 * time.Hour), // 30d
		},
		Wikidata: WikidataConfig{
			SPARQLEndpoint:     "https://query.wikidata.org/sparql",
			APIEndpoint:        "https://www.wikidata.org/w/api.php",
			EntityDataEndpoint: "https://www.wikidata.org/wiki/Special:EntityData",
			Language:           "en",
			CacheEntities:      true,
			WalkLimit:          0, // unlimited
		},
		Wiki: WikiConfig{
			APIEndpoint: "https://wikisource.org/w/api.php",
			DryRun:      false,
			UploadLog:   "logs/upload_log.csv",
		},
		Sheets: SheetsConfig{
			CredentialsFile: "configs/service_account.json",
			ReadRange:       "Sheet1!A2:B",
		},
		Output: OutputConfig{Dir: "output"},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		// Load credentials from env if empty (never saved back to disk)
		if cfg.Wiki.Username == "" {
			cfg.Wiki.Username = os.Getenv("WIKI_USERNAME")
		}
		if cfg.Wiki.Password == "" {
			cfg.Wiki.Password = os.Getenv("WIKI_PASSWORD")
		}
		if cfg.Sheets.SpreadsheetID == "" {
			cfg.Sheets.SpreadsheetID = os.Getenv("SHEETS_SPREADSHEET_ID")
		}

		return cfg, nil
	}

	// If file does not exist, save defaults
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# wikiutils Configuration
# -----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
