package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Sheets     SheetsConfig     `yaml:"sheets"`
	Tables     TablesConfig     `yaml:"tables"`
	Routing    RoutingConfig    `yaml:"routing"`
	Alias      AliasConfig      `yaml:"alias"`
	Logging    LoggingConfig    `yaml:"logging"`
	Redis      RedisConfig      `yaml:"redis"`
	Journal    JournalConfig    `yaml:"journal"`
	Worker     WorkerConfig     `yaml:"worker"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	API        APIConfig        `yaml:"api"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
}

// TablesConfig names the logical tables inside the spreadsheet.
// Active tables are scanned in declaration order.
type TablesConfig struct {
	Active     []string `yaml:"active"`
	Stash      string   `yaml:"stash"`
	Archive    string   `yaml:"archive"`
	Catalog    string   `yaml:"catalog"`
	Log        string   `yaml:"log"`
	StashLabel string   `yaml:"stash_label"`
}

// RoutingConfig is the location-name heuristic: a location containing
// Keyword routes to KeywordTable, everything else to DefaultTable.
type RoutingConfig struct {
	Keyword      string `yaml:"keyword"`
	KeywordTable string `yaml:"keyword_table"`
	DefaultTable string `yaml:"default_table"`
}

type AliasConfig struct {
	Marker string `yaml:"marker"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	TTL      int    `yaml:"ttl_seconds"`
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

type WorkerConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	BatchSize           int `yaml:"batch_size"`
	MaxRetries          int `yaml:"max_retries"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type TelegramConfig struct {
	BotToken string  `yaml:"bot_token"`
	ChatIDs  []int64 `yaml:"chat_ids"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; config values may reference its variables.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Sheets.SpreadsheetID == "" {
		return errors.New("sheets spreadsheet_id is required")
	}
	if c.Sheets.CredentialsFile == "" {
		return errors.New("sheets credentials_file is required")
	}
	if len(c.Tables.Active) == 0 {
		return errors.New("at least one active table is required")
	}

	names := make(map[string]bool)
	for _, t := range append([]string{c.Tables.Stash, c.Tables.Archive, c.Tables.Catalog, c.Tables.Log}, c.Tables.Active...) {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" {
			return errors.New("table names must not be empty")
		}
		if names[key] {
			return fmt.Errorf("duplicate table name: %s", t)
		}
		names[key] = true
	}

	if !containsTable(c.Tables.Active, c.Routing.DefaultTable) {
		return fmt.Errorf("routing default_table %q is not an active table", c.Routing.DefaultTable)
	}
	if !containsTable(c.Tables.Active, c.Routing.KeywordTable) {
		return fmt.Errorf("routing keyword_table %q is not an active table", c.Routing.KeywordTable)
	}

	return nil
}

func containsTable(tables []string, name string) bool {
	for _, t := range tables {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "noormeds"
	}
	if len(c.Tables.Active) == 0 {
		c.Tables.Active = []string{"Shelf", "Fridge"}
	}
	if c.Tables.Stash == "" {
		c.Tables.Stash = "Stash"
	}
	if c.Tables.Archive == "" {
		c.Tables.Archive = "Archive"
	}
	if c.Tables.Catalog == "" {
		c.Tables.Catalog = "Locations"
	}
	if c.Tables.Log == "" {
		c.Tables.Log = "Log"
	}
	if c.Tables.StashLabel == "" {
		c.Tables.StashLabel = "stash"
	}
	if c.Routing.Keyword == "" {
		c.Routing.Keyword = "fridge"
	}
	if c.Routing.DefaultTable == "" {
		c.Routing.DefaultTable = c.Tables.Active[0]
	}
	if c.Routing.KeywordTable == "" {
		c.Routing.KeywordTable = c.Tables.Active[len(c.Tables.Active)-1]
	}
	if c.Alias.Marker == "" {
		c.Alias.Marker = "sparkles++"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 300
	}
	if c.Worker.PollIntervalSeconds == 0 {
		c.Worker.PollIntervalSeconds = 30
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 20
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 5
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
