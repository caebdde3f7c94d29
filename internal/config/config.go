package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hylla/hackboard/internal/domain"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Identity IdentityConfig `toml:"identity"`
	Board    BoardConfig    `toml:"board"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// IdentityConfig names the acting member for local edits.
type IdentityConfig struct {
	ActorID string `toml:"actor_id"`
}

type BoardConfig struct {
	DefaultTeam string         `toml:"default_team"`
	Columns     []ColumnConfig `toml:"columns"`
}

// ColumnConfig restyles one of the fixed status columns. Unlisted columns keep
// their stock title and color.
type ColumnConfig struct {
	ID    string `toml:"id"`
	Title string `toml:"title"`
	Color string `toml:"color"`
}

type LoggingConfig struct {
	Level   string `toml:"level"`
	DevFile bool   `toml:"dev_file"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// CacheConfig enables the Redis read cache in front of SQLite.
type CacheConfig struct {
	Enabled   bool     `toml:"enabled"`
	RedisAddr string   `toml:"redis_addr"`
	DB        int      `toml:"db"`
	TTL       Duration `toml:"ttl"`
	KeyPrefix string   `toml:"key_prefix"`
}

// Duration decodes TOML strings such as "30s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Identity: IdentityConfig{
			ActorID: "hackboard-user",
		},
		Logging: LoggingConfig{
			Level:   "info",
			DevFile: false,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Cache: CacheConfig{
			Enabled:   false,
			RedisAddr: "127.0.0.1:6379",
			TTL:       Duration(30 * time.Second),
			KeyPrefix: "hackboard:",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	seen := map[domain.Status]struct{}{}
	for idx, column := range c.Board.Columns {
		status, err := domain.ParseStatus(column.ID)
		if err != nil {
			return fmt.Errorf("board.columns[%d].id must be one of todo, inprogress, done: %q", idx, column.ID)
		}
		if strings.TrimSpace(column.Title) == "" {
			return fmt.Errorf("board.columns[%d].title is required", idx)
		}
		if _, ok := seen[status]; ok {
			return fmt.Errorf("board.columns[%d].id is duplicated: %s", idx, status)
		}
		seen[status] = struct{}{}
	}

	if level := strings.ToLower(strings.TrimSpace(c.Logging.Level)); level != "" && !slices.Contains(logLevels, level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	for name, endpoint := range map[string]string{"server.api_endpoint": c.Server.APIEndpoint, "server.mcp_endpoint": c.Server.MCPEndpoint} {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}

	if c.Cache.Enabled && strings.TrimSpace(c.Cache.RedisAddr) == "" {
		return errors.New("cache.redis_addr is required when cache.enabled is true")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be >= 0")
	}
	if c.Cache.DB < 0 {
		return fmt.Errorf("cache.db must be >= 0")
	}

	return nil
}

// ColumnTemplates converts configured columns into board templates.
func (c Config) ColumnTemplates() []domain.ColumnTemplate {
	out := make([]domain.ColumnTemplate, 0, len(c.Board.Columns))
	for _, column := range c.Board.Columns {
		status, err := domain.ParseStatus(column.ID)
		if err != nil {
			continue
		}
		out = append(out, domain.ColumnTemplate{
			Status: status,
			Title:  strings.TrimSpace(column.Title),
			Color:  strings.TrimSpace(column.Color),
		})
	}
	return out
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// ErrConfigExists reports that Write refused to replace an existing file.
var ErrConfigExists = errors.New("config file already exists")

// Write encodes cfg as TOML at path, creating parent directories. An existing
// file is left untouched unless overwrite is set.
func Write(path string, cfg Config, overwrite bool) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrConfigExists)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}
	}
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
