package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hylla/hackboard/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/hackboard.db")
	if cfg.Database.Path != "/tmp/hackboard.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if len(cfg.Board.Columns) != 0 || len(cfg.ColumnTemplates()) != 0 {
		t.Fatalf("expected stock columns by default, got %#v", cfg.Board.Columns)
	}
	if cfg.Cache.Enabled || time.Duration(cfg.Cache.TTL) != 30*time.Second {
		t.Fatalf("unexpected cache defaults %#v", cfg.Cache)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/hackboard.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/hackboard.db"

[identity]
actor_id = "2"

[board]
default_team = "AI Innovation Squad"

[[board.columns]]
id = "todo"
title = "Backlog"
color = "border-slate-300"

[[board.columns]]
id = "in-progress"
title = "Doing"
color = "border-amber-300"

[logging]
level = "debug"
dev_file = true

[cache]
enabled = true
redis_addr = "localhost:6380"
ttl = "2m"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/hackboard.db" || cfg.Identity.ActorID != "2" {
		t.Fatalf("unexpected database/identity %#v %#v", cfg.Database, cfg.Identity)
	}
	if cfg.Board.DefaultTeam != "AI Innovation Squad" || !cfg.Logging.DevFile {
		t.Fatalf("unexpected board/logging %#v %#v", cfg.Board, cfg.Logging)
	}
	if !cfg.Cache.Enabled || cfg.Cache.RedisAddr != "localhost:6380" || time.Duration(cfg.Cache.TTL) != 2*time.Minute {
		t.Fatalf("unexpected cache %#v", cfg.Cache)
	}
	if cfg.Server.APIEndpoint != "/api/v1" {
		t.Fatalf("expected server defaults kept, got %#v", cfg.Server)
	}

	templates := cfg.ColumnTemplates()
	if len(templates) != 2 || templates[1].Status != domain.StatusInProgress || templates[1].Title != "Doing" {
		t.Fatalf("unexpected templates %#v", templates)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown column", content: "[[board.columns]]\nid = \"review\"\ntitle = \"Review\"\n", want: "board.columns[0].id"},
		{name: "duplicate column", content: "[[board.columns]]\nid = \"todo\"\ntitle = \"A\"\n[[board.columns]]\nid = \"to-do\"\ntitle = \"B\"\n", want: "duplicated"},
		{name: "empty title", content: "[[board.columns]]\nid = \"done\"\ntitle = \" \"\n", want: "title is required"},
		{name: "log level", content: "[logging]\nlevel = \"chatty\"\n", want: "logging.level"},
		{name: "endpoint", content: "[server]\napi_endpoint = \"api\"\n", want: "server.api_endpoint"},
		{name: "cache addr", content: "[cache]\nenabled = true\nredis_addr = \"\"\n", want: "cache.redis_addr"},
		{name: "cache ttl", content: "[cache]\nttl = \"soon\"\n", want: "decode toml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			_, err := Load(path, Default("/tmp/default.db"))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() error = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default("/tmp/hackboard.db")
	cfg.Identity.ActorID = "2"
	cfg.Cache.TTL = Duration(90 * time.Second)
	cfg.Board.Columns = []ColumnConfig{{ID: "done", Title: "Shipped", Color: "border-emerald-300"}}
	if err := Write(target, cfg, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	loaded, err := Load(target, Default(""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Database.Path != "/tmp/hackboard.db" || loaded.Identity.ActorID != "2" {
		t.Fatalf("unexpected loaded config %#v", loaded)
	}
	if time.Duration(loaded.Cache.TTL) != 90*time.Second {
		t.Fatalf("cache ttl = %v, want 1m30s", time.Duration(loaded.Cache.TTL))
	}
	if len(loaded.Board.Columns) != 1 || loaded.Board.Columns[0].Title != "Shipped" {
		t.Fatalf("unexpected columns %#v", loaded.Board.Columns)
	}

	if err := Write(target, cfg, false); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}
	if err := Write(target, cfg, true); err != nil {
		t.Fatalf("Write(overwrite) error = %v", err)
	}

	bad := Default("")
	bad.Logging.Level = "loud"
	if err := Write(filepath.Join(t.TempDir(), "c.toml"), bad, false); err == nil {
		t.Fatal("expected validation error")
	}
}
