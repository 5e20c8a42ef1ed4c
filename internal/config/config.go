// Package config loads bardic settings from a YAML file with environment
// overrides.
package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "bardic.yaml"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

type StoreConfig struct {
	Kind          string        `yaml:"kind" mapstructure:"kind"`
	SavesDir      string        `yaml:"saves_dir" mapstructure:"saves_dir"`
	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db"`
	SQLitePath    string        `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// EncryptionKey is a base64 AES-256 key. When set, save state is sealed.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
	// MaskKeys are regular expressions; matching state keys are masked on save.
	MaskKeys []string `yaml:"mask_keys" mapstructure:"mask_keys"`
}

// Key decodes EncryptionKey. It returns nil when no key is configured.
func (s StoreConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	// SessionIdle is how long an untouched session lives before pruning.
	SessionIdle time.Duration `yaml:"session_idle" mapstructure:"session_idle"`
	// ValidateRequests checks API requests against the OpenAPI description.
	ValidateRequests bool `yaml:"validate_requests" mapstructure:"validate_requests"`
}

type EngineConfig struct {
	ReplayOnLoad       bool `yaml:"replay_on_load" mapstructure:"replay_on_load"`
	EvaluateDirectives bool `yaml:"evaluate_directives" mapstructure:"evaluate_directives"`
}

// Config is the full application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Engine  EngineConfig  `yaml:"engine" mapstructure:"engine"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Store: StoreConfig{
			Kind:       StoreFile,
			SavesDir:   ".bardic/saves",
			RedisAddr:  "localhost:6379",
			SQLitePath: ".bardic/saves.db",
		},
		Server: ServerConfig{Addr: ":8080", SessionIdle: 30 * time.Minute, ValidateRequests: true},
		Engine: EngineConfig{ReplayOnLoad: true, EvaluateDirectives: true},
	}
}

// envKeys maps environment variables to dotted config keys.
var envKeys = map[string]string{
	"BARDIC_LOG_LEVEL":      "logging.level",
	"BARDIC_LOG_FORMAT":     "logging.format",
	"BARDIC_LOG_FILE":       "logging.file",
	"BARDIC_STORE":          "store.kind",
	"BARDIC_SAVES_DIR":      "store.saves_dir",
	"BARDIC_REDIS_ADDR":     "store.redis_addr",
	"BARDIC_REDIS_PASSWORD": "store.redis_password",
	"BARDIC_REDIS_DB":       "store.redis_db",
	"BARDIC_SQLITE_PATH":    "store.sqlite_path",
	"BARDIC_STORE_TTL":      "store.ttl",
	"BARDIC_ENCRYPTION_KEY": "store.encryption_key",
	"BARDIC_ADDR":           "server.addr",
	"BARDIC_SESSION_IDLE":   "server.session_idle",
	"BARDIC_REPLAY_ON_LOAD": "engine.replay_on_load",
}

// Load reads path (or DefaultFile when path is empty and the file exists),
// then applies BARDIC_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeYAML(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays environment values found by lookup onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	overlay := map[string]any{}
	for env, key := range envKeys {
		val, ok := lookup(env)
		if !ok || val == "" {
			continue
		}
		section, field, _ := strings.Cut(key, ".")
		m, _ := overlay[section].(map[string]any)
		if m == nil {
			m = map[string]any{}
			overlay[section] = m
		}
		m[field] = val
	}
	if len(overlay) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(overlay); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// Validate checks values that cannot be caught by decoding.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("store ttl must not be negative")
	}
	if _, err := c.Store.Key(); err != nil {
		return err
	}
	return nil
}
