// Package config loads application configuration from a YAML file and
// ASKBASE_* environment variables, with sane defaults for local use.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"askbase/internal/domain/usecases"
)

const envPrefix = "ASKBASE"

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Data   DataConfig   `mapstructure:"data"`
	Ollama OllamaConfig `mapstructure:"ollama"`
	Engine EngineConfig `mapstructure:"engine"`
	Index  IndexConfig  `mapstructure:"index"`
	Admin  AdminConfig  `mapstructure:"admin"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig configures the public HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DataConfig locates the knowledge base on disk.
type DataConfig struct {
	Dir             string        `mapstructure:"dir"`
	NotesDir        string        `mapstructure:"notes_dir"`
	RebuildDebounce time.Duration `mapstructure:"rebuild_debounce"`
}

// OllamaConfig configures the embedding backend.
type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// EngineConfig tunes the answer engine.
type EngineConfig struct {
	TopK              int     `mapstructure:"top_k"`
	MinRelevanceScore float64 `mapstructure:"min_relevance_score"`
	MinCommonTags     int     `mapstructure:"min_common_tags"`
	DominanceMargin   float64 `mapstructure:"dominance_margin"`
	MinQueryLength    int     `mapstructure:"min_query_length"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Backend          string `mapstructure:"backend"`
	QdrantAddr       string `mapstructure:"qdrant_addr"`
	QdrantCollection string `mapstructure:"qdrant_collection"`
}

// AdminConfig configures the remote admin tunnel.
type AdminConfig struct {
	Port              int           `mapstructure:"port"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	StateFile         string        `mapstructure:"state_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from path (optional; "" means defaults and
// environment only) and returns the validated result.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("data.dir", "Data")
	v.SetDefault("data.notes_dir", "Notes")
	v.SetDefault("data.rebuild_debounce", 2*time.Second)
	v.SetDefault("ollama.endpoint", "http://localhost:11434")
	v.SetDefault("ollama.model", "all-minilm")

	defaults := usecases.DefaultConfig()
	v.SetDefault("engine.top_k", defaults.TopK)
	v.SetDefault("engine.min_relevance_score", defaults.MinRelevanceScore)
	v.SetDefault("engine.min_common_tags", defaults.MinCommonTags)
	v.SetDefault("engine.dominance_margin", defaults.DominanceMargin)
	v.SetDefault("engine.min_query_length", defaults.MinQueryLength)

	v.SetDefault("index.backend", "memory")
	v.SetDefault("index.qdrant_addr", "localhost:6334")
	v.SetDefault("index.qdrant_collection", "askbase")

	v.SetDefault("admin.port", 5000)
	v.SetDefault("admin.inactivity_timeout", 5*time.Minute)
	v.SetDefault("admin.state_file", "admin_tunnel.json")

	v.SetDefault("log.level", "info")
}

// Validate checks cross-field constraints not expressible as defaults.
func (c Config) Validate() error {
	switch c.Index.Backend {
	case "memory", "sqlite", "qdrant":
	default:
		return fmt.Errorf("unknown index backend %q (want memory, sqlite or qdrant)", c.Index.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir must not be empty")
	}
	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}
	return nil
}

// EngineConfig converts the engine section into the use case configuration.
func (c Config) EngineConfig() usecases.Config {
	return usecases.Config{
		TopK:              c.Engine.TopK,
		MinRelevanceScore: c.Engine.MinRelevanceScore,
		MinCommonTags:     c.Engine.MinCommonTags,
		DominanceMargin:   c.Engine.DominanceMargin,
		MinQueryLength:    c.Engine.MinQueryLength,
		Thresholds:        usecases.DefaultConfidenceThresholds(),
	}
}
