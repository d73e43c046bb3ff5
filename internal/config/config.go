package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. PERSONA_SERVER_ADDR.
const EnvPrefix = "PERSONA"

// Config is the top-level configuration.
type Config struct {
	DB     string       `mapstructure:"db"`
	Model  ModelConfig  `mapstructure:"model"`
	Train  TrainConfig  `mapstructure:"train"`
	Quiz   QuizConfig   `mapstructure:"quiz"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// ModelConfig locates the trained artifact pair.
type ModelConfig struct {
	Path  string `mapstructure:"path"`
	Codec string `mapstructure:"codec"`
}

// TrainConfig holds dataset and tree growth settings.
type TrainConfig struct {
	Data            string `mapstructure:"data"`
	MaxDepth        int    `mapstructure:"max_depth"`
	MinSamplesSplit int    `mapstructure:"min_samples_split"`
	MinSamplesLeaf  int    `mapstructure:"min_samples_leaf"`
}

// QuizConfig holds quiz content settings.
type QuizConfig struct {
	// Questions is an optional YAML question bank replacing the built-in one.
	Questions string `mapstructure:"questions"`
}

// LogConfig holds settings for the rotating log file.
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

// LLMConfig selects the provider for result narratives. An empty provider
// means the first vendor API key found in the environment wins.
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Attempts int           `mapstructure:"attempts"`
}

// FlagKeys maps command-line flag names to config keys. Load binds every
// flag in this table that exists on the flag set it is given.
var FlagKeys = map[string]string{
	"db":        "db",
	"model":     "model.path",
	"codec":     "model.codec",
	"log-level": "log.level",
	"data":      "train.data",
	"max-depth": "train.max_depth",
	"addr":      "server.addr",
	"questions": "quiz.questions",
}

func setDefaults(v *viper.Viper, dirs Dirs) {
	v.SetDefault("db", filepath.Join(dirs.Data, "persona.db"))

	v.SetDefault("model.path", filepath.Join(dirs.Data, "models", "personality_model.json"))
	v.SetDefault("model.codec", filepath.Join(dirs.Data, "models", "label_codec.json"))

	v.SetDefault("train.data", "quiz_dataset.csv")
	v.SetDefault("train.max_depth", 0)
	v.SetDefault("train.min_samples_split", 2)
	v.SetDefault("train.min_samples_leaf", 1)

	v.SetDefault("quiz.questions", "")

	v.SetDefault("log.dir", dirs.State)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 10)   // megabytes
	v.SetDefault("log.max_backups", 3) // files
	v.SetDefault("log.max_age", 28)    // days
	v.SetDefault("log.compress", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.session_ttl", 30*time.Minute)

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 20*time.Second)
	v.SetDefault("llm.attempts", 2)
}

// Load resolves configuration in priority order: flags that were set, then
// PERSONA_* environment variables, then the config file, then defaults.
// file may be empty, in which case config.yaml is looked up in the config
// directory and its absence is not an error. flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	dirs, err := ResolveDirs()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, dirs)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(dirs.Config)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	if c.DB == "" {
		return errors.New("config: db must not be empty")
	}
	if c.Model.Path == "" || c.Model.Codec == "" {
		return errors.New("config: model.path and model.codec must not be empty")
	}
	if c.Model.Path == c.Model.Codec {
		return fmt.Errorf("config: model.path and model.codec both point at %s", c.Model.Path)
	}
	if c.Train.MaxDepth < 0 {
		return fmt.Errorf("config: train.max_depth must be >= 0, got %d", c.Train.MaxDepth)
	}
	if c.LLM.Attempts < 1 {
		return fmt.Errorf("config: llm.attempts must be >= 1, got %d", c.LLM.Attempts)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	}
	return nil
}

// Dirs are the XDG base directories persona uses.
type Dirs struct {
	Config string
	Data   string
	State  string
}

// ResolveDirs returns $XDG_{CONFIG,DATA,STATE}_HOME/persona, falling back to
// the XDG defaults under the home directory.
func ResolveDirs() (Dirs, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	resolve := func(env string, fallback ...string) (string, error) {
		base := os.Getenv(env)
		if base == "" {
			if home == "" {
				return "", fmt.Errorf("resolve %s: no home directory", env)
			}
			base = filepath.Join(append([]string{home}, fallback...)...)
		}
		return filepath.Join(base, "persona"), nil
	}

	var d Dirs
	if d.Config, err = resolve("XDG_CONFIG_HOME", ".config"); err != nil {
		return Dirs{}, err
	}
	if d.Data, err = resolve("XDG_DATA_HOME", ".local", "share"); err != nil {
		return Dirs{}, err
	}
	if d.State, err = resolve("XDG_STATE_HOME", ".local", "state"); err != nil {
		return Dirs{}, err
	}
	return d, nil
}
