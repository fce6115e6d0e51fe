package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ayusman/repcount/internal/exercise"
)

type Config struct {
	Addr      string `toml:"addr"`
	DBPath    string `toml:"db_path"`
	PluginDir string `toml:"plugin_dir"`
	StaticDir string `toml:"static_dir"`
	// capture
	CameraID        int    `toml:"camera_id"`
	PoseScript      string `toml:"pose_script"`
	ModelComplexity int    `toml:"model_complexity"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	// hooks
	HookTimeout Duration `toml:"hook_timeout"`

	DefaultExercise string          `toml:"default_exercise"`
	Tuning          exercise.Config `toml:"tuning"`
}

// Duration decodes TOML strings such as "5s" into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Addr:            "127.0.0.1:8080",
		DBPath:          "repcount.db",
		PluginDir:       "plugins",
		StaticDir:       "web",
		CameraID:        0,
		ModelComplexity: 1,
		LogLevel:        "info",
		LogToStdout:     true,
		HookTimeout:     Duration{5 * time.Second},
		DefaultExercise: string(exercise.KindPushUp),
		Tuning:          exercise.DefaultConfig(),
	}
}

// Load reads the env table of the TOML file at path. Keys missing from the
// file keep their Default values. A missing file yields Default.
func Load(env, path string) (*Config, error) {
	dev, prod := Default(), Default()
	t := &Toml{Development: dev, Production: prod}

	// fail on unknown env before touching the file
	if _, err := t.Get(env); err != nil {
		return nil, err
	}

	if _, err := toml.DecodeFile(path, t); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no [%s] table in %s", env, path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr is required")
	}
	if c.DBPath == "" {
		return errors.New("config: db_path is required")
	}
	if c.ModelComplexity < 0 || c.ModelComplexity > 2 {
		return fmt.Errorf("config: model_complexity %d out of range [0,2]", c.ModelComplexity)
	}
	if c.DefaultExercise != "" {
		if _, err := exercise.ParseKind(c.DefaultExercise); err != nil {
			return fmt.Errorf("config: default_exercise: %w", err)
		}
	}
	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("config: tuning: %w", err)
	}
	return nil
}
