// Package config loads engine settings from file and environment with viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ayusman/handrom/internal/angle"
	"github.com/ayusman/handrom/internal/quality"
	"github.com/ayusman/handrom/internal/session"
)

// FileName is the config file base name; the extension selects the format.
const FileName = "handrom"

// EnvPrefix prefixes environment overrides, e.g. HANDROM_MINCONFIDENCE.
const EnvPrefix = "HANDROM"

// KapandjiConfig holds opposition detection settings.
type KapandjiConfig struct {
	Threshold float64 `json:"threshold" mapstructure:"threshold"`
	Policy    string  `json:"policy" mapstructure:"policy"`
}

// QualityConfig holds quality scorer settings.
type QualityConfig struct {
	CompletenessWeight float64 `json:"completenessWeight" mapstructure:"completenessWeight"`
	ConfidenceWeight   float64 `json:"confidenceWeight" mapstructure:"confidenceWeight"`
	MinUsableFrames    int     `json:"minUsableFrames" mapstructure:"minUsableFrames"`
	Floor              float64 `json:"floor" mapstructure:"floor"`
}

// ProfilesConfig locates external injury profile sources.
type ProfilesConfig struct {
	File string `json:"file" mapstructure:"file"`
	DB   string `json:"db" mapstructure:"db"`
}

// Config is the full engine configuration.
type Config struct {
	LogLevel      string         `json:"logLevel" mapstructure:"logLevel"`
	MinConfidence float64        `json:"minConfidence" mapstructure:"minConfidence"`
	Kapandji      KapandjiConfig `json:"kapandji" mapstructure:"kapandji"`
	Quality       QualityConfig  `json:"quality" mapstructure:"quality"`
	Profiles      ProfilesConfig `json:"profiles" mapstructure:"profiles"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("minConfidence", 0.5)

	kapandji := angle.DefaultKapandjiOptions()
	v.SetDefault("kapandji.threshold", kapandji.Threshold)
	v.SetDefault("kapandji.policy", string(kapandji.Policy))

	q := quality.DefaultOptions()
	v.SetDefault("quality.completenessWeight", q.CompletenessWeight)
	v.SetDefault("quality.confidenceWeight", q.ConfidenceWeight)
	v.SetDefault("quality.minUsableFrames", q.MinUsableFrames)
	v.SetDefault("quality.floor", q.Floor)

	v.SetDefault("profiles.file", "")
	v.SetDefault("profiles.db", "")
}

// New returns a viper instance with defaults and environment overrides
// applied but no config file read.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads handrom.{toml,json,yaml} from configDir, if present, over the
// defaults. A missing file is not an error; an unreadable one is.
func Load(configDir string) (Config, error) {
	v := New()
	if configDir != "" {
		v.SetConfigName(FileName)
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}
	return Decode(v)
}

// LoadFile reads an explicit config file over the defaults.
func LoadFile(path string) (Config, error) {
	v := New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Default returns the built-in settings.
func Default() Config {
	c, err := Decode(New())
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("minConfidence %g outside [0, 1]", c.MinConfidence)
	}
	if c.Kapandji.Threshold <= 0 {
		return fmt.Errorf("kapandji.threshold must be positive, got %g", c.Kapandji.Threshold)
	}
	if _, err := angle.ParsePolicy(c.Kapandji.Policy); err != nil {
		return err
	}
	if c.Quality.CompletenessWeight < 0 || c.Quality.ConfidenceWeight < 0 {
		return errors.New("quality weights must not be negative")
	}
	if c.Quality.MinUsableFrames < 0 {
		return fmt.Errorf("quality.minUsableFrames must not be negative, got %d", c.Quality.MinUsableFrames)
	}
	if c.Quality.Floor <= 0 || c.Quality.Floor > 100 {
		return fmt.Errorf("quality.floor %g outside (0, 100]", c.Quality.Floor)
	}
	return nil
}

// KapandjiOptions returns the opposition settings.
func (c Config) KapandjiOptions() angle.KapandjiOptions {
	return angle.KapandjiOptions{
		Threshold: c.Kapandji.Threshold,
		Policy:    angle.Policy(c.Kapandji.Policy),
	}
}

// QualityOptions returns the quality scorer settings.
func (c Config) QualityOptions() quality.Options {
	return quality.Options{
		CompletenessWeight: c.Quality.CompletenessWeight,
		ConfidenceWeight:   c.Quality.ConfidenceWeight,
		MinUsableFrames:    c.Quality.MinUsableFrames,
		Floor:              c.Quality.Floor,
	}
}

// SessionOptions returns the reducer settings.
func (c Config) SessionOptions() session.Options {
	return session.Options{
		MinConfidence:  c.MinConfidence,
		KapandjiPolicy: angle.Policy(c.Kapandji.Policy),
		Quality:        c.QualityOptions(),
	}
}
