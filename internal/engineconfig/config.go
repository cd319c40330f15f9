// Package engineconfig loads the engine's runtime configuration the same
// way the rest of the stack does: viper reads an .env file (or the real
// environment), mapstructure decodes it into a typed struct, and
// go-playground/validator enforces the required fields before anything
// downstream sees them.
package engineconfig

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EngineConfig is the full set of knobs the mixer, audio, and hostctx
// packages need at startup. Nothing in internal/mixer or internal/audio
// reads the environment directly; it is all funneled through this struct.
type EngineConfig struct {
	ServiceName string `mapstructure:"service_name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	LogLevel    string `mapstructure:"log_level" validate:"required"`

	OutputSampleRate uint32 `mapstructure:"output_sample_rate" validate:"required"`
	OutputChannels   uint32 `mapstructure:"output_channels" validate:"required"`

	RequestQueueCapacity  int `mapstructure:"request_queue_capacity" validate:"required,min=1"`
	ResponseQueueCapacity int `mapstructure:"response_queue_capacity" validate:"required,min=1"`

	DefaultAttackMs  uint64 `mapstructure:"default_attack_ms"`
	DefaultReleaseMs uint64 `mapstructure:"default_release_ms"`
}

// InitViper wires up the same file/env precedence the rest of the stack
// uses: an optional .env file (path overridable via ENV_PATH), layered
// under automatic environment variable lookup.
func InitViper() (*viper.Viper, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("__"))

	v.AddConfigPath(".")
	v.SetConfigName(".env")
	if path := os.Getenv("ENV_PATH"); path != "" {
		log.Printf("engineconfig: reading config from %s", path)
		v.SetConfigFile(path)
	}
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefaults(v)
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("engineconfig: no config file found, relying on environment variables")
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "mixengine")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("LOG_LEVEL", "debug")

	v.SetDefault("OUTPUT_SAMPLE_RATE", 48000)
	v.SetDefault("OUTPUT_CHANNELS", 2)

	v.SetDefault("REQUEST_QUEUE_CAPACITY", 256)
	v.SetDefault("RESPONSE_QUEUE_CAPACITY", 256)

	v.SetDefault("DEFAULT_ATTACK_MS", 5)
	v.SetDefault("DEFAULT_RELEASE_MS", 5)
}

// Load unmarshals and validates the engine config from an already
// initialized viper instance.
func Load(v *viper.Viper) (*EngineConfig, error) {
	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
