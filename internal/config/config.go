// Package config loads the converter settings from defaults, an optional
// TOML file, MAT2IMG_ environment variables and command-line flags.
package config

import (
	"github.com/robert-malhotra/mat2img/internal/convert"
	"github.com/robert-malhotra/mat2img/internal/imageio"
	"github.com/robert-malhotra/mat2img/internal/logger"
	"github.com/robert-malhotra/mat2img/internal/record"
)

// EnvPrefix prefixes environment variables, as in MAT2IMG_WORKERS.
const EnvPrefix = "MAT2IMG_"

type Config struct {
	InputDir       string                `koanf:"input_dir"       validate:"required"`
	OutputDir      string                `koanf:"output_dir"      validate:"required"`
	Pattern        string                `koanf:"pattern"         validate:"required,glob"`
	Workers        int                   `koanf:"workers"         validate:"min=1,max=256"`
	Format         imageio.Format        `koanf:"format"          validate:"oneof=jpeg png bmp tiff"`
	Quality        int                   `koanf:"quality"         validate:"min=1,max=100"`
	ConstantPolicy record.ConstantPolicy `koanf:"constant_policy" validate:"oneof=zero reject"`
	SkipExisting   bool                  `koanf:"skip_existing"`
	Log            LogConfig             `koanf:"log"`
}

type LogConfig struct {
	Level  logger.LogLevel `koanf:"level"  validate:"loglevel"`
	JSON   bool            `koanf:"json"`
	Source bool            `koanf:"source"`
}

func Default() *Config {
	return &Config{
		Pattern:        convert.DefaultPattern,
		Workers:        1,
		Format:         imageio.JPEG,
		Quality:        imageio.DefaultQuality,
		ConstantPolicy: record.PolicyZero,
		Log: LogConfig{
			Level: logger.InfoLevel,
		},
	}
}

// Convert returns the driver settings.
func (c *Config) Convert() convert.Config {
	return convert.Config{
		InputDir:       c.InputDir,
		OutputDir:      c.OutputDir,
		Pattern:        c.Pattern,
		Workers:        c.Workers,
		Format:         c.Format,
		Quality:        c.Quality,
		ConstantPolicy: c.ConstantPolicy,
		SkipExisting:   c.SkipExisting,
	}
}

// Logger returns the logger settings.
func (c *Config) Logger() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.JSON = c.Log.JSON
	cfg.AddSource = c.Log.Source
	return cfg
}
