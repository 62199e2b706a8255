package convert

import (
	"github.com/robert-malhotra/mat2img/internal/imageio"
	"github.com/robert-malhotra/mat2img/internal/record"
)

// DefaultPattern selects input files by base name.
const DefaultPattern = "*.mat"

// Config holds the settings of one batch run.
type Config struct {
	InputDir  string
	OutputDir string
	// Pattern is a doublestar pattern matched against base names.
	Pattern        string
	Workers        int
	Format         imageio.Format
	Quality        int
	ConstantPolicy record.ConstantPolicy
	SkipExisting   bool
}

func (c Config) withDefaults() Config {
	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Format == "" {
		c.Format = imageio.JPEG
	}
	if c.ConstantPolicy == "" {
		c.ConstantPolicy = record.PolicyZero
	}
	return c
}
