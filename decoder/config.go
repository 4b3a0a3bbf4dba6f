package decoder

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned for an invalid decoder configuration.
	ErrConfig = errors.New("invalid decoder configuration")
	// ErrShape is returned when the input does not match the decoder or itself.
	ErrShape = errors.New("invalid input shape")
)

// Config holds beam search parameters.
type Config struct {
	TopPaths      int  `yaml:"top_paths"`      // paths returned per batch item
	BeamWidth     int  `yaml:"beam_width"`     // live hypotheses kept per timestep
	BlankIndex    int  `yaml:"blank_index"`    // CTC blank label
	SpaceIndex    int  `yaml:"space_index"`    // word boundary label, out of range disables it
	MergeRepeated bool `yaml:"merge_repeated"` // collapse a label repeated after a blank
	Workers       int  `yaml:"workers"`        // parallel batch items, 0 means runtime.NumCPU()
}

// DefaultConfig returns reasonable default parameters.
func DefaultConfig() Config {
	return Config{
		TopPaths:      1,
		BeamWidth:     10,
		BlankIndex:    0,
		SpaceIndex:    28,
		MergeRepeated: true,
	}
}

func (c Config) validate(numClasses int) error {
	if c.BlankIndex < 0 || c.BlankIndex >= numClasses {
		return fmt.Errorf("%w: blank index %d outside [0, %d)", ErrConfig, c.BlankIndex, numClasses)
	}
	if c.BeamWidth < 1 {
		return fmt.Errorf("%w: beam width %d must be positive", ErrConfig, c.BeamWidth)
	}
	if c.TopPaths < 1 || c.TopPaths > c.BeamWidth {
		return fmt.Errorf("%w: top paths %d outside [1, beam width %d]", ErrConfig, c.TopPaths, c.BeamWidth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrConfig, c.Workers)
	}
	return nil
}
