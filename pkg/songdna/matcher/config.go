package matcher

import "fmt"

const (
	DefaultThreshold       = 0.7
	DefaultMaxResults      = 5
	DefaultMFCCWeight      = 0.4
	DefaultEmbeddingWeight = 0.6
)

type Config struct {
	Threshold       float64 // scores must be strictly greater to be kept
	MaxResults      int
	MFCCWeight      float64
	EmbeddingWeight float64
	Workers         int // <= 1 scores sequentially
}

type Option func(*Config)

// WithThreshold sets the retention threshold. Any value is accepted; values
// outside [0,1] simply keep everything or nothing.
func WithThreshold(threshold float64) Option {
	return func(c *Config) {
		c.Threshold = threshold
	}
}

func WithMaxResults(n int) Option {
	return func(c *Config) {
		c.MaxResults = n
	}
}

func WithWeights(mfcc, embedding float64) Option {
	return func(c *Config) {
		c.MFCCWeight = mfcc
		c.EmbeddingWeight = embedding
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func defaultConfig() Config {
	return Config{
		Threshold:       DefaultThreshold,
		MaxResults:      DefaultMaxResults,
		MFCCWeight:      DefaultMFCCWeight,
		EmbeddingWeight: DefaultEmbeddingWeight,
		Workers:         1,
	}
}

func (c Config) validate() error {
	if c.MaxResults < 1 {
		return fmt.Errorf("%w: max results must be at least 1, got %d", ErrInvalidConfig, c.MaxResults)
	}
	if c.MFCCWeight < 0 || c.EmbeddingWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative, got mfcc=%g embedding=%g", ErrInvalidConfig, c.MFCCWeight, c.EmbeddingWeight)
	}
	if c.MFCCWeight+c.EmbeddingWeight == 0 {
		return fmt.Errorf("%w: at least one weight must be positive", ErrInvalidConfig)
	}
	if !isFinite(c.MFCCWeight) || !isFinite(c.EmbeddingWeight) {
		return fmt.Errorf("%w: weights must be finite", ErrInvalidConfig)
	}
	return nil
}
