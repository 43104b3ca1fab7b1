package songdna

import (
	"github.com/himanishpuri/SongDNA/pkg/songdna/matcher"
	"github.com/himanishpuri/SongDNA/pkg/songdna/provider"
	"github.com/himanishpuri/SongDNA/pkg/songdna/storage"
)

type Config struct {
	DBPath     string
	Threshold  float64
	MaxResults int
	Workers    int
	Python     string
	ScriptDir  string
	Logger     Logger
	Storage    Storage
	Provider   provider.Provider
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithThreshold sets the default match threshold. Out-of-range values are
// accepted as given.
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

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithProvider replaces the script-backed feature extractor.
func WithProvider(p provider.Provider) Option {
	return func(c *Config) {
		c.Provider = p
	}
}

func WithPython(path string) Option {
	return func(c *Config) {
		c.Python = path
	}
}

func WithScriptDir(dir string) Option {
	return func(c *Config) {
		c.ScriptDir = dir
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:     storage.DefaultDBFile,
		Threshold:  matcher.DefaultThreshold,
		MaxResults: matcher.DefaultMaxResults,
		Workers:    1,
		Python:     provider.DefaultPython,
		ScriptDir:  "scripts",
	}
}

// engineOptions turns the service defaults into matcher options. Per-call
// options are appended after them and win.
func (c *Config) engineOptions(extra []matcher.Option) []matcher.Option {
	opts := []matcher.Option{
		matcher.WithThreshold(c.Threshold),
		matcher.WithMaxResults(c.MaxResults),
		matcher.WithWorkers(c.Workers),
	}
	return append(opts, extra...)
}
