package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/SongDNA/pkg/songdna"
	"github.com/himanishpuri/SongDNA/pkg/songdna/matcher"
	"github.com/himanishpuri/SongDNA/pkg/songdna/provider"
	"github.com/himanishpuri/SongDNA/pkg/songdna/storage"
)

type MatchConfig struct {
	Threshold  float64 `yaml:"threshold"`
	MaxResults int     `yaml:"max_results"`
	Workers    int     `yaml:"workers"`
}

type ExtractorConfig struct {
	Python    string `yaml:"python"`
	ScriptDir string `yaml:"script_dir"`
}

type Config struct {
	DBPath         string          `yaml:"db_path"`
	UploadDir      string          `yaml:"upload_dir"`
	Port           string          `yaml:"port"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	LogLevel       string          `yaml:"log_level"`
	Match          MatchConfig     `yaml:"match"`
	Extractor      ExtractorConfig `yaml:"extractor"`
}

func Default() *Config {
	return &Config{
		DBPath:         storage.DefaultDBFile,
		UploadDir:      "uploads",
		Port:           "8080",
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
		Match: MatchConfig{
			Threshold:  matcher.DefaultThreshold,
			MaxResults: matcher.DefaultMaxResults,
			Workers:    defaultWorkers(),
		},
		Extractor: ExtractorConfig{
			Python:    provider.DefaultPython,
			ScriptDir: "scripts",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// SONGDNA_CONFIG, then SONGDNA_* environment variables. A .env file in the
// working directory is loaded into the environment first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("SONGDNA_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DBPath = getEnv("SONGDNA_DB_PATH", c.DBPath)
	c.UploadDir = getEnv("SONGDNA_UPLOAD_DIR", c.UploadDir)
	c.Port = getEnv("SONGDNA_PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Match.Threshold = getEnvFloat("SONGDNA_THRESHOLD", c.Match.Threshold)
	c.Match.MaxResults = getEnvInt("SONGDNA_MAX_RESULTS", c.Match.MaxResults)
	c.Match.Workers = getEnvInt("SONGDNA_WORKERS", c.Match.Workers)
	c.Extractor.Python = getEnv("SONGDNA_PYTHON", c.Extractor.Python)
	c.Extractor.ScriptDir = getEnv("SONGDNA_SCRIPT_DIR", c.Extractor.ScriptDir)

	if origins := os.Getenv("SONGDNA_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
}

// ServiceOptions maps the configuration onto songdna options.
func (c *Config) ServiceOptions() []songdna.Option {
	return []songdna.Option{
		songdna.WithDBPath(c.DBPath),
		songdna.WithThreshold(c.Match.Threshold),
		songdna.WithMaxResults(c.Match.MaxResults),
		songdna.WithWorkers(c.Match.Workers),
		songdna.WithPython(c.Extractor.Python),
		songdna.WithScriptDir(c.Extractor.ScriptDir),
	}
}

func defaultWorkers() int {
	return min(max(runtime.NumCPU(), 1), 8)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
