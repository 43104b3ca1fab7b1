package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/SongDNA/internal/config"
	"github.com/himanishpuri/SongDNA/pkg/logger"
	"github.com/himanishpuri/SongDNA/pkg/songdna"
)

// app carries what the commands need to open a service.
type app struct {
	cfg *config.Config
	// extra options applied after the flag-derived ones
	extra []songdna.Option
}

func newApp(cfg *config.Config) *app {
	return &app{cfg: cfg}
}

const banner = `
  ____                   ____  _   _    _
 / ___|  ___  _ __   __ |  _ \| \ | |  / \
 \___ \ / _ \| '_ \ / _` + "`" + ` | | | |  \| | / _ \
  ___) | (_) | | | | (_| | |_| | |\  |/ ___ \
 |____/ \___/|_| |_|\__, |____/|_| \_/_/   \_\
                    |___/
        Song Identification CLI Tool
`

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "songdna",
		Short:         "Identify songs by audio or lyrics features",
		Long:          banner,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd, a.cfg)
	rootCmd.AddCommand(
		NewAddCmd(a),
		NewAddFeaturesCmd(a),
		NewMatchCmd(a),
		NewMatchFeaturesCmd(a),
		NewLyricsCmd(a),
		NewListCmd(a),
		NewShowCmd(a),
		NewDeleteCmd(a),
	)
	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.PersistentFlags()
	f.String("db", cfg.DBPath, "Path to the SQLite database (env: SONGDNA_DB_PATH)")
	f.Float64("threshold", cfg.Match.Threshold, "Minimum score a match must exceed")
	f.Int("max-results", cfg.Match.MaxResults, "Maximum number of matches to return")
	f.Int("workers", cfg.Match.Workers, "Goroutines used to score candidates")
	f.String("python", cfg.Extractor.Python, "Python interpreter for the feature extractor")
	f.String("scripts", cfg.Extractor.ScriptDir, "Directory holding the extractor scripts")
	f.Bool("json", false, "Output in JSON format")
}

// openService builds a service from the persistent flags.
func (a *app) openService(cmd *cobra.Command) (songdna.Service, error) {
	f := cmd.Flags()
	dbPath, _ := f.GetString("db")
	threshold, _ := f.GetFloat64("threshold")
	maxResults, _ := f.GetInt("max-results")
	workers, _ := f.GetInt("workers")
	python, _ := f.GetString("python")
	scripts, _ := f.GetString("scripts")

	opts := []songdna.Option{
		songdna.WithDBPath(dbPath),
		songdna.WithThreshold(threshold),
		songdna.WithMaxResults(maxResults),
		songdna.WithWorkers(workers),
		songdna.WithPython(python),
		songdna.WithScriptDir(scripts),
		songdna.WithLogger(logger.GetLogger().Named("cli")),
	}

	svc, err := songdna.NewService(append(opts, a.extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
