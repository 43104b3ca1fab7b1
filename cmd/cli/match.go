package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna/matcher"
)

func NewMatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "match <audio_file>",
		Short: "Identify an audio recording against the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			if !asJSON(cmd) {
				fmt.Fprintln(out, "🔍 Analyzing audio file...")
				fmt.Fprintln(out, "   Extracting features and searching database")
			}

			results, err := svc.MatchSong(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to match song: %w", err)
			}
			if asJSON(cmd) {
				return writeJSON(out, results)
			}
			printMatches(out, results)
			return nil
		},
	}
}

func NewMatchFeaturesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match-features <query.json>",
		Short: "Match a precomputed feature bundle",
		Long: `Matches a feature bundle read from a JSON file against the catalog.

With --database the catalog is not opened: the query is matched against the
bundles in the given JSON array (each needs an "id") and the result is
printed as [[score, id], ...].`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query models.FeatureBundle
			if err := readJSONFile(args[0], &query); err != nil {
				return err
			}

			if dbFile, _ := cmd.Flags().GetString("database"); dbFile != "" {
				return matchFile(cmd, query, dbFile)
			}

			svc, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			results, err := svc.MatchFeatures(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("failed to match features: %w", err)
			}
			if asJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			printMatches(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().String("database", "", "JSON file with candidate bundles; bypasses the catalog")
	return cmd
}

// matchFile runs the engine directly over a JSON database file.
func matchFile(cmd *cobra.Command, query models.FeatureBundle, dbFile string) error {
	var database []models.FeatureBundle
	if err := readJSONFile(dbFile, &database); err != nil {
		return err
	}

	threshold, _ := cmd.Flags().GetFloat64("threshold")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	workers, _ := cmd.Flags().GetInt("workers")

	engine, err := matcher.New(
		matcher.WithThreshold(threshold),
		matcher.WithMaxResults(maxResults),
		matcher.WithWorkers(workers),
	)
	if err != nil {
		return err
	}

	results, err := engine.Match(query, database)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), results)
}
