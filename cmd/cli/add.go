package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna"
)

func addSongInfoFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Song title")
	cmd.Flags().String("artist", "", "Artist name")
	cmd.Flags().String("album", "", "Album name")
	cmd.Flags().Int("year", 0, "Release year")
	cmd.Flags().String("source", "", "Catalog source (fma|musixmatch|user_upload)")
}

func songInfoFromFlags(cmd *cobra.Command) songdna.SongInfo {
	var info songdna.SongInfo
	info.Title, _ = cmd.Flags().GetString("title")
	info.Artist, _ = cmd.Flags().GetString("artist")
	info.Album, _ = cmd.Flags().GetString("album")
	info.Year, _ = cmd.Flags().GetInt("year")
	info.Source, _ = cmd.Flags().GetString("source")
	return info
}

func NewAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <audio_file>",
		Short: "Extract features from an audio file and add it to the catalog",
		Long: `Runs the feature extractor on an audio file and stores the result.
Missing title, artist and album are read from the file's tags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			if !asJSON(cmd) {
				fmt.Fprintln(out, "🎵 Processing audio file...")
				fmt.Fprintln(out, "   This may take a few moments for large files")
			}

			id, err := svc.AddSong(cmd.Context(), args[0], songInfoFromFlags(cmd))
			if err != nil {
				return fmt.Errorf("failed to add song: %w", err)
			}
			return reportAdded(cmd, svc, id)
		},
	}
	addSongInfoFlags(cmd)
	return cmd
}

func NewAddFeaturesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-features <features.json>",
		Short: "Add a song from a precomputed feature bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var bundle models.FeatureBundle
			if err := readJSONFile(args[0], &bundle); err != nil {
				return err
			}

			svc, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			id, err := svc.AddFeatures(cmd.Context(), bundle, songInfoFromFlags(cmd))
			if err != nil {
				return fmt.Errorf("failed to add song: %w", err)
			}
			return reportAdded(cmd, svc, id)
		},
	}
	addSongInfoFlags(cmd)
	return cmd
}

func reportAdded(cmd *cobra.Command, svc songdna.Service, id string) error {
	song, err := svc.GetSongByID(id)
	if err != nil {
		return err
	}
	if asJSON(cmd) {
		return writeJSON(cmd.OutOrStdout(), song)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\n✅ Successfully added song to database!")
	printSong(cmd.OutOrStdout(), song)
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
