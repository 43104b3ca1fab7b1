package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/SongDNA/pkg/models"
)

func NewListCmd(a *app) *cobra.Command {
	var artist string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the songs in the catalog",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			var songs []models.Song
			if artist != "" {
				songs, err = svc.SongsByArtist(artist)
			} else {
				songs, err = svc.ListSongs()
			}
			if err != nil {
				return fmt.Errorf("failed to list songs: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON(cmd) {
				return writeJSON(out, songs)
			}
			if len(songs) == 0 {
				fmt.Fprintln(out, "\n📭 No songs in database")
				return nil
			}

			fmt.Fprintf(out, "\n📚 Found %d song(s):\n\n", len(songs))
			for i, song := range songs {
				fmt.Fprintf(out, "%d. \"%s\" by %s (ID: %s)\n", i+1, song.Title, song.Artist, song.ID)
				if song.DurationMs > 0 {
					fmt.Fprintf(out, "   Duration: %s\n", formatDuration(song.DurationMs))
				}
				if song.HasLyrics {
					fmt.Fprintln(out, "   Lyrics:   yes")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&artist, "artist", "", "only songs by this artist (case-insensitive)")
	return cmd
}

func NewShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <song_id>",
		Short: "Show a song with its stored features",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			analysis, err := svc.GetAnalysis(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON(cmd) {
				return writeJSON(out, analysis)
			}

			fmt.Fprintln(out)
			printSong(out, &analysis.Song)
			if f := analysis.Features; f != nil {
				fmt.Fprintf(out, "   Fingerprint: %t\n", f.HasFingerprint())
				if f.HasMFCC() {
					fmt.Fprintf(out, "   MFCC:        %d x %d\n", len(f.MFCC), len(f.MFCC[0]))
				}
				if f.HasEmbedding() {
					fmt.Fprintf(out, "   Embedding:   %d dims\n", len(f.Embedding))
				}
			}
			if l := analysis.Lyrics; l != nil {
				fmt.Fprintf(out, "   Lyrics:      %s, themes [%s]\n", l.Language, strings.Join(l.Themes, ", "))
			}
			return nil
		},
	}
}

func NewDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <song_id>",
		Short: "Remove a song and its features",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			song, err := svc.GetSongByID(args[0])
			if err != nil {
				return fmt.Errorf("song not found (ID: %s): %w", args[0], err)
			}
			if err := svc.DeleteSong(args[0]); err != nil {
				return fmt.Errorf("failed to delete song: %w", err)
			}

			if asJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), song)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\n✅ Successfully deleted song:")
			printSong(cmd.OutOrStdout(), song)
			return nil
		},
	}
}
