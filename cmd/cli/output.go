package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMatches(w io.Writer, results []songdna.MatchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "\n❌ No matches found in database")
		return
	}

	fmt.Fprintf(w, "\n✅ Found %d match(es)!\n", len(results))
	fmt.Fprintln(w, "\n🎵 Top Matches:")
	fmt.Fprintln(w)
	for i, r := range results {
		fmt.Fprintf(w, "%d. \"%s\" by %s\n", i+1, r.Title, r.Artist)
		kind := "blended"
		if r.Exact {
			kind = "exact fingerprint"
		}
		fmt.Fprintf(w, "   Score: %.4f | Confidence: %.1f%% | %s\n", r.Score, r.Confidence, kind)
		fmt.Fprintf(w, "   ID: %s\n", r.SongID)
		fmt.Fprintln(w)
	}
}

func printSong(w io.Writer, song *models.Song) {
	fmt.Fprintf(w, "   ID:       %s\n", song.ID)
	fmt.Fprintf(w, "   Title:    %s\n", song.Title)
	fmt.Fprintf(w, "   Artist:   %s\n", song.Artist)
	if song.Album != "" {
		fmt.Fprintf(w, "   Album:    %s\n", song.Album)
	}
	if song.Year != 0 {
		fmt.Fprintf(w, "   Year:     %d\n", song.Year)
	}
	if song.DurationMs > 0 {
		fmt.Fprintf(w, "   Duration: %s\n", formatDuration(song.DurationMs))
	}
}

func formatDuration(ms int) string {
	sec := ms / 1000
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
