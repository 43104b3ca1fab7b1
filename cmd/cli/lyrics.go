package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewLyricsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lyrics",
		Short: "Attach lyrics to songs and search by lyrics",
	}
	cmd.AddCommand(newLyricsSetCmd(a), newLyricsSearchCmd(a))
	return cmd
}

func newLyricsSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <song_id> <lyrics...>",
		Short: "Analyse lyrics and attach them to a song",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			lf, err := svc.SetLyrics(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("failed to set lyrics: %w", err)
			}
			if asJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), lf)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✅ Stored lyrics for song %s\n", args[0])
			if lf.Language != "" {
				fmt.Fprintf(out, "   Language: %s\n", lf.Language)
			}
			if len(lf.Themes) > 0 {
				fmt.Fprintf(out, "   Themes:   %s\n", strings.Join(lf.Themes, ", "))
			}
			return nil
		},
	}
}

func newLyricsSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <lyrics...>",
		Short: "Find songs whose lyrics resemble the given text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			results, err := svc.MatchLyrics(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to search lyrics: %w", err)
			}
			if asJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			printMatches(cmd.OutOrStdout(), results)
			return nil
		},
	}
}
