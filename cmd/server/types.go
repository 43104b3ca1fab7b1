package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna"
)

const (
	// MaxUploadSize caps uploaded and inline audio.
	MaxUploadSize = 10 << 20

	// MinLyricsLength is the shortest lyrics query accepted, in characters.
	MinLyricsLength = 10
)

// MatchOverrides are the optional per-request matcher settings.
type MatchOverrides struct {
	Threshold  *float64 `json:"threshold,omitempty"`
	MaxResults *int     `json:"max_results,omitempty"`
}

// MatchAudioRequest is the JSON form of POST /api/match. AudioData holds a
// base64 recording, optionally as a data URL ("data:audio/wav;base64,...").
type MatchAudioRequest struct {
	AudioData string `json:"audioData"`
	MatchOverrides
}

func (r *MatchAudioRequest) Validate() error {
	if r.AudioData == "" {
		return fmt.Errorf("audioData is required")
	}
	return nil
}

// MatchFeaturesRequest is the request body for POST /api/match/features
type MatchFeaturesRequest struct {
	Query models.FeatureBundle `json:"query"`
	MatchOverrides
}

func (r *MatchFeaturesRequest) Validate() error {
	q := r.Query
	if !q.HasFingerprint() && !q.HasMFCC() && !q.HasEmbedding() {
		return fmt.Errorf("query carries no features")
	}
	return nil
}

// LyricsSearchRequest is the request body for POST /api/search/lyrics
type LyricsSearchRequest struct {
	Lyrics string `json:"lyrics"`
	MatchOverrides
}

func (r *LyricsSearchRequest) Validate() error {
	lyrics := strings.TrimSpace(r.Lyrics)
	if lyrics == "" {
		return fmt.Errorf("lyrics are required")
	}
	if utf8.RuneCountInString(lyrics) < MinLyricsLength {
		return fmt.Errorf("lyrics must be at least %d characters long", MinLyricsLength)
	}
	return nil
}

// SetLyricsRequest is the request body for PUT /api/songs/{id}/lyrics
type SetLyricsRequest struct {
	Lyrics string `json:"lyrics"`
}

func (r *SetLyricsRequest) Validate() error {
	if strings.TrimSpace(r.Lyrics) == "" {
		return fmt.Errorf("lyrics are required")
	}
	return nil
}

// AddFeaturesRequest is the JSON form of POST /api/songs.
type AddFeaturesRequest struct {
	Title    string               `json:"title"`
	Artist   string               `json:"artist"`
	Album    string               `json:"album,omitempty"`
	Year     int                  `json:"year,omitempty"`
	Source   string               `json:"source,omitempty"`
	Features models.FeatureBundle `json:"features"`
}

func (r *AddFeaturesRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Artist) == "" {
		return fmt.Errorf("title and artist are required")
	}
	if r.Source != "" && !models.ValidSource(r.Source) {
		return fmt.Errorf("unknown source %q", r.Source)
	}
	return nil
}

func (r *AddFeaturesRequest) info() songdna.SongInfo {
	return songdna.SongInfo{Title: r.Title, Artist: r.Artist, Album: r.Album, Year: r.Year, Source: r.Source}
}

// AddSongResponse is the response for successful song addition
type AddSongResponse struct {
	Message string      `json:"message"`
	Song    models.Song `json:"song"`
}

// MatchResponse carries ranked matches. Confidence is that of the best match.
type MatchResponse struct {
	Matches    []songdna.MatchResult `json:"matches"`
	Count      int                   `json:"count"`
	Confidence float64               `json:"confidence"`
}

func newMatchResponse(matches []songdna.MatchResult) MatchResponse {
	if matches == nil {
		matches = []songdna.MatchResult{}
	}
	resp := MatchResponse{Matches: matches, Count: len(matches)}
	if len(matches) > 0 {
		resp.Confidence = matches[0].Confidence
	}
	return resp
}

// ListSongsResponse is the response for GET /api/songs
type ListSongsResponse struct {
	Songs []models.Song `json:"songs"`
	Count int           `json:"count"`
}

// ArtistResponse is the response for GET /api/artists/{name}
type ArtistResponse struct {
	Artist string        `json:"artist"`
	Songs  []models.Song `json:"songs"`
	Count  int           `json:"count"`
}

// DeleteSongResponse is the response for DELETE /api/songs/{id}
type DeleteSongResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status       string  `json:"status"`
	DatabasePath string  `json:"database_path"`
	SongCount    int64   `json:"song_count"`
	LyricsCount  int64   `json:"lyrics_count"`
	Threshold    float64 `json:"threshold"`
	MaxResults   int     `json:"max_results"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
