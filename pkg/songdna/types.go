package songdna

import (
	"errors"
	"strings"

	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna/storage"
)

var (
	// ErrSongNotFound is returned for unknown song ids.
	ErrSongNotFound = storage.ErrSongNotFound
	ErrInvalidInput = errors.New("invalid input")
)

// SongInfo is the catalog metadata supplied when a song is added. Blank
// fields are filled from the audio file's tags where possible.
type SongInfo struct {
	Title  string
	Artist string
	Album  string
	Year   int
	Source string
}

func (i SongInfo) song() models.Song {
	return models.Song{
		Title:  strings.TrimSpace(i.Title),
		Artist: strings.TrimSpace(i.Artist),
		Album:  strings.TrimSpace(i.Album),
		Year:   i.Year,
		Source: i.Source,
	}
}

// MatchResult is a ranked match joined with the song's catalog entry.
type MatchResult struct {
	SongID     string  `json:"song_id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album,omitempty"`
	Year       int     `json:"year,omitempty"`
	Score      float64 `json:"score"`      // engine score, 1.0 for an exact fingerprint
	Exact      bool    `json:"exact"`      // fingerprint identical to the query
	Confidence float64 `json:"confidence"` // Score as a percentage, clamped to 0-100
}

// CatalogStats summarises the catalog.
type CatalogStats struct {
	Songs      int64 `json:"songs"`
	WithLyrics int64 `json:"with_lyrics"`
}

// Analysis is everything stored for one song.
type Analysis struct {
	Song     models.Song            `json:"song"`
	Features *models.FeatureBundle  `json:"features"`
	Lyrics   *models.LyricsFeatures `json:"lyrics,omitempty"`
}

func confidence(score float64) float64 {
	return min(max(score*100, 0), 100)
}
