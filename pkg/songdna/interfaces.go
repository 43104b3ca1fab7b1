package songdna

import (
	"context"

	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna/matcher"
)

type Service interface {
	AddSong(ctx context.Context, audioPath string, info SongInfo) (string, error)
	AddFeatures(ctx context.Context, features models.FeatureBundle, info SongInfo) (string, error)
	MatchSong(ctx context.Context, audioPath string, opts ...matcher.Option) ([]MatchResult, error)
	MatchFeatures(ctx context.Context, query models.FeatureBundle, opts ...matcher.Option) ([]MatchResult, error)
	SetLyrics(ctx context.Context, songID, text string) (*models.LyricsFeatures, error)
	MatchLyrics(ctx context.Context, text string, opts ...matcher.Option) ([]MatchResult, error)
	GetSongByID(songID string) (*models.Song, error)
	GetAnalysis(songID string) (*Analysis, error)
	ListSongs() ([]models.Song, error)
	SongsByArtist(artist string) ([]models.Song, error)
	Stats() (*CatalogStats, error)
	DeleteSong(songID string) error
	Close() error
}

type Storage interface {
	// RegisterSong stores features under song, reusing an existing entry with
	// the same title and artist. created is false when one was reused.
	RegisterSong(song models.Song, features *models.FeatureBundle) (id string, created bool, err error)
	SetLyrics(songID string, lyrics *models.LyricsFeatures) error
	GetSongByID(songID string) (*models.Song, error)
	GetFeatures(songID string) (*models.FeatureBundle, error)
	GetLyrics(songID string) (*models.LyricsFeatures, error)
	Candidates() ([]models.FeatureBundle, error)
	LyricsCandidates() ([]models.LyricsFeatures, error)
	ListSongs() ([]models.Song, error)
	SongsByArtist(artist string) ([]models.Song, error)
	FindByFingerprint(fingerprint string) ([]models.Song, error)
	CountSongs() (int64, error)
	CountLyrics() (int64, error)
	DeleteSongByID(songID string) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
