package songdna

import (
	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RegisterSong(song models.Song, features *models.FeatureBundle) (string, bool, error) {
	return s.db.RegisterSong(storage.NewSong{
		Title:      song.Title,
		Artist:     song.Artist,
		Album:      song.Album,
		Year:       song.Year,
		DurationMs: song.DurationMs,
		Source:     song.Source,
		Features:   features,
	})
}

func (s *storageAdapter) SetLyrics(songID string, lyrics *models.LyricsFeatures) error {
	return s.db.SetLyrics(songID, lyrics)
}

func (s *storageAdapter) GetSongByID(songID string) (*models.Song, error) {
	dbSong, err := s.db.GetSong(songID)
	if err != nil {
		return nil, err
	}
	song := toModelSong(*dbSong)
	return &song, nil
}

func (s *storageAdapter) GetFeatures(songID string) (*models.FeatureBundle, error) {
	return s.db.GetFeatures(songID)
}

func (s *storageAdapter) GetLyrics(songID string) (*models.LyricsFeatures, error) {
	return s.db.GetLyrics(songID)
}

func (s *storageAdapter) Candidates() ([]models.FeatureBundle, error) {
	return s.db.Candidates()
}

func (s *storageAdapter) LyricsCandidates() ([]models.LyricsFeatures, error) {
	return s.db.LyricsCandidates()
}

func (s *storageAdapter) ListSongs() ([]models.Song, error) {
	return toModelSongs(s.db.ListSongs())
}

func (s *storageAdapter) SongsByArtist(artist string) ([]models.Song, error) {
	return toModelSongs(s.db.SongsByArtist(artist))
}

func (s *storageAdapter) FindByFingerprint(fingerprint string) ([]models.Song, error) {
	return toModelSongs(s.db.FindByFingerprint(fingerprint))
}

func (s *storageAdapter) CountSongs() (int64, error) {
	return s.db.CountSongs()
}

func (s *storageAdapter) CountLyrics() (int64, error) {
	return s.db.CountLyrics()
}

func (s *storageAdapter) DeleteSongByID(songID string) error {
	return s.db.DeleteSongByID(songID)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func toModelSong(s storage.Song) models.Song {
	return models.Song{
		ID:         s.ID,
		Title:      s.Title,
		Artist:     s.Artist,
		Album:      s.Album,
		Year:       s.Year,
		DurationMs: s.DurationMs,
		Source:     s.Source,
		HasLyrics:  s.HasLyrics,
		CreatedAt:  s.CreatedAt,
	}
}

func toModelSongs(dbSongs []storage.Song, err error) ([]models.Song, error) {
	if err != nil {
		return nil, err
	}
	songs := make([]models.Song, len(dbSongs))
	for i, dbSong := range dbSongs {
		songs[i] = toModelSong(dbSong)
	}
	return songs, nil
}
