package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/utils"
)

const DefaultDBFile = "songdna.sqlite3"
const errDBClientNil = "db client is nil"

var ErrSongNotFound = errors.New("song not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Song struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Title      string `gorm:"uniqueIndex:idx_song_unique,priority:1;index:idx_song_meta,priority:1" json:"title"`
	Artist     string `gorm:"uniqueIndex:idx_song_unique,priority:2;index:idx_song_meta,priority:2" json:"artist"`
	Album      string `json:"album"`
	Year       int    `json:"year"`
	DurationMs int    `json:"duration_ms"`
	Source     string `gorm:"index:idx_source" json:"source"`
	HasLyrics  bool   `json:"has_lyrics"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FeatureRecord holds the encoded audio features of a song. Its
// auto-increment ID fixes the candidate scan order.
type FeatureRecord struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	SongID      string `gorm:"type:varchar(36);uniqueIndex:idx_features_song" json:"song_id"`
	Fingerprint string `gorm:"index:idx_fingerprint" json:"fingerprint"`
	Data        []byte `json:"-"`
}

type LyricsRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	SongID   string `gorm:"type:varchar(36);uniqueIndex:idx_lyrics_song" json:"song_id"`
	Language string `gorm:"index:idx_lyrics_language" json:"language"`
	Data     []byte `json:"-"`
}

// NewSong is the input of RegisterSong.
type NewSong struct {
	Title      string
	Artist     string
	Album      string
	Year       int
	DurationMs int
	Source     string
	Features   *models.FeatureBundle
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("SONGDNA_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Song{}, &FeatureRecord{}, &LyricsRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterSong stores a song and its features. A song with the same title and
// artist is reused: its features are replaced and blank metadata is filled
// in. The returned bool is true when a new row was created.
func (c *DBClient) RegisterSong(in NewSong) (string, bool, error) {
	if c == nil || c.DB == nil {
		return "", false, errors.New(errDBClientNil)
	}
	if in.Features == nil {
		return "", false, errors.New("features are required")
	}

	blob, err := EncodeFeatures(in.Features)
	if err != nil {
		return "", false, fmt.Errorf("encoding features: %w", err)
	}

	songID, created, err := c.registerSong(in, blob)
	if err != nil && isConstraintViolation(err) {
		// Lost a race with a concurrent insert of the same song; the retry
		// takes the update path.
		songID, created, err = c.registerSong(in, blob)
	}
	if err != nil {
		return "", false, err
	}
	return songID, created, nil
}

func (c *DBClient) registerSong(in NewSong, blob []byte) (string, bool, error) {
	var songID string
	created := false

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		var song Song
		err := tx.Where("title = ? AND artist = ?", in.Title, in.Artist).First(&song).Error
		switch {
		case err == nil:
			if err := fillSongMetadata(tx, &song, in); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			song = Song{
				ID:         utils.GenerateUUID(),
				Title:      in.Title,
				Artist:     in.Artist,
				Album:      in.Album,
				Year:       in.Year,
				DurationMs: in.DurationMs,
				Source:     in.Source,
			}
			if err := tx.Create(&song).Error; err != nil {
				return fmt.Errorf("creating song: %w", err)
			}
			created = true
		default:
			return fmt.Errorf("querying existing song: %w", err)
		}

		if err := saveFeatureRecord(tx, song.ID, in.Features.Fingerprint, blob); err != nil {
			return fmt.Errorf("storing features: %w", err)
		}

		songID = song.ID
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return songID, created, nil
}

// saveFeatureRecord inserts the feature row of a song or overwrites the
// existing one in place, keeping its scan position.
func saveFeatureRecord(tx *gorm.DB, songID, fingerprint string, blob []byte) error {
	var rec FeatureRecord
	err := tx.Where("song_id = ?", songID).First(&rec).Error
	switch {
	case err == nil:
		rec.Fingerprint = fingerprint
		rec.Data = blob
		return tx.Save(&rec).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tx.Create(&FeatureRecord{SongID: songID, Fingerprint: fingerprint, Data: blob}).Error
	default:
		return err
	}
}

func fillSongMetadata(tx *gorm.DB, song *Song, in NewSong) error {
	updates := map[string]any{}
	if song.Album == "" && in.Album != "" {
		updates["album"] = in.Album
	}
	if song.Year == 0 && in.Year != 0 {
		updates["year"] = in.Year
	}
	if song.DurationMs == 0 && in.DurationMs != 0 {
		updates["duration_ms"] = in.DurationMs
	}
	if song.Source == "" && in.Source != "" {
		updates["source"] = in.Source
	}
	if len(updates) == 0 {
		return nil
	}
	if err := tx.Model(song).Updates(updates).Error; err != nil {
		return fmt.Errorf("updating song metadata: %w", err)
	}
	return nil
}

func isConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}

// SetLyrics stores or replaces the lyrics features of an existing song.
func (c *DBClient) SetLyrics(songID string, lf *models.LyricsFeatures) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	blob, err := EncodeLyrics(lf)
	if err != nil {
		return fmt.Errorf("encoding lyrics: %w", err)
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Song{}).Where("id = ?", songID).Update("has_lyrics", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSongNotFound
		}

		var rec LyricsRecord
		err := tx.Where("song_id = ?", songID).First(&rec).Error
		switch {
		case err == nil:
			rec.Language = lf.Language
			rec.Data = blob
			return tx.Save(&rec).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&LyricsRecord{SongID: songID, Language: lf.Language, Data: blob}).Error
		default:
			return err
		}
	})
}

func (c *DBClient) GetSong(songID string) (*Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var song Song
	if err := c.DB.Where("id = ?", songID).First(&song).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotFound
		}
		return nil, err
	}
	return &song, nil
}

func (c *DBClient) GetFeatures(songID string) (*models.FeatureBundle, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rec FeatureRecord
	if err := c.DB.Where("song_id = ?", songID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotFound
		}
		return nil, err
	}
	b, err := DecodeFeatures(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("song %s: %w", songID, err)
	}
	b.ID = songID
	return b, nil
}

// GetLyrics returns nil without error when the song has no lyrics.
func (c *DBClient) GetLyrics(songID string) (*models.LyricsFeatures, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rec LyricsRecord
	if err := c.DB.Where("song_id = ?", songID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	lf, err := DecodeLyrics(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("song %s: %w", songID, err)
	}
	lf.ID = songID
	return lf, nil
}

// FindByFingerprint returns the songs whose stored fingerprint equals fp.
func (c *DBClient) FindByFingerprint(fp string) ([]Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	if fp == "" {
		return nil, nil
	}
	var songs []Song
	err := c.DB.
		Joins("JOIN feature_records ON feature_records.song_id = songs.id").
		Where("feature_records.fingerprint = ?", fp).
		Order("feature_records.id").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("querying fingerprint: %w", err)
	}
	return songs, nil
}

// Candidates decodes every stored bundle in registration order, each with its
// song id set.
func (c *DBClient) Candidates() ([]models.FeatureBundle, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []FeatureRecord
	if err := c.DB.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading features: %w", err)
	}

	out := make([]models.FeatureBundle, 0, len(rows))
	for _, r := range rows {
		b, err := DecodeFeatures(r.Data)
		if err != nil {
			return nil, fmt.Errorf("song %s: %w", r.SongID, err)
		}
		b.ID = r.SongID
		out = append(out, *b)
	}
	return out, nil
}

func (c *DBClient) LyricsCandidates() ([]models.LyricsFeatures, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []LyricsRecord
	if err := c.DB.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading lyrics: %w", err)
	}

	out := make([]models.LyricsFeatures, 0, len(rows))
	for _, r := range rows {
		lf, err := DecodeLyrics(r.Data)
		if err != nil {
			return nil, fmt.Errorf("song %s: %w", r.SongID, err)
		}
		lf.ID = r.SongID
		out = append(out, *lf)
	}
	return out, nil
}

func (c *DBClient) ListSongs() ([]Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var songs []Song
	if err := c.DB.Order("created_at, title").Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	return songs, nil
}

func (c *DBClient) CountSongs() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&Song{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountLyrics returns how many songs have lyrics features stored.
func (c *DBClient) CountLyrics() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&LyricsRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SongsByArtist returns the songs of an artist, matched case-insensitively,
// oldest first.
func (c *DBClient) SongsByArtist(artist string) ([]Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var songs []Song
	err := c.DB.Where("artist = ? COLLATE NOCASE", strings.TrimSpace(artist)).
		Order("created_at, title").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("listing songs by artist: %w", err)
	}
	return songs, nil
}

func (c *DBClient) DeleteSongByID(songID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", songID).Delete(&FeatureRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("song_id = ?", songID).Delete(&LyricsRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", songID).Delete(&Song{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSongNotFound
		}
		return nil
	})
}
