package songdna

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/SongDNA/pkg/logger"
	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna/lyrics"
	"github.com/himanishpuri/SongDNA/pkg/songdna/matcher"
	"github.com/himanishpuri/SongDNA/pkg/songdna/provider"
)

const unknownArtist = "Unknown Artist"

// songService is the default implementation of the Service interface.
type songService struct {
	storage  Storage
	provider provider.Provider
	log      Logger
	config   *Config
	cache    candidateCache

	probe func(ctx context.Context, path string) (*provider.AudioInfo, error)
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	// Fail on bad matcher settings here rather than on the first match.
	if _, err := matcher.New(cfg.engineOptions(nil)...); err != nil {
		return nil, err
	}

	if cfg.Provider == nil {
		cfg.Provider = provider.NewScriptProvider(cfg.Python, cfg.ScriptDir, cfg.Logger)
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &songService{
		storage:  stor,
		provider: cfg.Provider,
		log:      cfg.Logger,
		config:   cfg,
		probe:    provider.Probe,
	}, nil
}

// AddSong extracts the features of an audio file and stores them in the
// catalog. Blank fields of info are taken from the file's tags; a title that
// is still blank falls back to the file name.
func (s *songService) AddSong(ctx context.Context, audioPath string, info SongInfo) (string, error) {
	if err := provider.ValidateAudioFile(audioPath); err != nil {
		return "", err
	}

	s.log.Infof("Extracting features: %s", audioPath)
	features, err := s.provider.AudioFeatures(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("feature extraction failed: %w", err)
	}

	song := info.song()
	if song.Source == "" {
		song.Source = models.SourceUserUpload
	}
	s.fillFromTags(ctx, audioPath, &song)
	if song.DurationMs == 0 && features.Metadata != nil {
		song.DurationMs = int(features.Metadata.Duration * 1000)
	}
	if song.Title == "" {
		song.Title = strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	}
	if song.Artist == "" {
		song.Artist = unknownArtist
	}

	return s.register(song, features)
}

func (s *songService) fillFromTags(ctx context.Context, audioPath string, song *models.Song) {
	tags, err := s.probe(ctx, audioPath)
	if err != nil {
		s.log.Warnf("Could not read tags of %s: %v", audioPath, err)
		return
	}

	if song.Title == "" {
		song.Title = tags.Title
	}
	if song.Artist == "" {
		song.Artist = tags.Artist
	}
	if song.Album == "" {
		song.Album = tags.Album
	}
	if song.Year == 0 {
		song.Year = tags.Year
	}
	song.DurationMs = tags.DurationMs()
}

// AddFeatures stores a bundle that was extracted elsewhere. Title and artist
// are required.
func (s *songService) AddFeatures(ctx context.Context, features models.FeatureBundle, info SongInfo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	song := info.song()
	if song.Title == "" || song.Artist == "" {
		return "", fmt.Errorf("%w: title and artist are required", ErrInvalidInput)
	}
	if !features.HasFingerprint() && !features.HasMFCC() && !features.HasEmbedding() {
		return "", fmt.Errorf("%w: bundle carries no features", ErrInvalidInput)
	}
	if features.Metadata != nil {
		song.DurationMs = int(features.Metadata.Duration * 1000)
	}

	features.ID = ""
	return s.register(song, &features)
}

func (s *songService) register(song models.Song, features *models.FeatureBundle) (string, error) {
	if song.Source != "" && !models.ValidSource(song.Source) {
		return "", fmt.Errorf("%w: unknown source %q", ErrInvalidInput, song.Source)
	}

	s.warnOnSharedFingerprint(song, features)

	id, created, err := s.storage.RegisterSong(song, features)
	if err != nil {
		return "", fmt.Errorf("failed to register song: %w", err)
	}
	s.cache.invalidate()

	if created {
		s.log.Infof("Added song ID=%s: %s by %s", id, song.Title, song.Artist)
	} else {
		s.log.Infof("Updated features of song ID=%s: %s by %s", id, song.Title, song.Artist)
	}
	return id, nil
}

// warnOnSharedFingerprint logs catalog entries under another title or
// artist whose fingerprint equals the one being registered. Such songs will
// all match a query exactly.
func (s *songService) warnOnSharedFingerprint(song models.Song, features *models.FeatureBundle) {
	if !features.HasFingerprint() {
		return
	}
	existing, err := s.storage.FindByFingerprint(features.Fingerprint)
	if err != nil {
		s.log.Warnf("Fingerprint lookup failed: %v", err)
		return
	}
	for _, e := range existing {
		if e.Title == song.Title && e.Artist == song.Artist {
			continue
		}
		s.log.Warnf("%s by %s has the same fingerprint as song ID=%s (%s by %s)",
			song.Title, song.Artist, e.ID, e.Title, e.Artist)
	}
}

// MatchSong extracts the features of a query recording and matches them
// against the catalog.
func (s *songService) MatchSong(ctx context.Context, audioPath string, opts ...matcher.Option) ([]MatchResult, error) {
	if err := provider.ValidateAudioFile(audioPath); err != nil {
		return nil, err
	}

	s.log.Infof("Matching audio: %s", audioPath)
	query, err := s.provider.AudioFeatures(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}
	return s.MatchFeatures(ctx, *query, opts...)
}

// MatchFeatures ranks the catalog against query. opts override the service's
// threshold, result limit and workers for this call only.
func (s *songService) MatchFeatures(ctx context.Context, query models.FeatureBundle, opts ...matcher.Option) ([]MatchResult, error) {
	engine, err := matcher.New(s.config.engineOptions(opts)...)
	if err != nil {
		return nil, err
	}

	candidates, err := s.cache.audioCandidates(s.storage.Candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, err := engine.Match(query, candidates)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("Scored %d candidates, %d retained", len(candidates), len(matches))

	return s.enrich(matches), nil
}

// SetLyrics analyses text and attaches the result to an existing song.
func (s *songService) SetLyrics(ctx context.Context, songID, text string) (*models.LyricsFeatures, error) {
	if _, err := s.storage.GetSongByID(songID); err != nil {
		return nil, err
	}

	lf, err := s.lyricsFeatures(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := s.storage.SetLyrics(songID, lf); err != nil {
		return nil, fmt.Errorf("failed to store lyrics: %w", err)
	}
	s.cache.invalidate()

	lf.ID = songID
	s.log.Infof("Stored lyrics for song ID=%s (%s, themes %v)", songID, lf.Language, lf.Themes)
	return lf, nil
}

func (s *songService) MatchLyrics(ctx context.Context, text string, opts ...matcher.Option) ([]MatchResult, error) {
	engine, err := lyrics.New(s.config.engineOptions(opts)...)
	if err != nil {
		return nil, err
	}

	query, err := s.lyricsFeatures(ctx, text)
	if err != nil {
		return nil, err
	}

	candidates, err := s.cache.lyricsCandidates(s.storage.LyricsCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load lyrics candidates: %w", err)
	}

	matches, err := engine.Match(*query, candidates)
	if err != nil {
		return nil, err
	}
	return s.enrich(matches), nil
}

// lyricsFeatures runs the extractor on text. Themes are derived locally when
// the extractor reports none.
func (s *songService) lyricsFeatures(ctx context.Context, text string) (*models.LyricsFeatures, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: lyrics are empty", ErrInvalidInput)
	}

	lf, err := s.provider.LyricsFeatures(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("lyrics analysis failed: %w", err)
	}
	if len(lf.Themes) == 0 {
		lf.Themes = lyrics.ExtractThemes(text, lf.Language)
	}
	return lf, nil
}

// enrich joins matches with their catalog entries. A song deleted after the
// candidates were ranked is dropped rather than replaced by the next best
// candidate, so a concurrent delete can shorten the result list.
func (s *songService) enrich(matches []models.MatchResult) []MatchResult {
	results := make([]MatchResult, 0, len(matches))
	for _, m := range matches {
		song, err := s.storage.GetSongByID(m.ID)
		if err != nil {
			s.log.Warnf("Failed to get song %s: %v", m.ID, err)
			continue
		}
		results = append(results, MatchResult{
			SongID:     m.ID,
			Title:      song.Title,
			Artist:     song.Artist,
			Album:      song.Album,
			Year:       song.Year,
			Score:      m.Score,
			Exact:      m.Exact,
			Confidence: confidence(m.Score),
		})
	}
	return results
}

func (s *songService) GetSongByID(songID string) (*models.Song, error) {
	return s.storage.GetSongByID(songID)
}

// GetAnalysis returns a song with its stored audio and lyrics features.
func (s *songService) GetAnalysis(songID string) (*Analysis, error) {
	song, err := s.storage.GetSongByID(songID)
	if err != nil {
		return nil, err
	}
	features, err := s.storage.GetFeatures(songID)
	if err != nil {
		return nil, fmt.Errorf("failed to load features: %w", err)
	}
	lf, err := s.storage.GetLyrics(songID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lyrics: %w", err)
	}
	return &Analysis{Song: *song, Features: features, Lyrics: lf}, nil
}

func (s *songService) ListSongs() ([]models.Song, error) {
	return s.storage.ListSongs()
}

// SongsByArtist lists an artist's songs; the name is matched ignoring case.
func (s *songService) SongsByArtist(artist string) ([]models.Song, error) {
	if strings.TrimSpace(artist) == "" {
		return nil, fmt.Errorf("%w: artist is required", ErrInvalidInput)
	}
	return s.storage.SongsByArtist(artist)
}

func (s *songService) Stats() (*CatalogStats, error) {
	songs, err := s.storage.CountSongs()
	if err != nil {
		return nil, fmt.Errorf("failed to count songs: %w", err)
	}
	withLyrics, err := s.storage.CountLyrics()
	if err != nil {
		return nil, fmt.Errorf("failed to count lyrics: %w", err)
	}
	return &CatalogStats{Songs: songs, WithLyrics: withLyrics}, nil
}

// DeleteSong removes a song with its features and lyrics.
func (s *songService) DeleteSong(songID string) error {
	if err := s.storage.DeleteSongByID(songID); err != nil {
		return err
	}
	s.cache.invalidate()
	s.log.Infof("Deleted song ID=%s", songID)
	return nil
}

// Close releases all resources held by the service.
func (s *songService) Close() error {
	return s.storage.Close()
}
