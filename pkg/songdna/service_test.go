package songdna

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SongDNA/pkg/logger"
	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna/matcher"
	"github.com/himanishpuri/SongDNA/pkg/songdna/provider"
)

// fakeProvider serves canned features keyed by file name or lyrics text.
type fakeProvider struct {
	audio  map[string]*models.FeatureBundle
	lyrics map[string]*models.LyricsFeatures
	calls  atomic.Int32
}

func (p *fakeProvider) AudioFeatures(_ context.Context, path string) (*models.FeatureBundle, error) {
	p.calls.Add(1)
	b, ok := p.audio[filepath.Base(path)]
	if !ok {
		return nil, &provider.ExtractorError{Type: "ValueError", Message: "no features for " + path}
	}
	out := *b
	return &out, nil
}

func (p *fakeProvider) LyricsFeatures(_ context.Context, text string) (*models.LyricsFeatures, error) {
	p.calls.Add(1)
	lf, ok := p.lyrics[text]
	if !ok {
		return &models.LyricsFeatures{Language: "English"}, nil
	}
	out := *lf
	return &out, nil
}

func setupTestService(t *testing.T, p *fakeProvider, opts ...Option) *songService {
	t.Helper()

	log := logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
	opts = append([]Option{
		WithDBPath(filepath.Join(t.TempDir(), "test_songdna.sqlite3")),
		WithProvider(p),
		WithLogger(log),
	}, opts...)

	svc, err := NewService(opts...)
	if err != nil {
		t.Fatalf("Failed to create test service: %v", err)
	}
	t.Cleanup(func() {
		svc.Close()
	})

	s := svc.(*songService)
	s.probe = func(context.Context, string) (*provider.AudioInfo, error) {
		return nil, errors.New("ffprobe disabled in tests")
	}
	return s
}

// writeTestWAV writes a short 16-bit mono tone and returns its path.
func writeTestWAV(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		SourceBitDepth: 16,
		Data:           make([]int, 8000),
	}
	for i := range buf.Data {
		buf.Data[i] = (i%40 - 20) * 500
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestNewService(t *testing.T) {
	s := setupTestService(t, &fakeProvider{})

	if s.storage == nil {
		t.Fatal("Expected non-nil storage")
	}
	if s.log == nil {
		t.Fatal("Expected non-nil logger")
	}
	if s.config.Threshold != matcher.DefaultThreshold {
		t.Errorf("Expected threshold %v, got %v", matcher.DefaultThreshold, s.config.Threshold)
	}
}

func TestNewServiceRejectsBadMatcherConfig(t *testing.T) {
	_, err := NewService(
		WithDBPath(filepath.Join(t.TempDir(), "x.db")),
		WithProvider(&fakeProvider{}),
		WithMaxResults(0),
	)
	assert.ErrorIs(t, err, matcher.ErrInvalidConfig)
}

func TestAddFeaturesAndMatch(t *testing.T) {
	ctx := context.Background()
	s := setupTestService(t, &fakeProvider{})

	idA, err := s.AddFeatures(ctx, models.FeatureBundle{Fingerprint: "fp-a", Embedding: models.Vector{1, 0}},
		SongInfo{Title: "Alpha", Artist: "One", Source: models.SourceFMA})
	require.NoError(t, err)
	idB, err := s.AddFeatures(ctx, models.FeatureBundle{Embedding: models.Vector{0, 1}},
		SongInfo{Title: "Beta", Artist: "Two"})
	require.NoError(t, err)

	results, err := s.MatchFeatures(ctx, models.FeatureBundle{Embedding: models.Vector{1, 0}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, idA, results[0].SongID)
	assert.Equal(t, "Alpha", results[0].Title)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 100.0, results[0].Confidence)
	assert.False(t, results[0].Exact)

	results, err = s.MatchFeatures(ctx, models.FeatureBundle{Fingerprint: "fp-a"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Exact)

	// Lowering the threshold per call lets the orthogonal song through.
	results, err = s.MatchFeatures(ctx, models.FeatureBundle{Embedding: models.Vector{1, 0}}, matcher.WithThreshold(-1))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, idB, results[1].SongID)
	assert.Equal(t, 0.0, results[1].Confidence)
}

func TestAddFeaturesValidation(t *testing.T) {
	ctx := context.Background()
	s := setupTestService(t, &fakeProvider{})

	tests := []struct {
		name     string
		features models.FeatureBundle
		info     SongInfo
	}{
		{"missing title", models.FeatureBundle{Embedding: models.Vector{1}}, SongInfo{Artist: "a"}},
		{"missing artist", models.FeatureBundle{Embedding: models.Vector{1}}, SongInfo{Title: "t"}},
		{"no features", models.FeatureBundle{}, SongInfo{Title: "t", Artist: "a"}},
		{"bad source", models.FeatureBundle{Embedding: models.Vector{1}}, SongInfo{Title: "t", Artist: "a", Source: "radio"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddFeatures(ctx, tt.features, tt.info)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestMatchSeesWritesAfterCaching(t *testing.T) {
	ctx := context.Background()
	s := setupTestService(t, &fakeProvider{})
	query := models.FeatureBundle{Embedding: models.Vector{1, 0}}

	results, err := s.MatchFeatures(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, results)

	id, err := s.AddFeatures(ctx, query, SongInfo{Title: "t", Artist: "a"})
	require.NoError(t, err)

	results, err = s.MatchFeatures(ctx, query)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, s.DeleteSong(id))

	results, err = s.MatchFeatures(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAddSong(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{audio: map[string]*models.FeatureBundle{
		"Sandstorm.wav": {
			Fingerprint: "sand",
			MFCC:        models.Matrix{{1, 2}, {3, 4}},
			Embedding:   models.Vector{0.3, 0.4},
			Metadata:    &models.Metadata{Duration: 1.5},
		},
	}}
	s := setupTestService(t, p)
	path := writeTestWAV(t, "Sandstorm.wav")

	id, err := s.AddSong(ctx, path, SongInfo{})
	require.NoError(t, err)

	song, err := s.GetSongByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Sandstorm", song.Title)
	assert.Equal(t, unknownArtist, song.Artist)
	assert.Equal(t, 1500, song.DurationMs)
	assert.Equal(t, models.SourceUserUpload, song.Source)

	results, err := s.MatchSong(ctx, path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].SongID)
	assert.True(t, results[0].Exact)
}

func TestAddSongUsesTags(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{audio: map[string]*models.FeatureBundle{
		"track01.wav": {Embedding: models.Vector{1}},
	}}
	s := setupTestService(t, p)
	s.probe = func(context.Context, string) (*provider.AudioInfo, error) {
		return &provider.AudioInfo{Title: "Tagged", Artist: "Tag Artist", Album: "LP", Year: 1999, DurationSec: 2}, nil
	}

	id, err := s.AddSong(ctx, writeTestWAV(t, "track01.wav"), SongInfo{Title: "Given"})
	require.NoError(t, err)

	song, err := s.GetSongByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Given", song.Title)
	assert.Equal(t, "Tag Artist", song.Artist)
	assert.Equal(t, "LP", song.Album)
	assert.Equal(t, 1999, song.Year)
	assert.Equal(t, 2000, song.DurationMs)
}

func TestAddSongRejectsBadFiles(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{}
	s := setupTestService(t, p)

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))

	_, err := s.AddSong(ctx, txt, SongInfo{})
	assert.ErrorIs(t, err, provider.ErrUnsupportedFormat)

	_, err = s.AddSong(ctx, filepath.Join(t.TempDir(), "missing.wav"), SongInfo{})
	assert.Error(t, err)

	assert.Equal(t, int32(0), p.calls.Load(), "extractor must not run for invalid files")
}

func TestAddSongExtractorError(t *testing.T) {
	s := setupTestService(t, &fakeProvider{})

	_, err := s.AddSong(context.Background(), writeTestWAV(t, "unknown.wav"), SongInfo{Title: "t", Artist: "a"})

	var extErr *provider.ExtractorError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "ValueError", extErr.Type)
}

func TestLyrics(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{lyrics: map[string]*models.LyricsFeatures{
		"my love my heart": {Embedding: models.Vector{1, 0}, Language: "English"},
		"tears and pain":   {Embedding: models.Vector{0, 1}, Themes: []string{"sadness"}, Language: "English"},
	}}
	s := setupTestService(t, p)

	idLove, err := s.AddFeatures(ctx, models.FeatureBundle{Embedding: models.Vector{1}}, SongInfo{Title: "Love", Artist: "a"})
	require.NoError(t, err)
	idSad, err := s.AddFeatures(ctx, models.FeatureBundle{Embedding: models.Vector{1}}, SongInfo{Title: "Sad", Artist: "a"})
	require.NoError(t, err)

	lf, err := s.SetLyrics(ctx, idLove, "my love my heart")
	require.NoError(t, err)
	assert.Equal(t, idLove, lf.ID)
	assert.Equal(t, []string{"love"}, lf.Themes)

	_, err = s.SetLyrics(ctx, idSad, "tears and pain")
	require.NoError(t, err)

	results, err := s.MatchLyrics(ctx, "my love my heart")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, idLove, results[0].SongID)
	assert.Equal(t, "Love", results[0].Title)

	analysis, err := s.GetAnalysis(idLove)
	require.NoError(t, err)
	assert.True(t, analysis.Song.HasLyrics)
	require.NotNil(t, analysis.Lyrics)
	assert.Equal(t, []string{"love"}, analysis.Lyrics.Themes)
	require.NotNil(t, analysis.Features)
	assert.Equal(t, models.Vector{1}, analysis.Features.Embedding)
}

func TestSetLyricsErrors(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{}
	s := setupTestService(t, p)

	_, err := s.SetLyrics(ctx, "no-such-song", "some words here")
	assert.ErrorIs(t, err, ErrSongNotFound)

	id, err := s.AddFeatures(ctx, models.FeatureBundle{Embedding: models.Vector{1}}, SongInfo{Title: "t", Artist: "a"})
	require.NoError(t, err)

	_, err = s.SetLyrics(ctx, id, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestDeleteSongNotFound(t *testing.T) {
	s := setupTestService(t, &fakeProvider{})

	err := s.DeleteSong("nope")
	assert.ErrorIs(t, err, ErrSongNotFound)
}

func TestListSongs(t *testing.T) {
	ctx := context.Background()
	s := setupTestService(t, &fakeProvider{})

	songs, err := s.ListSongs()
	require.NoError(t, err)
	assert.Empty(t, songs)

	_, err = s.AddFeatures(ctx, models.FeatureBundle{Embedding: models.Vector{1}}, SongInfo{Title: "t", Artist: "a", Year: 2020})
	require.NoError(t, err)

	songs, err = s.ListSongs()
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, 2020, songs[0].Year)
}

func TestAnalysisReturnsRegisteredBundle(t *testing.T) {
	ctx := context.Background()
	s := setupTestService(t, &fakeProvider{})

	bundle := models.FeatureBundle{
		Fingerprint: "fp-roundtrip",
		MFCC:        models.Matrix{{1, 2}, {3, 4}, {5, 6}},
		Embedding:   models.Vector{0.25, 0.5, 0.75},
		Metadata:    &models.Metadata{Duration: 12.5, SampleRate: 44100, Tempo: 98},
	}
	id, err := s.AddFeatures(ctx, bundle, SongInfo{Title: "Round", Artist: "Trip"})
	require.NoError(t, err)

	analysis, err := s.GetAnalysis(id)
	require.NoError(t, err)
	want := bundle
	want.ID = id
	assert.Equal(t, &want, analysis.Features)
	assert.Equal(t, 12500, analysis.Song.DurationMs)
	assert.Nil(t, analysis.Lyrics)
}

func TestSongsByArtistAndStats(t *testing.T) {
	ctx := context.Background()
	s := setupTestService(t, &fakeProvider{})

	for _, info := range []SongInfo{
		{Title: "Around the World", Artist: "Daft Punk"},
		{Title: "D.A.N.C.E.", Artist: "Justice"},
		{Title: "One More Time", Artist: "Daft Punk"},
	} {
		_, err := s.AddFeatures(ctx, models.FeatureBundle{Embedding: models.Vector{1}}, info)
		require.NoError(t, err)
	}

	songs, err := s.SongsByArtist("daft punk")
	require.NoError(t, err)
	require.Len(t, songs, 2)
	for _, song := range songs {
		assert.Equal(t, "Daft Punk", song.Artist)
	}

	_, err = s.SongsByArtist("  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.SetLyrics(ctx, songs[0].ID, "love is all around")
	require.NoError(t, err)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, &CatalogStats{Songs: 3, WithLyrics: 1}, stats)
}

func TestSharedFingerprintIsLogged(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	log := logger.New(logger.Config{Level: logger.WARN, Output: &out})
	s := setupTestService(t, &fakeProvider{}, WithLogger(log))

	first, err := s.AddFeatures(ctx, models.FeatureBundle{Fingerprint: "fp-same"}, SongInfo{Title: "Original", Artist: "A"})
	require.NoError(t, err)
	_, err = s.AddFeatures(ctx, models.FeatureBundle{Fingerprint: "fp-same"}, SongInfo{Title: "Original", Artist: "A"})
	require.NoError(t, err)
	assert.Empty(t, out.String(), "re-registering the same song is not a conflict")

	_, err = s.AddFeatures(ctx, models.FeatureBundle{Fingerprint: "fp-same"}, SongInfo{Title: "Copy", Artist: "B"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "same fingerprint as song ID="+first)
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{1, 100},
		{0.5, 50},
		{-0.2, 0},
		{1.5, 100},
	}
	for _, tt := range tests {
		if got := confidence(tt.score); got != tt.want {
			t.Errorf("confidence(%v): expected %v, got %v", tt.score, tt.want, got)
		}
	}
}
