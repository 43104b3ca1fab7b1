package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/SongDNA/pkg/logger"
	"github.com/himanishpuri/SongDNA/pkg/songdna"
	"github.com/himanishpuri/SongDNA/pkg/songdna/matcher"
	"github.com/himanishpuri/SongDNA/pkg/songdna/provider"
	"github.com/himanishpuri/SongDNA/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service songdna.Service
	config  *ServerConfig
	log     *logger.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	DBPath         string
	UploadDir      string
	Threshold      float64
	MaxResults     int
	AllowedOrigins []string
}

func NewServer(service songdna.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().Named("server"),
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondServiceError maps a service error onto a status code. Server-side
// failures are logged; client errors are only echoed back.
func (s *Server) respondServiceError(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorf("%s: %v", action, err)
	}
	s.respondError(w, status, fmt.Sprintf("%s: %v", action, err))
}

func statusFor(err error) int {
	var extErr *provider.ExtractorError
	switch {
	case errors.Is(err, songdna.ErrSongNotFound):
		return http.StatusNotFound
	case errors.Is(err, songdna.ErrInvalidInput),
		errors.Is(err, provider.ErrUnsupportedFormat),
		errors.Is(err, provider.ErrInvalidAudio),
		errors.Is(err, provider.ErrEmptyAudio),
		errors.Is(err, matcher.ErrDimensionMismatch),
		errors.Is(err, matcher.ErrMalformedCandidate),
		errors.Is(err, matcher.ErrNonFinite),
		errors.Is(err, matcher.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.As(err, &extErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v and runs its Validate method.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 2*MaxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := v.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

func (o MatchOverrides) options() []matcher.Option {
	var opts []matcher.Option
	if o.Threshold != nil {
		opts = append(opts, matcher.WithThreshold(*o.Threshold))
	}
	if o.MaxResults != nil {
		opts = append(opts, matcher.WithMaxResults(*o.MaxResults))
	}
	return opts
}

// formOverrides reads threshold and max_results from a multipart form.
func formOverrides(r *http.Request) (MatchOverrides, error) {
	var o MatchOverrides
	if v := r.FormValue("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, fmt.Errorf("invalid threshold %q", v)
		}
		o.Threshold = &f
	}
	if v := r.FormValue("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, fmt.Errorf("invalid max_results %q", v)
		}
		o.MaxResults = &n
	}
	return o, nil
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.respondError(w, http.StatusNotFound, "Route not found")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "SongDNA API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"artist":        "GET /api/artists/{name}",
			"health":        "GET /health",
			"metrics":       "GET /api/health/metrics",
			"songs":         "GET /api/songs",
			"addSong":       "POST /api/songs",
			"getSong":       "GET /api/songs/{id}",
			"deleteSong":    "DELETE /api/songs/{id}",
			"setLyrics":     "PUT /api/songs/{id}/lyrics",
			"analysis":      "GET /api/analysis/{id}",
			"matchAudio":    "POST /api/match",
			"matchFeatures": "POST /api/match/features",
			"searchLyrics":  "POST /api/search/lyrics",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats()
	if err != nil {
		s.log.Errorf("Failed to get catalog stats: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		SongCount:    stats.Songs,
		LyricsCount:  stats.WithLyrics,
		Threshold:    s.config.Threshold,
		MaxResults:   s.config.MaxResults,
	})
}

// handleListSongs handles GET /api/songs
func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.service.ListSongs()
	if err != nil {
		s.respondServiceError(w, "Failed to retrieve songs", err)
		return
	}

	s.respondJSON(w, http.StatusOK, ListSongsResponse{Songs: songs, Count: len(songs)})
}

// handleArtist handles GET /api/artists/{name}
func (s *Server) handleArtist(w http.ResponseWriter, r *http.Request, artist string) {
	songs, err := s.service.SongsByArtist(artist)
	if err != nil {
		s.respondServiceError(w, "Failed to retrieve artist", err)
		return
	}
	if len(songs) == 0 {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("No songs by %s", artist))
		return
	}
	s.respondJSON(w, http.StatusOK, ArtistResponse{Artist: songs[0].Artist, Songs: songs, Count: len(songs)})
}

// handleGetSong handles GET /api/songs/{id}
func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request, songID string) {
	song, err := s.service.GetSongByID(songID)
	if err != nil {
		s.respondServiceError(w, fmt.Sprintf("Song with ID %s", songID), err)
		return
	}
	s.respondJSON(w, http.StatusOK, song)
}

// handleDeleteSong handles DELETE /api/songs/{id}
func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request, songID string) {
	if err := s.service.DeleteSong(songID); err != nil {
		s.respondServiceError(w, "Failed to delete song", err)
		return
	}

	s.respondJSON(w, http.StatusOK, DeleteSongResponse{
		Message: "Song deleted successfully",
		ID:      songID,
	})
}

// handleSetLyrics handles PUT /api/songs/{id}/lyrics
func (s *Server) handleSetLyrics(w http.ResponseWriter, r *http.Request, songID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req SetLyricsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	lf, err := s.service.SetLyrics(ctx, songID, req.Lyrics)
	if err != nil {
		s.respondServiceError(w, "Failed to set lyrics", err)
		return
	}
	s.respondJSON(w, http.StatusOK, lf)
}

// handleAnalysis handles GET /api/analysis/{id}
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request, songID string) {
	analysis, err := s.service.GetAnalysis(songID)
	if err != nil {
		s.respondServiceError(w, "Failed to load analysis", err)
		return
	}
	s.respondJSON(w, http.StatusOK, analysis)
}

// handleAddSong handles POST /api/songs. A multipart body carries an audio
// file; a JSON body carries a precomputed feature bundle.
func (s *Server) handleAddSong(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var (
		id  string
		err error
	)
	if isJSON(r) {
		var req AddFeaturesRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		id, err = s.service.AddFeatures(ctx, req.Features, req.info())
	} else {
		path, ok := s.receiveUpload(w, r, "upload")
		if !ok {
			return
		}
		defer utils.DeleteFile(path)

		year, _ := strconv.Atoi(r.FormValue("year"))
		id, err = s.service.AddSong(ctx, path, songdna.SongInfo{
			Title:  r.FormValue("title"),
			Artist: r.FormValue("artist"),
			Album:  r.FormValue("album"),
			Year:   year,
			Source: r.FormValue("source"),
		})
	}
	if err != nil {
		s.respondServiceError(w, "Failed to add song", err)
		return
	}

	song, err := s.service.GetSongByID(id)
	if err != nil {
		s.respondServiceError(w, "Failed to load added song", err)
		return
	}

	s.log.Infof("Added song: %s by %s (ID: %s)", song.Title, song.Artist, id)
	s.respondJSON(w, http.StatusCreated, AddSongResponse{Message: "Song added successfully", Song: *song})
}

// handleMatchAudio handles POST /api/match. The recording arrives either as
// the multipart "audio" file or as base64 audioData in a JSON body.
func (s *Server) handleMatchAudio(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var (
		path      string
		overrides MatchOverrides
	)
	if isJSON(r) {
		var req MatchAudioRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		p, err := s.saveInlineAudio(req.AudioData)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		path, overrides = p, req.MatchOverrides
	} else {
		p, ok := s.receiveUpload(w, r, "query")
		if !ok {
			return
		}
		o, err := formOverrides(r)
		if err != nil {
			utils.DeleteFile(p)
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		path, overrides = p, o
	}
	defer utils.DeleteFile(path)

	matches, err := s.service.MatchSong(ctx, path, overrides.options()...)
	if err != nil {
		s.respondServiceError(w, "Failed to match song", err)
		return
	}

	s.log.Infof("Match complete: found %d matches", len(matches))
	s.respondJSON(w, http.StatusOK, newMatchResponse(matches))
}

// handleMatchFeatures handles POST /api/match/features
func (s *Server) handleMatchFeatures(w http.ResponseWriter, r *http.Request) {
	var req MatchFeaturesRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	matches, err := s.service.MatchFeatures(r.Context(), req.Query, req.options()...)
	if err != nil {
		s.respondServiceError(w, "Failed to match features", err)
		return
	}
	s.respondJSON(w, http.StatusOK, newMatchResponse(matches))
}

// handleSearchLyrics handles POST /api/search/lyrics
func (s *Server) handleSearchLyrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req LyricsSearchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	matches, err := s.service.MatchLyrics(ctx, req.Lyrics, req.options()...)
	if err != nil {
		s.respondServiceError(w, "Failed to search lyrics", err)
		return
	}
	s.respondJSON(w, http.StatusOK, newMatchResponse(matches))
}

// receiveUpload stores the multipart "audio" file in the upload directory
// and returns its path. On failure the response has been written.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, http.StatusRequestEntityTooLarge, "File exceeds the 10MB limit")
			return "", false
		}
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return "", false
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return "", false
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "File exceeds the 10MB limit")
		return "", false
	}
	name := filepath.Base(header.Filename)
	if !provider.IsSupported(name) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid file type. Allowed types: %s",
			strings.Join(provider.SupportedExtensions, ", ")))
		return "", false
	}

	path, err := s.writeUpload(fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), name), file)
	if err != nil {
		s.log.Errorf("Failed to save upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return "", false
	}
	return path, true
}

// saveInlineAudio decodes a base64 recording into a WAV file in the upload
// directory.
func (s *Server) saveInlineAudio(data string) (string, error) {
	if _, payload, ok := strings.Cut(data, ","); ok && strings.HasPrefix(data, "data:") {
		data = payload
	}
	if base64.StdEncoding.DecodedLen(len(data)) > MaxUploadSize+2 {
		return "", fmt.Errorf("audioData exceeds the 10MB limit")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return "", fmt.Errorf("audioData is not valid base64")
	}
	if len(raw) > MaxUploadSize {
		return "", fmt.Errorf("audioData exceeds the 10MB limit")
	}

	return s.writeUpload(fmt.Sprintf("mic_%d.wav", time.Now().UnixNano()), bytes.NewReader(raw))
}

// writeUpload copies src into the upload directory. The data lands in a
// .part file first so a half-written upload never carries an audio extension.
func (s *Server) writeUpload(name string, src io.Reader) (string, error) {
	if err := utils.MakeDir(s.config.UploadDir); err != nil {
		return "", err
	}
	path := filepath.Join(s.config.UploadDir, name)
	tmpPath := path + ".part"

	out, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		utils.DeleteFile(tmpPath)
		return "", err
	}
	if err := out.Close(); err != nil {
		utils.DeleteFile(tmpPath)
		return "", err
	}
	if err := utils.MoveFile(tmpPath, path); err != nil {
		utils.DeleteFile(tmpPath)
		return "", err
	}
	return path, nil
}
