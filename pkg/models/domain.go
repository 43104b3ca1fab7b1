package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Catalog sources a song can originate from.
const (
	SourceFMA        = "fma"
	SourceMusixmatch = "musixmatch"
	SourceUserUpload = "user_upload"
)

// ValidSource reports whether s is a known catalog source.
func ValidSource(s string) bool {
	switch s {
	case SourceFMA, SourceMusixmatch, SourceUserUpload:
		return true
	}
	return false
}

// Song represents a song entry in the catalog.
type Song struct {
	ID         string    `json:"id"`                // Database ID (UUID)
	Title      string    `json:"title"`             // Song title
	Artist     string    `json:"artist"`            // Artist name
	Album      string    `json:"album,omitempty"`   // Album name
	Year       int       `json:"year,omitempty"`    // Release year
	DurationMs int       `json:"duration_ms"`       // Duration in milliseconds
	Source     string    `json:"source"`            // One of the Source* constants
	HasLyrics  bool      `json:"has_lyrics"`        // Lyrics features are stored
	CreatedAt  time.Time `json:"created_at"`
}

// MatchResult is one ranked entry of a match: the candidate's score and id.
// Exact is set when the score came from an identical fingerprint.
//
// On the wire a result is the two-element array [score, id]; Exact is not
// carried.
type MatchResult struct {
	Score float64
	ID    string
	Exact bool
}

func (r MatchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.Score, r.ID})
}

func (r *MatchResult) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("match result: expected [score, id], got %d elements", len(pair))
	}

	var out MatchResult
	if err := json.Unmarshal(pair[0], &out.Score); err != nil {
		return fmt.Errorf("match result score: %w", err)
	}
	id, err := decodeID(pair[1])
	if err != nil {
		return err
	}
	out.ID = id

	*r = out
	return nil
}
