// Package lyrics scores lyrics features the way the matcher package scores
// audio: a weighted mean of the signals both sides carry, filtered by a
// strict threshold and ranked with matcher.Rank.
package lyrics

import (
	"github.com/himanishpuri/SongDNA/pkg/models"
	"github.com/himanishpuri/SongDNA/pkg/songdna/matcher"
)

const (
	EmbeddingWeight = 0.5
	ThemeWeight     = 0.5
)

// Detail breaks a lyrics score into its parts. Signals missing on either
// side are reported as 0 and left out of Overall.
type Detail struct {
	Overall   float64 `json:"overall"`
	Embedding float64 `json:"embedding"`
	Themes    float64 `json:"themes"`
	HasSignal bool    `json:"-"`
}

type Engine struct {
	threshold  float64
	maxResults int
}

// New builds a lyrics engine. Only the threshold and result limit of the
// matcher options apply.
func New(opts ...matcher.Option) (*Engine, error) {
	m, err := matcher.New(opts...)
	if err != nil {
		return nil, err
	}
	cfg := m.Config()
	return &Engine{threshold: cfg.Threshold, maxResults: cfg.MaxResults}, nil
}

// Score compares two sets of lyrics features.
func (e *Engine) Score(query, candidate models.LyricsFeatures) (Detail, error) {
	var d Detail
	var sum, weights float64

	if query.HasEmbedding() && candidate.HasEmbedding() {
		sim, err := matcher.CosineSimilarity(query.Embedding, candidate.Embedding)
		if err != nil {
			return Detail{}, err
		}
		d.Embedding = sim
		sum += EmbeddingWeight * sim
		weights += EmbeddingWeight
	}

	if len(query.Themes) > 0 && len(candidate.Themes) > 0 {
		d.Themes = ThemeOverlap(query.Themes, candidate.Themes)
		sum += ThemeWeight * d.Themes
		weights += ThemeWeight
	}

	if weights > 0 {
		d.Overall = sum / weights
		d.HasSignal = true
	}
	return d, nil
}

// Match ranks database against query. Every entry needs an id, checked before
// scoring; the first scoring error aborts the call.
func (e *Engine) Match(query models.LyricsFeatures, database []models.LyricsFeatures) ([]models.MatchResult, error) {
	for i, c := range database {
		if c.ID == "" {
			return nil, &matcher.CandidateError{Index: i, Feature: matcher.FeatureID, Err: matcher.ErrMalformedCandidate}
		}
	}

	results := make([]models.MatchResult, 0)
	for i, c := range database {
		d, err := e.Score(query, c)
		if err != nil {
			return nil, &matcher.CandidateError{Index: i, ID: c.ID, Feature: matcher.FeatureEmbedding, Err: err}
		}
		if !d.HasSignal || d.Overall <= e.threshold {
			continue
		}
		results = append(results, models.MatchResult{Score: d.Overall, ID: c.ID})
	}

	return matcher.Rank(results, e.maxResults), nil
}
