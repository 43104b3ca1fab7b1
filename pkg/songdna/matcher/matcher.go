// Package matcher ranks catalog feature bundles against a query bundle.
//
// A candidate whose fingerprint is identical to the query's scores exactly 1
// and is always kept. Otherwise the MFCC and embedding cosine similarities
// available on both sides are averaged with their weights, and the candidate
// is kept only if that average is strictly above the threshold. At most
// MaxResults candidates are returned, best first, ties in database order.
//
// An Engine is immutable after New and safe for concurrent use.
package matcher

import (
	"cmp"
	"slices"

	"github.com/himanishpuri/SongDNA/pkg/models"
)

type Engine struct {
	cfg Config
}

// New builds an engine from the defaults and the given options.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Match scores every database entry against query and returns the retained
// results ranked by score.
//
// Every entry must carry an id; this is checked for the whole database before
// anything is scored. The first scoring error (by database position) aborts
// the call, so a single bad vector fails the whole match.
func (e *Engine) Match(query models.FeatureBundle, database []models.FeatureBundle) ([]models.MatchResult, error) {
	q, err := prepareQuery(query)
	if err != nil {
		return nil, err
	}

	for i, c := range database {
		if c.ID == "" {
			return nil, &CandidateError{Index: i, Feature: FeatureID, Err: ErrMalformedCandidate}
		}
	}

	scores, err := e.scoreAll(q, database)
	if err != nil {
		return nil, err
	}

	results := make([]models.MatchResult, 0, min(len(database), e.cfg.MaxResults))
	for i, s := range scores {
		if !s.Retained(e.cfg.Threshold) {
			continue
		}
		results = append(results, models.MatchResult{
			Score: s.Value,
			ID:    database[i].ID,
			Exact: s.Kind == ExactMatch,
		})
	}

	return Rank(results, e.cfg.MaxResults), nil
}

// Score compares query with a single candidate. The candidate's id is not
// required.
func (e *Engine) Score(query, candidate models.FeatureBundle) (Score, error) {
	q, err := prepareQuery(query)
	if err != nil {
		return Score{}, err
	}
	return e.scoreCandidate(q, 0, candidate)
}

// Match runs a default engine with the given threshold.
func Match(query models.FeatureBundle, database []models.FeatureBundle, threshold float64) ([]models.MatchResult, error) {
	e, err := New(WithThreshold(threshold))
	if err != nil {
		return nil, err
	}
	return e.Match(query, database)
}

// Rank sorts results by score, highest first, keeping the existing order of
// equal scores, and truncates to limit. A limit below 1 means no truncation.
// The slice is sorted in place.
func Rank(results []models.MatchResult, limit int) []models.MatchResult {
	slices.SortStableFunc(results, func(a, b models.MatchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// preparedQuery holds the query with its MFCC already collapsed.
type preparedQuery struct {
	fingerprint string
	mfcc        []float64
	embedding   []float64
}

func prepareQuery(query models.FeatureBundle) (*preparedQuery, error) {
	q := &preparedQuery{fingerprint: query.Fingerprint}

	if query.HasMFCC() {
		collapsed, err := CollapseFrames(query.MFCC)
		if err != nil {
			return nil, &QueryError{Feature: FeatureMFCC, Err: err}
		}
		q.mfcc = collapsed
	}

	if query.HasEmbedding() {
		if err := checkFinite(query.Embedding); err != nil {
			return nil, &QueryError{Feature: FeatureEmbedding, Err: err}
		}
		q.embedding = query.Embedding
	}

	return q, nil
}

func (e *Engine) scoreCandidate(q *preparedQuery, index int, c models.FeatureBundle) (Score, error) {
	if q.fingerprint != "" && q.fingerprint == c.Fingerprint {
		return Score{Kind: ExactMatch, Value: 1}, nil
	}

	var sum, weights float64

	if q.mfcc != nil && c.HasMFCC() {
		collapsed, err := CollapseFrames(c.MFCC)
		if err != nil {
			return Score{}, &CandidateError{Index: index, ID: c.ID, Feature: FeatureMFCC, Err: err}
		}
		sim, err := CosineSimilarity(q.mfcc, collapsed)
		if err != nil {
			return Score{}, &CandidateError{Index: index, ID: c.ID, Feature: FeatureMFCC, Err: err}
		}
		sum += e.cfg.MFCCWeight * sim
		weights += e.cfg.MFCCWeight
	}

	if q.embedding != nil && c.HasEmbedding() {
		sim, err := CosineSimilarity(q.embedding, c.Embedding)
		if err != nil {
			return Score{}, &CandidateError{Index: index, ID: c.ID, Feature: FeatureEmbedding, Err: err}
		}
		sum += e.cfg.EmbeddingWeight * sim
		weights += e.cfg.EmbeddingWeight
	}

	if weights == 0 {
		return Score{Kind: NoSignal}, nil
	}
	return Score{Kind: Blended, Value: sum / weights}, nil
}
