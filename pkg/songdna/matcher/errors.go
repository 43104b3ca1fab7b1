package matcher

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when two vectors compared by cosine
	// differ in length, or when an MFCC matrix has rows of unequal length.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrMalformedCandidate is returned when a database entry has no id.
	ErrMalformedCandidate = errors.New("malformed candidate")

	// ErrNonFinite is returned when a feature contains NaN or Inf.
	ErrNonFinite = errors.New("non-finite feature value")

	// ErrInvalidConfig is returned by New for unusable weights or limits.
	ErrInvalidConfig = errors.New("invalid matcher config")
)

// Feature names reported in errors.
const (
	FeatureID          = "id"
	FeatureFingerprint = "fingerprint"
	FeatureMFCC        = "mfcc"
	FeatureEmbedding   = "embedding"
	FeatureThemes      = "themes"
)

// CandidateError ties a failure to the database entry that caused it.
// Index is the entry's position in the database slice.
type CandidateError struct {
	Index   int
	ID      string
	Feature string
	Err     error
}

func (e *CandidateError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("candidate %d: %s: %v", e.Index, e.Feature, e.Err)
	}
	return fmt.Sprintf("candidate %d (%s): %s: %v", e.Index, e.ID, e.Feature, e.Err)
}

func (e *CandidateError) Unwrap() error { return e.Err }

// QueryError reports a problem with the query bundle itself.
type QueryError struct {
	Feature string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query: %s: %v", e.Feature, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
