package matcher

// Kind tells how a candidate's score was obtained.
type Kind int

const (
	// NoSignal means the query and candidate share no comparable feature.
	NoSignal Kind = iota
	// ExactMatch means both fingerprints are present and identical.
	ExactMatch
	// Blended means the score is a weighted mean of MFCC and embedding
	// similarities.
	Blended
)

func (k Kind) String() string {
	switch k {
	case NoSignal:
		return "no_signal"
	case ExactMatch:
		return "exact"
	case Blended:
		return "blended"
	default:
		return "unknown"
	}
}

// Score is the outcome of comparing a query with one candidate.
type Score struct {
	Kind  Kind
	Value float64
}

// Retained reports whether the score survives the threshold filter.
// Exact matches always do; candidates with no signal never do.
func (s Score) Retained(threshold float64) bool {
	switch s.Kind {
	case ExactMatch:
		return true
	case Blended:
		return s.Value > threshold
	default:
		return false
	}
}
