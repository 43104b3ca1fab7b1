package models

// Vector is a dense feature vector such as an audio or lyrics embedding.
type Vector []float64

// Matrix is a coefficient matrix laid out as coefficients x frames, the shape
// produced for MFCC features.
type Matrix [][]float64

// Metadata carries scalar facts the extractor reports alongside the features.
// None of it takes part in scoring.
type Metadata struct {
	Duration   float64 `json:"duration,omitempty"`   // seconds
	SampleRate int     `json:"sampleRate,omitempty"` // Hz
	Tempo      float64 `json:"tempo,omitempty"`      // beats per minute
}

// FeatureBundle is the set of features extracted for one recording.
// Every field is optional; an empty value means the feature is unavailable.
// ID is only set on catalog-side bundles.
type FeatureBundle struct {
	ID          string    `json:"id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	MFCC        Matrix    `json:"mfcc,omitempty"`
	Embedding   Vector    `json:"embedding,omitempty"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

// HasFingerprint reports whether the bundle carries a fingerprint.
func (b FeatureBundle) HasFingerprint() bool { return b.Fingerprint != "" }

// HasMFCC reports whether the bundle carries at least one MFCC coefficient row.
func (b FeatureBundle) HasMFCC() bool { return len(b.MFCC) > 0 }

// HasEmbedding reports whether the bundle carries a non-empty embedding.
func (b FeatureBundle) HasEmbedding() bool { return len(b.Embedding) > 0 }

// LyricsFeatures is the textual counterpart of FeatureBundle.
type LyricsFeatures struct {
	ID                 string   `json:"id,omitempty"`
	Embedding          Vector   `json:"embedding,omitempty"`
	Themes             []string `json:"themes,omitempty"`
	Language           string   `json:"language,omitempty"`
	LanguageConfidence float64  `json:"languageConfidence,omitempty"`
}

// HasEmbedding reports whether the lyrics carry a non-empty embedding.
func (l LyricsFeatures) HasEmbedding() bool { return len(l.Embedding) > 0 }
