package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var jsonNull = []byte("null")

// UnmarshalJSON accepts flat or nested numeric arrays and flattens them in
// row-major order. Extractors commonly emit embeddings as [[...]].
func (v *Vector) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*v = nil
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out, err := flattenNumbers(raw, nil)
	if err != nil {
		return fmt.Errorf("decode vector: %w", err)
	}
	*v = out
	return nil
}

func flattenNumbers(node any, dst []float64) ([]float64, error) {
	switch n := node.(type) {
	case float64:
		return append(dst, n), nil
	case []any:
		var err error
		for _, child := range n {
			if dst, err = flattenNumbers(child, dst); err != nil {
				return nil, err
			}
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("unexpected %T in numeric array", node)
	}
}

// UnmarshalJSON decodes a bundle, also accepting the extractor's native key
// names (chromaprintFingerprint, audioEmbedding, top-level tempo). Numeric
// ids are kept as their decimal text.
func (b *FeatureBundle) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             json.RawMessage `json:"id"`
		Fingerprint    *string         `json:"fingerprint"`
		Chromaprint    *string         `json:"chromaprintFingerprint"`
		MFCC           Matrix          `json:"mfcc"`
		Embedding      Vector          `json:"embedding"`
		AudioEmbedding Vector          `json:"audioEmbedding"`
		Tempo          *float64        `json:"tempo"`
		Metadata       *Metadata       `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}

	out := FeatureBundle{
		ID:        id,
		MFCC:      raw.MFCC,
		Embedding: raw.Embedding,
		Metadata:  raw.Metadata,
	}
	if raw.Fingerprint != nil {
		out.Fingerprint = *raw.Fingerprint
	}
	if out.Fingerprint == "" && raw.Chromaprint != nil {
		out.Fingerprint = *raw.Chromaprint
	}
	if len(out.Embedding) == 0 {
		out.Embedding = raw.AudioEmbedding
	}
	if raw.Tempo != nil {
		if out.Metadata == nil {
			out.Metadata = &Metadata{}
		}
		if out.Metadata.Tempo == 0 {
			out.Metadata.Tempo = *raw.Tempo
		}
	}

	*b = out
	return nil
}

// UnmarshalJSON decodes lyrics features, accepting bertEmbedding as an alias
// for embedding.
func (l *LyricsFeatures) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                 json.RawMessage `json:"id"`
		Embedding          Vector          `json:"embedding"`
		BertEmbedding      Vector          `json:"bertEmbedding"`
		Themes             []string        `json:"themes"`
		Language           string          `json:"language"`
		LanguageConfidence float64         `json:"languageConfidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}

	out := LyricsFeatures{
		ID:                 id,
		Embedding:          raw.Embedding,
		Themes:             raw.Themes,
		Language:           raw.Language,
		LanguageConfidence: raw.LanguageConfidence,
	}
	if len(out.Embedding) == 0 {
		out.Embedding = raw.BertEmbedding
	}

	*l = out
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode id: expected string or number, got %s", raw)
	}
	return n.String(), nil
}
