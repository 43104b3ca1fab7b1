package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/himanishpuri/SongDNA/pkg/models"
)

// Blob layout: [format byte][payload]. Payloads at or above
// compressThreshold bytes are zstd-compressed msgpack, smaller ones are
// plain msgpack.
const (
	formatMsgpack     byte = 0x01
	formatMsgpackZstd byte = 0x02

	compressThreshold = 256
)

var ErrCorruptBlob = errors.New("corrupt feature blob")

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

// EncodeAll and DecodeAll are safe for concurrent use, so one of each is
// shared by the package.
func zstdCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return encoder, decoder, codecErr
}

type storedFeatures struct {
	Fingerprint string      `msgpack:"fp,omitempty"`
	MFCC        [][]float64 `msgpack:"mfcc,omitempty"`
	Embedding   []float64   `msgpack:"emb,omitempty"`
	Duration    float64     `msgpack:"dur,omitempty"`
	SampleRate  int         `msgpack:"sr,omitempty"`
	Tempo       float64     `msgpack:"bpm,omitempty"`
	HasMetadata bool        `msgpack:"meta,omitempty"`
}

type storedLyrics struct {
	Embedding          []float64 `msgpack:"emb,omitempty"`
	Themes             []string  `msgpack:"themes,omitempty"`
	Language           string    `msgpack:"lang,omitempty"`
	LanguageConfidence float64   `msgpack:"conf,omitempty"`
}

// EncodeFeatures serialises a bundle without its id.
func EncodeFeatures(b *models.FeatureBundle) ([]byte, error) {
	sf := storedFeatures{
		Fingerprint: b.Fingerprint,
		MFCC:        b.MFCC,
		Embedding:   b.Embedding,
	}
	if b.Metadata != nil {
		sf.HasMetadata = true
		sf.Duration = b.Metadata.Duration
		sf.SampleRate = b.Metadata.SampleRate
		sf.Tempo = b.Metadata.Tempo
	}
	return encodeBlob(&sf)
}

func DecodeFeatures(data []byte) (*models.FeatureBundle, error) {
	var sf storedFeatures
	if err := decodeBlob(data, &sf); err != nil {
		return nil, err
	}

	b := &models.FeatureBundle{
		Fingerprint: sf.Fingerprint,
		MFCC:        sf.MFCC,
		Embedding:   sf.Embedding,
	}
	if sf.HasMetadata {
		b.Metadata = &models.Metadata{
			Duration:   sf.Duration,
			SampleRate: sf.SampleRate,
			Tempo:      sf.Tempo,
		}
	}
	return b, nil
}

func EncodeLyrics(l *models.LyricsFeatures) ([]byte, error) {
	return encodeBlob(&storedLyrics{
		Embedding:          l.Embedding,
		Themes:             l.Themes,
		Language:           l.Language,
		LanguageConfidence: l.LanguageConfidence,
	})
}

func DecodeLyrics(data []byte) (*models.LyricsFeatures, error) {
	var sl storedLyrics
	if err := decodeBlob(data, &sl); err != nil {
		return nil, err
	}
	return &models.LyricsFeatures{
		Embedding:          sl.Embedding,
		Themes:             sl.Themes,
		Language:           sl.Language,
		LanguageConfidence: sl.LanguageConfidence,
	}, nil
}

func encodeBlob(v any) ([]byte, error) {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}

	if len(payload) < compressThreshold {
		return append([]byte{formatMsgpack}, payload...), nil
	}

	enc, _, err := zstdCodec()
	if err != nil {
		return nil, fmt.Errorf("zstd init: %w", err)
	}
	out := make([]byte, 1, len(payload)/2+1)
	out[0] = formatMsgpackZstd
	return enc.EncodeAll(payload, out), nil
}

func decodeBlob(data []byte, v any) error {
	if len(data) < 2 {
		return fmt.Errorf("%w: %d bytes", ErrCorruptBlob, len(data))
	}

	payload := data[1:]
	switch data[0] {
	case formatMsgpack:
	case formatMsgpackZstd:
		_, dec, err := zstdCodec()
		if err != nil {
			return fmt.Errorf("zstd init: %w", err)
		}
		payload, err = dec.DecodeAll(payload, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptBlob, err)
		}
	default:
		return fmt.Errorf("%w: unknown format 0x%02x", ErrCorruptBlob, data[0])
	}

	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	return nil
}
