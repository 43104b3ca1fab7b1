package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SongDNA/pkg/models"
)

func TestFeatureBlobFormats(t *testing.T) {
	small := &models.FeatureBundle{Fingerprint: "fp", Embedding: models.Vector{1, 2}}
	data, err := EncodeFeatures(small)
	require.NoError(t, err)
	assert.Equal(t, formatMsgpack, data[0])

	mfcc := make(models.Matrix, 13)
	for i := range mfcc {
		mfcc[i] = make([]float64, 100)
		for j := range mfcc[i] {
			mfcc[i][j] = float64(i*j%7) * 0.5
		}
	}
	large := &models.FeatureBundle{MFCC: mfcc, Metadata: &models.Metadata{Tempo: 128}}
	data, err = EncodeFeatures(large)
	require.NoError(t, err)
	assert.Equal(t, formatMsgpackZstd, data[0])

	decoded, err := DecodeFeatures(data)
	require.NoError(t, err)
	assert.Equal(t, large.MFCC, decoded.MFCC)
	require.NotNil(t, decoded.Metadata)
	assert.Equal(t, 128.0, decoded.Metadata.Tempo)
	assert.Empty(t, decoded.Fingerprint)
}

func TestFeatureBlobWithoutMetadata(t *testing.T) {
	data, err := EncodeFeatures(&models.FeatureBundle{Embedding: models.Vector{0.25}})
	require.NoError(t, err)

	decoded, err := DecodeFeatures(data)
	require.NoError(t, err)
	assert.Nil(t, decoded.Metadata)
	assert.Equal(t, models.Vector{0.25}, decoded.Embedding)
}

func TestDecodeCorruptBlob(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"header only", []byte{formatMsgpack}},
		{"unknown format", []byte{0x7f, 0x01, 0x02}},
		{"bad zstd", []byte{formatMsgpackZstd, 0xde, 0xad, 0xbe, 0xef}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFeatures(tt.data)
			assert.ErrorIs(t, err, ErrCorruptBlob)
		})
	}
}
