package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWAV writes a 16-bit mono 8 kHz WAV file with numSamples samples.
func writeWAV(t *testing.T, path string, numSamples int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	if numSamples > 0 {
		buf := &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
			Data:           make([]int, numSamples),
			SourceBitDepth: 16,
		}
		for i := range buf.Data {
			buf.Data[i] = (i%64 - 32) * 500
		}
		require.NoError(t, enc.Write(buf))
	}
	require.NoError(t, enc.Close())
}

func TestValidateAudioFileWAV(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "tone.wav")
	writeWAV(t, good, 8000)
	assert.NoError(t, ValidateAudioFile(good))

	upper := filepath.Join(dir, "SHORT.WAV")
	writeWAV(t, upper, 200)
	assert.NoError(t, ValidateAudioFile(upper))

	silent := filepath.Join(dir, "silent.wav")
	writeWAV(t, silent, 0)
	assert.Error(t, ValidateAudioFile(silent))

	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not a riff file at all"), 0o644))
	assert.ErrorIs(t, ValidateAudioFile(garbage), ErrInvalidAudio)
}

func TestValidateAudioFileOtherFormats(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content []byte
		wantErr error
	}{
		{"mp3 with data", "song.mp3", []byte{0xff, 0xfb, 0x90, 0x00}, nil},
		{"flac with data", "song.flac", []byte("fLaC...."), nil},
		{"empty ogg", "empty.ogg", nil, ErrEmptyAudio},
		{"text file", "notes.txt", []byte("hello"), ErrUnsupportedFormat},
		{"no extension", "song", []byte("data"), ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, tt.content, 0o644))

			err := ValidateAudioFile(path)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateAudioFileMissing(t *testing.T) {
	err := ValidateAudioFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.ErrorIs(t, ValidateAudioFile(t.TempDir()), ErrInvalidAudio)
}

func TestIsSupported(t *testing.T) {
	for _, ext := range SupportedExtensions {
		if !IsSupported("clip" + ext) {
			t.Errorf("Expected %s to be supported", ext)
		}
	}
	if IsSupported("clip.aiff") {
		t.Error("Expected .aiff to be unsupported")
	}
}

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"streams": [
			{"codec_type": "video"},
			{"codec_type": "audio", "sample_rate": "44100", "channels": 2}
		],
		"format": {
			"duration": "215.250000",
			"format_name": "mp3",
			"tags": {"title": "Sandstorm", "artist": "Darude", "album": "Before the Storm", "date": "1999-10-26"}
		}
	}`)

	info, err := parseProbe("/music/sandstorm.mp3", out)
	require.NoError(t, err)

	assert.Equal(t, "sandstorm.mp3", info.Filename)
	assert.Equal(t, "Sandstorm", info.Title)
	assert.Equal(t, "Darude", info.Artist)
	assert.Equal(t, "Before the Storm", info.Album)
	assert.Equal(t, 1999, info.Year)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, 215250, info.DurationMs())
}

func TestParseProbeNoAudio(t *testing.T) {
	_, err := parseProbe("x.mp4", []byte(`{"streams": [{"codec_type": "video"}], "format": {}}`))
	assert.Error(t, err)
}

func TestProbeMissingBinary(t *testing.T) {
	old := FFProbe
	FFProbe = filepath.Join(t.TempDir(), "no-such-ffprobe")
	t.Cleanup(func() { FFProbe = old })

	_, err := Probe(context.Background(), "clip.wav")
	assert.Error(t, err)
}
