package provider

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SupportedExtensions lists the audio formats the extractor accepts.
var SupportedExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg"}

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInvalidAudio      = errors.New("invalid audio file")
	ErrEmptyAudio        = errors.New("audio file appears to be empty")
)

// IsSupported reports whether path has one of the SupportedExtensions.
func IsSupported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// ValidateAudioFile checks that path exists and has a supported extension.
// WAV files are also decoded: they must carry PCM samples within their first
// second. Other formats only need to be non-empty.
func ValidateAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidAudio, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupported(path) {
		return fmt.Errorf("%w: %q. Supported formats: %s", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions, ", "))
	}

	if info.Size() == 0 {
		return ErrEmptyAudio
	}
	if ext == ".wav" {
		return validateWAV(path)
	}
	return nil
}

func validateWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	if !wav.NewDecoder(f).IsValidFile() {
		return fmt.Errorf("%w: %s is not a readable WAV file", ErrInvalidAudio, filepath.Base(path))
	}

	// IsValidFile consumes the headers; start over for the samples.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding audio file: %w", err)
	}
	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()

	channels := max(int(decoder.NumChans), 1)
	sampleRate := max(int(decoder.SampleRate), 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   make([]int, channels*sampleRate),
	}
	n, err := decoder.PCMBuffer(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: reading samples: %v", ErrInvalidAudio, err)
	}
	if n == 0 {
		return ErrEmptyAudio
	}
	return nil
}
