// Package provider runs the external feature extractors and decodes what they
// print. Nothing here computes features itself.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/SongDNA/pkg/models"
)

const (
	AudioScript    = "audio_processor.py"
	LyricsScript   = "lyrics_processor.py"
	DefaultPython  = "python3"
	DefaultTimeout = 2 * time.Minute
)

// ErrNoOutput is returned when an extractor prints no JSON object.
var ErrNoOutput = errors.New("extractor produced no JSON output")

// Provider turns an audio file or a lyrics string into features.
type Provider interface {
	AudioFeatures(ctx context.Context, path string) (*models.FeatureBundle, error)
	LyricsFeatures(ctx context.Context, text string) (*models.LyricsFeatures, error)
}

type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// ExtractorError is a failure reported by the extractor in its status
// envelope.
type ExtractorError struct {
	Type    string
	Message string
}

func (e *ExtractorError) Error() string {
	if e.Type == "" {
		return "extractor error: " + e.Message
	}
	return fmt.Sprintf("extractor error (%s): %s", e.Type, e.Message)
}

// ScriptProvider runs <Python> <ScriptDir>/<script> <arg> and reads the
// last JSON line of its stdout.
type ScriptProvider struct {
	Python    string
	ScriptDir string
	Timeout   time.Duration // applied when ctx has no deadline
	Logger    Logger
}

func NewScriptProvider(python, scriptDir string, log Logger) *ScriptProvider {
	if python == "" {
		python = DefaultPython
	}
	return &ScriptProvider{
		Python:    python,
		ScriptDir: scriptDir,
		Timeout:   DefaultTimeout,
		Logger:    log,
	}
}

func (p *ScriptProvider) AudioFeatures(ctx context.Context, path string) (*models.FeatureBundle, error) {
	raw, err := p.extract(ctx, AudioScript, path)
	if err != nil {
		return nil, err
	}

	var bundle models.FeatureBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("decoding audio features: %w", err)
	}
	bundle.ID = ""
	return &bundle, nil
}

func (p *ScriptProvider) LyricsFeatures(ctx context.Context, text string) (*models.LyricsFeatures, error) {
	raw, err := p.extract(ctx, LyricsScript, text)
	if err != nil {
		return nil, err
	}

	var lf models.LyricsFeatures
	if err := json.Unmarshal(raw, &lf); err != nil {
		return nil, fmt.Errorf("decoding lyrics features: %w", err)
	}
	lf.ID = ""
	return &lf, nil
}

func (p *ScriptProvider) extract(ctx context.Context, script, arg string) (json.RawMessage, error) {
	if _, ok := ctx.Deadline(); !ok && p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	scriptPath := filepath.Join(p.ScriptDir, script)
	cmd := exec.CommandContext(ctx, p.Python, scriptPath, arg)

	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if p.Logger != nil {
		p.Logger.Debugf("running extractor %s", scriptPath)
	}
	out, runErr := cmd.Output()
	if runErr != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("%s: %w", script, ctx.Err())
	}

	features, err := p.decodeEnvelope(out)
	if err == nil && runErr == nil {
		return features, nil
	}

	// A reported extractor error says more than the exit status.
	var extErr *ExtractorError
	if errors.As(err, &extErr) {
		return nil, err
	}
	if runErr != nil {
		return nil, fmt.Errorf("%s failed: %w (%s)", script, runErr, strings.TrimSpace(stderr.String()))
	}
	return nil, err
}

type envelope struct {
	Status   string          `json:"status"`
	Features json.RawMessage `json:"features"`
	Warning  string          `json:"warning"`
	Error    string          `json:"error"`
	Type     string          `json:"type"`
}

// decodeEnvelope picks the last JSON object line from out. A line with a
// status field is treated as an envelope; anything else is bare features.
func (p *ScriptProvider) decodeEnvelope(out []byte) (json.RawMessage, error) {
	line := lastJSONLine(out)
	if line == nil {
		return nil, ErrNoOutput
	}

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("decoding extractor output: %w", err)
	}

	switch env.Status {
	case "":
		return line, nil
	case "success":
	case "partial":
		if p.Logger != nil {
			p.Logger.Warnf("extractor returned partial features: %s", env.Warning)
		}
	case "error":
		return nil, &ExtractorError{Type: env.Type, Message: env.Error}
	default:
		return nil, fmt.Errorf("unknown extractor status %q", env.Status)
	}

	if len(env.Features) == 0 || bytes.Equal(env.Features, []byte("null")) {
		return nil, fmt.Errorf("extractor status %s without features", env.Status)
	}
	return env.Features, nil
}

func lastJSONLine(out []byte) []byte {
	lines := bytes.Split(out, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && line[0] == '{' {
			return line
		}
	}
	return nil
}
