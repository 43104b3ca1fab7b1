package provider

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// FFProbe is the ffprobe binary used by Probe.
var FFProbe = "ffprobe"

// AudioInfo is container-level metadata read by ffprobe. It is used to fill
// in catalog fields the caller left blank.
type AudioInfo struct {
	Filename    string
	Title       string
	Artist      string
	Album       string
	Year        int
	DurationSec float64
	SampleRate  int
	Channels    int
	Format      string
}

// DurationMs returns the duration rounded to whole milliseconds.
func (a *AudioInfo) DurationMs() int {
	return int(a.DurationSec*1000 + 0.5)
}

type ffprobeOutput struct {
	Format struct {
		Duration string            `json:"duration"`
		Format   string            `json:"format_name"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

func (p *ffprobeOutput) firstAudioStream() *ffprobeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return &p.Streams[i]
		}
	}
	return nil
}

// Probe runs ffprobe on path. Without a deadline on ctx it gives up after
// five seconds.
func Probe(ctx context.Context, path string) (*AudioInfo, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(
		ctx,
		FFProbe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	return parseProbe(path, out)
}

func parseProbe(path string, out []byte) (*AudioInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, err
	}

	stream := probe.firstAudioStream()
	if stream == nil {
		return nil, errors.New("no audio stream found")
	}

	duration, _ := strconv.ParseFloat(probe.Format.Duration, 64)
	sampleRate, _ := strconv.Atoi(stream.SampleRate)

	info := &AudioInfo{
		Filename:    filepath.Base(path),
		DurationSec: duration,
		SampleRate:  sampleRate,
		Channels:    stream.Channels,
		Format:      probe.Format.Format,
	}

	tags := probe.Format.Tags
	info.Title = firstTag(tags, "title", "TITLE")
	info.Artist = firstTag(tags, "artist", "ARTIST")
	info.Album = firstTag(tags, "album", "ALBUM")
	if date := firstTag(tags, "date", "DATE", "year"); len(date) >= 4 {
		info.Year, _ = strconv.Atoi(date[:4])
	}

	return info, nil
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}
