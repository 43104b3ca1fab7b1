package songdna

import (
	"sync"

	"github.com/himanishpuri/SongDNA/pkg/models"
)

// candidateCache keeps the decoded catalog between matches. Any write to the
// catalog must call invalidate.
type candidateCache struct {
	mu     sync.RWMutex
	gen    uint64
	audio  []models.FeatureBundle
	lyrics []models.LyricsFeatures
	hasA   bool
	hasL   bool
}

func (c *candidateCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.audio, c.lyrics = nil, nil
	c.hasA, c.hasL = false, false
}

// audioCandidates returns the cached bundles, loading them on a miss. The
// returned slice is shared and must not be modified.
func (c *candidateCache) audioCandidates(load func() ([]models.FeatureBundle, error)) ([]models.FeatureBundle, error) {
	c.mu.RLock()
	if c.hasA {
		out := c.audio
		c.mu.RUnlock()
		return out, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	loaded, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A write landed while loading; serve the result but don't keep it.
	if c.gen == gen {
		c.audio, c.hasA = loaded, true
	}
	return loaded, nil
}

func (c *candidateCache) lyricsCandidates(load func() ([]models.LyricsFeatures, error)) ([]models.LyricsFeatures, error) {
	c.mu.RLock()
	if c.hasL {
		out := c.lyrics
		c.mu.RUnlock()
		return out, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	loaded, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.lyrics, c.hasL = loaded, true
	}
	return loaded, nil
}
