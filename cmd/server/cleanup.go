package main

import (
	"context"
	"time"

	"github.com/himanishpuri/SongDNA/pkg/songdna"
	"github.com/himanishpuri/SongDNA/pkg/utils"
)

const (
	uploadMaxAge  = time.Hour
	sweepInterval = time.Hour
)

// sweepUploads removes upload files older than maxAge and returns how many
// were removed.
func sweepUploads(dir string, maxAge time.Duration, now time.Time, log songdna.Logger) int {
	removed, err := utils.CleanupOlderThan(dir, maxAge, now)
	if err != nil {
		log.Warnf("Upload cleanup: %v", err)
	}
	for _, name := range removed {
		log.Debugf("Cleaned up old file: %s", name)
	}
	return len(removed)
}

// runUploadSweeper sweeps dir every interval until ctx is done.
func runUploadSweeper(ctx context.Context, dir string, interval time.Duration, log songdna.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sweepUploads(dir, uploadMaxAge, now, log); n > 0 {
				log.Infof("Removed %d stale upload(s)", n)
			}
		}
	}
}
