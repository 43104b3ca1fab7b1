package matcher

import (
	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/SongDNA/pkg/models"
)

// scoreChunk is the number of candidates one goroutine scores at a time.
const scoreChunk = 64

func (e *Engine) scoreAll(q *preparedQuery, database []models.FeatureBundle) ([]Score, error) {
	scores := make([]Score, len(database))

	if e.cfg.Workers <= 1 || len(database) <= scoreChunk {
		for i, c := range database {
			s, err := e.scoreCandidate(q, i, c)
			if err != nil {
				return nil, err
			}
			scores[i] = s
		}
		return scores, nil
	}

	// Every chunk runs to completion so the reported error is the one with
	// the lowest index, as in the sequential loop.
	errs := make([]error, len(database))
	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)

	for start := 0; start < len(database); start += scoreChunk {
		start := start
		end := min(start+scoreChunk, len(database))
		g.Go(func() error {
			for i := start; i < end; i++ {
				scores[i], errs[i] = e.scoreCandidate(q, i, database[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return scores, nil
}
