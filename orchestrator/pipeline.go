// Package orchestrator wires the batch stages together: engine input
// preparation, engine invocation, alignment post-processing, phoneme
// encoding and audio trimming. All data transformation is single-threaded
// and data-proportional; the only parallelism in a batch lives inside the
// external engine's own job execution.
package orchestrator

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/kaldi-align/config"
)

// Pipeline executes batch runs against one configuration.
type Pipeline struct {
	cfg   *config.Root
	runID string
	log   *logrus.Entry
}

// NewPipeline creates a pipeline. Each pipeline carries a run id that is
// stamped on its logs and reports.
func NewPipeline(cfg *config.Root) *Pipeline {
	runID := uuid.NewString()
	return &Pipeline{
		cfg:   cfg,
		runID: runID,
		log:   logrus.WithFields(logrus.Fields{"component": "orchestrator", "run_id": runID}),
	}
}

// RunID returns the pipeline's run id.
func (p *Pipeline) RunID() string { return p.runID }
