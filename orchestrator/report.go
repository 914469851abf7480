package orchestrator

// Skip records one utterance excluded from a stage's output and why.
type Skip struct {
	UtteranceID string
	Reason      string
}

// Report aggregates per-utterance outcomes for one stage of a batch.
// Recoverable data-quality problems (unknown phoneme, missing audio or
// text) land here instead of aborting the run.
type Report struct {
	RunID     string
	Processed int
	Skipped   []Skip
}

func (r *Report) skip(uttID, reason string) {
	r.Skipped = append(r.Skipped, Skip{UtteranceID: uttID, Reason: reason})
}
