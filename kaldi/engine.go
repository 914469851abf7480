// Package kaldi drives the external Kaldi alignment engine: downloading
// the engine and acoustic models, and running the alignment shell-script
// stages in a batch working directory.
package kaldi

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultTrainCmd is Kaldi's local parallel runner.
const DefaultTrainCmd = "utils/run.pl"

// Engine invokes the Kaldi scripts. All paths are explicit configuration;
// nothing is read from process-global state beyond the inherited
// environment each subprocess is given.
type Engine struct {
	// RootDir is the extracted Kaldi distribution, containing the
	// x86_64/ binaries and the steps/ and utils/ script directories.
	RootDir string

	// WorkDir is the batch working directory; every script runs there.
	WorkDir string

	// TrainCmd is Kaldi's $train_cmd (default DefaultTrainCmd).
	TrainCmd string

	log *logrus.Entry
}

// New creates an engine rooted at rootDir operating in workDir.
func New(rootDir, workDir, trainCmd string) *Engine {
	if trainCmd == "" {
		trainCmd = DefaultTrainCmd
	}
	return &Engine{
		RootDir:  rootDir,
		WorkDir:  workDir,
		TrainCmd: trainCmd,
		log:      logrus.WithField("component", "kaldi"),
	}
}

// BinDir is the directory holding the engine's compiled binaries.
func (e *Engine) BinDir() string { return filepath.Join(e.RootDir, "x86_64") }

// env builds the subprocess environment: Kaldi scripts need LC_ALL=C for
// stable sorting and the binary/utils dirs on PATH.
func (e *Engine) env() []string {
	env := []string{"LC_ALL=C"}
	path := e.BinDir() + ":" + filepath.Join(e.WorkDir, "utils")
	for _, kv := range os.Environ() {
		switch {
		case strings.HasPrefix(kv, "LC_ALL="):
			continue
		case strings.HasPrefix(kv, "PATH="):
			path += ":" + strings.TrimPrefix(kv, "PATH=")
		default:
			env = append(env, kv)
		}
	}
	return append(env, "PATH="+path)
}

// run executes one engine script in the work dir.
func (e *Engine) run(ctx context.Context, name string, args ...string) error {
	e.log.WithField("script", name).Debug("running engine script")
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.WorkDir
	cmd.Env = e.env()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w\n%s", name, args, err, out)
	}
	if len(out) > 0 {
		e.log.WithField("script", name).Debug(string(out))
	}
	return nil
}

// LinkDirs places the symlinks the Kaldi scripts expect inside the work
// dir: steps/ and utils/ from the distribution, conf/ and model/ from the
// acoustic model. Existing links are replaced.
func (e *Engine) LinkDirs(modelDir string) error {
	links := map[string]string{
		"steps": filepath.Join(e.RootDir, "steps"),
		"utils": filepath.Join(e.RootDir, "utils"),
		"conf":  filepath.Join(modelDir, "conf"),
		"model": modelDir,
	}
	for name, target := range links {
		link := filepath.Join(e.WorkDir, name)
		if _, err := os.Lstat(link); err == nil {
			if err := os.Remove(link); err != nil {
				return fmt.Errorf("replace link %s: %w", link, err)
			}
		}
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("link %s -> %s: %w", link, target, err)
		}
	}
	return nil
}

// FixDataDir normalizes a data directory (creates spk2utt and friends).
func (e *Engine) FixDataDir(ctx context.Context, dataDir string) error {
	return e.run(ctx, "utils/fix_data_dir.sh", dataDir)
}

// MakeMFCCs extracts MFCC features for the data directory.
func (e *Engine) MakeMFCCs(ctx context.Context, dataDir, expDir, mfccDir string, jobs int) error {
	return e.run(ctx, "steps/make_mfcc.sh",
		"--cmd", e.TrainCmd,
		"--nj", strconv.Itoa(jobs),
		dataDir, expDir, mfccDir,
	)
}

// ComputeCMVNStats computes cepstral mean/variance normalization stats.
func (e *Engine) ComputeCMVNStats(ctx context.Context, dataDir, expDir, mfccDir string) error {
	return e.run(ctx, "steps/compute_cmvn_stats.sh", dataDir, expDir, mfccDir)
}

// AlignFmllr runs the fMLLR forced-alignment stage. Parallelism lives
// entirely inside the engine's own job execution.
func (e *Engine) AlignFmllr(ctx context.Context, dataDir, langDir, srcDir, expDir string, jobs int) error {
	return e.run(ctx, "steps/align_fmllr.sh",
		"--cmd", e.TrainCmd,
		"--nj", strconv.Itoa(jobs),
		dataDir, langDir, srcDir, expDir,
	)
}

// GetPhones converts the alignment lattices to the per-word phone output
// (phones.prons) consumed by the alignment parser.
func (e *Engine) GetPhones(ctx context.Context, dataDir, langDir, expDir string) error {
	return e.run(ctx, filepath.Join(e.RootDir, "get_phones.sh"), dataDir, langDir, expDir)
}
