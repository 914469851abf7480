package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/kaldi-align/alignment"
	"github.com/maastricht-university/kaldi-align/kaldi"
	"github.com/maastricht-university/kaldi-align/metadata"
	"github.com/maastricht-university/kaldi-align/phonemes"
)

// defaultSpeaker labels utterances when the metadata has no speaker
// column. The engine requires a speaker per utterance.
const defaultSpeaker = "speaker1"

// AlignRequest describes one full alignment batch.
type AlignRequest struct {
	// Metadata is the transcription CSV (id|text or id|speaker|text).
	Metadata string

	// AudioFiles lists one audio path per line; the file stem is the
	// utterance id.
	AudioFiles string

	// Model is an acoustic model directory, or a model name (short
	// language codes are resolved through the alias table) to download.
	Model string

	// OutputFile receives the JSONL alignment artifact.
	OutputFile string

	// OutputDir is the engine working directory. Empty means a
	// temporary directory discarded after the run.
	OutputDir string

	// CleanMetadata optionally receives a sorted metadata copy.
	CleanMetadata string

	HasSpeaker bool
	SkipMFCCs  bool
}

// Align runs the complete batch: engine/model provisioning, input
// preparation, the engine's alignment stages, and conversion of the
// frame-level output to the JSONL artifact.
func (p *Pipeline) Align(ctx context.Context, req AlignRequest) error {
	kaldiDir, modelDir, err := p.provision(ctx, req.Model)
	if err != nil {
		return err
	}

	workDir := req.OutputDir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "kaldi-align-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)
		workDir = tmp
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return err
	}

	engine := kaldi.New(kaldiDir, workDir, p.cfg.Engine.TrainCmd)
	if err := engine.LinkDirs(modelDir); err != nil {
		return err
	}

	entries, err := metadata.LoadFile(req.Metadata, req.HasSpeaker)
	if err != nil {
		return fmt.Errorf("load metadata %s: %w", req.Metadata, err)
	}
	p.log.WithField("utterances", len(entries)).Info("loaded metadata")

	if req.CleanMetadata != "" {
		if err := p.writeCleanMetadata(req.CleanMetadata, entries, req.HasSpeaker); err != nil {
			return err
		}
	}

	audioPaths, err := loadAudioPaths(req.AudioFiles)
	if err != nil {
		return fmt.Errorf("load audio file list %s: %w", req.AudioFiles, err)
	}

	speakers := make(map[string]string, len(entries))
	for id, e := range entries {
		speaker := e.Speaker
		if speaker == "" {
			speaker = defaultSpeaker
		}
		speakers[id] = speaker
	}
	registry, err := alignment.NewRegistry(speakers)
	if err != nil {
		return err
	}

	dataDir := filepath.Join(workDir, "data", "align")
	aligned, err := p.writeEngineInputs(dataDir, registry, entries, speakers, audioPaths)
	if err != nil {
		return err
	}
	if aligned == 0 {
		return fmt.Errorf("no utterance has both text and audio; nothing to align")
	}

	jobs := p.cfg.Engine.NumJobs
	if aligned < jobs {
		jobs = aligned
	}

	expDir := filepath.Join(workDir, "exp", "align")
	if err := p.runEngine(ctx, engine, modelDir, dataDir, expDir, workDir, jobs, req.SkipMFCCs); err != nil {
		return err
	}

	mapPath := filepath.Join(workDir, "utt_map.txt")
	mapFile, err := os.Create(mapPath)
	if err != nil {
		return err
	}
	if err := registry.WriteMap(mapFile); err != nil {
		mapFile.Close()
		return err
	}
	if err := mapFile.Close(); err != nil {
		return err
	}

	return p.convertProns(filepath.Join(expDir, "phones.prons"), registry, req.OutputFile)
}

// provision makes sure the engine and the acoustic model are on disk,
// downloading whichever is missing. It returns their directories.
func (p *Pipeline) provision(ctx context.Context, model string) (kaldiDir, modelDir string, err error) {
	downloadDir := p.cfg.Engine.DownloadDir

	kaldiDir = p.cfg.Engine.KaldiDir
	if kaldiDir == "" {
		kaldiDir = filepath.Join(downloadDir, "kaldi")
	}
	if _, statErr := os.Stat(kaldiDir); os.IsNotExist(statErr) {
		p.log.Info("engine not found, downloading")
		if err = kaldi.DownloadEngine(ctx, p.cfg.Engine.URLFormat, filepath.Dir(kaldiDir)); err != nil {
			return "", "", err
		}
	}

	if info, statErr := os.Stat(model); statErr == nil && info.IsDir() {
		return kaldiDir, model, nil
	}

	// Model is a name, not a directory.
	name := phonemes.ResolveLanguage(model)
	modelDir = filepath.Join(downloadDir, "models", name)
	if _, statErr := os.Stat(modelDir); os.IsNotExist(statErr) {
		p.log.WithField("model", name).Info("model not found, downloading")
		if err = kaldi.DownloadModel(ctx, p.cfg.Engine.URLFormat, name, filepath.Dir(modelDir)); err != nil {
			return "", "", err
		}
	}
	return kaldiDir, modelDir, nil
}

// writeEngineInputs creates the engine's data directory: text, utt2spk
// and wav.scp for every utterance with both text and audio, plus id2utt
// for the whole batch. Utterances without audio are warned about and
// excluded. Returns the number of utterances handed to the engine.
func (p *Pipeline) writeEngineInputs(
	dataDir string,
	registry *alignment.Registry,
	entries map[string]metadata.Entry,
	speakers map[string]string,
	audioPaths map[string]string,
) (int, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return 0, err
	}

	textFile, err := os.Create(filepath.Join(dataDir, "text"))
	if err != nil {
		return 0, err
	}
	defer textFile.Close()
	utt2spkFile, err := os.Create(filepath.Join(dataDir, "utt2spk"))
	if err != nil {
		return 0, err
	}
	defer utt2spkFile.Close()
	idFile, err := os.Create(filepath.Join(dataDir, "id2utt"))
	if err != nil {
		return 0, err
	}
	defer idFile.Close()
	scpFile, err := os.Create(filepath.Join(dataDir, "wav.scp"))
	if err != nil {
		return 0, err
	}
	defer scpFile.Close()

	aligned := 0
	for _, uttID := range registry.UtteranceIDs() {
		engineID, _ := registry.EngineID(uttID)
		fmt.Fprintf(idFile, "%s %s\n", uttID, engineID)

		audioPath, ok := audioPaths[uttID]
		if !ok {
			p.log.WithField("utterance", uttID).Warn("missing audio file, skipping utterance")
			continue
		}

		fmt.Fprintf(textFile, "%s %s\n", engineID, entries[uttID].Text)
		fmt.Fprintf(utt2spkFile, "%s %s\n", engineID, speakers[uttID])
		fmt.Fprintf(scpFile, "%s ffmpeg -y -i %s -ar 16000 -ac 1 -acodec pcm_s16le -f wav -|\n", engineID, audioPath)
		aligned++
	}

	// Stale spk2utt confuses fix_data_dir.sh.
	spk2utt := filepath.Join(dataDir, "spk2utt")
	if _, err := os.Stat(spk2utt); err == nil {
		if err := os.Remove(spk2utt); err != nil {
			return 0, err
		}
	}
	return aligned, nil
}

// runEngine executes the engine stages in order: feature extraction
// (unless already done), forced alignment, then phone extraction.
func (p *Pipeline) runEngine(ctx context.Context, engine *kaldi.Engine, modelDir, dataDir, expDir, workDir string, jobs int, skipMFCCs bool) error {
	langDir := filepath.Join(modelDir, "data", "lang")
	srcDir := filepath.Join(modelDir, "model")

	if !skipMFCCs {
		mfccDir := filepath.Join(workDir, "mfcc")
		mfccExpDir := filepath.Join(workDir, "exp", "make_mfcc")
		p.log.WithField("jobs", jobs).Info("extracting features")
		if err := engine.FixDataDir(ctx, dataDir); err != nil {
			return err
		}
		if err := engine.MakeMFCCs(ctx, dataDir, mfccExpDir, mfccDir, jobs); err != nil {
			return err
		}
		if err := engine.ComputeCMVNStats(ctx, dataDir, mfccExpDir, mfccDir); err != nil {
			return err
		}
		if err := engine.FixDataDir(ctx, dataDir); err != nil {
			return err
		}
	}

	p.log.WithField("jobs", jobs).Info("alignment started")
	if err := engine.AlignFmllr(ctx, dataDir, langDir, srcDir, expDir, jobs); err != nil {
		return err
	}
	if err := engine.GetPhones(ctx, dataDir, langDir, expDir); err != nil {
		return err
	}
	p.log.Info("alignment finished")
	return nil
}

// convertProns parses the engine's phone output and writes the JSONL
// alignment artifact.
func (p *Pipeline) convertProns(pronsPath string, registry *alignment.Registry, outputFile string) error {
	prons, err := os.Open(pronsPath)
	if err != nil {
		return fmt.Errorf("open engine phone output: %w", err)
	}
	defer prons.Close()

	acc := alignment.NewAccumulator(alignment.NewParser(p.cfg.Audio.FramesPerSecond), registry)
	if err := acc.ReadFrom(prons); err != nil {
		return err
	}
	utts := acc.Utterances()

	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	if err := alignment.WriteRecords(out, utts); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	p.log.WithFields(logrus.Fields{"utterances": len(utts), "output": outputFile}).Info("wrote alignments")
	return nil
}

// ExportJSON rebuilds the JSONL artifact from an existing engine working
// directory (utt_map.txt plus exp/align/phones.prons).
func (p *Pipeline) ExportJSON(workDir, outputFile string) error {
	mapFile, err := os.Open(filepath.Join(workDir, "utt_map.txt"))
	if err != nil {
		return fmt.Errorf("open utterance mapping: %w", err)
	}
	defer mapFile.Close()

	registry, err := alignment.ReadMap(mapFile)
	if err != nil {
		return err
	}
	return p.convertProns(filepath.Join(workDir, "exp", "align", "phones.prons"), registry, outputFile)
}

// writeCleanMetadata persists a sorted copy of the metadata.
func (p *Pipeline) writeCleanMetadata(path string, entries map[string]metadata.Entry, hasSpeaker bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := metadata.Write(f, ids, entries, hasSpeaker); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// loadAudioPaths reads a file of audio paths, one per line; the stem of
// each path is its utterance id.
func loadAudioPaths(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	paths := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		base := filepath.Base(line)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		paths[stem] = line
	}
	return paths, scanner.Err()
}
