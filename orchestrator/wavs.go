package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/kaldi-align/alignment"
	"github.com/maastricht-university/kaldi-align/metadata"
)

// TrimRequest describes one audio-trimming batch.
type TrimRequest struct {
	// Metadata is the transcription CSV.
	Metadata string

	// Alignments is the JSONL artifact produced by Align or ExportJSON.
	Alignments string

	// AudioFiles lists one audio path per line (stem = utterance id).
	AudioFiles string

	// OutputDir receives the trimmed WAV files and a regenerated
	// metadata.csv.
	OutputDir string

	HasSpeaker bool
}

// TrimWavs cuts each utterance's audio down to its aligned speech, using
// the word boundaries to drop the engine-detected edge silence. Output is
// one "<id>.wav" per utterance plus a metadata.csv covering the files
// actually written. Per-utterance problems are warnings, collected in the
// report.
func (p *Pipeline) TrimWavs(req TrimRequest) (*Report, error) {
	texts, err := metadata.LoadFile(req.Metadata, req.HasSpeaker)
	if err != nil {
		return nil, fmt.Errorf("load metadata %s: %w", req.Metadata, err)
	}
	p.log.WithField("utterances", len(texts)).Info("loaded metadata")

	audioPaths, err := loadAudioPaths(req.AudioFiles)
	if err != nil {
		return nil, fmt.Errorf("load audio file list %s: %w", req.AudioFiles, err)
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, err
	}
	outMeta, err := os.Create(filepath.Join(req.OutputDir, "metadata.csv"))
	if err != nil {
		return nil, err
	}
	defer outMeta.Close()

	alignments, err := os.Open(req.Alignments)
	if err != nil {
		return nil, fmt.Errorf("open alignments %s: %w", req.Alignments, err)
	}
	defer alignments.Close()

	report := &Report{RunID: p.runID}
	minSec := p.cfg.Audio.MinSec
	bufferSec := p.cfg.Audio.BufferSec

	err = alignment.ReadRecords(alignments, func(rec alignment.Record) error {
		text := texts[rec.ID].Text
		if text == "" {
			p.log.WithField("utterance", rec.ID).Warn("no text, skipping utterance")
			report.skip(rec.ID, "no text")
			return nil
		}

		startSec, endSec, ok := speechBounds(rec.Words)
		if !ok {
			p.log.WithField("utterance", rec.ID).Warn("no usable speech bounds, skipping utterance")
			report.skip(rec.ID, "no usable speech bounds")
			return nil
		}
		startSec -= bufferSec
		if startSec < 0 {
			startSec = 0
		}
		endSec += bufferSec
		if endSec-startSec < minSec {
			p.log.WithFields(logrus.Fields{
				"utterance": rec.ID,
				"duration":  endSec - startSec,
			}).Warn("trimmed audio below minimum duration, skipping utterance")
			report.skip(rec.ID, fmt.Sprintf("trimmed duration %.2fs below minimum", endSec-startSec))
			return nil
		}

		srcPath, haveAudio := audioPaths[rec.ID]
		if !haveAudio {
			p.log.WithField("utterance", rec.ID).Warn("missing audio file, skipping utterance")
			report.skip(rec.ID, "missing audio file")
			return nil
		}

		destPath := filepath.Join(req.OutputDir, rec.ID+".wav")
		if err := trimWav(srcPath, destPath, startSec, endSec); err != nil {
			return fmt.Errorf("trim %q: %w", rec.ID, err)
		}

		fmt.Fprintf(outMeta, "%s|%s\n", rec.ID, text)
		report.Processed++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, outMeta.Close()
}

// speechBounds finds the start of the first speech word and the end of
// the last phone of any later speech word, excluding the engine's edge
// epsilon silence. A single speech word has no end bound and is unusable.
func speechBounds(words []alignment.Word) (startSec, endSec float64, ok bool) {
	startSec, endSec = -1, -1
	for _, w := range words {
		if w.Word == alignment.EpsilonWord || len(w.Phones) == 0 {
			continue
		}
		if startSec < 0 {
			startSec = w.Phones[0].Start
		} else {
			last := w.Phones[len(w.Phones)-1]
			endSec = last.Start + last.Duration
		}
	}
	return startSec, endSec, startSec >= 0 && endSec >= startSec
}

// trimWav copies the [startSec, endSec) slice of a WAV file.
func trimWav(srcPath, destPath string, startSec, endSec float64) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dec := wav.NewDecoder(src)
	if !dec.IsValidFile() {
		return fmt.Errorf("%s is not a valid WAV file", srcPath)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("read PCM: %w", err)
	}

	rate := buf.Format.SampleRate
	channels := buf.Format.NumChannels
	start := int(startSec*float64(rate)) * channels
	end := int(endSec*float64(rate)) * channels
	if start < 0 {
		start = 0
	}
	if end > len(buf.Data) {
		end = len(buf.Data)
	}
	if start >= end {
		return fmt.Errorf("empty slice [%f, %f)", startSec, endSec)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(dest, rate, bitDepth, channels, 1)
	slice := &audio.IntBuffer{
		Format:         buf.Format,
		Data:           buf.Data[start:end],
		SourceBitDepth: buf.SourceBitDepth,
	}
	if err := enc.Write(slice); err != nil {
		enc.Close()
		dest.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}
