package orchestrator

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/kaldi-align/alignment"
	"github.com/maastricht-university/kaldi-align/metadata"
	"github.com/maastricht-university/kaldi-align/phonemes"
)

// EncodeRequest describes one phoneme-encoding batch.
type EncodeRequest struct {
	// Language selects the phoneme vocabulary; short codes are resolved
	// through the alias table.
	Language string

	// Alignments is the JSONL artifact produced by Align or ExportJSON.
	Alignments string

	// Metadata is the transcription CSV; required to emit speaker
	// columns.
	Metadata string

	// PhonemeIDs optionally receives the "<id> <symbol>" vocabulary file.
	PhonemeIDs string

	HasSpeaker bool
}

// Encode converts the flattened symbol streams of an alignment artifact
// into vocabulary ids, writing one "id|ids" (or "id|speaker|ids") CSV row
// per utterance to out. A vocabulary conflict aborts before any encoding;
// per-utterance problems (unknown phoneme, missing metadata) skip the
// utterance and are collected in the report.
func (p *Pipeline) Encode(req EncodeRequest, out io.Writer) (*Report, error) {
	vocab, err := phonemes.Build(req.Language, phonemes.DefaultInventory(),
		phonemes.WithPadSymbol(p.cfg.Vocabulary.Pad))
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"language": vocab.Language,
		"symbols":  vocab.Len(),
	}).Debug("built vocabulary")

	if req.PhonemeIDs != "" {
		if err := writePhonemeIDs(req.PhonemeIDs, vocab); err != nil {
			return nil, err
		}
	}

	texts, err := metadata.LoadFile(req.Metadata, req.HasSpeaker)
	if err != nil {
		return nil, fmt.Errorf("load metadata %s: %w", req.Metadata, err)
	}
	p.log.WithField("utterances", len(texts)).Info("loaded metadata")

	encoder := phonemes.NewEncoder(vocab, p.cfg.Vocabulary.SkipSymbols...)

	alignments, err := os.Open(req.Alignments)
	if err != nil {
		return nil, fmt.Errorf("open alignments %s: %w", req.Alignments, err)
	}
	defer alignments.Close()

	report := &Report{RunID: p.runID}
	w := csv.NewWriter(out)
	w.Comma = '|'

	err = alignment.ReadRecords(alignments, func(rec alignment.Record) error {
		ids, err := encoder.Encode(rec.IPA)
		if err != nil {
			var unknown *phonemes.UnknownPhonemeError
			if errors.As(err, &unknown) {
				p.log.WithFields(logrus.Fields{
					"utterance": rec.ID,
					"symbol":    unknown.Symbol,
				}).Warn("unknown phoneme, skipping utterance")
				report.skip(rec.ID, err.Error())
				return nil
			}
			return fmt.Errorf("utterance %q: %w", rec.ID, err)
		}

		row := []string{rec.ID}
		if req.HasSpeaker {
			entry, ok := texts[rec.ID]
			if !ok {
				p.log.WithField("utterance", rec.ID).Warn("no metadata entry, skipping utterance")
				report.skip(rec.ID, "no metadata entry")
				return nil
			}
			row = append(row, entry.Speaker)
		}
		row = append(row, joinIDs(ids))

		report.Processed++
		return w.Write(row)
	})
	if err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return report, nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

func writePhonemeIDs(path string, vocab *phonemes.Vocabulary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := vocab.WriteIDs(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
