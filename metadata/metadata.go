// Package metadata reads and writes the pipe-delimited transcription CSV
// ("id|text" or "id|speaker|text") shared with dataset tooling.
package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Entry is the transcription for one utterance. Speaker is empty when
// the file has no speaker column.
type Entry struct {
	Speaker string
	Text    string
}

// Load reads pipe-delimited metadata into an id-keyed map.
func Load(r io.Reader, hasSpeaker bool) (map[string]Entry, error) {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	want := 2
	if hasSpeaker {
		want = 3
	}

	entries := make(map[string]Entry)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read metadata: %w", err)
		}
		if len(row) < want {
			return nil, fmt.Errorf("metadata row has %d fields, want %d: %v", len(row), want, row)
		}
		if hasSpeaker {
			entries[row[0]] = Entry{Speaker: row[1], Text: row[2]}
		} else {
			entries[row[0]] = Entry{Text: row[1]}
		}
	}
	return entries, nil
}

// LoadFile reads metadata from path.
func LoadFile(path string, hasSpeaker bool) (map[string]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, hasSpeaker)
}

// Write emits metadata rows for ids in the order given, matching the
// format Load consumes.
func Write(w io.Writer, ids []string, entries map[string]Entry, hasSpeaker bool) error {
	cw := csv.NewWriter(w)
	cw.Comma = '|'
	for _, id := range ids {
		e := entries[id]
		var row []string
		if hasSpeaker {
			row = []string{id, e.Speaker, e.Text}
		} else {
			row = []string{id, e.Text}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
