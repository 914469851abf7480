package alignment

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteRecords serializes utterances as JSONL, one record per line, in
// the order given. Identical inputs produce byte-identical output.
func WriteRecords(w io.Writer, utts []*Utterance) error {
	enc := json.NewEncoder(w)
	for _, u := range utts {
		if err := enc.Encode(u.Record()); err != nil {
			return fmt.Errorf("serialize utterance %q: %w", u.ID, err)
		}
	}
	return nil
}

// ReadRecords streams a JSONL alignment artifact, calling fn for each
// record. A record that does not decode is fatal: the artifact is
// produced by this tool, so damage means the file is not trustworthy.
func ReadRecords(r io.Reader, fn func(Record) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return fmt.Errorf("alignment record on line %d: %w", lineNo, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return scanner.Err()
}
