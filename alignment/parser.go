package alignment

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MalformedRecordError is a structural violation in the engine's phone
// output. It is fatal to the batch: the true word/phone structure cannot
// be recovered from a damaged line.
type MalformedRecordError struct {
	Line   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed alignment record (%s): %q", e.Reason, e.Line)
}

// Parser parses single lines of the engine's per-word phone output:
//
//	<engineID> <startFrame> <dur,dur,...> <word> <phoneLabel>...
//
// with exactly one phone label per frame duration.
type Parser struct {
	framesPerSecond int
}

// NewParser creates a parser converting frames to seconds at the given
// rate. Values <= 0 fall back to DefaultFramesPerSecond.
func NewParser(framesPerSecond int) *Parser {
	if framesPerSecond <= 0 {
		framesPerSecond = DefaultFramesPerSecond
	}
	return &Parser{framesPerSecond: framesPerSecond}
}

// ParseLine parses one engine output line into the word it describes.
// The running frame counter stays integral; seconds are computed only
// when each span is constructed.
func (p *Parser) ParseLine(line string) (engineID string, word Word, err error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return "", Word{}, &MalformedRecordError{Line: line, Reason: "expected at least 4 fields"}
	}

	engineID = fields[0]

	startFrame, err := strconv.Atoi(fields[1])
	if err != nil || startFrame < 0 {
		return "", Word{}, &MalformedRecordError{Line: line, Reason: fmt.Sprintf("bad start frame %q", fields[1])}
	}

	durFields := strings.Split(fields[2], ",")
	durations := make([]int, len(durFields))
	for i, f := range durFields {
		d, err := strconv.Atoi(f)
		if err != nil || d < 0 {
			return "", Word{}, &MalformedRecordError{Line: line, Reason: fmt.Sprintf("bad frame duration %q", f)}
		}
		durations[i] = d
	}

	labels := fields[4:]
	if len(labels) != len(durations) {
		return "", Word{}, &MalformedRecordError{
			Line:   line,
			Reason: fmt.Sprintf("%d phone labels for %d durations", len(labels), len(durations)),
		}
	}

	fps := float64(p.framesPerSecond)
	word = Word{Word: fields[3], Phones: make([]Phone, len(labels))}
	frame := startFrame
	for i, label := range labels {
		word.Phones[i] = Phone{
			Start:    float64(frame) / fps,
			Duration: float64(durations[i]) / fps,
			Phone:    stripPositionSuffix(label),
		}
		frame += durations[i]
	}
	return engineID, word, nil
}

// stripPositionSuffix removes the engine's word-position tag from a phone
// label ("h_B" -> "h"). The tag is discriminative for the acoustic model
// but not part of the phonetic symbol. A leading underscore is not a
// separator.
func stripPositionSuffix(label string) string {
	if idx := strings.LastIndex(label, "_"); idx > 0 {
		return label[:idx]
	}
	return label
}

// Accumulator groups parsed lines into utterances. The engine emits words
// in temporal order, so line order is word order; utterances come out in
// first-seen order to keep artifacts deterministic.
type Accumulator struct {
	parser   *Parser
	registry *Registry
	byID     map[string]*Utterance
	order    []string
}

// NewAccumulator creates an accumulator resolving engine ids through reg.
func NewAccumulator(parser *Parser, reg *Registry) *Accumulator {
	return &Accumulator{
		parser:   parser,
		registry: reg,
		byID:     make(map[string]*Utterance),
	}
}

// Add parses one line and appends its word to the owning utterance. An
// engine id missing from the registry is fatal: the mapping file and the
// engine output are out of sync.
func (a *Accumulator) Add(line string) error {
	engineID, word, err := a.parser.ParseLine(line)
	if err != nil {
		return err
	}
	uttID, err := a.registry.Resolve(engineID)
	if err != nil {
		return fmt.Errorf("%w (line %q)", err, line)
	}

	utt, ok := a.byID[uttID]
	if !ok {
		utt = &Utterance{ID: uttID}
		a.byID[uttID] = utt
		a.order = append(a.order, uttID)
	}
	utt.Words = append(utt.Words, word)
	return nil
}

// ReadFrom consumes an entire engine output stream, skipping blank lines.
func (a *Accumulator) ReadFrom(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := a.Add(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Utterances returns the accumulated utterances in first-seen order.
func (a *Accumulator) Utterances() []*Utterance {
	out := make([]*Utterance, len(a.order))
	for i, id := range a.order {
		out[i] = a.byID[id]
	}
	return out
}
