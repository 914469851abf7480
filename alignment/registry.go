package alignment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// ErrUnknownID reports an engine utterance id with no registry entry.
var ErrUnknownID = errors.New("unknown engine utterance id")

// Registry is the bidirectional mapping between caller-assigned utterance
// ids and the synthetic ids handed to the alignment engine. Engine ids
// are "<speaker>-<zero-padded rank>" so that their lexicographic order
// matches processing order, which the engine's job sharding requires.
// Built once per batch, read-only afterwards.
type Registry struct {
	toEngine map[string]string
	toUtt    map[string]string
	width    int
}

// NewRegistry assigns engine ids for every utterance in speakers (a map
// of utterance id to speaker label). Ranks follow the natural order of
// the utterance ids; the pad width is ceil(log10(count)), fixed for the
// batch. Two utterances mapping to the same engine id is a fatal error.
func NewRegistry(speakers map[string]string) (*Registry, error) {
	ids := make([]string, 0, len(speakers))
	for id := range speakers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	width := 0
	if len(ids) > 0 {
		width = int(math.Ceil(math.Log10(float64(len(ids)))))
	}

	r := &Registry{
		toEngine: make(map[string]string, len(ids)),
		toUtt:    make(map[string]string, len(ids)),
		width:    width,
	}
	for rank, id := range ids {
		engineID := fmt.Sprintf("%s-%0*d", speakers[id], width, rank)
		if other, dup := r.toUtt[engineID]; dup {
			return nil, fmt.Errorf("engine id collision: %q assigned to both %q and %q", engineID, other, id)
		}
		r.toEngine[id] = engineID
		r.toUtt[engineID] = id
	}
	return r, nil
}

// EngineID returns the engine id assigned to uttID.
func (r *Registry) EngineID(uttID string) (string, bool) {
	engineID, ok := r.toEngine[uttID]
	return engineID, ok
}

// Resolve maps an engine id back to the caller-facing utterance id.
func (r *Registry) Resolve(engineID string) (string, error) {
	uttID, ok := r.toUtt[engineID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownID, engineID)
	}
	return uttID, nil
}

// Len returns the number of registered utterances.
func (r *Registry) Len() int { return len(r.toUtt) }

// UtteranceIDs returns the registered utterance ids in natural order,
// i.e. assignment order.
func (r *Registry) UtteranceIDs() []string {
	ids := make([]string, 0, len(r.toEngine))
	for id := range r.toEngine {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WriteMap writes the mapping file, one "<engineID> <uttID>" line per
// utterance in assignment order.
func (r *Registry) WriteMap(w io.Writer) error {
	for _, uttID := range r.UtteranceIDs() {
		if _, err := fmt.Fprintf(w, "%s %s\n", r.toEngine[uttID], uttID); err != nil {
			return err
		}
	}
	return nil
}

// ReadMap reconstructs a registry from a mapping file previously written
// by WriteMap. Utterance ids may contain spaces; only the first field is
// the engine id. The mapping must stay bijective: a duplicate id on
// either side is fatal, matching construction.
func ReadMap(rd io.Reader) (*Registry, error) {
	r := &Registry{
		toEngine: make(map[string]string),
		toUtt:    make(map[string]string),
	}
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed utterance mapping line: %q", line)
		}
		engineID, uttID := parts[0], strings.TrimSpace(parts[1])
		if other, dup := r.toUtt[engineID]; dup {
			return nil, fmt.Errorf("duplicate engine id in utterance mapping: %q maps to both %q and %q", engineID, other, uttID)
		}
		if other, dup := r.toEngine[uttID]; dup {
			return nil, fmt.Errorf("duplicate utterance id in mapping: %q mapped from both %q and %q", uttID, other, engineID)
		}
		r.toEngine[uttID] = engineID
		r.toUtt[engineID] = uttID
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return r, nil
}
