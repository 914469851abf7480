package phonemes

import "fmt"

// UnknownPhonemeError reports a symbol that is absent from the
// vocabulary. It usually indicates a language/vocabulary mismatch for a
// single utterance, so callers skip the offending line rather than abort
// the batch.
type UnknownPhonemeError struct {
	Symbol string
}

func (e *UnknownPhonemeError) Error() string {
	return fmt.Sprintf("unknown phoneme %q", e.Symbol)
}

// Encoder maps flattened phonetic symbol sequences to vocabulary ids.
// Read-only after construction.
type Encoder struct {
	vocab *Vocabulary
	skip  map[string]struct{}
}

// NewEncoder creates an encoder over vocab. The skip set defaults to the
// engine's non-phonetic placeholders (SIL, SPN, NSN); extraSkip extends
// it, e.g. with the break symbols when structural markers should not be
// encoded.
func NewEncoder(vocab *Vocabulary, extraSkip ...string) *Encoder {
	skip := map[string]struct{}{
		PhoneSilence:        {},
		PhoneSpokenNoise:    {},
		PhoneNonSpeechNoise: {},
	}
	for _, s := range extraSkip {
		skip[s] = struct{}{}
	}
	return &Encoder{vocab: vocab, skip: skip}
}

// SplitStress splits a composed symbol into leading stress markers and
// the base phoneme, each as its own unit. Symbols without fused stress
// come back unchanged.
func SplitStress(symbol string) []string {
	var units []string
	rest := []rune(symbol)
	for len(rest) > 0 && IsStress(rest[0]) {
		units = append(units, string(rest[0]))
		rest = rest[1:]
	}
	if len(rest) > 0 {
		units = append(units, string(rest))
	}
	return units
}

// Encode converts a symbol sequence to vocabulary ids. Empty symbols are
// ignored, fused stress markers are peeled into separate units, and
// units in the skip set are dropped. A unit outside the vocabulary
// returns an UnknownPhonemeError; the ids encoded so far are discarded.
func (e *Encoder) Encode(symbols []string) ([]int, error) {
	var units []string
	for _, s := range symbols {
		if s == "" {
			continue
		}
		units = append(units, SplitStress(s)...)
	}

	ids := make([]int, 0, len(units))
	for _, u := range units {
		if _, skip := e.skip[u]; skip {
			continue
		}
		id, ok := e.vocab.ID(u)
		if !ok {
			return nil, &UnknownPhonemeError{Symbol: u}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
