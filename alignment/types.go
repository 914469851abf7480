// Package alignment turns the alignment engine's frame-level phone output
// into word- and phone-boundary structures with real time units.
//
// The engine emits one line per word per utterance ("prons" format). The
// Parser reconstructs phone spans from frame counts, the Accumulator
// groups lines into utterances, and IPA flattens an utterance into a
// phonetic symbol stream with break markers.
package alignment

// EpsilonWord is the placeholder the engine emits for a detected
// silence/pause. It carries no meaningful phones.
const EpsilonWord = "<eps>"

// DefaultFramesPerSecond is the engine's acoustic frame rate.
const DefaultFramesPerSecond = 100

// Phone is one aligned phone span. Times are in seconds, converted from
// frames when the span is constructed.
type Phone struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Phone    string  `json:"phone"`
}

// Word groups the phone spans aligned to one word. Word may be
// EpsilonWord, marking a gap in the speech stream.
type Word struct {
	Word   string  `json:"word"`
	Phones []Phone `json:"phones"`
}

// Utterance is the completed alignment for one utterance. Immutable once
// the accumulator has seen all of its lines; the unit of serialization.
type Utterance struct {
	ID    string
	Words []Word
}

// Record is the serialized JSONL form of an utterance: its word/phone
// structure plus the flattened phonetic symbol stream.
type Record struct {
	ID    string   `json:"id"`
	Words []Word   `json:"words"`
	IPA   []string `json:"ipa"`
}

// Record returns the serializable form of u, computing the symbol stream.
func (u *Utterance) Record() Record {
	words := u.Words
	if words == nil {
		words = []Word{}
	}
	return Record{ID: u.ID, Words: words, IPA: u.IPA()}
}
