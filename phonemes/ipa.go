// Package phonemes builds language-specific phoneme vocabularies and
// encodes phonetic symbol sequences as stable integer ids.
//
// A vocabulary is an ordered list of symbols whose array position is the
// symbol's id. The order is a contract: model checkpoints trained against
// a vocabulary depend on it byte-for-byte, so construction is fully
// deterministic (fixed category order, sorted inventory tail).
package phonemes

// Structural and diacritic symbols shared by the vocabulary builder, the
// boundary reconstructor and the encoder.
const (
	// Pad is the default padding symbol, always id 0 when present.
	Pad = "_"

	// BreakMinor marks a pause interior to an utterance.
	BreakMinor = "|"

	// BreakMajor (U+2016) marks the utterance boundary.
	BreakMajor = "‖"

	// BreakWord separates words in the flattened symbol stream.
	BreakWord = "#"

	// StressPrimary (U+02C8) is not the apostrophe accent (U+0027).
	StressPrimary   = "ˈ"
	StressSecondary = "ˌ" // U+02CC

	// AccentAcute and AccentGrave are the Swedish pitch-accent marks.
	AccentAcute = "'"
	AccentGrave = "²"
)

// Non-phonetic placeholder phones emitted by the alignment engine. They
// never appear in an encoded sequence.
const (
	PhoneSilence        = "SIL"
	PhoneSpokenNoise    = "SPN"
	PhoneNonSpeechNoise = "NSN"
)

// IsStress reports whether r is a primary or secondary stress marker.
func IsStress(r rune) bool {
	return r == 'ˈ' || r == 'ˌ'
}
