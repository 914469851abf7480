package alignment

import "github.com/maastricht-university/kaldi-align/phonemes"

// IPA flattens the utterance into an ordered phonetic symbol stream with
// break markers:
//
//   - a leading word break, then per word its phones followed by a word
//     break, then a trailing major break;
//   - an epsilon word interior to the utterance becomes a minor break
//     plus a word break (a detected pause);
//   - epsilon words at the edges are engine-inserted silence, not
//     prosody, and are dropped.
//
// An utterance with no words (or only edge epsilons) still yields the
// leading and trailing markers.
func (u *Utterance) IPA() []string {
	ipa := []string{phonemes.BreakWord}
	for i, w := range u.Words {
		if w.Word == EpsilonWord {
			if i > 0 && i < len(u.Words)-1 {
				ipa = append(ipa, phonemes.BreakMinor, phonemes.BreakWord)
			}
			continue
		}
		for _, p := range w.Phones {
			ipa = append(ipa, p.Phone)
		}
		ipa = append(ipa, phonemes.BreakWord)
	}
	return append(ipa, phonemes.BreakMajor)
}
