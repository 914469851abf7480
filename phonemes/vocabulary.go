package phonemes

import (
	"fmt"
	"io"
	"sort"
)

// langStress lists the languages whose acoustic models mark lexical
// stress. Stress symbols default to included for these languages only.
var langStress = map[string]bool{
	"en-us": true,
	"es-es": true,
	"fr-fr": true,
	"it-it": true,
}

// langAccents lists the languages whose models use the acute/grave
// pitch-accent marks. Only Swedish does.
var langAccents = map[string]bool{
	"sv-se": true,
}

// ConflictError reports a symbol that appears in more than one vocabulary
// category. Categories must be disjoint or ids would be ambiguous.
type ConflictError struct {
	Symbol string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("vocabulary conflict: symbol %q appears more than once", e.Symbol)
}

// Option configures vocabulary construction.
type Option func(*buildOptions)

type buildOptions struct {
	pad     string
	noPad   bool
	noBreak bool
	stress  *bool
	accents *bool
	tones   []string
}

// WithoutPad omits the padding symbol, shifting every id down by one.
func WithoutPad() Option {
	return func(o *buildOptions) { o.noPad = true }
}

// WithPadSymbol overrides the padding symbol (default "_").
func WithPadSymbol(pad string) Option {
	return func(o *buildOptions) { o.pad = pad }
}

// WithoutWordBreak omits the word-break symbol from the vocabulary. This
// is independent of whether boundary reconstruction emits it.
func WithoutWordBreak() Option {
	return func(o *buildOptions) { o.noBreak = true }
}

// WithStress forces stress markers in or out, overriding the
// per-language default.
func WithStress(include bool) Option {
	return func(o *buildOptions) { o.stress = &include }
}

// WithAccents forces accent markers in or out, overriding the
// per-language default.
func WithAccents(include bool) Option {
	return func(o *buildOptions) { o.accents = &include }
}

// WithTones appends an explicit ordered set of tone symbols. Tones are
// never derived automatically.
func WithTones(tones ...string) Option {
	return func(o *buildOptions) { o.tones = tones }
}

// Vocabulary is an ordered, index-stable list of phonetic symbols for
// one language. Read-only after construction.
type Vocabulary struct {
	Language string

	symbols []string
	ids     map[string]int
}

// Build creates the vocabulary for lang from the given inventory source.
// It is a pure function of its inputs: the symbol order is
//
//	[pad?] [minor break, major break] [word break?] accents stresses tones sorted(inventory)
//
// and must never be permuted once models have been published for a
// language. lang may be a short code; it is resolved through LangAlias.
func Build(lang string, source InventorySource, opts ...Option) (*Vocabulary, error) {
	o := buildOptions{pad: Pad}
	for _, opt := range opts {
		opt(&o)
	}

	lang = ResolveLanguage(lang)

	inventory, err := source.Phonemes(lang)
	if err != nil {
		return nil, err
	}
	sort.Strings(inventory)

	includeStress := langStress[lang]
	if o.stress != nil {
		includeStress = *o.stress
	}
	includeAccents := langAccents[lang]
	if o.accents != nil {
		includeAccents = *o.accents
	}

	var symbols []string
	if !o.noPad {
		symbols = append(symbols, o.pad)
	}
	symbols = append(symbols, BreakMinor, BreakMajor)
	if !o.noBreak {
		symbols = append(symbols, BreakWord)
	}
	if includeAccents {
		symbols = append(symbols, AccentAcute, AccentGrave)
	}
	if includeStress {
		symbols = append(symbols, StressPrimary, StressSecondary)
	}
	symbols = append(symbols, o.tones...)
	symbols = append(symbols, inventory...)

	ids := make(map[string]int, len(symbols))
	for i, s := range symbols {
		if _, dup := ids[s]; dup {
			return nil, &ConflictError{Symbol: s}
		}
		ids[s] = i
	}

	return &Vocabulary{Language: lang, symbols: symbols, ids: ids}, nil
}

// Symbols returns the vocabulary in id order.
func (v *Vocabulary) Symbols() []string {
	out := make([]string, len(v.symbols))
	copy(out, v.symbols)
	return out
}

// ID returns the id of symbol and whether it is in the vocabulary.
func (v *Vocabulary) ID(symbol string) (int, bool) {
	id, ok := v.ids[symbol]
	return id, ok
}

// Len returns the number of symbols.
func (v *Vocabulary) Len() int { return len(v.symbols) }

// WriteIDs writes one "<id> <symbol>" line per entry in id order. The
// output is the companion file consumed by model training.
func (v *Vocabulary) WriteIDs(w io.Writer) error {
	for i, s := range v.symbols {
		if _, err := fmt.Fprintf(w, "%d %s\n", i, s); err != nil {
			return err
		}
	}
	return nil
}
