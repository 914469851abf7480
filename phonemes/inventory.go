package phonemes

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// LangAlias maps short language codes to the full locale codes used by
// the acoustic models and the embedded inventories.
var LangAlias = map[string]string{
	"cs": "cs-cz",
	"de": "de-de",
	"en": "en-us",
	"es": "es-es",
	"fr": "fr-fr",
	"it": "it-it",
	"ru": "ru-ru",
	"sv": "sv-se",
}

// ResolveLanguage expands a short language code ("en") to its full locale
// code ("en-us"). Codes without an alias are returned unchanged.
func ResolveLanguage(lang string) string {
	if full, ok := LangAlias[lang]; ok {
		return full
	}
	return lang
}

// InventorySource supplies the phoneme inventory for a language. The
// vocabulary builder sorts the returned symbols itself, so sources need
// not guarantee any ordering.
type InventorySource interface {
	Phonemes(lang string) ([]string, error)
}

//go:embed data/phonemes.yaml
var inventoryData []byte

type embeddedInventory struct {
	Languages map[string][]string `yaml:"languages"`
}

var (
	embeddedOnce sync.Once
	embedded     *embeddedInventory
	embeddedErr  error
)

// DefaultInventory returns the inventory source backed by the phoneme
// data files compiled into the binary.
func DefaultInventory() InventorySource {
	embeddedOnce.Do(func() {
		var inv embeddedInventory
		if err := yaml.Unmarshal(inventoryData, &inv); err != nil {
			embeddedErr = fmt.Errorf("parse embedded phoneme data: %w", err)
			return
		}
		embedded = &inv
	})
	return embedded
}

// Phonemes implements InventorySource.
func (e *embeddedInventory) Phonemes(lang string) ([]string, error) {
	if e == nil {
		return nil, embeddedErr
	}
	phones, ok := e.Languages[lang]
	if !ok {
		return nil, fmt.Errorf("no phoneme inventory for language %q", lang)
	}
	out := make([]string, len(phones))
	copy(out, phones)
	return out, nil
}
