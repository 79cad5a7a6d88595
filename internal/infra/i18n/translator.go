package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

// DefaultLang is the catalog shipped with the binary.
const DefaultLang = "en"

//go:embed locales
var LocalesFS embed.FS

type Translator struct {
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", langCode+".yaml")
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("read translation file %s: %w", filePath, err)
	}
	return newTranslatorFromBytes(data)
}

// MustDefault loads the embedded default catalog and panics if it is broken.
func MustDefault() *Translator {
	t, err := NewTranslator(LocalesFS, DefaultLang)
	if err != nil {
		panic(err)
	}
	return t
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("parse translation file: %w", err)
	}
	if translations == nil {
		translations = map[string]string{}
	}
	return &Translator{translations: translations}, nil
}

// T formats the message stored under key. Unknown keys come back verbatim.
func (t *Translator) T(key string, args ...any) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) Has(key string) bool {
	_, ok := t.translations[key]
	return ok
}
