package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/sylinko/everywhere-web/service/vo"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localesFS embed.FS

// Dictionary holds UI chrome strings. Unlike document lookups it is lenient:
// a key missing in one language falls back to the default language.
type Dictionary struct {
	registry *Registry
	texts    map[vo.Language]map[string]string
}

// DefaultDictionary loads the built in locale files.
func DefaultDictionary(registry *Registry) (*Dictionary, error) {
	return LoadDictionary(localesFS, "locales", registry)
}

// LoadDictionary reads "<dir>/<lang>.yaml" for every registry language.
// Nested maps are flattened into dotted keys. A missing file is only an
// error for the default language.
func LoadDictionary(fsys fs.FS, dir string, registry *Registry) (*Dictionary, error) {
	d := &Dictionary{
		registry: registry,
		texts:    make(map[vo.Language]map[string]string, len(registry.languages)),
	}
	for _, l := range registry.languages {
		content, err := fs.ReadFile(fsys, path.Join(dir, string(l)+".yaml"))
		if err != nil {
			if l == registry.def {
				return nil, fmt.Errorf("failed to read default locale %s: %w", l, err)
			}
			continue
		}
		var data map[string]any
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", l, err)
		}
		texts := map[string]string{}
		flatten("", data, texts)
		d.texts[l] = texts
	}
	return d, nil
}

func flatten(prefix string, data map[string]any, out map[string]string) {
	for key, value := range data {
		if prefix != "" {
			key = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(key, v, out)
		case nil:
		default:
			out[key] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
}

// T returns the text for key in lang, then in the default language, and
// finally the key itself.
func (d *Dictionary) T(lang vo.Language, key string) string {
	if text, ok := d.texts[lang][key]; ok {
		return text
	}
	if text, ok := d.texts[d.registry.def][key]; ok {
		return text
	}
	return key
}

// Lookup is the strict variant of T.
func (d *Dictionary) Lookup(lang vo.Language, key string) (string, bool) {
	text, ok := d.texts[lang][key]
	return text, ok
}

// Func binds the dictionary to one language for templates.
func (d *Dictionary) Func(lang vo.Language) func(key string) string {
	return func(key string) string {
		return d.T(lang, key)
	}
}
