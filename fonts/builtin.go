// Package fonts exposes the fonts compiled into the binary.
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Family holds the faces of one built-in family. Missing faces are nil.
type Family struct {
	Regular    []byte
	Bold       []byte
	Italic     []byte
	BoldItalic []byte
}

var builtin = map[string][]byte{
	"goregular":    goregular.TTF,
	"gobold":       gobold.TTF,
	"goitalic":     goitalic.TTF,
	"gobolditalic": gobolditalic.TTF,
	"gomedium":     gomedium.TTF,
	"gomono":       gomono.TTF,
	"gomonobold":   gomonobold.TTF,
}

var families = map[string]Family{
	"goregular": {Regular: goregular.TTF, Bold: gobold.TTF, Italic: goitalic.TTF, BoldItalic: gobolditalic.TTF},
	"gomedium":  {Regular: gomedium.TTF, Bold: gobold.TTF},
	"gomono":    {Regular: gomono.TTF, Bold: gomonobold.TTF},
}

// Load returns the TTF data of a built-in font. name may carry a
// "builtin:" or "embed:" prefix, as in "builtin:goregular".
func Load(name string) ([]byte, error) {
	key := normalize(name)
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("未知的内置字体 %s（可用：%s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// LoadFamily returns every face available for the built-in family name.
// A name without a family entry yields a family with only Regular set.
func LoadFamily(name string) (Family, error) {
	key := normalize(name)
	if fam, ok := families[key]; ok {
		return fam, nil
	}
	data, err := Load(key)
	if err != nil {
		return Family{}, err
	}
	return Family{Regular: data}, nil
}

// Names lists the built-in fonts in sorted order.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsBuiltin reports whether src refers to a compiled-in font.
func IsBuiltin(src string) bool {
	return strings.HasPrefix(src, "builtin:") || strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "embed:")
}

func normalize(name string) string {
	for _, prefix := range []string{"builtin:", "built-in:", "embed:"} {
		name = strings.TrimPrefix(name, prefix)
	}
	return strings.ToLower(strings.TrimSpace(name))
}
