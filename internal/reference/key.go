// Package reference defines the canonical document identity shared by the
// document store and the search index, and the single total order both
// backends must enumerate in.
package reference

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidKey is returned when a key cannot be built or parsed.
var ErrInvalidKey = errors.New("invalid document key")

// spaceSeparator joins space components in flat sort keys. It sorts below
// every byte allowed in a component, so the joined string orders exactly like
// the component-wise comparison.
const spaceSeparator = "\x01"

// Key identifies one logical document independently of its revision.
//
// Keys must be built with NewKey (or ParseKey) from user input, and with
// StoredKey from backend rows, so that both backends derive byte-identical
// components for the same document.
type Key struct {
	Wiki   string
	Space  []string
	Name   string
	Locale string
}

// NewKey validates and normalizes the components of a document key.
// Every component is converted to Unicode NFC.
func NewKey(wiki string, space []string, name, locale string) (Key, error) {
	k := Key{
		Wiki:   norm.NFC.String(wiki),
		Name:   norm.NFC.String(name),
		Locale: norm.NFC.String(locale),
		Space:  make([]string, len(space)),
	}
	for i, s := range space {
		k.Space[i] = norm.NFC.String(s)
	}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// StoredKey builds a key from backend columns as they are. Backends order
// rows by their stored bytes, so a component that is not already NFC is
// rejected instead of being normalized out of order.
func StoredKey(wiki string, space []string, name, locale string) (Key, error) {
	k := Key{Wiki: wiki, Space: slices.Clone(space), Name: name, Locale: locale}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// MustKey is NewKey for static keys; it panics on invalid input.
func MustKey(wiki string, space []string, name, locale string) Key {
	k, err := NewKey(wiki, space, name, locale)
	if err != nil {
		panic(err)
	}
	return k
}

// Validate reports whether the key has all required components, each valid
// UTF-8 in NFC without control characters.
func (k Key) Validate() error {
	if k.Wiki == "" {
		return fmt.Errorf("%w: wiki is required", ErrInvalidKey)
	}
	if len(k.Space) == 0 {
		return fmt.Errorf("%w: at least one space is required", ErrInvalidKey)
	}
	if k.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidKey)
	}
	if err := checkComponent("wiki", k.Wiki); err != nil {
		return err
	}
	for i, s := range k.Space {
		if s == "" {
			return fmt.Errorf("%w: space[%d] is empty", ErrInvalidKey, i)
		}
		if err := checkComponent("space", s); err != nil {
			return err
		}
	}
	if err := checkComponent("name", k.Name); err != nil {
		return err
	}
	return checkComponent("locale", k.Locale)
}

func checkComponent(field, value string) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidKey, field)
	}
	if !norm.NFC.IsNormalString(value) {
		return fmt.Errorf("%w: %s is not NFC normalized", ErrInvalidKey, field)
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] == 0x7f {
			return fmt.Errorf("%w: %s contains a control character at byte %d", ErrInvalidKey, field, i)
		}
	}
	return nil
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k.Wiki == "" && len(k.Space) == 0 && k.Name == "" && k.Locale == ""
}

// Equal reports whether both keys name the same document and locale.
func (k Key) Equal(other Key) bool {
	return Compare(k, other) == 0
}

// WithLocale returns a copy of k for another locale of the same document.
func (k Key) WithLocale(locale string) Key {
	return Key{
		Wiki:   k.Wiki,
		Space:  slices.Clone(k.Space),
		Name:   k.Name,
		Locale: norm.NFC.String(locale),
	}
}

// SpaceSortKey returns the flat sort key of the key's space path.
func (k Key) SpaceSortKey() string {
	return SpaceSortKey(k.Space)
}

// SpaceSortKey joins space components so that byte-wise comparison of the
// result equals component-wise lexicographic comparison of the input.
func SpaceSortKey(space []string) string {
	return strings.Join(space, spaceSeparator)
}

// SplitSpaceSortKey is the inverse of SpaceSortKey.
func SplitSpaceSortKey(sortKey string) []string {
	if sortKey == "" {
		return nil
	}
	return strings.Split(sortKey, spaceSeparator)
}

// Compare orders keys by wiki, then space components, then name, then locale.
// An empty locale sorts first. All comparisons are byte-wise.
func Compare(a, b Key) int {
	if c := strings.Compare(a.Wiki, b.Wiki); c != 0 {
		return c
	}
	if c := slices.Compare(a.Space, b.Space); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.Locale, b.Locale)
}

// String serializes the key as wiki:Space.Sub.Name with ;locale appended
// when a locale is set. Separator characters inside components are escaped
// with a backslash.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(escape(k.Wiki))
	b.WriteByte(':')
	for _, s := range k.Space {
		b.WriteString(escape(s))
		b.WriteByte('.')
	}
	b.WriteString(escape(k.Name))
	if k.Locale != "" {
		b.WriteByte(';')
		b.WriteString(escape(k.Locale))
	}
	return b.String()
}

// ParseKey parses the output of Key.String.
func ParseKey(s string) (Key, error) {
	wikiPart, rest, found := cutUnescaped(s, ':')
	if !found {
		return Key{}, fmt.Errorf("%w: missing wiki separator in %q", ErrInvalidKey, s)
	}
	docPart, localePart, _ := cutUnescaped(rest, ';')

	parts := splitUnescaped(docPart, '.')
	if len(parts) < 2 {
		return Key{}, fmt.Errorf("%w: %q has no space", ErrInvalidKey, s)
	}

	space := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		space = append(space, unescape(p))
	}
	return NewKey(unescape(wikiPart), space, unescape(parts[len(parts)-1]), unescape(localePart))
}

const escapeChar = '\\'

func escape(s string) string {
	if !strings.ContainsAny(s, `\.:;/`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '.', ':', ';', '/':
			b.WriteRune(escapeChar)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescape(s string) string {
	if !strings.ContainsRune(s, escapeChar) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped && r == escapeChar {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// cutUnescaped splits s around the first unescaped sep.
func cutUnescaped(s string, sep byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case escapeChar:
			i++
		case sep:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// splitUnescaped splits s around every unescaped sep, keeping escapes intact.
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case escapeChar:
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
