package reference

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidScope is returned when a root scope cannot be parsed.
var ErrInvalidScope = errors.New("invalid root scope")

// Scope restricts enumeration to a sub-tree of the key space.
//
// The zero Scope covers every wiki. A scope with only Wiki set covers one
// wiki; adding Space narrows it to the documents whose space path starts with
// Space; adding Name narrows it to a single document in all its locales.
type Scope struct {
	Wiki  string
	Space []string
	Name  string
}

// IsAll reports whether the scope covers the whole key space.
func (s Scope) IsAll() bool {
	return s.Wiki == "" && len(s.Space) == 0 && s.Name == ""
}

// IsDocument reports whether the scope targets a single document.
func (s Scope) IsDocument() bool {
	return s.Name != ""
}

// Validate checks the scope's components are consistent.
func (s Scope) Validate() error {
	if s.IsAll() {
		return nil
	}
	if s.Wiki == "" {
		return fmt.Errorf("%w: wiki is required when space or name is set", ErrInvalidScope)
	}
	if s.Name != "" && len(s.Space) == 0 {
		return fmt.Errorf("%w: a document scope requires a space", ErrInvalidScope)
	}
	for i, sp := range s.Space {
		if sp == "" {
			return fmt.Errorf("%w: space[%d] is empty", ErrInvalidScope, i)
		}
	}
	return nil
}

// Contains reports whether the key lies within the scope.
func (s Scope) Contains(k Key) bool {
	if s.IsAll() {
		return true
	}
	if k.Wiki != s.Wiki {
		return false
	}
	if s.Name != "" {
		return slices.Equal(k.Space, s.Space) && k.Name == s.Name
	}
	return len(k.Space) >= len(s.Space) && slices.Equal(k.Space[:len(s.Space)], s.Space)
}

// ScopeOf returns the document scope covering every locale of k.
func ScopeOf(k Key) Scope {
	return Scope{Wiki: k.Wiki, Space: slices.Clone(k.Space), Name: k.Name}
}

// String renders the scope as wiki, wiki:Space.Sub or wiki:Space.Sub/Page.
// The zero scope renders as an empty string.
func (s Scope) String() string {
	if s.IsAll() {
		return ""
	}
	var b strings.Builder
	b.WriteString(escape(s.Wiki))
	if len(s.Space) == 0 {
		return b.String()
	}
	b.WriteByte(':')
	for i, sp := range s.Space {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(escape(sp))
	}
	if s.Name != "" {
		b.WriteByte('/')
		b.WriteString(escape(s.Name))
	}
	return b.String()
}

// ParseScope parses the output of Scope.String. An empty string is the
// zero scope.
func ParseScope(raw string) (Scope, error) {
	if strings.TrimSpace(raw) == "" {
		return Scope{}, nil
	}

	wikiPart, rest, hasSpace := cutUnescaped(raw, ':')
	scope := Scope{Wiki: norm.NFC.String(unescape(wikiPart))}
	if hasSpace {
		spacePart, namePart, hasName := cutUnescaped(rest, '/')
		if spacePart == "" {
			return Scope{}, fmt.Errorf("%w: %q has an empty space path", ErrInvalidScope, raw)
		}
		for _, p := range splitUnescaped(spacePart, '.') {
			scope.Space = append(scope.Space, norm.NFC.String(unescape(p)))
		}
		if hasName {
			if namePart == "" {
				return Scope{}, fmt.Errorf("%w: %q has an empty document name", ErrInvalidScope, raw)
			}
			scope.Name = norm.NFC.String(unescape(namePart))
		}
	}

	if err := scope.Validate(); err != nil {
		return Scope{}, err
	}
	return scope, nil
}
