// Package store defines the documents read from the authoritative wiki store.
package store

import (
	"errors"

	"github.com/stacklok/wiki-index-sync/internal/reference"
)

// ErrDocumentNotFound is returned when a document is absent from the store.
var ErrDocumentNotFound = errors.New("document not found")

// Document is one locale of a wiki page.
type Document struct {
	Key     reference.Key
	Version string
	Title   string
	Content string
}
