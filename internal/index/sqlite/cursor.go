package sqlite

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidCursor is returned for a mark this index did not produce.
var ErrInvalidCursor = errors.New("invalid index cursor")

// cursor is the sort tuple of the last row of a page.
type cursor struct {
	Wiki     string `json:"w"`
	SpaceKey string `json:"s"`
	Name     string `json:"n"`
	Locale   string `json:"l,omitempty"`
	ID       string `json:"i"`
}

// encodeCursor encodes c as base64(json).
func encodeCursor(c cursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Marshalling a struct of strings cannot fail.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(mark string) (cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(mark)
	if err != nil {
		return cursor{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return cursor{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	if c.ID == "" {
		return cursor{}, fmt.Errorf("%w: missing row id", ErrInvalidCursor)
	}
	return c, nil
}
