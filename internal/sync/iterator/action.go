package iterator

import (
	"fmt"

	"github.com/stacklok/wiki-index-sync/internal/reference"
)

// Action is what the diff decides for one key.
type Action int

const (
	// ActionSkip means both sides hold the key with the same version.
	ActionSkip Action = iota
	// ActionAdd means the key exists only on the next side.
	ActionAdd
	// ActionUpdate means both sides hold the key with different versions.
	ActionUpdate
	// ActionDelete means the key exists only on the previous side.
	ActionDelete
)

// Actions lists every action in declaration order.
var Actions = []Action{ActionSkip, ActionAdd, ActionUpdate, ActionDelete}

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "SKIP"
	case ActionAdd:
		return "ADD"
	case ActionUpdate:
		return "UPDATE"
	case ActionDelete:
		return "DELETE"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// DiffEntry is one emitted diff decision.
type DiffEntry struct {
	Key    reference.Key
	Action Action
	// PreviousVersion is empty for ActionAdd.
	PreviousVersion string
	// NextVersion is empty for ActionDelete.
	NextVersion string
}
