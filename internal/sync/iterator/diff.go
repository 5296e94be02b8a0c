package iterator

import (
	"context"
	"fmt"

	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/versions"
)

// pending records which side holds an entry that was read but not yet
// emitted. It plays the role of the sign of the last comparison: a negative
// comparison leaves the next entry pending, a positive one the previous.
type pending int

const (
	pendingNone pending = iota
	pendingNext
	pendingPrevious
)

// move is one step of the merge.
type move int

const (
	moveDone move = iota
	// moveCompareBoth reads one entry from each side and compares them.
	moveCompareBoth
	// moveReadPrevious reads the previous side and compares it with the pending next entry.
	moveReadPrevious
	// moveReadNext reads the next side and compares it with the pending previous entry.
	moveReadNext
	// moveDrainPrevious reads the previous side and deletes the entry.
	moveDrainPrevious
	// moveDrainNext reads the next side and adds the entry.
	moveDrainNext
	// moveFlushNext adds the pending next entry.
	moveFlushNext
	// moveFlushPrevious deletes the pending previous entry.
	moveFlushPrevious
)

// decide is the transition table of the merge.
func decide(p pending, previousHasNext, nextHasNext bool) move {
	switch p {
	case pendingNext:
		if previousHasNext {
			return moveReadPrevious
		}
		return moveFlushNext
	case pendingPrevious:
		if nextHasNext {
			return moveReadNext
		}
		return moveFlushPrevious
	default:
		switch {
		case previousHasNext && nextHasNext:
			return moveCompareBoth
		case previousHasNext:
			return moveDrainPrevious
		case nextHasNext:
			return moveDrainNext
		default:
			return moveDone
		}
	}
}

// DiffOption configures a DiffIterator.
type DiffOption func(*DiffIterator)

// WithNewerPreviousObserver registers fn to be called for every update whose
// previous version is semantically newer than the next version. The entry is
// still emitted as an update.
func WithNewerPreviousObserver(fn func(DiffEntry)) DiffOption {
	return func(d *DiffIterator) {
		d.onNewerPrevious = fn
	}
}

// DiffIterator merges two ordered SourceIterators into a sequence of
// DiffEntry in ascending key order. Previous is the side being brought up to
// date (the index), next is the reference (the store).
type DiffIterator struct {
	previous SourceIterator
	next     SourceIterator

	state         pending
	previousEntry Entry
	nextEntry     Entry

	buffered bool
	current  DiffEntry
	done     bool
	err      error

	onNewerPrevious func(DiffEntry)
}

// NewDiffIterator creates a DiffIterator over previous and next.
func NewDiffIterator(previous, next SourceIterator, opts ...DiffOption) *DiffIterator {
	d := &DiffIterator{previous: previous, next: next}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HasNext reports whether another diff entry remains.
func (d *DiffIterator) HasNext(ctx context.Context) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.buffered {
		return true, nil
	}
	if d.done {
		return false, nil
	}
	if err := d.step(ctx); err != nil {
		d.err = err
		return false, err
	}
	return d.buffered, nil
}

// Next returns the next diff entry.
func (d *DiffIterator) Next(ctx context.Context) (DiffEntry, error) {
	ok, err := d.HasNext(ctx)
	if err != nil {
		return DiffEntry{}, err
	}
	if !ok {
		return DiffEntry{}, ErrNoMoreEntries
	}
	d.buffered = false
	return d.current, nil
}

// Size returns the larger of the two sides' sizes.
func (d *DiffIterator) Size(ctx context.Context) (int64, error) {
	previousSize, err := d.previous.Size(ctx)
	if err != nil {
		return 0, err
	}
	nextSize, err := d.next.Size(ctx)
	if err != nil {
		return 0, err
	}
	return max(previousSize, nextSize), nil
}

func (d *DiffIterator) step(ctx context.Context) error {
	previousHasNext, err := d.previous.HasNext(ctx)
	if err != nil {
		return fmt.Errorf("failed to read previous side: %w", err)
	}
	nextHasNext, err := d.next.HasNext(ctx)
	if err != nil {
		return fmt.Errorf("failed to read next side: %w", err)
	}

	switch decide(d.state, previousHasNext, nextHasNext) {
	case moveDone:
		d.done = true
		return nil

	case moveCompareBoth:
		if d.previousEntry, err = d.readPrevious(ctx); err != nil {
			return err
		}
		if d.nextEntry, err = d.readNext(ctx); err != nil {
			return err
		}
		d.compare()

	case moveReadPrevious:
		if d.previousEntry, err = d.readPrevious(ctx); err != nil {
			return err
		}
		d.compare()

	case moveReadNext:
		if d.nextEntry, err = d.readNext(ctx); err != nil {
			return err
		}
		d.compare()

	case moveDrainPrevious:
		if d.previousEntry, err = d.readPrevious(ctx); err != nil {
			return err
		}
		d.emitDelete()

	case moveDrainNext:
		if d.nextEntry, err = d.readNext(ctx); err != nil {
			return err
		}
		d.emitAdd()

	case moveFlushNext:
		d.emitAdd()

	case moveFlushPrevious:
		d.emitDelete()
	}
	return nil
}

func (d *DiffIterator) compare() {
	c := reference.Compare(d.previousEntry.Key, d.nextEntry.Key)
	switch {
	case c < 0:
		d.emit(DiffEntry{Key: d.previousEntry.Key, Action: ActionDelete, PreviousVersion: d.previousEntry.Version})
		d.state = pendingNext
	case c > 0:
		d.emit(DiffEntry{Key: d.nextEntry.Key, Action: ActionAdd, NextVersion: d.nextEntry.Version})
		d.state = pendingPrevious
	default:
		e := DiffEntry{
			Key:             d.nextEntry.Key,
			Action:          ActionSkip,
			PreviousVersion: d.previousEntry.Version,
			NextVersion:     d.nextEntry.Version,
		}
		if e.PreviousVersion != e.NextVersion {
			e.Action = ActionUpdate
			if d.onNewerPrevious != nil && versions.IsNewerVersion(e.PreviousVersion, e.NextVersion) {
				d.onNewerPrevious(e)
			}
		}
		d.emit(e)
		d.state = pendingNone
	}
}

func (d *DiffIterator) emitAdd() {
	d.emit(DiffEntry{Key: d.nextEntry.Key, Action: ActionAdd, NextVersion: d.nextEntry.Version})
	d.state = pendingNone
}

func (d *DiffIterator) emitDelete() {
	d.emit(DiffEntry{Key: d.previousEntry.Key, Action: ActionDelete, PreviousVersion: d.previousEntry.Version})
	d.state = pendingNone
}

func (d *DiffIterator) emit(e DiffEntry) {
	d.current = e
	d.buffered = true
}

func (d *DiffIterator) readPrevious(ctx context.Context) (Entry, error) {
	e, err := d.previous.Next(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read previous side: %w", err)
	}
	return e, nil
}

func (d *DiffIterator) readNext(ctx context.Context) (Entry, error) {
	e, err := d.next.Next(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read next side: %w", err)
	}
	return e, nil
}
