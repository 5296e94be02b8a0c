package iterator

import (
	"context"
	"fmt"
)

// pagerState is the lifecycle of a paginated iterator.
type pagerState int

const (
	stateUnstarted pagerState = iota
	stateFetchingPage
	stateBuffered
	stateExhausted
	stateFailed
)

func (s pagerState) String() string {
	switch s {
	case stateUnstarted:
		return "Unstarted"
	case stateFetchingPage:
		return "FetchingPage"
	case stateBuffered:
		return "HasBufferedEntries"
	case stateExhausted:
		return "Exhausted"
	case stateFailed:
		return "Failed"
	}
	return fmt.Sprintf("pagerState(%d)", int(s))
}

// fetchFunc loads the next page. last reports that no page follows this one.
// The function owns the resumption state (offset or cursor).
type fetchFunc func(ctx context.Context) (page []Entry, last bool, err error)

// pager buffers one page at a time. The page fetch is its only suspension
// point; a fetch error is sticky.
type pager struct {
	state pagerState
	fetch fetchFunc
	page  []Entry
	pos   int
	last  bool
	err   error
}

func newPager(fetch fetchFunc) pager {
	return pager{state: stateUnstarted, fetch: fetch}
}

func (p *pager) started() bool {
	return p.state != stateUnstarted
}

func (p *pager) hasNext(ctx context.Context) (bool, error) {
	for {
		switch p.state {
		case stateUnstarted:
			p.state = stateFetchingPage

		case stateFetchingPage:
			page, last, err := p.fetch(ctx)
			if err != nil {
				p.state = stateFailed
				p.err = err
				return false, err
			}
			p.page, p.pos, p.last = page, 0, last
			p.state = stateBuffered

		case stateBuffered:
			if p.pos < len(p.page) {
				return true, nil
			}
			p.page, p.pos = nil, 0
			if p.last {
				p.state = stateExhausted
			} else {
				p.state = stateFetchingPage
			}

		case stateExhausted:
			return false, nil

		case stateFailed:
			return false, p.err
		}
	}
}

func (p *pager) next(ctx context.Context) (Entry, error) {
	ok, err := p.hasNext(ctx)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrNoMoreEntries
	}
	e := p.page[p.pos]
	p.pos++
	return e, nil
}

// rowsToEntries converts a backend page, failing on the first row that does
// not form a canonical key.
func rowsToEntries(rows []Row) ([]Entry, error) {
	entries := make([]Entry, 0, len(rows))
	for i, r := range rows {
		e, err := r.Entry()
		if err != nil {
			return nil, fmt.Errorf("invalid row %d in page: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
