package oem

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNoMatch reports a well-formed timestamp selector with no matching
// state vector. Callers treat this as an empty result, not a client
// fault.
var ErrNoMatch = errors.New("no state vector matches the selected timestamp")

// ErrAmbiguousTimestamp reports multiple state vectors sharing one
// exact timestamp. That should be structurally impossible upstream, so
// it surfaces as a server-side data-integrity fault.
var ErrAmbiguousTimestamp = errors.New("multiple state vectors found for the specified timestamp")

// SelectorError is a malformed or out-of-range epoch selector: a client
// fault, rejected before any derivation runs.
type SelectorError struct {
	msg string
}

func (e *SelectorError) Error() string {
	return e.msg
}

// SelectorKind discriminates the two selector forms.
type SelectorKind int

const (
	// ByPosition selects a zero-based index into feed order.
	ByPosition SelectorKind = iota
	// ByTimestamp selects by exact timestamp equality.
	ByTimestamp
)

// Selector is a parsed epoch selector.
type Selector struct {
	Kind      SelectorKind
	Index     int
	Timestamp time.Time
}

// ParseSelector classifies a raw selector string. A string of decimal
// digits is a position; anything else must parse as a feed-format
// timestamp. Neither form is a *SelectorError.
func ParseSelector(raw string) (Selector, error) {
	if raw == "" {
		return Selector{}, &SelectorError{msg: selectorHint}
	}
	if isDigits(raw) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Selector{}, &SelectorError{msg: selectorHint}
		}
		return Selector{Kind: ByPosition, Index: n}, nil
	}
	ts, err := ParseTimestamp(raw)
	if err != nil {
		return Selector{}, &SelectorError{msg: selectorHint}
	}
	return Selector{Kind: ByTimestamp, Timestamp: ts}, nil
}

const selectorHint = "Enter an epoch index within the range of the dataset or an epoch timestamp included in the dataset."

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Resolve maps a parsed selector to exactly one state vector.
//
// Position selectors out of range return a *SelectorError. Timestamp
// selectors scan the full dataset for exact instant equality: zero
// matches is ErrNoMatch, more than one is ErrAmbiguousTimestamp.
func (d *Dataset) Resolve(sel Selector) (*StateVector, error) {
	switch sel.Kind {
	case ByPosition:
		if sel.Index >= len(d.StateVectors) {
			return nil, &SelectorError{msg: selectorHint}
		}
		return &d.StateVectors[sel.Index], nil
	case ByTimestamp:
		var match *StateVector
		for i := range d.StateVectors {
			if d.StateVectors[i].Timestamp.Equal(sel.Timestamp) {
				if match != nil {
					return nil, ErrAmbiguousTimestamp
				}
				match = &d.StateVectors[i]
			}
		}
		if match == nil {
			return nil, ErrNoMatch
		}
		return match, nil
	default:
		return nil, fmt.Errorf("unknown selector kind %d", sel.Kind)
	}
}

// Nearest returns the state vector whose timestamp is closest to now.
// Ties keep the first entry in encounter order. The dataset must be
// non-empty; an empty dataset only arises when the cache is in a
// failure state, which callers reject before reaching here.
func (d *Dataset) Nearest(now time.Time) (*StateVector, error) {
	if len(d.StateVectors) == 0 {
		return nil, errors.New("empty dataset")
	}
	best := &d.StateVectors[0]
	bestDelta := absDelta(now, best.Timestamp)
	for i := 1; i < len(d.StateVectors); i++ {
		if delta := absDelta(now, d.StateVectors[i].Timestamp); delta < bestDelta {
			best = &d.StateVectors[i]
			bestDelta = delta
		}
	}
	return best, nil
}

func absDelta(a, b time.Time) time.Duration {
	delta := a.Sub(b)
	if delta < 0 {
		return -delta
	}
	return delta
}

// Page slices the state vector sequence: offset first, then at most
// limit entries, never past the end.
//
// offset must be less than the dataset length; limit, when given
// (limit >= 0 with given=true), must be positive. Violations are
// *SelectorError values the API maps to client faults.
func (d *Dataset) Page(offset int, limit int, limitGiven bool) ([]StateVector, error) {
	if offset >= len(d.StateVectors) {
		return nil, &SelectorError{msg: "Optional offset parameter must be less than the length of the dataset."}
	}
	if limitGiven && limit == 0 {
		return nil, &SelectorError{msg: "Optional limit parameter must be greater than zero."}
	}
	page := d.StateVectors[offset:]
	if limitGiven && limit < len(page) {
		page = page[:limit]
	}
	return page, nil
}
