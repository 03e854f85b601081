package orgunit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

// Code is a materialized path: a dot-joined sequence of fixed-width,
// zero-padded sibling ordinals, one segment per ancestor level
// (e.g. "00001.00002"). An empty Code denotes "no parent".
type Code string

const (
	// SegmentWidth is wide enough that a sibling group exhausts the ordinal
	// space only after 99999 creations under one parent.
	SegmentWidth = 5
	maxSegment   = 99999

	codeSeparator = "."
)

func (c Code) IsZero() bool {
	return c == ""
}

func (c Code) Segments() []string {
	if c.IsZero() {
		return nil
	}
	return strings.Split(string(c), codeSeparator)
}

// LastSegment returns the unit's own ordinal among its siblings.
func (c Code) LastSegment() string {
	segs := c.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// IsDescendantOf reports whether c sits strictly below ancestor: ancestor's
// code is a whole-segment prefix of c and c is longer.
func (c Code) IsDescendantOf(ancestor Code) bool {
	if ancestor.IsZero() {
		return !c.IsZero()
	}
	return strings.HasPrefix(string(c), string(ancestor)+codeSeparator)
}

// Child appends a segment to c, handling the empty root prefix.
func (c Code) Child(segment string) Code {
	if c.IsZero() {
		return Code(segment)
	}
	return Code(string(c) + codeSeparator + segment)
}

// NextCode assigns the next unused sibling ordinal under parentCode. Ordinals
// follow creation order and are never reused: the new segment is one past the
// highest ever assigned among the given siblings, so gaps left by deleted
// siblings stay gaps. Fails with CapacityExceeded when the segment space under
// this parent is exhausted.
func NextCode(parentCode Code, siblingCodes []Code) (Code, error) {
	next := 1
	for _, sibling := range siblingCodes {
		n, err := strconv.Atoi(sibling.LastSegment())
		if err != nil {
			return "", fmt.Errorf("malformed sibling code %q: %w", sibling, err)
		}
		if n >= next {
			next = n + 1
		}
	}
	if next > maxSegment {
		return "", serrors.ErrCapacityExceeded
	}
	return parentCode.Child(fmt.Sprintf("%0*d", SegmentWidth, next)), nil
}

// CodeRewrite records one descendant's code change during a reparent cascade.
type CodeRewrite struct {
	UnitID  uint
	OldCode Code
	NewCode Code
}

// Reparent computes the moved unit's code under its new parent and the full
// rewrite mapping for its transitive descendants. Every descendant code that
// has oldCode as a strict prefix gets that prefix replaced by the new code,
// with the remainder unchanged. The caller applies the mapping atomically.
func Reparent(oldCode Code, newParentCode Code, newSiblingCodes []Code, descendants map[uint]Code) (Code, []CodeRewrite, error) {
	newCode, err := NextCode(newParentCode, newSiblingCodes)
	if err != nil {
		return "", nil, err
	}

	rewrites := make([]CodeRewrite, 0, len(descendants))
	for id, code := range descendants {
		if !code.IsDescendantOf(oldCode) {
			continue
		}
		suffix := strings.TrimPrefix(string(code), string(oldCode))
		rewrites = append(rewrites, CodeRewrite{
			UnitID:  id,
			OldCode: code,
			NewCode: Code(string(newCode) + suffix),
		})
	}
	return newCode, rewrites, nil
}
