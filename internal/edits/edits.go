package edits

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// ErrConflict is returned when two rules produced replacements for
// overlapping spans of the same file. Applying them would corrupt the
// output, so the whole rewrite of that file is aborted.
var ErrConflict = errors.New("conflicting edits")

// Edit is a single span replacement. Start and End are byte offsets into
// the original source; the bytes in [Start, End) are replaced by New.
type Edit struct {
	Rule  string
	Start int
	End   int
	New   string
}

// Set accumulates edits from all rules for one file. It is not safe for
// concurrent use; one run of the engine owns exactly one set.
type Set struct {
	edits []Edit
}

func NewSet() *Set {
	return &Set{}
}

// Replace records the replacement of the span [start, end) with text.
// Identical edits (same span, same text) are recorded once, so a rule may
// re-emit an edit it already produced without causing a conflict.
func (s *Set) Replace(rule string, start, end int, text string) {
	for _, e := range s.edits {
		if e.Start == start && e.End == end && e.New == text {
			return
		}
	}
	s.edits = append(s.edits, Edit{Rule: rule, Start: start, End: end, New: text})
}

// Len returns the number of recorded edits.
func (s *Set) Len() int {
	return len(s.edits)
}

// Edits returns the recorded edits sorted by start offset.
func (s *Set) Edits() []Edit {
	out := make([]Edit, len(s.edits))
	copy(out, s.edits)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// Filter keeps only the edits for which keep returns true.
func (s *Set) Filter(keep func(Edit) bool) {
	kept := s.edits[:0]
	for _, e := range s.edits {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	s.edits = kept
}

// Apply splices all recorded edits into src and returns the rewritten
// text. Spans outside the edits are copied byte for byte, so formatting
// is preserved everywhere a rule did not touch. Overlapping spans are an
// internal consistency error; src is returned unmodified with ErrConflict.
func (s *Set) Apply(src []byte) ([]byte, error) {
	if len(s.edits) == 0 {
		return src, nil
	}

	sorted := s.Edits()
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(src) {
			return src, fmt.Errorf("edit span [%d, %d) out of range for %d bytes", e.Start, e.End, len(src))
		}
		if i > 0 && sorted[i-1].End > e.Start {
			prev := sorted[i-1]
			return src, fmt.Errorf("%w: %s [%d, %d) overlaps %s [%d, %d)",
				ErrConflict, prev.Rule, prev.Start, prev.End, e.Rule, e.Start, e.End)
		}
	}

	var buf bytes.Buffer
	last := 0
	for _, e := range sorted {
		buf.Write(src[last:e.Start])
		buf.WriteString(e.New)
		last = e.End
	}
	buf.Write(src[last:])
	return buf.Bytes(), nil
}
