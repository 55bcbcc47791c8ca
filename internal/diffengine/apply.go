package diffengine

import (
	"fmt"

	"github.com/camlsync/camlsync/internal/camlerrors"
)

// Apply walks base indices 1..len(base), consuming diff's operations in
// order, and returns the resulting sequence. It validates the diff's index
// invariants first and fails with camlerrors.ErrMalformedDiff if they do
// not hold.
func Apply(base []string, diff Diff) ([]string, error) {
	if err := validate(base, diff); err != nil {
		return nil, err
	}

	ops := diff.Ops
	n := len(ops)
	out := make([]string, 0, len(base)+estimateInserted(diff))

	idx := 0
	// Insert(0, L) lines go at the very front, ahead of any base content.
	for idx < n && ops[idx].Op == OpInsert && ops[idx].Line == 0 {
		out = append(out, ops[idx].Content...)
		idx++
	}

	cur := 1
	for cur <= len(base) {
		if idx < n {
			op := ops[idx]
			switch {
			case op.Op == OpDelete && op.Line == cur:
				idx++
				cur++
				continue
			case op.Op == OpInsert && op.Line == 0:
				out = append(out, op.Content...)
				idx++
				continue
			case op.Op == OpInsert && op.Line == cur:
				out = append(out, base[cur-1])
				out = append(out, op.Content...)
				idx++
				cur++
				continue
			}
		}
		out = append(out, base[cur-1])
		cur++
	}

	// Remaining insertions past the end of base, in ascending index order.
	for idx < n {
		op := ops[idx]
		out = append(out, op.Content...)
		idx++
	}

	// The empty sequence is nil, as elsewhere in the module (see linesio).
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func estimateInserted(diff Diff) int {
	n := 0
	for _, op := range diff.Ops {
		if op.Op == OpInsert {
			n += len(op.Content)
		}
	}
	return n
}

// validate enforces the Diff invariants from the data model: operations
// sorted by index ascending, delete indices within [1, len(base)], and no
// unrecognized op tag. An Insert(0, L) may follow other operations (CalcDiff
// emits its deletes first, then Insert(0, new)); it is exempt from the
// ordering check.
func validate(base []string, diff Diff) error {
	last := -1
	for _, op := range diff.Ops {
		frontInsert := op.Op == OpInsert && op.Line == 0
		if op.Line < last && !frontInsert {
			return fmt.Errorf("%w: operation indices not sorted ascending", camlerrors.ErrMalformedDiff)
		}
		switch op.Op {
		case OpDelete:
			if op.Line < 1 || op.Line > len(base) {
				return fmt.Errorf("%w: delete index %d out of range [1,%d]", camlerrors.ErrMalformedDiff, op.Line, len(base))
			}
		case OpInsert:
			if op.Line < 0 {
				return fmt.Errorf("%w: insert index %d negative", camlerrors.ErrMalformedDiff, op.Line)
			}
		default:
			return fmt.Errorf("%w: unknown operation tag %d", camlerrors.ErrMalformedDiff, op.Op)
		}
		if !frontInsert {
			last = op.Line
		}
	}
	return nil
}
