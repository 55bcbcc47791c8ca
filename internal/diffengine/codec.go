package diffengine

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/camlsync/camlsync/internal/camlerrors"
)

// wireOp is the JSON shape of a single Operation: {"op":"del"|"ins","line":N,"content":[...]}.
// For "del" the legacy wire form carries a single-element placeholder
// content array; we accept and ignore it.
type wireOp struct {
	Op      string   `json:"op"`
	Line    int      `json:"line"`
	Content []string `json:"content"`
}

// MarshalJSON renders a Diff as the wire array of operations.
func (d Diff) MarshalJSON() ([]byte, error) {
	wire := make([]wireOp, 0, len(d.Ops))
	for _, op := range d.Ops {
		w := wireOp{Line: op.Line}
		switch op.Op {
		case OpDelete:
			w.Op = "del"
			w.Content = []string{""}
		case OpInsert:
			w.Op = "ins"
			w.Content = op.Content
		default:
			return nil, fmt.Errorf("%w: unknown operation tag %d", camlerrors.ErrMalformedDiff, op.Op)
		}
		wire = append(wire, w)
	}
	if wire == nil {
		wire = []wireOp{}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON parses the wire array of operations into a Diff. Unknown
// keys on each object are ignored by the underlying codec; an unknown "op"
// value fails with camlerrors.ErrMalformedDiff.
func (d *Diff) UnmarshalJSON(data []byte) error {
	var wire []wireOp
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", camlerrors.ErrMalformedDiff, err)
	}

	// Left nil for an empty array, so "[]" decodes to exactly Empty.
	var ops []Operation
	for _, w := range wire {
		switch w.Op {
		case "del":
			ops = append(ops, Delete(w.Line))
		case "ins":
			ops = append(ops, Insert(w.Line, w.Content))
		default:
			return fmt.Errorf("%w: unknown op %q", camlerrors.ErrMalformedDiff, w.Op)
		}
	}
	d.Ops = ops
	return nil
}
