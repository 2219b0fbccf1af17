package hypercube

// errors.go holds the sentinel errors returned by the topology, routing,
// bandwidth estimation and simulation code.  Callers branch on them with errors.Is;
// the functions that return them attach context with %w.

import (
	"errors"
	"fmt"
)

// ErrInvalidDimension reports a hypercube dimension outside [0, MaxDimension].
var ErrInvalidDimension = errors.New("hypercube: invalid dimension")

// ErrInvalidNode reports a node id outside [0, 2^d).
var ErrInvalidNode = errors.New("hypercube: invalid node")

// ErrInvalidBandwidth reports a link bandwidth that is not a positive finite number.
var ErrInvalidBandwidth = errors.New("hypercube: invalid link bandwidth")

// ErrInvalidFlowRecord reports a flow record that cannot be simulated.
var ErrInvalidFlowRecord = errors.New("hypercube: invalid flow record")

// ErrNonTerminatingRun reports a rate computation that left an active flow
// with no positive rate, so the run could never finish.
var ErrNonTerminatingRun = errors.New("hypercube: flow has no positive rate")

// ErrRunAborted reports a run stopped by its caller (context cancellation or
// tick budget) before every flow completed.
var ErrRunAborted = errors.New("hypercube: run aborted")

// ErrTooManyPaths reports an all-paths request whose endpoints differ in more
// than MaxAllPathsHops bits.
var ErrTooManyPaths = errors.New("hypercube: too many minimal paths to enumerate")

// InvalidFlowRecordError describes one rejected input record.
type InvalidFlowRecordError struct {
	Index  int // position of the record in the input
	Flow   Flow
	Reason string
}

func (e *InvalidFlowRecordError) Error() string {
	return fmt.Sprintf("flow record %d (%s): %s", e.Index, e.Flow, e.Reason)
}

func (e *InvalidFlowRecordError) Unwrap() error {
	return ErrInvalidFlowRecord
}

func invalidNodeErr(n Node, cube *Hypercube) error {
	return fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidNode, n, cube.NodeCount())
}
