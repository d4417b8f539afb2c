// Package pipeline wires Stage implementations into a directed graph and
// drives frame flow between them: a uniform stage interface with
// concrete implementations, no open polymorphism, dispatch resolved once
// at graph construction.
package pipeline

import (
	"fmt"

	"github.com/mediabridge/sdiip/internal/media"
)

// ControlQuery/ControlResult model PullControl's request/response without
// committing every stage to a shared concrete type; a stage type-switches
// on the query it understands and returns ErrUnsupportedControl for
// anything else.
type ControlQuery any
type ControlResult any

// ErrUnsupportedControl is returned by PullControl for a query the stage
// does not implement.
var ErrUnsupportedControl = fmt.Errorf("pipeline: unsupported control query")

// Stage is the uniform operation set every pipeline node implements:
// set input format, push a frame, answer an out-of-band control query,
// and attach the shared clock. A Stage pushes its own output onward by
// calling Sink.PushFrame on whatever it was wired to at construction —
// wiring happens externally, when the graph is assembled.
type Stage interface {
	// SetInputFormat announces (or changes) the upstream flow definition.
	// Returns a *StageError with Kind ErrFlowMismatch if the new format is incompatible with
	// whatever this stage has already committed to.
	SetInputFormat(flow *media.FlowDefinition) error

	// PushFrame accepts one FrameUnit, transferring ownership to the
	// stage. The stage must not block; if it cannot keep up it is
	// responsible for its own internal backpressure (see Queue).
	PushFrame(frame *media.FrameUnit) error

	// PullControl answers an out-of-band query (e.g. current queue
	// depth, NIC link state) without going through the frame stream.
	PullControl(query ControlQuery) (ControlResult, error)

	// AttachClock gives the stage a reference to the shared monotonic
	// clock; stages that need no clock (most pixel/line-level
	// transforms) may implement this as a no-op.
	AttachClock(clock *media.Clock)
}

// Sink is what a Stage pushes its output into: either the next Stage in
// the graph (via its Queue) or a terminal collector.
type Sink interface {
	PushFrame(frame *media.FrameUnit) error
}

// FanOut pushes every frame to each of its Sinks in order, for a Stage
// whose output feeds more than one downstream consumer (e.g. a decoded
// frame feeding both a VANC-only tap and the main picture path).
type FanOut []Sink

func (f FanOut) PushFrame(frame *media.FrameUnit) error {
	for _, sink := range f {
		if err := sink.PushFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

// ErrorKind classifies a fatal stage error.
type ErrorKind int

const (
	// ErrAllocation is raised on out-of-memory; the current frame is
	// dropped and the stream continues.
	ErrAllocation ErrorKind = iota
	// ErrFlowMismatch is raised by SetInputFormat when the proposed flow
	// is incompatible with the stage's committed format.
	ErrFlowMismatch
)

// StageError is the typed fatal-error return a Stage uses to distinguish
// fatal from advisory failure paths: parse/checksum failures are instead
// recorded as Discontinuity/attribute state on the FrameUnit and never
// returned as a Go error.
type StageError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewFlowMismatchError builds the StageError SetInputFormat returns when
// FlowDefinition.Compatible rejects a proposed format change.
func NewFlowMismatchError(stage string, err error) *StageError {
	return &StageError{Kind: ErrFlowMismatch, Stage: stage, Err: err}
}
