// Package media defines the core frame and flow types that flow between
// pipeline stages: the opaque FrameUnit, its sticky-state FlowDefinition
// sibling, and the shared monotonic Clock.
package media

import "fmt"

// Channel buffer sizes used by stages to decouple producers from
// consumers. Sized to absorb jitter without excessive memory.
const (
	VideoBufferSize = 16
	AudioBufferSize = 16
	ANCBufferSize   = 16
)

// Kind identifies which payload shape a FrameUnit carries.
type Kind int

const (
	// KindBlock is a contiguous byte buffer (SDI byte stream, ANC/VBI
	// side data, HBRMT/RFC4175 packed payload, SCTE-35 section bytes).
	KindBlock Kind = iota
	// KindPicture is a 1-3 plane picture buffer, each with its own stride.
	KindPicture
	// KindFlowChange is a payload-less FrameUnit that only carries a new
	// FlowDefinition; it propagates format changes downstream.
	KindFlowChange
)

// Plane is one picture plane with its own stride (bytes per row).
type Plane struct {
	Data   []byte
	Stride int
}

// Timestamps groups the four clock readings this format requires on every
// FrameUnit.
type Timestamps struct {
	SystemTime int64 // reception time, 27MHz ticks
	PTSOrig    int64 // original PTS as received
	PTSProg    int64 // presentation PTS after any adjustment
	Duration   int64 // 27MHz ticks
}

// FrameUnit is the opaque unit of flow between stages. It is uniquely
// owned by whichever stage currently holds it; ownership transfers on
// PushFrame. A FrameUnit carries either a Block or Planes, never both.
type FrameUnit struct {
	Kind Kind

	Block  []byte
	Planes []Plane

	TS Timestamps

	// Attrs is the short-string-keyed attribute dictionary.
	Attrs map[string]any

	// Discontinuity marks that this frame follows a detected gap
	// (sequence-number gap, dropped line, parse failure) relative to the
	// previous frame on this flow.
	Discontinuity bool

	// Flow is set when Kind == KindFlowChange, or may additionally be
	// attached to a payload-carrying FrameUnit on the first frame after
	// a format change.
	Flow *FlowDefinition
}

// NewBlock creates a payload-carrying FrameUnit wrapping a byte buffer.
func NewBlock(buf []byte) *FrameUnit {
	return &FrameUnit{Kind: KindBlock, Block: buf, Attrs: map[string]any{}}
}

// NewPicture creates a payload-carrying FrameUnit wrapping 1-3 picture planes.
func NewPicture(planes []Plane) *FrameUnit {
	return &FrameUnit{Kind: KindPicture, Planes: planes, Attrs: map[string]any{}}
}

// NewFlowChange creates a payload-less FrameUnit announcing a format change.
func NewFlowChange(flow *FlowDefinition) *FrameUnit {
	return &FrameUnit{Kind: KindFlowChange, Flow: flow, Attrs: map[string]any{}}
}

// Attr fetches a typed attribute, returning ok=false if absent or of the
// wrong type.
func Attr[T any](f *FrameUnit, key string) (T, bool) {
	var zero T
	if f == nil || f.Attrs == nil {
		return zero, false
	}
	v, ok := f.Attrs[key]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// SetAttr stores an attribute on the frame, allocating the map if needed.
func (f *FrameUnit) SetAttr(key string, v any) {
	if f.Attrs == nil {
		f.Attrs = map[string]any{}
	}
	f.Attrs[key] = v
}

// CloneFlow duplicates the FrameUnit's FlowDefinition (if any); the
// block/plane payload is NOT copied. A clone is only ever used to attach
// a format announcement to a new FrameUnit, never to duplicate payload
// ownership.
func (f *FrameUnit) CloneFlow() *FlowDefinition {
	if f.Flow == nil {
		return nil
	}
	clone := *f.Flow
	return &clone
}

func (f *FrameUnit) String() string {
	switch f.Kind {
	case KindFlowChange:
		return fmt.Sprintf("FrameUnit{flow-change flow=%v}", f.Flow)
	case KindPicture:
		return fmt.Sprintf("FrameUnit{picture planes=%d pts=%d}", len(f.Planes), f.TS.PTSProg)
	default:
		return fmt.Sprintf("FrameUnit{block len=%d pts=%d}", len(f.Block), f.TS.PTSProg)
	}
}
