package media

// Rational is a fractional rate (frame rate, sample rate ratio), matching
// the Upipe `urational` pattern used throughout the original source
// (original_source/lib/upipe-hbrmt/upipe_hbrmt_common.h fps fields).
type Rational struct {
	Num int64
	Den int64
}

// ChromaTag identifies one plane of a pic.* FlowDefinition.
type ChromaTag string

const (
	ChromaY8      ChromaTag = "y8"
	ChromaU8      ChromaTag = "u8"
	ChromaV8      ChromaTag = "v8"
	ChromaY10L    ChromaTag = "y10l"
	ChromaU10L    ChromaTag = "u10l"
	ChromaV10L    ChromaTag = "v10l"
	ChromaPacked  ChromaTag = "u10y10v10y10u10y10v10y10u10y10v10y10" // V210 packed tag
)

// BlockFlow describes a block.* flow: a byte stream.
type BlockFlow struct {
	Octetrate     uint64
	Alignment     int
	AppendPadding bool
	Latency       int64 // 27MHz ticks
}

// PicFlow describes a pic.* flow: a picture stream.
type PicFlow struct {
	HSize, VSize int
	FPS          Rational
	Macropixel   int
	Planes       []ChromaTag
	Progressive  bool
	TFF          bool // top-field-first when interlaced
	Latency      int64 // 27MHz ticks
	HSub, VSub   int
}

// FlowDefinition is the sticky-state sibling of FrameUnit describing the
// stream shape. Exactly one of Block/Pic is meaningful, selected by
// IsPicture.
type FlowDefinition struct {
	IsPicture bool
	Block     BlockFlow
	Pic       PicFlow
}

// Latency returns the flow's end-to-end latency budget in 27MHz ticks.
func (f *FlowDefinition) Latency() int64 {
	if f.IsPicture {
		return f.Pic.Latency
	}
	return f.Block.Latency
}

// FrameRate returns the flow's frame rate; zero for a block flow, which
// carries no frame boundary of its own.
func (f *FlowDefinition) FrameRate() Rational {
	if f.IsPicture {
		return f.Pic.FPS
	}
	return Rational{}
}

// Compatible reports whether a proposed new flow definition can replace
// this one without a full pipeline teardown: same payload kind is
// required, and for pictures the macropixel/plane layout must match
// (dimensions and fps may change freely since those drive renegotiation,
// not rejection).
func (f *FlowDefinition) Compatible(next *FlowDefinition) bool {
	if f == nil || next == nil {
		return true
	}
	if f.IsPicture != next.IsPicture {
		return false
	}
	if !f.IsPicture {
		return true
	}
	if f.Pic.Macropixel != next.Pic.Macropixel {
		return false
	}
	if len(f.Pic.Planes) != len(next.Pic.Planes) {
		return false
	}
	for i, p := range f.Pic.Planes {
		if next.Pic.Planes[i] != p {
			return false
		}
	}
	return true
}
