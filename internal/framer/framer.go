// Package framer reassembles a byte-streamed sequence of SDI samples,
// not guaranteed aligned to frame start, into whole-frame FrameUnits. It
// scans for the SAV F/V/H transition marking a frame boundary the same
// way a PCIe SDI capture card's DMA-ring source resynchronizes to the
// start of field 1.
package framer

import "github.com/mediabridge/sdiip/internal/media"

// savF2ToF1 and savF1 are the 10-bit F/V/H status words at a SAV that
// marks, respectively, the end of field 2 and the start of field 1 —
// the transition that defines a frame boundary on a byte stream with no
// other synchronization signal.
const (
	savF2ToF1 = 0x3c4
	savF1     = 0x2d8
)

// Framer accumulates an unaligned SDI byte stream into whole-frame
// FrameUnits. Width and Height are in samples (2×width 16-bit samples
// per line, matching the geometry table's full line width).
type Framer struct {
	width, height int

	synced  bool
	prevFVH uint16

	pending []byte // bytes carried over from the previous Push call, including any accumulated but incomplete frame
}

// New creates a Framer for the given full line width (samples) and line
// count (height), both taken from the stream's geometry.Format.
func New(width, height int) *Framer {
	return &Framer{width: width, height: height}
}

func (f *Framer) lineBytes() int { return 2 * f.width * 2 } // 2 bytes/sample, 2×width samples/line

// Push feeds raw bytes into the framer and returns zero or more complete
// frames extracted from the accumulated stream. Bytes that do not yet
// complete a frame are retained internally for the next call.
func (f *Framer) Push(data []byte) []*media.FrameUnit {
	f.pending = append(f.pending, data...)

	if !f.synced {
		if !f.resync() {
			return nil
		}
	}

	var out []*media.FrameUnit
	lineBytes := f.lineBytes()
	frameBytes := f.height * lineBytes
	for len(f.pending) >= frameBytes {
		frame := media.NewBlock(append([]byte(nil), f.pending[:frameBytes]...))
		frame.SetAttr("framer.lines", f.height)
		out = append(out, frame)
		f.pending = f.pending[frameBytes:]
	}
	return out
}

// resync scans the pending buffer at line stride for the SAV F/V/H
// transition marking field-2-end to field-1-start, and trims everything
// before that position. Returns false if no transition has been found
// yet (more data is needed).
func (f *Framer) resync() bool {
	lineBytes := f.lineBytes()
	// fvhSampleOffset is the sample index of the FVH word within one
	// line's EAV: the line coder writes an SD EAV as
	// [0x3ff,0x000,0x000,fvh] and an HD EAV as
	// [0x3ff,0x3ff,0x000,0x000,0x000,0x000,fvh,fvh] at the start of the
	// line, so an HD line is recognised by 0x3ff at sample 1. Samples are
	// 16-bit little-endian.
	const fvhSampleOffset, fvhSampleOffsetHD = 3, 7

	for off := 0; off+lineBytes <= len(f.pending); off += lineBytes {
		fvhByteOffset := fvhSampleOffset * 2
		if lineBytes >= 16 && f.pending[off+2] == 0xff && f.pending[off+3] == 0x03 {
			fvhByteOffset = fvhSampleOffsetHD * 2
		}
		fvh := uint16(f.pending[off+fvhByteOffset]) | uint16(f.pending[off+fvhByteOffset+1])<<8
		if f.prevFVH == savF2ToF1 && fvh == savF1 {
			f.pending = f.pending[off:]
			f.synced = true
			return true
		}
		f.prevFVH = fvh
	}

	// Keep only the last full line's worth, in case the transition spans
	// this call's boundary and the next call's data.
	if len(f.pending) > lineBytes {
		f.pending = f.pending[len(f.pending)-lineBytes:]
	}
	return false
}

// Reset clears all accumulated state, forcing a fresh resync scan; used
// after a discontinuity upstream.
func (f *Framer) Reset() {
	f.synced = false
	f.pending = nil
	f.prevFVH = 0
}
