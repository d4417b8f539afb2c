package hbrmt

import (
	"fmt"
	"log/slog"

	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/media"
)

// Depacketizer reassembles HBRMT/RTP packets into whole packed-10 frame
// FrameUnits, resolving the geometry and publishing a pic.block. flow
// definition on the first valid packet.
type Depacketizer struct {
	log *slog.Logger

	format *geometry.Format

	haveSeq       bool
	expectedSeq   uint16
	discontinuity bool

	buf        []byte
	frameLen   int
	frameCount uint32
}

// NewDepacketizer creates an empty Depacketizer; geometry is resolved
// lazily from the first valid packet.
func NewDepacketizer(log *slog.Logger) *Depacketizer {
	if log == nil {
		log = slog.Default()
	}
	return &Depacketizer{log: log}
}

// Result carries whatever PushPacket produced this call: a new flow
// definition (first valid packet only), a completed frame (on marker), or
// both, or neither.
type Result struct {
	Flow  *media.FlowDefinition
	Frame *media.FrameUnit
}

// PushPacket feeds one received HBRMT/RTP packet.
func (d *Depacketizer) PushPacket(pkt []byte) (*Result, error) {
	if len(pkt) < rtpHeaderLen+headerLen {
		return nil, fmt.Errorf("hbrmt: packet too short (%d bytes)", len(pkt))
	}
	rh := decodeRTPHeader(pkt)
	hh := decodeHeader(pkt[rtpHeaderLen : rtpHeaderLen+headerLen])
	payload := pkt[rtpHeaderLen+headerLen:]

	res := &Result{}

	if d.format == nil {
		w, h, _, ok := frameDims(hh.Frame)
		if !ok {
			return nil, fmt.Errorf("hbrmt: unknown FRAME code %#x", hh.Frame)
		}
		fps, ok := frateToFPS(hh.Frate)
		if !ok {
			return nil, fmt.Errorf("hbrmt: unknown FRATE code %#x", hh.Frate)
		}
		f, err := geometry.Lookup(w, h, fps)
		if err != nil {
			return nil, err
		}
		d.format = f
		d.frameLen = frameByteLen(f)
		res.Flow = d.buildFlow(f)
		d.log.Info("hbrmt: resolved geometry", "width", w, "height", h, "fps", fps)
	}

	seq := rh.Sequence
	if d.haveSeq && seq != d.expectedSeq {
		d.discontinuity = true
		d.buf = nil
	}
	d.expectedSeq = seq + 1
	d.haveSeq = true

	if d.discontinuity {
		if rh.Marker {
			d.discontinuity = false
		}
		return res, nil
	}

	if d.buf == nil {
		d.buf = make([]byte, 0, d.frameLen)
	}
	d.buf = append(d.buf, payload...)

	if rh.Marker {
		if len(d.buf) > d.frameLen {
			// Drop the zero padding of the final chunk.
			d.buf = d.buf[:d.frameLen]
		}
		frame := media.NewBlock(d.buf)
		pts := int64(^uint32(0)) + int64(d.frameCount)*media.UClockFreq*d.format.FPS.Den/d.format.FPS.Num
		frame.TS.PTSOrig = pts
		frame.TS.PTSProg = pts
		d.frameCount++
		d.buf = nil
		res.Frame = frame
	}

	return res, nil
}

func (d *Depacketizer) buildFlow(f *geometry.Format) *media.FlowDefinition {
	latency := media.UClockFreq * f.FPS.Den / f.FPS.Num
	return &media.FlowDefinition{
		IsPicture: false,
		Block: media.BlockFlow{
			Octetrate: uint64(frameByteLen(f)) * uint64(f.FPS.Num) / uint64(f.FPS.Den),
			Latency:   latency,
		},
	}
}
