package rfc4175

import (
	"fmt"
	"log/slog"

	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/media"
	"github.com/mediabridge/sdiip/internal/pixelcodec"
)

// Depacketizer reassembles RFC 4175 packets into picture FrameUnits.
type Depacketizer struct {
	log    *slog.Logger
	Format *geometry.Format
	Output OutputPlanes

	interlaced bool

	uyvy      []uint16
	haveTS    bool
	lastRTPTS uint64

	discontinuity bool
	haveSeq       bool
	expectedSeq   uint32
}

func NewDepacketizer(f *geometry.Format, output OutputPlanes, log *slog.Logger) *Depacketizer {
	if log == nil {
		log = slog.Default()
	}
	return &Depacketizer{log: log, Format: f, Output: output, interlaced: f.Picture.FieldOffset != 0}
}

// Result is produced for every packet that completes a frame.
type Result struct {
	Picture       *media.FrameUnit
	Discontinuity bool
}

// PushPacket feeds one received RFC 4175 packet. It returns a non-nil
// Result only on the packet that completes a frame (field-2 marker for
// interlaced formats, frame marker for progressive).
func (d *Depacketizer) PushPacket(pkt []byte) (*Result, error) {
	if len(pkt) < rtpHeaderLen+extSeqLen+lineHeaderLen {
		return nil, fmt.Errorf("rfc4175: packet too short (%d bytes)", len(pkt))
	}
	rh := decodeRTPHeader(pkt)
	extSeq := uint32(pkt[rtpHeaderLen])<<8 | uint32(pkt[rtpHeaderLen+1])
	seq32 := extSeq<<16 | uint32(rh.Sequence)

	if d.haveSeq && seq32 != d.expectedSeq {
		d.discontinuity = true
	}
	d.expectedSeq = seq32 + 1
	d.haveSeq = true

	cursor := rtpHeaderLen + extSeqLen
	if cursor+lineHeaderLen > len(pkt) {
		return nil, fmt.Errorf("rfc4175: missing line header")
	}
	h0 := decodeLineHeader(pkt[cursor:])
	headers := []lineHeader{h0}
	cursor += lineHeaderLen
	if h0.Continuation {
		if cursor+lineHeaderLen > len(pkt) {
			return nil, fmt.Errorf("rfc4175: missing continuation line header")
		}
		headers = append(headers, decodeLineHeader(pkt[cursor:]))
		cursor += lineHeaderLen
	}

	w := d.Format.Picture.ActiveWidth
	h := d.Format.Picture.ActiveHeight

	if d.uyvy == nil {
		d.uyvy = make([]uint16, w*h*2)
	}

	var lastField uint8
	for _, lh := range headers {
		if lh.Length == 0 || lh.Length%pgroupBytes != 0 {
			return nil, fmt.Errorf("rfc4175: line length %d not pgroup-aligned", lh.Length)
		}
		pixels := int(lh.Length) / pgroupBytes * pgroupPixels
		if int(lh.Offset)+pixels > w {
			return nil, fmt.Errorf("rfc4175: offset %d + %d pixels exceeds width %d", lh.Offset, pixels, w)
		}
		row := int(lh.LineNumber) - 1
		if d.interlaced {
			row = row*2 + int(lh.Field)
		}
		if row < 0 || row >= h {
			return nil, fmt.Errorf("rfc4175: row %d out of range", row)
		}
		if cursor+int(lh.Length) > len(pkt) {
			return nil, fmt.Errorf("rfc4175: payload shorter than declared length")
		}
		lineStart := row*w*2 + int(lh.Offset)*2
		pixelcodec.SDI10ToUYVY(pkt[cursor:cursor+int(lh.Length)], d.uyvy[lineStart:lineStart+pixels*2])
		cursor += int(lh.Length)
		lastField = lh.Field
	}

	frameDone := rh.Marker && (!d.interlaced || lastField == 1)
	if !frameDone {
		return nil, nil
	}

	pic := buildPicture(d.uyvy, d.Output, w, h)
	pic.TS.PTSOrig, pic.TS.PTSProg = d.extendTimestamp(rh.Timestamp)
	pic.Discontinuity = d.discontinuity

	res := &Result{Picture: pic, Discontinuity: d.discontinuity}
	d.discontinuity = false
	d.uyvy = nil
	return res, nil
}

// extendTimestamp wrap-extends the 32-bit RTP timestamp against the last
// seen value and converts to 27MHz ticks.
func (d *Depacketizer) extendTimestamp(ts uint32) (int64, int64) {
	if !d.haveTS {
		d.lastRTPTS = uint64(ts)
		d.haveTS = true
	} else {
		delta := (uint64(1)<<32 + uint64(ts) - d.lastRTPTS%(uint64(1)<<32)) % (uint64(1) << 32)
		d.lastRTPTS += delta
	}
	pts := int64(d.lastRTPTS) * media.UClockFreq / 90000
	orig := int64(ts) * media.UClockFreq / 90000
	return orig, pts
}
