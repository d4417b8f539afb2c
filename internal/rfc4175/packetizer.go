package rfc4175

import (
	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/media"
	"github.com/mediabridge/sdiip/internal/pixelcodec"
)

// capacity1 is the pgroup-aligned pixel count that fits under the MTU in a
// packet carrying a single line header.
var capacity1 = ((mtu - rtpHeaderLen - extSeqLen - lineHeaderLen) / pgroupBytes) * pgroupPixels

// Packetizer cuts a picture FrameUnit's active pixels into RFC 4175
// packets. Progressive formats are sent as field 0 throughout; interlaced
// formats alternate field 0/1 by row parity, matching the "field-1 → even
// rows, field-2 → odd rows" convention this repo's SDI codec uses
// elsewhere.
type Packetizer struct {
	Format *geometry.Format
	Input  InputPlanes
	SSRC   uint32

	// packetCount is a monotone 32-bit counter; its low 16 bits are the
	// RTP sequence number and its high 16 bits are the RFC 4175 extended
	// sequence number carried at the start of the payload.
	packetCount uint32
	frameCount  uint32
}

func NewPacketizer(f *geometry.Format, input InputPlanes, ssrc uint32) *Packetizer {
	return &Packetizer{Format: f, Input: input, SSRC: ssrc}
}

type segment struct {
	row, offset, pixels int
}

// PacketizeFrame packetizes one complete active picture.
func (p *Packetizer) PacketizeFrame(pic *media.FrameUnit) [][]byte {
	f := p.Format
	w, h := f.Picture.ActiveWidth, f.Picture.ActiveHeight
	uyvy := toUYVY(pic, p.Input, w, h)
	interlaced := f.Picture.FieldOffset != 0

	ticksPerFrame := uint32(90000 * f.FPS.Den / f.FPS.Num)
	timestamp := p.frameCount * ticksPerFrame

	var out [][]byte
	row, offset := 0, 0
	for row < h {
		segs := []segment{}
		seg1 := min(capacity1, w-offset)
		segs = append(segs, segment{row, offset, seg1})
		nextRow, nextOffset := row, offset+seg1
		if nextOffset >= w {
			nextRow++
			nextOffset = 0
			if nextRow < h {
				used := seg1 / pgroupPixels * pgroupBytes
				budget := (mtu - rtpHeaderLen - extSeqLen - lineHeaderLen) - used - lineHeaderLen
				seg2Pixels := (budget / pgroupBytes) * pgroupPixels
				if seg2Pixels > w {
					seg2Pixels = w
				}
				if seg2Pixels > 0 {
					segs = append(segs, segment{nextRow, 0, seg2Pixels})
					nextOffset = seg2Pixels
					if nextOffset >= w {
						nextRow++
						nextOffset = 0
					}
				}
			}
		}

		marker := nextRow >= h
		out = append(out, p.buildPacket(segs, uyvy, w, interlaced, timestamp, marker))
		row, offset = nextRow, nextOffset
	}

	p.frameCount++
	return out
}

func (p *Packetizer) buildPacket(segs []segment, uyvy []uint16, w int, interlaced bool, timestamp uint32, marker bool) []byte {
	headerBytes := rtpHeaderLen + extSeqLen + len(segs)*lineHeaderLen
	payloadBytes := 0
	for _, s := range segs {
		payloadBytes += s.pixels / pgroupPixels * pgroupBytes
	}
	buf := make([]byte, headerBytes+payloadBytes)

	seq := uint16(p.packetCount)
	extSeq := uint16(p.packetCount >> 16)
	rh := rtpHeader{Marker: marker, PacketType: PayloadType, Sequence: seq, Timestamp: timestamp, SSRC: p.SSRC}
	rh.encode(buf[:rtpHeaderLen])
	buf[rtpHeaderLen] = byte(extSeq >> 8)
	buf[rtpHeaderLen+1] = byte(extSeq)

	cursor := rtpHeaderLen + extSeqLen + len(segs)*lineHeaderLen
	for i, s := range segs {
		field := uint8(0)
		if interlaced {
			field = uint8(s.row % 2)
		}
		wireLine := wireLineNumber(s.row, interlaced)
		lh := lineHeader{
			Length:       uint16(s.pixels / pgroupPixels * pgroupBytes),
			Field:        field,
			LineNumber:   wireLine,
			Continuation: i+1 < len(segs),
			Offset:       uint16(s.offset),
		}
		lh.encode(buf[rtpHeaderLen+extSeqLen+i*lineHeaderLen:])

		lineStart := s.row * w * 2
		samples := uyvy[lineStart+s.offset*2 : lineStart+(s.offset+s.pixels)*2]
		segBytes := s.pixels / pgroupPixels * pgroupBytes
		pixelcodec.UYVYToSDI10(samples, buf[cursor:cursor+segBytes])
		cursor += segBytes
	}

	p.packetCount++
	return buf
}

// wireLineNumber maps a 0-indexed interleaved output row to its 1-indexed
// wire line number within its field.
func wireLineNumber(row int, interlaced bool) uint16 {
	if !interlaced {
		return uint16(row + 1)
	}
	return uint16(row/2 + 1)
}
