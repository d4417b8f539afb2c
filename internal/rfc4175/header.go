// Package rfc4175 implements the RFC 4175 RTP payload format for
// uncompressed 4:2:2 10-bit video: packetizer and depacketizer, pgroup
// packing shared with internal/pixelcodec's SDI10 codec since both wire
// formats use the same 4-sample/5-byte packing.
package rfc4175

import "encoding/binary"

const (
	rtpVersion   = 2
	PayloadType  = 103
	rtpHeaderLen = 12
	extSeqLen    = 2
	lineHeaderLen = 6
	mtu           = 1500
	pgroupBytes   = 15
	pgroupPixels  = 6
)

type rtpHeader struct {
	Marker     bool
	PacketType uint8
	Sequence   uint16
	Timestamp  uint32
	SSRC       uint32
}

func (h rtpHeader) encode(buf []byte) {
	buf[0] = rtpVersion << 6
	pt := h.PacketType & 0x7f
	if h.Marker {
		pt |= 0x80
	}
	buf[1] = pt
	binary.BigEndian.PutUint16(buf[2:4], h.Sequence)
	binary.BigEndian.PutUint32(buf[4:8], h.Timestamp)
	binary.BigEndian.PutUint32(buf[8:12], h.SSRC)
}

func decodeRTPHeader(buf []byte) rtpHeader {
	return rtpHeader{
		Marker:     buf[1]&0x80 != 0,
		PacketType: buf[1] & 0x7f,
		Sequence:   binary.BigEndian.Uint16(buf[2:4]),
		Timestamp:  binary.BigEndian.Uint32(buf[4:8]),
		SSRC:       binary.BigEndian.Uint32(buf[8:12]),
	}
}

// lineHeader is one 6-byte RFC 4175 line header: length in bytes, field id
// plus line number (bit 15 of word 2), continuation flag plus pixel
// offset (bit 15 of word 3).
type lineHeader struct {
	Length       uint16
	Field        uint8
	LineNumber   uint16
	Continuation bool
	Offset       uint16
}

func (h lineHeader) encode(buf []byte) {
	binary.BigEndian.PutUint16(buf[0:2], h.Length)
	w1 := h.LineNumber & 0x7fff
	if h.Field != 0 {
		w1 |= 0x8000
	}
	binary.BigEndian.PutUint16(buf[2:4], w1)
	w2 := h.Offset & 0x7fff
	if h.Continuation {
		w2 |= 0x8000
	}
	binary.BigEndian.PutUint16(buf[4:6], w2)
}

func decodeLineHeader(buf []byte) lineHeader {
	w1 := binary.BigEndian.Uint16(buf[2:4])
	w2 := binary.BigEndian.Uint16(buf[4:6])
	h := lineHeader{
		Length:     binary.BigEndian.Uint16(buf[0:2]),
		LineNumber: w1 & 0x7fff,
		Offset:     w2 & 0x7fff,
	}
	if w1&0x8000 != 0 {
		h.Field = 1
	}
	h.Continuation = w2&0x8000 != 0
	return h
}
