// Package hbrmt implements the SMPTE 2022-6 (HBRMT) RTP encapsulation of a
// packed 10-bit SDI frame: a fixed-size RTP header, an 8-byte HBRMT format
// header, then 1376-byte payload chunks.
package hbrmt

import "encoding/binary"

const (
	rtpVersion     = 2
	PayloadType    = 98
	rtpHeaderLen   = 12
	headerLen      = 8
	ChunkSize      = 1376
)

// rtpHeader is the 12-byte fixed RTP header (no CSRC, no extension — HBRMT
// never uses either).
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

// Frame-type codes carried in the HBRMT header's FRAME byte.
const (
	Frame480i    = 0x10
	Frame576i    = 0x11
	Frame1080i   = 0x20
	Frame1080p   = 0x21
	Frame1080PsF = 0x22
	Frame2K1080A = 0x23
	Frame2K1080B = 0x24
	Frame720p    = 0x30
)

// header is the 8-byte HBRMT format header following the RTP header.
type header struct {
	Ext                    uint8
	F                      uint8
	VSF                    uint8
	VSID                   uint8
	FRCount                uint8
	RefForTimeStamp        uint8
	VideoPayloadScrambling uint8
	FEC                    uint8
	CF                     uint8
	MAP                    uint8
	Frame                  uint8
	Frate                  uint8
	Sample                 uint8
	FMTReserve             uint8
}

func (h header) encode(buf []byte) {
	buf[0] = h.Ext<<4 | h.F<<2 | h.VSF
	buf[1] = h.VSID << 5
	buf[2] = h.FRCount
	buf[3] = h.RefForTimeStamp<<6 | h.VideoPayloadScrambling<<4 | h.FEC<<1
	buf[4] = h.CF<<4 | h.MAP
	buf[5] = h.Frame
	buf[6] = h.Frate
	buf[7] = h.Sample<<4 | h.FMTReserve
}

func decodeHeader(buf []byte) header {
	return header{
		Ext:                    buf[0] >> 4,
		F:                      (buf[0] >> 2) & 0x3,
		VSF:                    buf[0] & 0x3,
		VSID:                   buf[1] >> 5,
		FRCount:                buf[2],
		RefForTimeStamp:        buf[3] >> 6,
		VideoPayloadScrambling: (buf[3] >> 4) & 0x3,
		FEC:                    (buf[3] >> 1) & 0x7,
		CF:                     buf[4] >> 4,
		MAP:                    buf[4] & 0xf,
		Frame:                  buf[5],
		Frate:                  buf[6],
		Sample:                 buf[7] >> 4,
		FMTReserve:             buf[7] & 0xf,
	}
}
