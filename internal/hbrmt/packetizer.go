package hbrmt

import (
	"github.com/mediabridge/sdiip/internal/geometry"
)

const ninetyKHz = 90000

// Packetizer cuts packed-10 SDI frame payloads into HBRMT/RTP packets.
// One Packetizer is bound to a single geometry for its lifetime; sequence
// number and frame/RTP timestamp are monotone across frames.
type Packetizer struct {
	Format *geometry.Format
	SSRC   uint32

	seq        uint16
	frameCount uint32
}

// NewPacketizer creates a Packetizer for one geometry record.
func NewPacketizer(f *geometry.Format, ssrc uint32) *Packetizer {
	return &Packetizer{Format: f, SSRC: ssrc}
}

// PacketizeFrame cuts one frame's packed-10 payload into wire packets. The
// final chunk is zero-padded to ChunkSize if short.
func (p *Packetizer) PacketizeFrame(payload []byte) ([][]byte, error) {
	frameCode, err := frameCodeFor(p.Format)
	if err != nil {
		return nil, err
	}
	frate, ok := fpsToFrate(p.Format.FPS)
	if !ok {
		frate = 0
	}

	numChunks := (len(payload) + ChunkSize - 1) / ChunkSize
	if numChunks == 0 {
		numChunks = 1
	}
	frameTicks := uint32(ninetyKHz * p.Format.FPS.Den / p.Format.FPS.Num)
	perChunkTicks := frameTicks / uint32(numChunks)

	out := make([][]byte, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := i * ChunkSize
		end := start + ChunkSize
		chunk := make([]byte, ChunkSize)
		if end > len(payload) {
			end = len(payload)
		}
		copy(chunk, payload[start:end])

		pkt := make([]byte, rtpHeaderLen+headerLen+ChunkSize)
		rh := rtpHeader{
			Marker:     i == numChunks-1,
			PacketType: PayloadType,
			Sequence:   p.seq,
			Timestamp:  p.frameCount*frameTicks + uint32(i)*perChunkTicks,
			SSRC:       p.SSRC,
		}
		rh.encode(pkt[:rtpHeaderLen])

		hh := header{
			FRCount: uint8(p.frameCount),
			Frame:   frameCode,
			Frate:   frate,
			Sample:  1, // 4:2:2 10-bit
		}
		hh.encode(pkt[rtpHeaderLen : rtpHeaderLen+headerLen])

		copy(pkt[rtpHeaderLen+headerLen:], chunk)
		out = append(out, pkt)

		p.seq++
	}

	p.frameCount++
	return out, nil
}
