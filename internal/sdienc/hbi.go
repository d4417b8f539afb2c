package sdienc

import (
	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/media"
	"github.com/mediabridge/sdiip/internal/sdiline"
)

// Audio-group DIDs mirror sdidec's: HD carries group 0 on 0xE7 descending,
// SD on FF/FD/FB/F9.
var audioGroupDIDsHD = [4]uint16{0xE7, 0xE6, 0xE5, 0xE4}
var audioGroupDIDsSD = [4]uint16{0xFF, 0xFD, 0xFB, 0xF9}

// fillHBI fills the horizontal blanking interval between the line-number/
// CRC words and the active payload: flat blanking by default, with the
// SMPTE 352 payload-ID packet, audio-control packets, and audio-data
// packets overlaid at their designated positions.
func (e *Encoder) fillHBI(line []uint16, ln int, f *geometry.Format, cursor *audioCursor) {
	hbiStart := sdiline.MarkerLen(f.HD())
	if f.HD() {
		hbiStart += 4
	}
	hbiEnd := f.ActiveOffset * 2
	for i := hbiStart; i+1 < hbiEnd; i += 2 {
		line[i], line[i+1] = hbiBlankU, hbiBlankY
	}

	cursorPos := hbiStart

	if ln == f.Picture.PayloadIDLine {
		cursorPos = e.emitPayloadID(line, cursorPos, hbiEnd)
	}

	switch {
	case ln == f.Picture.SwitchingLine+2:
		cursorPos = e.emitAudioControlPackets(line, cursorPos, hbiEnd)
	default:
		e.emitAudioDataPackets(line, cursorPos, hbiEnd, ln, f, cursor)
	}
}

// emitPayloadID writes the SMPTE 352 payload identifier ANC packet
// (DID 0x41, SDID 0x01) describing the active picture format.
func (e *Encoder) emitPayloadID(line []uint16, at, limit int) int {
	f := e.Format
	byte1 := f.PSFIdent<<6 | 0x01 // 4:2:2, 10-bit sample
	udw := []uint16{
		uint16(byte1),
		uint16(f.FrameRateCode),
		0x00, // aspect ratio / colorimetry, not modeled
		0x00,
	}
	pkt := sdiline.EncodePacket(0x41, 0x01, udw, f.HD())
	return writePacket(line, at, limit, pkt)
}

// emitAudioControlPackets writes the four audio-control packets (one per
// group) carried two lines after the switching line. Each carries the
// group's 13-bit clock phase and MPF bit; the phase itself is tracked by
// internal/media.AudioClock upstream, so the control packet here just
// reserves the slot with a zeroed phase field.
func (e *Encoder) emitAudioControlPackets(line []uint16, at, limit int) int {
	f := e.Format
	dids := audioGroupDIDsSD
	if f.HD() {
		dids = audioGroupDIDsHD
	}
	for _, did := range dids {
		udw := make([]uint16, 4)
		pkt := sdiline.EncodePacket(did, 0x00, udw, f.HD())
		var ok bool
		at, ok = writePacketChecked(line, at, limit, pkt)
		if !ok {
			break
		}
	}
	return at
}

// emitAudioDataPackets writes as many audio-data packets as needed so the
// cumulative audio sample count tracks samples*ln/full_height.
func (e *Encoder) emitAudioDataPackets(line []uint16, at, limit int, ln int, f *geometry.Format, cursor *audioCursor) {
	if cursor == nil {
		return
	}
	want := cursor.idealCount(ln, f.Height)
	dids := audioGroupDIDsSD
	if f.HD() {
		dids = audioGroupDIDsHD
	}
	for cursor.emitted < want {
		for group, did := range dids {
			samples, ok := cursor.next(group)
			if !ok {
				return
			}
			udw := encodeAudioUDW(samples)
			pkt := sdiline.EncodePacket(did, 0x00, udw, f.HD())
			var wrote bool
			at, wrote = writePacketChecked(line, at, limit, pkt)
			if !wrote {
				return
			}
		}
		cursor.advance()
	}
}

// encodeAudioUDW packs 4 channel samples into the 12-word user-data
// payload of an audio-data packet, 3 words per sample.
func encodeAudioUDW(samples [4]int32) []uint16 {
	udw := make([]uint16, 0, 12)
	for _, s := range samples {
		v := uint32(s) >> 12
		udw = append(udw, uint16(v&0xff), uint16((v>>8)&0xff), uint16((v>>16)&0xff))
	}
	return udw
}

func writePacket(line []uint16, at, limit int, pkt []uint16) int {
	at, _ = writePacketChecked(line, at, limit, pkt)
	return at
}

func writePacketChecked(line []uint16, at, limit int, pkt []uint16) (int, bool) {
	if at+len(pkt) > limit {
		return at, false
	}
	copy(line[at:], pkt)
	return at + len(pkt), true
}

// fillVBIOrVANC copies the leading words of the provided VBI (SD) or VANC
// (HD) sibling block into this blanking line's active-word region, when
// present. Every blanking line receives the same leading words: the block
// is not sliced per line, and no OP47 teletext line placement is done.
func (e *Encoder) fillVBIOrVANC(line []uint16, ln, field int, vbi, vanc *media.FrameUnit) {
	f := e.Format
	src := vanc
	if f.Picture.SD {
		src = vbi
	}
	if src == nil || len(src.Block) == 0 {
		return
	}
	words := bytesToWords(src.Block)
	start := f.ActiveOffset * 2
	copy(line[start:start+f.Picture.ActiveWidth*2], words)
}
