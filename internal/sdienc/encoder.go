// Package sdienc encodes a picture FrameUnit plus sibling audio/VANC/VBI
// FrameUnits into one SDI frame byte stream, the dual of sdidec.
package sdienc

import (
	"encoding/binary"

	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/media"
	"github.com/mediabridge/sdiip/internal/pixelcodec"
	"github.com/mediabridge/sdiip/internal/sdiline"
)

// InputPlanes selects how Picture.Planes is interpreted.
type InputPlanes int

const (
	InputV210 InputPlanes = iota
	InputPlanar8
	InputPlanar10
)

const hbiBlankU, hbiBlankY = 0x200, 0x040

// Encoder holds the per-stream state kept across frames: a DBN map, the
// Dolby-E line offset and the frame count. EncodeFrame reads neither the
// DBN map nor the line offset; ANC packets are written with a zero DBN.
type Encoder struct {
	Format *geometry.Format
	Input  InputPlanes

	dbn map[uint16]uint8

	// dolbyLineOffset is the guard-band line offset for Dolby-E non-PCM
	// audio: 32 for the 30000/1001 and 60000/1001 (NTSC) rate families,
	// 34 otherwise (PAL). It is set once by NewEncoder.
	dolbyLineOffset int

	frameCount int
}

// NewEncoder creates an Encoder bound to one geometry record.
func NewEncoder(format *geometry.Format, input InputPlanes) *Encoder {
	offset := 34
	if format.FPS.Num == 30000 || format.FPS.Num == 60000 {
		offset = 32
	}
	return &Encoder{Format: format, Input: input, dbn: map[uint16]uint8{}, dolbyLineOffset: offset}
}

// Input bundles the picture plus sibling FrameUnits one frame encode
// consumes.
type Input struct {
	Picture *media.FrameUnit
	Audio   *media.FrameUnit // S32 16-channel 48kHz interleaved, or nil for silence
	VANC    *media.FrameUnit
	VBI     *media.FrameUnit
}

// EncodeFrame renders one complete SDI frame: full_height lines of 2*width
// 16-bit little-endian samples.
func (e *Encoder) EncodeFrame(in Input) []byte {
	f := e.Format
	width := f.Width
	out := make([]byte, f.Height*width*2*2)
	uyvy := e.toUYVY(in.Picture)

	cursor := newAudioCursor(decodeAudioBlock(in.Audio), f)

	var prevCRC pixelcodec.CRCContext
	havePrevCRC := false

	for ln := 1; ln <= f.Height; ln++ {
		line := make([]uint16, width*2)
		field, vbi := lineField(f, ln)

		sdiline.WriteEAV(line[:sdiline.MarkerLen(f.HD())], f.HD(), field, vbi)

		if f.HD() {
			w0, w1 := sdiline.EncodeLineNumber(uint16(ln))
			base := sdiline.MarkerLen(true)
			line[base], line[base+1] = w0, w1

			if havePrevCRC {
				chroma, luma := prevCRC.FinalizeWords()
				line[base+2], line[base+3] = chroma, luma
			}
		}

		e.fillHBI(line, ln, f, cursor)

		if vbi {
			e.fillVBIOrVANC(line, ln, field, in.VBI, in.VANC)
		} else if row := activeRowIndex(f, ln, field); row >= 0 && row < f.Picture.ActiveHeight {
			start := f.ActiveOffset * 2
			copy(line[start:start+f.Picture.ActiveWidth*2], uyvy[row*f.Picture.ActiveWidth*2:])
		}

		savEnd := f.ActiveOffset * 2
		sdiline.WriteSAV(line[savEnd-sdiline.MarkerLen(f.HD()):savEnd], f.HD(), field, vbi)

		if f.HD() && !vbi {
			start := f.ActiveOffset * 2
			prevCRC.Reset()
			prevCRC.UpdateLine(line[start : start+f.Picture.ActiveWidth*2])
			havePrevCRC = true
		}

		lineOff := (ln - 1) * width * 2 * 2
		for i, w := range line {
			binary.LittleEndian.PutUint16(out[lineOff+i*2:], w)
		}
	}

	e.frameCount++
	return out
}

// lineField maps a wire line number to its (field, vbi) classification,
// the encode-side mirror of sdidec's lineField.
func lineField(f *geometry.Format, ln int) (field int, vbi bool) {
	p := f.Picture
	switch {
	case ln >= p.VBIF1Part1.Start && ln <= p.VBIF1Part1.End:
		return 0, true
	case ln >= p.ActiveF1.Start && ln <= p.ActiveF1.End:
		return 0, false
	case ln >= p.VBIF1Part2.Start && ln <= p.VBIF1Part2.End:
		return 0, true
	case ln >= p.VBIF2Part1.Start && ln <= p.VBIF2Part1.End:
		return 1, true
	case ln >= p.ActiveF2.Start && ln <= p.ActiveF2.End:
		return 1, false
	default:
		return 1, true
	}
}

// activeRowIndex is the encode-side inverse of sdidec's row mapping: given
// a wire line + field, which output-plane row supplies its active pixels.
func activeRowIndex(f *geometry.Format, ln, field int) int {
	p := f.Picture
	isNTSC := f.FPS.Num == 30000 || f.FPS.Num == 60000
	efField := field
	if isNTSC {
		efField = 1 - field
	}
	if efField == 0 {
		if ln < p.ActiveF1.Start || ln > p.ActiveF1.End {
			return -1
		}
		r := ln - p.ActiveF1.Start
		if p.FieldOffset != 0 {
			return r * 2
		}
		return r
	}
	if ln < p.ActiveF2.Start || ln > p.ActiveF2.End {
		return -1
	}
	r := ln - p.ActiveF2.Start
	return r*2 + 1
}

func (e *Encoder) toUYVY(pic *media.FrameUnit) []uint16 {
	f := e.Format
	w, h := f.Picture.ActiveWidth, f.Picture.ActiveHeight
	uyvy := make([]uint16, w*h*2)
	if pic == nil || len(pic.Planes) == 0 {
		return uyvy
	}
	switch e.Input {
	case InputPlanar8:
		pixelcodec.Planar8ToUYVY(pic.Planes[0].Data, pic.Planes[1].Data, pic.Planes[2].Data, uyvy)
	case InputPlanar10:
		y := bytesToWords(pic.Planes[0].Data)
		u := bytesToWords(pic.Planes[1].Data)
		v := bytesToWords(pic.Planes[2].Data)
		pixelcodec.Planar10ToUYVY(y, u, v, uyvy)
	default:
		pixelcodec.V210ToUYVY(pic.Planes[0].Data, uyvy)
	}
	return uyvy
}

func bytesToWords(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return out
}
