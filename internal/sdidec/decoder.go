// Package sdidec decodes one SDI frame's worth of 2x-width 16-bit samples
// into a picture FrameUnit plus VANC/VBI/audio sibling FrameUnits.
package sdidec

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/media"
	"github.com/mediabridge/sdiip/internal/pixelcodec"
	"github.com/mediabridge/sdiip/internal/sdiline"
)

// OutputPlanes selects the picture FrameUnit's plane layout.
type OutputPlanes int

const (
	OutputV210 OutputPlanes = iota
	OutputPlanar8
	OutputPlanar10
)

// Decoder holds the per-stream state that must persist across frames: ANC
// data-block-number sequencing and S337 non-PCM pair detection.
type Decoder struct {
	Format  *geometry.Format
	Output  OutputPlanes
	Log     *slog.Logger

	dbn  map[uint16]uint8
	s337 [8]sdiline.S337State

	frameCount int
}

// NewDecoder creates a Decoder bound to one geometry record.
func NewDecoder(format *geometry.Format, output OutputPlanes, log *slog.Logger) *Decoder {
	if log == nil {
		log = slog.Default()
	}
	return &Decoder{Format: format, Output: output, Log: log, dbn: map[uint16]uint8{}}
}

// Result bundles the four FrameUnits one frame decode produces.
type Result struct {
	Picture *media.FrameUnit
	VANC    *media.FrameUnit
	VBI     *media.FrameUnit
	Audio   *media.FrameUnit

	Discontinuity bool
}

// DecodeFrame walks every line of raw (full_height lines of 2*width 16-bit
// little-endian samples), assembling the picture plane(s), ANC sibling
// buffers, and 16-channel 48kHz S32 audio. A line whose EAV F/V/H word is
// not recognised is skipped (its picture row stays zero) and marks the
// result as a discontinuity; an ANC packet failing its checksum is
// dropped, and line-number or CRC mismatches are only logged. The frame is
// still emitted.
func (d *Decoder) DecodeFrame(raw []byte) (*Result, error) {
	f := d.Format
	width := f.Width
	wantBytes := f.Height * width * 2 * 2
	if len(raw) < wantBytes {
		return nil, fmt.Errorf("sdidec: short frame: got %d bytes want %d", len(raw), wantBytes)
	}

	line := make([]uint16, width*2)
	uyvy := make([]uint16, f.Picture.ActiveWidth*2*f.Picture.ActiveHeight)
	var vanc, vbi []uint16
	audio := newAudioAssembler()

	var prevCRC pixelcodec.CRCContext
	var havePrevCRC bool
	disc := false

	for ln := 1; ln <= f.Height; ln++ {
		off := (ln - 1) * width * 2 * 2
		decodeSamples(raw[off:off+width*2*2], line)

		field, isVBI, ok := d.classifyLine(ln, line)
		if !ok {
			d.Log.Warn("sdidec: bad EAV/SAV on line", "line", ln)
			disc = true
			continue
		}

		if f.HD() {
			if !d.validateLineNumber(ln, line) {
				d.Log.Warn("sdidec: line-number parity mismatch", "line", ln)
			}
			if havePrevCRC {
				d.validateCRC(ln, line, &prevCRC)
			}
			havePrevCRC = false
		}

		ancStart := sdiline.MarkerLen(f.HD())
		if f.HD() {
			ancStart += 4 // line-number (2 words) + CRC (2 words)
		}
		if ancStart < f.ActiveOffset*2 {
			d.parseANC(line[ancStart:f.ActiveOffset*2], f.HD(), audio)
		}

		if isVBI {
			if f.Picture.SD {
				vbi = append(vbi, line...)
			} else {
				vanc = append(vanc, line...)
			}
			continue
		}

		row := activeRowIndex(f, ln, field)
		if row < 0 || row >= f.Picture.ActiveHeight {
			continue
		}
		start := f.ActiveOffset * 2
		if start+f.Picture.ActiveWidth*2 > len(line) {
			d.Log.Warn("sdidec: active region overruns line buffer", "line", ln)
			continue
		}
		activeSamples := line[start : start+f.Picture.ActiveWidth*2]
		copy(uyvy[row*f.Picture.ActiveWidth*2:], activeSamples)

		if f.HD() {
			prevCRC.Reset()
			prevCRC.UpdateLine(activeSamples)
			havePrevCRC = true
		}

		d.feedS337(audio)
	}

	pic := d.buildPicture(uyvy)
	res := &Result{
		Picture:       pic,
		Audio:         audio.finish(f.FPS, d.frameCount),
		Discontinuity: disc,
	}
	d.frameCount++
	if len(vanc) > 0 {
		res.VANC = media.NewBlock(wordsToBytes(vanc))
	}
	if len(vbi) > 0 {
		res.VBI = media.NewBlock(wordsToBytes(vbi))
	}
	return res, nil
}

func decodeSamples(b []byte, dst []uint16) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
}

func wordsToBytes(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		binary.LittleEndian.PutUint16(out[i*2:], w)
	}
	return out
}

// classifyLine reads the F/V/H control word carried in the line's EAV and
// returns which field it belongs to and whether it falls in blanking.
func (d *Decoder) classifyLine(ln int, line []uint16) (field int, vbi bool, ok bool) {
	markerLen := sdiline.MarkerLen(d.Format.HD())
	fvh := line[markerLen-1]
	field, vbi, isEAV, ok := sdiline.FVHField(fvh)
	_ = isEAV
	return field, vbi, ok
}

func (d *Decoder) validateLineNumber(ln int, line []uint16) bool {
	base := sdiline.MarkerLen(d.Format.HD())
	if base+2 > len(line) {
		return false
	}
	w0, w1 := line[base], line[base+1]
	got, ok := sdiline.DecodeLineNumber(w0, w1)
	return ok && int(got) == ln
}

// validateCRC compares the two 10-bit CRC words (chroma then luma) at
// samples 10-11 of this line, after the EAV and the two line-number words,
// against the finalized running CRC of the previous active line. A
// mismatch is logged, never fatal.
func (d *Decoder) validateCRC(ln int, line []uint16, prev *pixelcodec.CRCContext) {
	crcWordOffset := sdiline.MarkerLen(true) + 2 // EAV + line-number words
	if crcWordOffset+2 > len(line) {
		return
	}
	wantChroma, wantLuma := prev.FinalizeWords()
	gotChroma, gotLuma := line[crcWordOffset]&0x3ff, line[crcWordOffset+1]&0x3ff
	if gotChroma != wantChroma || gotLuma != wantLuma {
		d.Log.Warn("sdidec: CRC mismatch", "line", ln, "want_chroma", wantChroma, "got_chroma", gotChroma,
			"want_luma", wantLuma, "got_luma", gotLuma)
	}
}

// activeRowIndex maps a wire line number + field to an output plane row.
// NTSC (30000/1001, 60000/1001) is bottom-field-first: field indices are
// swapped relative to the table's nominal field-1/field-2 ordering.
func activeRowIndex(f *geometry.Format, ln, field int) int {
	p := f.Picture
	isNTSC := f.FPS.Num == 30000 || f.FPS.Num == 60000
	if isNTSC {
		field = 1 - field
	}
	if field == 0 {
		if ln < p.ActiveF1.Start || ln > p.ActiveF1.End {
			return -1
		}
		row := ln - p.ActiveF1.Start
		if p.FieldOffset != 0 {
			return row * 2
		}
		return row
	}
	if ln < p.ActiveF2.Start || ln > p.ActiveF2.End {
		return -1
	}
	row := ln - p.ActiveF2.Start
	return row*2 + 1
}

func (d *Decoder) buildPicture(uyvy []uint16) *media.FrameUnit {
	f := d.Format
	w, h := f.Picture.ActiveWidth, f.Picture.ActiveHeight
	switch d.Output {
	case OutputPlanar8:
		y := make([]uint8, w*h)
		u := make([]uint8, w*h/2)
		v := make([]uint8, w*h/2)
		pixelcodec.UYVYToPlanar8(uyvy, y, u, v)
		return media.NewPicture([]media.Plane{{Data: y, Stride: w}, {Data: u, Stride: w / 2}, {Data: v, Stride: w / 2}})
	case OutputPlanar10:
		y := make([]uint16, w*h)
		u := make([]uint16, w*h/2)
		v := make([]uint16, w*h/2)
		pixelcodec.UYVYToPlanar10(uyvy, y, u, v)
		return media.NewPicture([]media.Plane{
			{Data: wordsToBytes(y), Stride: w * 2},
			{Data: wordsToBytes(u), Stride: w},
			{Data: wordsToBytes(v), Stride: w},
		})
	default:
		stride := w * 8 / 3
		v210 := make([]byte, stride*h)
		pixelcodec.UYVYToV210(uyvy, v210)
		return media.NewPicture([]media.Plane{{Data: v210, Stride: stride}})
	}
}

func (d *Decoder) feedS337(a *audioAssembler) {
	for pair := 0; pair < len(d.s337); pair++ {
		sample, ok := a.lastPairSample(pair)
		if !ok {
			continue
		}
		changed, active, wl := d.s337[pair].Feed(sample)
		if changed {
			d.Log.Info("sdidec: s337 state change", "pair", pair, "active", active, "word_len", wl)
		}
	}
}
