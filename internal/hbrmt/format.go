package hbrmt

import (
	"fmt"

	"github.com/mediabridge/sdiip/internal/geometry"
)

// frateTable maps the HBRMT FRATE byte to a frame rate. Reserved codes
// (0x13, 0x19) are intentionally absent.
var frateTable = map[uint8]geometry.Rational{
	0x10: {Num: 60, Den: 1},
	0x11: {Num: 60000, Den: 1001},
	0x12: {Num: 50, Den: 1},
	0x14: {Num: 48, Den: 1},
	0x15: {Num: 48000, Den: 1001},
	0x16: {Num: 30, Den: 1},
	0x17: {Num: 30000, Den: 1001},
	0x18: {Num: 25, Den: 1},
	0x1a: {Num: 24, Den: 1},
	0x1b: {Num: 24000, Den: 1001},
}

func frateToFPS(code uint8) (geometry.Rational, bool) {
	fps, ok := frateTable[code]
	return fps, ok
}

func fpsToFrate(fps geometry.Rational) (uint8, bool) {
	for code, f := range frateTable {
		if f.Cmp(fps) {
			return code, true
		}
	}
	return 0, false
}

// frameDims maps the HBRMT FRAME byte to active picture dimensions and
// scan mode.
func frameDims(code uint8) (width, height int, progressive, ok bool) {
	switch code {
	case Frame480i:
		return 720, 480, false, true
	case Frame576i:
		return 720, 576, false, true
	case Frame1080i, Frame1080PsF:
		return 1920, 1080, false, true
	case Frame1080p:
		return 1920, 1080, true, true
	case Frame2K1080A, Frame2K1080B:
		return 2048, 1080, false, true
	case Frame720p:
		return 1280, 720, true, true
	default:
		return 0, 0, false, false
	}
}

func frameCodeFor(f *geometry.Format) (uint8, error) {
	p := f.Picture
	switch {
	case p.ActiveWidth == 1920 && p.ActiveHeight == 1080 && f.HD() && p.FieldOffset == 0:
		return Frame1080p, nil
	case p.ActiveWidth == 1920 && p.ActiveHeight == 1080:
		return Frame1080i, nil
	case p.ActiveWidth == 720 && p.ActiveHeight == 576:
		return Frame576i, nil
	case p.ActiveWidth == 720 && p.ActiveHeight == 480:
		return Frame480i, nil
	default:
		return 0, fmt.Errorf("hbrmt: no FRAME code for %dx%d", p.ActiveWidth, p.ActiveHeight)
	}
}

// frameByteLen is the packed-10 byte size of one complete SDI frame: every
// line carries width*2 10-bit samples, packed 4 samples to 5 bytes.
func frameByteLen(f *geometry.Format) int {
	samples := f.Width * f.Height * 2
	return samples * 10 / 8
}
